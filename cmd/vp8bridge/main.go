// Command vp8bridge runs a VP8 media bridge endpoint: it exchanges RTP with
// the configured peers over UDP and requests keyframes with RTCP FIR when an
// incoming stream loses packets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/vp8bridge/av/rtp"
	"github.com/opd-ai/vp8bridge/config"
	"github.com/opd-ai/vp8bridge/metrics"
	"github.com/opd-ai/vp8bridge/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := cfg.Logging.ApplyLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logging: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Fatal("Bridge failed")
	}
}

func run(cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	udp, err := transport.NewUDPTransport(cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to open transport: %w", err)
	}
	defer udp.Close()

	opts := []rtp.BridgeOption{
		rtp.WithMetrics(m),
		rtp.WithSessionConfig(rtp.SessionConfig{
			PayloadType: cfg.Bridge.PayloadType,
			ClockRate:   cfg.Bridge.ClockRate,
		}),
		rtp.WithKeyframeRequestHandler(func(streamID, mediaSSRC uint32) {
			logrus.WithFields(logrus.Fields{
				"function":   "run",
				"stream_id":  streamID,
				"media_ssrc": mediaSSRC,
			}).Info("Peer requested a keyframe")
		}),
	}
	if cfg.Bridge.LocalSSRC != nil {
		opts = append(opts, rtp.WithLocalSSRC(*cfg.Bridge.LocalSSRC))
	}

	bridge, err := rtp.NewBridge(udp, opts...)
	if err != nil {
		return fmt.Errorf("failed to create bridge: %w", err)
	}
	defer bridge.Close()

	for _, peer := range cfg.Peers {
		addr, err := net.ResolveUDPAddr("udp", peer.Address)
		if err != nil {
			return fmt.Errorf("failed to resolve peer %d: %w", peer.StreamID, err)
		}
		if _, err := bridge.CreateSession(peer.StreamID, addr); err != nil {
			return err
		}
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithFields(logrus.Fields{
					"function": "run",
					"address":  cfg.Metrics.Address,
					"error":    err.Error(),
				}).Error("Metrics server failed")
			}
		}()
	}

	logrus.WithFields(logrus.Fields{
		"function":   "run",
		"listen":     udp.LocalAddr().String(),
		"peers":      len(cfg.Peers),
		"metrics_on": cfg.Metrics.Enabled,
	}).Info("Bridge started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	logrus.WithFields(logrus.Fields{
		"function": "run",
		"signal":   sig.String(),
	}).Info("Shutting down")

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "run",
				"error":    err.Error(),
			}).Warn("Error stopping metrics server")
		}
	}

	return nil
}
