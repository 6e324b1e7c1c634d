// Package rtp provides the RTP and RTCP side of the VP8 bridge.
//
// It sends VP8 frames as RTP packets and requests keyframes from remote
// encoders with RTCP Full Intra Request (FIR, RFC 5104) messages. It uses
// pion/rtp for RTP headers and pion/rtcp for the FIR wire format.
//
// # Architecture Overview
//
//   - Session: one outbound VP8 stream to a peer, with statistics
//   - Bridge: registry of sessions over a transport.Transport
//   - FeedbackSequencer: FIR command sequence numbers per sender/target pair
//   - FeedbackDispatcher: builds FIRs and routes them to streams
//
// # Sessions
//
//	bridge, err := rtp.NewBridge(tr, rtp.WithLocalSSRC(0x1234))
//	session, err := bridge.CreateSession(streamID, remoteAddr)
//	err = session.SendVideoFrame(encoded, 3000) // 30fps at 90kHz
//
// # Keyframe Requests
//
// The dispatcher offers three ways to send a FIR:
//
//	d := bridge.Dispatcher()
//	d.SendFIR(session, mediaSSRC)            // one stream
//	d.SendFIRToMany(session, []uint32{a, b}) // several media sources, one stream
//	d.BroadcastFIR(mediaSSRC)                // every registered stream
//
// All three return false when the bridge has no local SSRC. Sends are
// attempted once; there is no retry.
//
// Each (local SSRC, media SSRC) pair has its own counter. The first FIR for a
// pair carries sequence number 0 and each further FIR adds one. Only the low
// 8 bits go on the wire, so the field wraps after 255.
//
// # Known Inefficiency
//
// BroadcastFIR exists because incoming streams do not say which remote
// sources they carry. A FIR for one media source is therefore sent to every
// peer, most of which ignore it. The bridge also broadcasts automatically
// when it sees a sequence gap on an incoming stream.
//
// # Thread Safety
//
// Session, Bridge, FeedbackSequencer and FeedbackDispatcher are safe for
// concurrent use. No lock is held while a FIR is written to the transport.
package rtp
