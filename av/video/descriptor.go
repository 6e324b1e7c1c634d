package video

// VP8 payload descriptor bits of the required first octet (RFC 7741 §4.2):
//
//	 0 1 2 3 4 5 6 7
//	+-+-+-+-+-+-+-+-+
//	|X|R|N|S|R| PID |
//	+-+-+-+-+-+-+-+-+
const (
	DescriptorExtendedBit  byte = 0x80
	DescriptorNonRefBit    byte = 0x20
	DescriptorStartBit     byte = 0x10
	DescriptorPartitionIDs byte = 0x07
)

// EncodeDescriptor builds the one byte VP8 payload descriptor used by this
// packetizer. Only the S bit varies; X, N and the partition index are always
// zero, so no extended fields follow.
func EncodeDescriptor(isFirst bool) byte {
	var b byte
	if isFirst {
		b |= DescriptorStartBit
	}
	return b
}

// IsStartOfPartition reports whether the S bit is set in a descriptor octet.
func IsStartOfPartition(descriptor byte) bool {
	return descriptor&DescriptorStartBit != 0
}
