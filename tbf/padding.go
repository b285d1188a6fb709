package tbf

import "encoding/binary"

// NewPaddingHeader builds a padding-only version 2 header spanning size
// bytes of flash. Applications are packed as a linked list of TBF objects;
// padding headers fill the gap between applications while preserving that
// structure. The header carries no TLVs and no flags and is always valid.
func NewPaddingHeader(size uint32, opts ...Option) *Header {
	cfg := newConfig(opts)

	h := &Header{
		Version: 2,
		V2: &V2Fields{
			HeaderSize: v2BaseSize,
			TotalSize:  size,
		},
		valid: true,
		log:   cfg.logger,
	}

	// Pack computes the checksum over the 16-byte record with a zeroed
	// checksum field; store what it produced.
	h.V2.Checksum = binary.LittleEndian.Uint32(h.Pack()[v2ChecksumOffset:])
	return h
}
