package tbf

import "encoding/binary"

// Checksum computes the TBF header checksum over buffer.
//
// The buffer is zero-padded to a multiple of 4 bytes, read as a sequence of
// little-endian 32-bit words, and folded with XOR into a single value. The
// checksum stored in a header does not cover itself: callers validating a
// header must zero the 4-byte checksum field in a copy of the header bytes
// before computing.
func Checksum(buffer []byte) uint32 {
	var checksum uint32

	whole := len(buffer) - len(buffer)%4
	for i := 0; i < whole; i += 4 {
		checksum ^= binary.LittleEndian.Uint32(buffer[i:])
	}

	// Zero-pad a trailing partial word.
	if whole < len(buffer) {
		var last [4]byte
		copy(last[:], buffer[whole:])
		checksum ^= binary.LittleEndian.Uint32(last[:])
	}

	return checksum
}
