package tbf

import "testing"

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint32
	}{
		{
			name:     "empty buffer",
			data:     []byte{},
			expected: 0,
		},
		{
			name:     "single word",
			data:     []byte{0x01, 0x00, 0x00, 0x00},
			expected: 0x00000001,
		},
		{
			name:     "two words xor",
			data:     []byte{0x01, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00},
			expected: 0x00000002,
		},
		{
			name:     "trailing partial word is zero padded",
			data:     []byte{0x01, 0x02},
			expected: 0x00000201,
		},
		{
			name: "padding header base record",
			// version=2, headerSize=16, totalSize=512, flags=0, checksum=0
			data: []byte{
				0x02, 0x00, 0x10, 0x00,
				0x00, 0x02, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
			},
			expected: 0x00100202,
		},
		{
			name:     "identical words cancel",
			data:     []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xAA, 0xBB, 0xCC, 0xDD},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Checksum(tt.data)
			if result != tt.expected {
				t.Errorf("Checksum() = %#x, want %#x", result, tt.expected)
			}
		})
	}
}

func TestChecksumDeterminism(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04}
	if Checksum(data) != Checksum(data) {
		t.Fatal("Checksum() is not deterministic")
	}
}

func TestChecksumBitFlip(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04}
	base := Checksum(data)

	// Flipping any single bit of an XOR fold always changes the result.
	for i := range data {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), data...)
			flipped[i] ^= 1 << bit
			if Checksum(flipped) == base {
				t.Errorf("flipping byte %d bit %d did not change the checksum", i, bit)
			}
		}
	}
}
