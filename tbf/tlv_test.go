package tbf

import (
	"bytes"
	"testing"

	"github.com/coreos/go-semver/semver"
)

func TestMainParsePack(t *testing.T) {
	// initFnOffset=0x20, protectedSize=0, minimumRAMSize=0x400
	payload := []byte{
		0x20, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x04, 0x00, 0x00,
	}

	tlv := parseMain(payload)
	if !tlv.IsValid() {
		t.Fatal("expected valid Main TLV")
	}
	if tlv.InitFnOffset != 0x20 || tlv.ProtectedSize != 0 || tlv.MinimumRAMSize != 0x400 {
		t.Fatalf("unexpected fields: %+v", tlv)
	}

	want := append([]byte{0x01, 0x00, 0x0C, 0x00}, payload...)
	got := tlv.Pack()
	if !bytes.Equal(got, want) {
		t.Errorf("Pack() = %x, want %x", got, want)
	}
	if tlv.Size() != 16 {
		t.Errorf("Size() = %d, want 16", tlv.Size())
	}
}

func TestMainInvalidPayloadRoundTrips(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	tlv := parseMain(payload)
	if tlv.IsValid() {
		t.Fatal("expected invalid Main TLV for 8-byte payload")
	}

	want := append([]byte{0x01, 0x00, 0x08, 0x00}, payload...)
	if got := tlv.Pack(); !bytes.Equal(got, want) {
		t.Errorf("Pack() = %x, want %x", got, want)
	}
}

func TestProgramParsePack(t *testing.T) {
	payload := make([]byte, 20)
	copy(payload, []byte{
		0x40, 0x00, 0x00, 0x00, // init_fn_offset
		0x10, 0x00, 0x00, 0x00, // protected_size
		0x00, 0x08, 0x00, 0x00, // minimum_ram_size
		0x00, 0x10, 0x00, 0x00, // binary_end_offset
		0x03, 0x00, 0x00, 0x00, // app_version
	})

	tlv := parseProgram(payload)
	if !tlv.IsValid() {
		t.Fatal("expected valid Program TLV")
	}
	if tlv.BinaryEndOffset != 0x1000 || tlv.AppVersion != 3 {
		t.Fatalf("unexpected fields: %+v", tlv)
	}

	want := append([]byte{0x09, 0x00, 0x14, 0x00}, payload...)
	if got := tlv.Pack(); !bytes.Equal(got, want) {
		t.Errorf("Pack() = %x, want %x", got, want)
	}
}

func TestPackageNamePadding(t *testing.T) {
	tests := []struct {
		name       string
		pkg        string
		wantLength uint16
		wantSize   int
	}{
		{name: "aligned name", pkg: "blink", wantLength: 5, wantSize: 12},
		{name: "exact multiple", pkg: "sensor99", wantLength: 8, wantSize: 12},
		{name: "one byte", pkg: "x", wantLength: 1, wantSize: 8},
		{name: "empty", pkg: "", wantLength: 0, wantSize: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tlv := &PackageName{Name: tt.pkg}
			packed := tlv.Pack()

			if len(packed) != tt.wantSize {
				t.Fatalf("len(Pack()) = %d, want %d", len(packed), tt.wantSize)
			}
			// The declared length is the unpadded payload length.
			declared := uint16(packed[2]) | uint16(packed[3])<<8
			if declared != tt.wantLength {
				t.Errorf("declared length = %d, want %d", declared, tt.wantLength)
			}
			// Padding bytes are zero.
			for i := 4 + int(tt.wantLength); i < len(packed); i++ {
				if packed[i] != 0 {
					t.Errorf("padding byte %d = %#x, want 0", i, packed[i])
				}
			}

			reparsed := parsePackageName(packed[4 : 4+tt.wantLength])
			if reparsed.Name != tt.pkg {
				t.Errorf("reparsed name = %q, want %q", reparsed.Name, tt.pkg)
			}
		})
	}
}

func TestWriteableFlashRegions(t *testing.T) {
	payload := []byte{
		0x00, 0x10, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00,
		0x00, 0x20, 0x00, 0x00, 0x00, 0x08, 0x00, 0x00,
	}

	tlv := parseWriteableFlashRegions(payload)
	if !tlv.IsValid() {
		t.Fatal("expected valid TLV for 16-byte payload")
	}
	if len(tlv.Regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(tlv.Regions))
	}
	if tlv.Regions[0] != (WriteableFlashRegion{Offset: 0x1000, Length: 0x400}) {
		t.Errorf("unexpected region 0: %+v", tlv.Regions[0])
	}
	if tlv.Regions[1] != (WriteableFlashRegion{Offset: 0x2000, Length: 0x800}) {
		t.Errorf("unexpected region 1: %+v", tlv.Regions[1])
	}

	want := append([]byte{0x02, 0x00, 0x10, 0x00}, payload...)
	if got := tlv.Pack(); !bytes.Equal(got, want) {
		t.Errorf("Pack() = %x, want %x", got, want)
	}
}

func TestWriteableFlashRegionsInvalidLength(t *testing.T) {
	payload := make([]byte, 12) // not a multiple of 8

	tlv := parseWriteableFlashRegions(payload)
	if tlv.IsValid() {
		t.Fatal("expected invalid TLV for 12-byte payload")
	}

	want := append([]byte{0x02, 0x00, 0x0C, 0x00}, payload...)
	if got := tlv.Pack(); !bytes.Equal(got, want) {
		t.Errorf("Pack() = %x, want %x", got, want)
	}
}

func TestFixedAddressParsePack(t *testing.T) {
	payload := []byte{
		0x00, 0x00, 0x00, 0x20, // ram
		0x00, 0x80, 0x03, 0x00, // flash
	}

	tlv := parseFixedAddress(payload)
	if !tlv.IsValid() {
		t.Fatal("expected valid FixedAddress TLV")
	}
	if tlv.RAM != 0x20000000 || tlv.Flash != 0x38000 {
		t.Fatalf("unexpected fields: %+v", tlv)
	}

	want := append([]byte{0x05, 0x00, 0x08, 0x00}, payload...)
	if got := tlv.Pack(); !bytes.Equal(got, want) {
		t.Errorf("Pack() = %x, want %x", got, want)
	}
}

func TestKernelVersion(t *testing.T) {
	payload := []byte{0x02, 0x00, 0x00, 0x00} // ^2.0

	tlv := parseKernelVersion(payload)
	if !tlv.IsValid() {
		t.Fatal("expected valid KernelVersion TLV")
	}
	if tlv.Major != 2 || tlv.Minor != 0 {
		t.Fatalf("unexpected version: %d.%d", tlv.Major, tlv.Minor)
	}

	if got := tlv.Required(); got != (semver.Version{Major: 2}) {
		t.Errorf("Required() = %v, want 2.0.0", got)
	}

	compat := []struct {
		kernel semver.Version
		want   bool
	}{
		{semver.Version{Major: 2}, true},
		{semver.Version{Major: 2, Minor: 5}, true},
		{semver.Version{Major: 3}, false},
		{semver.Version{Major: 1, Minor: 9}, false},
	}
	for _, tt := range compat {
		if got := tlv.Compatible(tt.kernel); got != tt.want {
			t.Errorf("Compatible(%v) = %v, want %v", tt.kernel, got, tt.want)
		}
	}

	want := append([]byte{0x08, 0x00, 0x04, 0x00}, payload...)
	if got := tlv.Pack(); !bytes.Equal(got, want) {
		t.Errorf("Pack() = %x, want %x", got, want)
	}
}

func TestUnknownTLVPadsToWordBoundary(t *testing.T) {
	tlv := &Unknown{Type: 0x30, Payload: []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}}

	packed := tlv.Pack()
	want := []byte{
		0x30, 0x00, 0x05, 0x00,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(packed, want) {
		t.Errorf("Pack() = %x, want %x", packed, want)
	}
	if tlv.Size() != 12 {
		t.Errorf("Size() = %d, want 12", tlv.Size())
	}
}
