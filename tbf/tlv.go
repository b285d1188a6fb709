package tbf

import "encoding/binary"

// TLV type identifiers defined for TBF headers.
const (
	// TypeMain identifies the Main TLV (application entry information)
	TypeMain uint16 = 0x01

	// TypeWriteableFlashRegions identifies the writeable flash regions TLV
	TypeWriteableFlashRegions uint16 = 0x02

	// TypePackageName identifies the package name TLV
	TypePackageName uint16 = 0x03

	// TypePicOption1 identifies the C-style PIC option TLV
	TypePicOption1 uint16 = 0x04

	// TypeFixedAddress identifies the fixed RAM/flash address TLV
	TypeFixedAddress uint16 = 0x05

	// TypeKernelVersion identifies the required kernel version TLV
	TypeKernelVersion uint16 = 0x08

	// TypeProgram identifies the Program TLV, a superset of Main that adds
	// the binary end offset and application version
	TypeProgram uint16 = 0x09
)

// Fixed payload lengths for the TLVs that have one.
const (
	mainLength          = 12
	programLength       = 20
	picOption1Length    = 40
	fixedAddressLength  = 8
	kernelVersionLength = 4
)

// TLV is a single type-length-value entry in a TBF header or footer.
//
// Known header TLV types are decoded into dedicated record types; an
// unrecognized type is preserved as an Unknown record so the header still
// round-trips byte for byte.
type TLV interface {
	// TLVID returns the 16-bit TLV type identifier
	TLVID() uint16

	// Pack returns the serialized TLV: the 4-byte type/length prefix
	// followed by the payload, zero-padded to a 4-byte boundary
	Pack() []byte

	// Size returns the serialized size in bytes, including the prefix
	// and any alignment padding
	Size() int
}

// fieldSetter is implemented by record types whose fields can be modified
// by name through Header.ModifyTLV.
type fieldSetter interface {
	setField(name string, value uint32) bool
}

// validator is implemented by record types that can fail to parse. A
// not-valid record keeps its position for round-trip only; queries and
// mutators treat it as absent.
type validator interface {
	IsValid() bool
}

// roundUp4 rounds n up to the next multiple of 4.
func roundUp4(n int) int {
	return (n + 3) &^ 3
}

// packTLV serializes a type/length prefix and payload, zero-padding the
// result to a 4-byte boundary. The length written to the prefix is the
// unpadded payload length.
func packTLV(id uint16, payload []byte) []byte {
	out := make([]byte, 4+roundUp4(len(payload)))
	binary.LittleEndian.PutUint16(out[0:], id)
	binary.LittleEndian.PutUint16(out[2:], uint16(len(payload)))
	copy(out[4:], payload)
	return out
}

// cloneBytes returns an owned copy of b.
func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

// Main is the Main TLV (type 0x01). It locates the application's entry
// point and declares its memory requirements.
type Main struct {
	// InitFnOffset is the entry point offset, measured from the end of
	// the TBF header
	InitFnOffset uint32

	// ProtectedSize is the size in bytes of the protected region between
	// the header and the application binary
	ProtectedSize uint32

	// MinimumRAMSize is the minimum RAM the application needs to run
	MinimumRAMSize uint32

	valid bool
	raw   []byte
}

func parseMain(payload []byte) *Main {
	t := &Main{}
	if len(payload) != mainLength {
		t.raw = cloneBytes(payload)
		return t
	}
	t.InitFnOffset = binary.LittleEndian.Uint32(payload[0:])
	t.ProtectedSize = binary.LittleEndian.Uint32(payload[4:])
	t.MinimumRAMSize = binary.LittleEndian.Uint32(payload[8:])
	t.valid = true
	return t
}

// TLVID returns TypeMain.
func (t *Main) TLVID() uint16 { return TypeMain }

// IsValid reports whether the payload had the expected length. Field
// values of an invalid record are meaningless.
func (t *Main) IsValid() bool { return t.valid }

// Pack serializes the TLV. An invalid record re-emits its original
// payload verbatim.
func (t *Main) Pack() []byte {
	if !t.valid {
		return packTLV(TypeMain, t.raw)
	}
	payload := make([]byte, mainLength)
	binary.LittleEndian.PutUint32(payload[0:], t.InitFnOffset)
	binary.LittleEndian.PutUint32(payload[4:], t.ProtectedSize)
	binary.LittleEndian.PutUint32(payload[8:], t.MinimumRAMSize)
	return packTLV(TypeMain, payload)
}

// Size returns the serialized size in bytes.
func (t *Main) Size() int { return len(t.Pack()) }

func (t *Main) setField(name string, value uint32) bool {
	switch name {
	case "init_fn_offset":
		t.InitFnOffset = value
	case "protected_size":
		t.ProtectedSize = value
	case "minimum_ram_size":
		t.MinimumRAMSize = value
	default:
		return false
	}
	return true
}

// Program is the Program TLV (type 0x09), a superset of Main that
// additionally records where the application binary ends and the
// application version.
type Program struct {
	// InitFnOffset is the entry point offset, measured from the end of
	// the TBF header
	InitFnOffset uint32

	// ProtectedSize is the size in bytes of the protected region between
	// the header and the application binary
	ProtectedSize uint32

	// MinimumRAMSize is the minimum RAM the application needs to run
	MinimumRAMSize uint32

	// BinaryEndOffset is the offset in the TBF object where the
	// application binary ends; any remaining space holds footers
	BinaryEndOffset uint32

	// AppVersion is the version number of the application
	AppVersion uint32

	valid bool
	raw   []byte
}

func parseProgram(payload []byte) *Program {
	t := &Program{}
	if len(payload) != programLength {
		t.raw = cloneBytes(payload)
		return t
	}
	t.InitFnOffset = binary.LittleEndian.Uint32(payload[0:])
	t.ProtectedSize = binary.LittleEndian.Uint32(payload[4:])
	t.MinimumRAMSize = binary.LittleEndian.Uint32(payload[8:])
	t.BinaryEndOffset = binary.LittleEndian.Uint32(payload[12:])
	t.AppVersion = binary.LittleEndian.Uint32(payload[16:])
	t.valid = true
	return t
}

// TLVID returns TypeProgram.
func (t *Program) TLVID() uint16 { return TypeProgram }

// IsValid reports whether the payload had the expected length.
func (t *Program) IsValid() bool { return t.valid }

// Pack serializes the TLV. An invalid record re-emits its original
// payload verbatim.
func (t *Program) Pack() []byte {
	if !t.valid {
		return packTLV(TypeProgram, t.raw)
	}
	payload := make([]byte, programLength)
	binary.LittleEndian.PutUint32(payload[0:], t.InitFnOffset)
	binary.LittleEndian.PutUint32(payload[4:], t.ProtectedSize)
	binary.LittleEndian.PutUint32(payload[8:], t.MinimumRAMSize)
	binary.LittleEndian.PutUint32(payload[12:], t.BinaryEndOffset)
	binary.LittleEndian.PutUint32(payload[16:], t.AppVersion)
	return packTLV(TypeProgram, payload)
}

// Size returns the serialized size in bytes.
func (t *Program) Size() int { return len(t.Pack()) }

func (t *Program) setField(name string, value uint32) bool {
	switch name {
	case "init_fn_offset":
		t.InitFnOffset = value
	case "protected_size":
		t.ProtectedSize = value
	case "minimum_ram_size":
		t.MinimumRAMSize = value
	case "binary_end_offset":
		t.BinaryEndOffset = value
	case "app_version":
		t.AppVersion = value
	default:
		return false
	}
	return true
}

// WriteableFlashRegion is a single (offset, length) pair describing a
// region of flash the application may write.
type WriteableFlashRegion struct {
	// Offset of the region, relative to the start of the application binary
	Offset uint32

	// Length of the region in bytes
	Length uint32
}

// WriteableFlashRegions is the writeable flash regions TLV (type 0x02).
// The payload is any multiple of 8 bytes, each 8-byte group an
// offset/length pair.
type WriteableFlashRegions struct {
	// Regions holds the writeable flash regions in payload order
	Regions []WriteableFlashRegion

	valid bool
	raw   []byte
}

func parseWriteableFlashRegions(payload []byte) *WriteableFlashRegions {
	t := &WriteableFlashRegions{}
	if len(payload)%8 != 0 {
		t.raw = cloneBytes(payload)
		return t
	}
	for i := 0; i < len(payload); i += 8 {
		t.Regions = append(t.Regions, WriteableFlashRegion{
			Offset: binary.LittleEndian.Uint32(payload[i:]),
			Length: binary.LittleEndian.Uint32(payload[i+4:]),
		})
	}
	t.valid = true
	return t
}

// TLVID returns TypeWriteableFlashRegions.
func (t *WriteableFlashRegions) TLVID() uint16 { return TypeWriteableFlashRegions }

// IsValid reports whether the payload was a multiple of 8 bytes.
func (t *WriteableFlashRegions) IsValid() bool { return t.valid }

// Pack serializes the TLV. An invalid record re-emits its original
// payload verbatim.
func (t *WriteableFlashRegions) Pack() []byte {
	if !t.valid {
		return packTLV(TypeWriteableFlashRegions, t.raw)
	}
	payload := make([]byte, len(t.Regions)*8)
	for i, wfr := range t.Regions {
		binary.LittleEndian.PutUint32(payload[i*8:], wfr.Offset)
		binary.LittleEndian.PutUint32(payload[i*8+4:], wfr.Length)
	}
	return packTLV(TypeWriteableFlashRegions, payload)
}

// Size returns the serialized size in bytes.
func (t *WriteableFlashRegions) Size() int { return len(t.Pack()) }

// PackageName is the package name TLV (type 0x03). The payload is an
// arbitrary-length UTF-8 string.
type PackageName struct {
	// Name is the package name of the application
	Name string
}

func parsePackageName(payload []byte) *PackageName {
	return &PackageName{Name: string(payload)}
}

// TLVID returns TypePackageName.
func (t *PackageName) TLVID() uint16 { return TypePackageName }

// IsValid always reports true: any payload is a valid name.
func (t *PackageName) IsValid() bool { return true }

// Pack serializes the TLV. The declared length is the unpadded name
// length; the payload is zero-padded to a 4-byte boundary.
func (t *PackageName) Pack() []byte {
	return packTLV(TypePackageName, []byte(t.Name))
}

// Size returns the serialized size in bytes.
func (t *PackageName) Size() int { return len(t.Pack()) }

// PicOption1 is the C-style position independent code option TLV
// (type 0x04).
type PicOption1 struct {
	TextOffset           uint32
	DataOffset           uint32
	DataSize             uint32
	BSSMemoryOffset      uint32
	BSSSize              uint32
	RelocationDataOffset uint32
	RelocationDataSize   uint32
	GOTOffset            uint32
	GOTSize              uint32
	MinimumStackLength   uint32

	valid bool
	raw   []byte
}

func parsePicOption1(payload []byte) *PicOption1 {
	t := &PicOption1{}
	if len(payload) != picOption1Length {
		t.raw = cloneBytes(payload)
		return t
	}
	t.TextOffset = binary.LittleEndian.Uint32(payload[0:])
	t.DataOffset = binary.LittleEndian.Uint32(payload[4:])
	t.DataSize = binary.LittleEndian.Uint32(payload[8:])
	t.BSSMemoryOffset = binary.LittleEndian.Uint32(payload[12:])
	t.BSSSize = binary.LittleEndian.Uint32(payload[16:])
	t.RelocationDataOffset = binary.LittleEndian.Uint32(payload[20:])
	t.RelocationDataSize = binary.LittleEndian.Uint32(payload[24:])
	t.GOTOffset = binary.LittleEndian.Uint32(payload[28:])
	t.GOTSize = binary.LittleEndian.Uint32(payload[32:])
	t.MinimumStackLength = binary.LittleEndian.Uint32(payload[36:])
	t.valid = true
	return t
}

// TLVID returns TypePicOption1.
func (t *PicOption1) TLVID() uint16 { return TypePicOption1 }

// IsValid reports whether the payload had the expected length.
func (t *PicOption1) IsValid() bool { return t.valid }

// Pack serializes the TLV. An invalid record re-emits its original
// payload verbatim.
func (t *PicOption1) Pack() []byte {
	if !t.valid {
		return packTLV(TypePicOption1, t.raw)
	}
	payload := make([]byte, picOption1Length)
	binary.LittleEndian.PutUint32(payload[0:], t.TextOffset)
	binary.LittleEndian.PutUint32(payload[4:], t.DataOffset)
	binary.LittleEndian.PutUint32(payload[8:], t.DataSize)
	binary.LittleEndian.PutUint32(payload[12:], t.BSSMemoryOffset)
	binary.LittleEndian.PutUint32(payload[16:], t.BSSSize)
	binary.LittleEndian.PutUint32(payload[20:], t.RelocationDataOffset)
	binary.LittleEndian.PutUint32(payload[24:], t.RelocationDataSize)
	binary.LittleEndian.PutUint32(payload[28:], t.GOTOffset)
	binary.LittleEndian.PutUint32(payload[32:], t.GOTSize)
	binary.LittleEndian.PutUint32(payload[36:], t.MinimumStackLength)
	return packTLV(TypePicOption1, payload)
}

// Size returns the serialized size in bytes.
func (t *PicOption1) Size() int { return len(t.Pack()) }

func (t *PicOption1) setField(name string, value uint32) bool {
	switch name {
	case "text_offset":
		t.TextOffset = value
	case "data_offset":
		t.DataOffset = value
	case "data_size":
		t.DataSize = value
	case "bss_memory_offset":
		t.BSSMemoryOffset = value
	case "bss_size":
		t.BSSSize = value
	case "relocation_data_offset":
		t.RelocationDataOffset = value
	case "relocation_data_size":
		t.RelocationDataSize = value
	case "got_offset":
		t.GOTOffset = value
	case "got_size":
		t.GOTSize = value
	case "minimum_stack_length":
		t.MinimumStackLength = value
	default:
		return false
	}
	return true
}

// FixedAddress is the fixed addresses TLV (type 0x05). Applications
// compiled for fixed addresses only run when loaded at these exact RAM and
// flash locations.
type FixedAddress struct {
	// RAM is the fixed RAM address the application expects
	RAM uint32

	// Flash is the fixed flash address the application binary expects
	Flash uint32

	valid bool
	raw   []byte
}

func parseFixedAddress(payload []byte) *FixedAddress {
	t := &FixedAddress{}
	if len(payload) != fixedAddressLength {
		t.raw = cloneBytes(payload)
		return t
	}
	t.RAM = binary.LittleEndian.Uint32(payload[0:])
	t.Flash = binary.LittleEndian.Uint32(payload[4:])
	t.valid = true
	return t
}

// TLVID returns TypeFixedAddress.
func (t *FixedAddress) TLVID() uint16 { return TypeFixedAddress }

// IsValid reports whether the payload had the expected length.
func (t *FixedAddress) IsValid() bool { return t.valid }

// Pack serializes the TLV. An invalid record re-emits its original
// payload verbatim.
func (t *FixedAddress) Pack() []byte {
	if !t.valid {
		return packTLV(TypeFixedAddress, t.raw)
	}
	payload := make([]byte, fixedAddressLength)
	binary.LittleEndian.PutUint32(payload[0:], t.RAM)
	binary.LittleEndian.PutUint32(payload[4:], t.Flash)
	return packTLV(TypeFixedAddress, payload)
}

// Size returns the serialized size in bytes.
func (t *FixedAddress) Size() int { return len(t.Pack()) }

func (t *FixedAddress) setField(name string, value uint32) bool {
	switch name {
	case "fixed_address_ram":
		t.RAM = value
	case "fixed_address_flash":
		t.Flash = value
	default:
		return false
	}
	return true
}

// Unknown preserves a TLV with an unrecognized type identifier verbatim,
// so headers produced by newer tools survive a parse/pack round trip.
type Unknown struct {
	// Type is the raw 16-bit TLV type identifier
	Type uint16

	// Payload is the raw unpadded payload
	Payload []byte
}

// TLVID returns the raw type identifier.
func (t *Unknown) TLVID() uint16 { return t.Type }

// Pack re-emits the TLV with its original payload, zero-padded to a
// 4-byte boundary.
func (t *Unknown) Pack() []byte {
	return packTLV(t.Type, t.Payload)
}

// Size returns the serialized size in bytes.
func (t *Unknown) Size() int { return len(t.Pack()) }
