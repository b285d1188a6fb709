package tbf

import (
	"encoding/binary"

	"github.com/coreos/go-semver/semver"
)

// Header layout constants.
const (
	// v2BaseSize is the size of the fixed version 2 base record:
	// version, header size, total size, flags and checksum
	v2BaseSize = 16

	// v2ChecksumOffset is the byte offset of the checksum word in a
	// version 2 header; it is zeroed during checksum computation
	v2ChecksumOffset = 12

	// v1HeaderSize is the header size a version 1 header reports. The
	// on-wire record is 76 bytes (a 32-bit version word, 17 base fields
	// and a trailing checksum word); 74 matches what existing tooling
	// reports and expects.
	v1HeaderSize = 74

	// v1WireSize is the actual number of bytes a version 1 header
	// occupies on flash
	v1WireSize = 76

	// v1ChecksumCovered is the number of leading bytes the version 1
	// checksum covers
	v1ChecksumCovered = 72
)

// Version 2 header flag bits.
const (
	// FlagEnabled marks the application as started on boot
	FlagEnabled uint32 = 0x01

	// FlagSticky protects the application from bulk erases
	FlagSticky uint32 = 0x02
)

// V1Fields holds the base fields of a version 1 header. Version 1 has no
// TLVs or flags; every property of the application lives in this fixed
// record.
type V1Fields struct {
	TotalSize         uint32
	EntryOffset       uint32
	RelDataOffset     uint32
	RelDataSize       uint32
	TextOffset        uint32
	TextSize          uint32
	GOTOffset         uint32
	GOTSize           uint32
	DataOffset        uint32
	DataSize          uint32
	BSSMemOffset      uint32
	BSSMemSize        uint32
	MinStackLen       uint32
	MinAppHeapLen     uint32
	MinKernelHeapLen  uint32
	PackageNameOffset uint32
	PackageNameSize   uint32
	Checksum          uint32
}

// V2Fields holds the base fields of a version 2 header. The TLV entries
// follow in Header.TLVs.
type V2Fields struct {
	// HeaderSize is the total serialized header size including all TLVs
	// and alignment padding
	HeaderSize uint16

	// TotalSize is the size of the whole TBF object: header, protected
	// region, application binary and footers
	TotalSize uint32

	// Flags holds the enable and sticky bits
	Flags uint32

	// Checksum is the stored header checksum
	Checksum uint32
}

// Header is a parsed TBF header. Construct one with ParseHeader or
// NewPaddingHeader.
//
// A Header is not safe for concurrent mutation; callers sharing one across
// goroutines must synchronize externally.
type Header struct {
	// Version is the header format version, 1 or 2
	Version uint16

	// V1 holds the base fields of a version 1 header, nil otherwise
	V1 *V1Fields

	// V2 holds the base fields of a version 2 header, nil otherwise
	V2 *V2Fields

	// TLVs is the ordered TLV sequence of a version 2 application
	// header; order is serialization order
	TLVs []TLV

	valid    bool
	app      bool
	modified bool
	log      Logger
}

// ParseHeader parses a TBF header from the start of buffer.
//
// Parsing never fails: a truncated or malformed buffer yields a header
// with IsValid() == false and IsApp() == false. Validity is computed once
// here and is not re-evaluated after mutation.
func ParseHeader(buffer []byte, opts ...Option) *Header {
	cfg := newConfig(opts)
	h := &Header{log: cfg.logger}

	if len(buffer) < 2 {
		return h
	}
	h.Version = binary.LittleEndian.Uint16(buffer)

	switch h.Version {
	case 1:
		h.parseV1(buffer)
	case 2:
		h.parseV2(buffer, cfg)
	}

	return h
}

// parseV1 decodes the fixed version 1 layout: a 32-bit version word, 17
// base fields, and a trailing checksum covering the first 72 bytes.
func (h *Header) parseV1(buffer []byte) {
	if len(buffer) < v1WireSize {
		return
	}

	computed := Checksum(buffer[:v1ChecksumCovered])

	word := func(i int) uint32 {
		return binary.LittleEndian.Uint32(buffer[4+i*4:])
	}
	h.V1 = &V1Fields{
		TotalSize:         word(0),
		EntryOffset:       word(1),
		RelDataOffset:     word(2),
		RelDataSize:       word(3),
		TextOffset:        word(4),
		TextSize:          word(5),
		GOTOffset:         word(6),
		GOTSize:           word(7),
		DataOffset:        word(8),
		DataSize:          word(9),
		BSSMemOffset:      word(10),
		BSSMemSize:        word(11),
		MinStackLen:       word(12),
		MinAppHeapLen:     word(13),
		MinKernelHeapLen:  word(14),
		PackageNameOffset: word(15),
		PackageNameSize:   word(16),
		Checksum:          word(17),
	}
	h.app = true
	h.valid = computed == h.V1.Checksum
}

// parseV2 decodes the extensible version 2 layout: a 16-byte base record
// followed by HeaderSize-16 bytes of TLV entries.
func (h *Header) parseV2(buffer []byte, cfg config) {
	if len(buffer) < v2BaseSize {
		return
	}

	h.V2 = &V2Fields{
		HeaderSize: binary.LittleEndian.Uint16(buffer[2:]),
		TotalSize:  binary.LittleEndian.Uint32(buffer[4:]),
		Flags:      binary.LittleEndian.Uint32(buffer[8:]),
		Checksum:   binary.LittleEndian.Uint32(buffer[12:]),
	}

	headerSize := int(h.V2.HeaderSize)
	if headerSize < v2BaseSize || len(buffer) < headerSize {
		return
	}

	// The checksum does not cover itself: zero the checksum word in a
	// copy of the header bytes before computing.
	scratch := make([]byte, headerSize)
	copy(scratch, buffer[:headerSize])
	binary.LittleEndian.PutUint32(scratch[v2ChecksumOffset:], 0)
	computed := Checksum(scratch)

	if headerSize == v2BaseSize {
		// No TLVs: this slot is padding between applications.
		h.valid = computed == h.V2.Checksum
		return
	}

	h.app = true
	h.parseTLVs(buffer[v2BaseSize:headerSize], cfg)

	if computed == h.V2.Checksum {
		h.valid = true
		return
	}
	h.log.Error("checksum mismatch in TBF header",
		"stored", h.V2.Checksum, "computed", computed)
	// Historically a mismatch on an application header is reported but
	// the header is still treated as valid; strict mode opts out.
	h.valid = !cfg.strictChecksum
}

// parseTLVs walks the TLV region of a version 2 header. Every entry is
// advanced past with its payload length rounded up to a 4-byte boundary,
// although the declared length is unpadded.
func (h *Header) parseTLVs(buf []byte, cfg config) {
	for len(buf) >= 4 {
		id := binary.LittleEndian.Uint16(buf[0:])
		length := int(binary.LittleEndian.Uint16(buf[2:]))
		buf = buf[4:]

		if length > len(buf) {
			h.log.Warn("truncated TLV in TBF header",
				"type", id, "length", length, "remaining", len(buf))
			return
		}
		payload := buf[:length]

		switch id {
		case TypeMain:
			h.TLVs = append(h.TLVs, parseMain(payload))
		case TypeProgram:
			h.TLVs = append(h.TLVs, parseProgram(payload))
		case TypeWriteableFlashRegions:
			h.TLVs = append(h.TLVs, parseWriteableFlashRegions(payload))
		case TypePackageName:
			h.TLVs = append(h.TLVs, parsePackageName(payload))
		case TypePicOption1:
			h.TLVs = append(h.TLVs, parsePicOption1(payload))
		case TypeFixedAddress:
			h.TLVs = append(h.TLVs, parseFixedAddress(payload))
		case TypeKernelVersion:
			h.TLVs = append(h.TLVs, parseKernelVersion(payload))
		default:
			h.log.Warn("unknown TLV block in TBF header", "type", id)
			h.TLVs = append(h.TLVs, &Unknown{
				Type:    id,
				Payload: cloneBytes(payload),
			})
		}

		advance := roundUp4(length)
		if advance > len(buf) {
			advance = len(buf)
		}
		buf = buf[advance:]
	}
}

// IsValid reports whether the checksum and structural checks passed when
// the header was constructed.
func (h *Header) IsValid() bool { return h.valid }

// IsApp reports whether the header describes an application rather than
// padding between applications.
func (h *Header) IsApp() bool { return h.app }

// IsModified reports whether any mutating operation ran since the header
// was parsed, meaning the caller needs to re-flash it.
func (h *Header) IsModified() bool { return h.modified }

// IsEnabled reports whether the application starts on boot. Version 1
// headers have no enable bit and are always enabled when valid.
func (h *Header) IsEnabled() bool {
	switch {
	case !h.valid:
		return false
	case h.Version == 1:
		return true
	default:
		return h.V2.Flags&FlagEnabled != 0
	}
}

// IsSticky reports whether the application survives bulk erases. Version 1
// headers have no sticky bit and are never sticky.
func (h *Header) IsSticky() bool {
	switch {
	case !h.valid:
		return false
	case h.Version == 1:
		return false
	default:
		return h.V2.Flags&FlagSticky != 0
	}
}

// AppSize returns the total size in bytes the TBF object occupies in
// flash.
func (h *Header) AppSize() uint32 {
	switch {
	case h.V1 != nil:
		return h.V1.TotalSize
	case h.V2 != nil:
		return h.V2.TotalSize
	default:
		return 0
	}
}

// HeaderSize returns the serialized header size in bytes, including
// alignment padding.
func (h *Header) HeaderSize() uint32 {
	switch {
	case h.Version == 1:
		return v1HeaderSize
	case h.V2 != nil:
		return uint32(h.V2.HeaderSize)
	default:
		return 0
	}
}

// SizeBeforeApp returns the number of bytes before the application binary
// in the TBF object: the header plus the protected region.
func (h *Header) SizeBeforeApp() uint32 {
	if h.Version == 1 {
		return v1HeaderSize
	}
	return h.HeaderSize() + h.protectedSize()
}

// AppName returns the package name if the header carries a package name
// TLV, otherwise the empty string. Version 1 headers store the name out of
// band; see PackageNameRegion.
func (h *Header) AppName() string {
	if t, ok := h.validTLV(TypePackageName).(*PackageName); ok {
		return t.Name
	}
	return ""
}

// PackageNameRegion returns the offset and size of the out-of-band package
// name of a version 1 header. ok is false for version 2 headers.
func (h *Header) PackageNameRegion() (offset, size uint32, ok bool) {
	if h.V1 == nil {
		return 0, 0, false
	}
	return h.V1.PackageNameOffset, h.V1.PackageNameSize, true
}

// AppVersion returns the application version from the Program TLV, or 0
// when the header has none.
func (h *Header) AppVersion() uint32 {
	if t, ok := h.validTLV(TypeProgram).(*Program); ok {
		return t.AppVersion
	}
	return 0
}

// HasFixedAddresses reports whether the header carries a fixed addresses
// TLV.
func (h *Header) HasFixedAddresses() bool {
	_, _, ok := h.FixedAddresses()
	return ok
}

// FixedAddresses returns the fixed RAM and flash addresses. ok is false
// when the header has no fixed addresses TLV.
func (h *Header) FixedAddresses() (ram, flash uint32, ok bool) {
	if t, found := h.validTLV(TypeFixedAddress).(*FixedAddress); found {
		return t.RAM, t.Flash, true
	}
	return 0, 0, false
}

// HasKernelVersion reports whether the header carries a kernel version
// TLV.
func (h *Header) HasKernelVersion() bool {
	_, _, ok := h.KernelVersion()
	return ok
}

// KernelVersion returns the required kernel major and minimum minor
// version. ok is false when the header has no kernel version TLV.
func (h *Header) KernelVersion() (major, minor uint16, ok bool) {
	if t, found := h.validTLV(TypeKernelVersion).(*KernelVersion); found {
		return t.Major, t.Minor, true
	}
	return 0, 0, false
}

// RequiredKernelVersion returns the minimum kernel release the application
// was compiled against as a semantic version, or nil when the header has
// no kernel version TLV.
func (h *Header) RequiredKernelVersion() *semver.Version {
	if t, ok := h.validTLV(TypeKernelVersion).(*KernelVersion); ok {
		v := t.Required()
		return &v
	}
	return nil
}

// HasFooter reports whether the TBF object has room for footers after the
// application binary. Only headers with a Program TLV can declare a
// footer.
func (h *Header) HasFooter() bool {
	if t, ok := h.validTLV(TypeProgram).(*Program); ok {
		return t.BinaryEndOffset < h.AppSize()
	}
	return false
}

// BinaryEndOffset returns the offset in the TBF object where the
// application binary ends. Remaining space is taken up by footers. Without
// a Program TLV the binary runs to the end of the object.
func (h *Header) BinaryEndOffset() uint32 {
	if t, ok := h.validTLV(TypeProgram).(*Program); ok {
		return t.BinaryEndOffset
	}
	return h.AppSize()
}

// FooterSize returns the size in bytes of the footer region, 0 when there
// is none.
func (h *Header) FooterSize() uint32 {
	return h.AppSize() - h.BinaryEndOffset()
}

// TLV returns the first TLV with the given type identifier, or nil.
// Not-valid records are returned too; most callers want validTLV.
func (h *Header) TLV(id uint16) TLV {
	for _, t := range h.TLVs {
		if t.TLVID() == id {
			return t
		}
	}
	return nil
}

// validTLV returns the first valid TLV with the given type identifier, or
// nil. A not-valid record keeps its position so the header round-trips,
// but queries and mutators must treat it as absent: its field values are
// meaningless.
func (h *Header) validTLV(id uint16) TLV {
	for _, t := range h.TLVs {
		if t.TLVID() != id {
			continue
		}
		if v, ok := t.(validator); ok && !v.IsValid() {
			continue
		}
		return t
	}
	return nil
}

// BinaryTLV returns the TLV locating the application binary: the Program
// TLV when present and valid, else the Main TLV, else nil.
func (h *Header) BinaryTLV() TLV {
	if t := h.validTLV(TypeProgram); t != nil {
		return t
	}
	if t := h.validTLV(TypeMain); t != nil {
		return t
	}
	return nil
}

// protectedSize returns the protected region size from the binary TLV,
// 0 when the header has none.
func (h *Header) protectedSize() uint32 {
	switch t := h.BinaryTLV().(type) {
	case *Program:
		return t.ProtectedSize
	case *Main:
		return t.ProtectedSize
	default:
		return 0
	}
}

// canMutate gates every mutator: version 1 headers and invalid headers
// are never modified.
func (h *Header) canMutate() bool {
	return h.Version == 2 && h.valid && h.V2 != nil
}

// SetFlag sets or clears a named flag bit. Valid names are "enable" and
// "sticky"; other names are ignored. No-op on version 1 or invalid
// headers.
func (h *Header) SetFlag(name string, value bool) {
	if !h.canMutate() {
		return
	}

	var bit uint32
	switch name {
	case "enable":
		bit = FlagEnabled
	case "sticky":
		bit = FlagSticky
	default:
		return
	}

	if value {
		h.V2.Flags |= bit
	} else {
		h.V2.Flags &^= bit
	}
	h.modified = true
}

// SetAppSize overwrites the total size of the TBF object. The header size
// is untouched; the caller is responsible for keeping the slot large
// enough. No-op on version 1 or invalid headers.
func (h *Header) SetAppSize(size uint32) {
	if !h.canMutate() {
		return
	}
	h.V2.TotalSize = size
	h.modified = true
}

// DeleteTLV removes every TLV with the given type identifier and shrinks
// the header size by the removed bytes. The protected region and entry
// point offset of the Main/Program TLV grow by the same amount so the
// application binary keeps its flash position: offsets in this format are
// measured from the end of the header, not the start of the binary.
// No-op on version 1 or invalid headers.
func (h *Header) DeleteTLV(id uint16) {
	if !h.canMutate() {
		return
	}

	var removed uint32
	kept := h.TLVs[:0]
	for i, t := range h.TLVs {
		if t.TLVID() == id {
			h.log.Debug("removing TLV", "index", i, "type", id)
			removed += uint32(t.Size())
			h.modified = true
			continue
		}
		kept = append(kept, t)
	}
	h.TLVs = kept

	h.V2.HeaderSize -= uint16(removed)

	// Both Main and Program are compensated when both are present.
	if t, ok := h.validTLV(TypeMain).(*Main); ok {
		t.ProtectedSize += removed
		t.InitFnOffset += removed
	}
	if t, ok := h.validTLV(TypeProgram).(*Program); ok {
		t.ProtectedSize += removed
		t.InitFnOffset += removed
	}
}

// ModifyTLV sets a named field on every TLV with the given type
// identifier. The special identifier 0 addresses the base header fields.
// Returns a NoSuchFieldError when the target TLV has no such field.
// No-op on version 1 or invalid headers.
func (h *Header) ModifyTLV(id uint16, field string, value uint32) error {
	if !h.canMutate() {
		return nil
	}

	if id == 0 {
		return h.setBaseField(field, value)
	}

	for _, t := range h.TLVs {
		if t.TLVID() != id {
			continue
		}
		// Pack re-emits a not-valid record's raw payload, so setting its
		// fields would be silently lost.
		if v, ok := t.(validator); ok && !v.IsValid() {
			continue
		}
		setter, ok := t.(fieldSetter)
		if !ok || !setter.setField(field, value) {
			return &NoSuchFieldError{Field: field, TLVID: id}
		}
		h.modified = true
	}
	return nil
}

func (h *Header) setBaseField(field string, value uint32) error {
	switch field {
	case "header_size":
		h.V2.HeaderSize = uint16(value)
	case "total_size":
		h.V2.TotalSize = value
	case "flags":
		h.V2.Flags = value
	case "checksum":
		h.V2.Checksum = value
	default:
		return &NoSuchFieldError{Field: field, TLVID: 0}
	}
	h.modified = true
	return nil
}

// AdjustStartingAddress alters the header so the fixed flash address holds
// when the whole TBF object is loaded at address: the protected region
// grows by exactly the delta needed to make
// address + header size + protected size equal the fixed flash address.
//
// No-op without a fixed addresses TLV, on version 1, or on invalid
// headers. Returns a HeaderShrinkError when satisfying the constraint
// would require shrinking the header; that indicates a logic error in the
// caller and must not be retried.
func (h *Header) AdjustStartingAddress(address uint32) error {
	if !h.canMutate() {
		return nil
	}

	fixed, ok := h.validTLV(TypeFixedAddress).(*FixedAddress)
	if !ok {
		return nil
	}

	current := address + uint32(h.V2.HeaderSize) + h.protectedSize()
	switch {
	case current == fixed.Flash:
		return nil
	case current > fixed.Flash:
		return &HeaderShrinkError{
			Address:    address,
			Current:    current,
			FixedFlash: fixed.Flash,
		}
	}

	delta := fixed.Flash - current
	switch t := h.BinaryTLV().(type) {
	case *Program:
		t.ProtectedSize += delta
		t.InitFnOffset += delta
	case *Main:
		t.ProtectedSize += delta
		t.InitFnOffset += delta
	default:
		return nil
	}
	h.modified = true
	return nil
}

// Pack serializes the header to its canonical byte representation. The
// checksum is recomputed over the assembled bytes. For version 2 headers
// with a nonzero protected region, the protected bytes are appended as
// zeros after the header.
func (h *Header) Pack() []byte {
	switch {
	case h.Version == 1 && h.V1 != nil:
		return h.packV1()
	case h.Version == 2 && h.V2 != nil:
		return h.packV2()
	default:
		return nil
	}
}

func (h *Header) packV1() []byte {
	buf := make([]byte, v1ChecksumCovered, v1WireSize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(h.Version))

	f := h.V1
	for i, v := range []uint32{
		f.TotalSize, f.EntryOffset, f.RelDataOffset, f.RelDataSize,
		f.TextOffset, f.TextSize, f.GOTOffset, f.GOTSize,
		f.DataOffset, f.DataSize, f.BSSMemOffset, f.BSSMemSize,
		f.MinStackLen, f.MinAppHeapLen, f.MinKernelHeapLen,
		f.PackageNameOffset, f.PackageNameSize,
	} {
		binary.LittleEndian.PutUint32(buf[4+i*4:], v)
	}

	checksum := Checksum(buf)
	buf = append(buf, 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(buf[v1ChecksumCovered:], checksum)
	return buf
}

func (h *Header) packV2() []byte {
	buf := make([]byte, v2BaseSize)
	binary.LittleEndian.PutUint16(buf[0:], h.Version)
	binary.LittleEndian.PutUint16(buf[2:], h.V2.HeaderSize)
	binary.LittleEndian.PutUint32(buf[4:], h.V2.TotalSize)
	binary.LittleEndian.PutUint32(buf[8:], h.V2.Flags)
	// Checksum stays zero until the whole header is assembled.

	if h.app {
		for _, t := range h.TLVs {
			buf = append(buf, t.Pack()...)
		}
	}

	checksum := Checksum(buf)
	binary.LittleEndian.PutUint32(buf[v2ChecksumOffset:], checksum)

	if protected := h.protectedSize(); protected > 0 {
		// The protected region between the header and the application
		// binary is emitted as part of the header bytes.
		buf = append(buf, make([]byte, protected)...)
	}

	return buf
}
