package tbf

import "encoding/hex"

// Object export: tree-shaped structures mirroring the parsed header,
// tagged for YAML and JSON serialization so callers can feed the result
// straight to a marshaller.

// HeaderV1Object is the machine-consumable export of a version 1 header.
type HeaderV1Object struct {
	Version           uint16 `yaml:"version" json:"version"`
	TotalSize         uint32 `yaml:"total_size" json:"total_size"`
	EntryOffset       uint32 `yaml:"entry_offset" json:"entry_offset"`
	RelDataOffset     uint32 `yaml:"rel_data_offset" json:"rel_data_offset"`
	RelDataSize       uint32 `yaml:"rel_data_size" json:"rel_data_size"`
	TextOffset        uint32 `yaml:"text_offset" json:"text_offset"`
	TextSize          uint32 `yaml:"text_size" json:"text_size"`
	GOTOffset         uint32 `yaml:"got_offset" json:"got_offset"`
	GOTSize           uint32 `yaml:"got_size" json:"got_size"`
	DataOffset        uint32 `yaml:"data_offset" json:"data_offset"`
	DataSize          uint32 `yaml:"data_size" json:"data_size"`
	BSSMemOffset      uint32 `yaml:"bss_mem_offset" json:"bss_mem_offset"`
	BSSMemSize        uint32 `yaml:"bss_mem_size" json:"bss_mem_size"`
	MinStackLen       uint32 `yaml:"min_stack_len" json:"min_stack_len"`
	MinAppHeapLen     uint32 `yaml:"min_app_heap_len" json:"min_app_heap_len"`
	MinKernelHeapLen  uint32 `yaml:"min_kernel_heap_len" json:"min_kernel_heap_len"`
	PackageNameOffset uint32 `yaml:"package_name_offset" json:"package_name_offset"`
	PackageNameSize   uint32 `yaml:"package_name_size" json:"package_name_size"`
	Checksum          uint32 `yaml:"checksum" json:"checksum"`
}

// HeaderV2Object is the machine-consumable export of a version 2 header.
type HeaderV2Object struct {
	Version    uint16        `yaml:"version" json:"version"`
	HeaderSize uint16        `yaml:"header_size" json:"header_size"`
	TotalSize  uint32        `yaml:"total_size" json:"total_size"`
	Checksum   uint32        `yaml:"checksum" json:"checksum"`
	Flags      uint32        `yaml:"flags" json:"flags"`
	TLVs       []interface{} `yaml:"tlvs" json:"tlvs"`
}

// Object returns a tree-shaped export of the header suitable for machine
// consumption: *HeaderV1Object or *HeaderV2Object, or nil for a header
// that failed to parse past the version field.
func (h *Header) Object() interface{} {
	switch {
	case h.Version == 1 && h.V1 != nil:
		f := h.V1
		return &HeaderV1Object{
			Version:           h.Version,
			TotalSize:         f.TotalSize,
			EntryOffset:       f.EntryOffset,
			RelDataOffset:     f.RelDataOffset,
			RelDataSize:       f.RelDataSize,
			TextOffset:        f.TextOffset,
			TextSize:          f.TextSize,
			GOTOffset:         f.GOTOffset,
			GOTSize:           f.GOTSize,
			DataOffset:        f.DataOffset,
			DataSize:          f.DataSize,
			BSSMemOffset:      f.BSSMemOffset,
			BSSMemSize:        f.BSSMemSize,
			MinStackLen:       f.MinStackLen,
			MinAppHeapLen:     f.MinAppHeapLen,
			MinKernelHeapLen:  f.MinKernelHeapLen,
			PackageNameOffset: f.PackageNameOffset,
			PackageNameSize:   f.PackageNameSize,
			Checksum:          f.Checksum,
		}
	case h.V2 != nil:
		out := &HeaderV2Object{
			Version:    h.Version,
			HeaderSize: h.V2.HeaderSize,
			TotalSize:  h.V2.TotalSize,
			Checksum:   h.V2.Checksum,
			Flags:      h.V2.Flags,
			TLVs:       []interface{}{},
		}
		for _, t := range h.TLVs {
			if o, ok := t.(objecter); ok {
				out.TLVs = append(out.TLVs, o.Object())
			}
		}
		return out
	default:
		return nil
	}
}

// objecter is implemented by every TLV record that exports itself.
type objecter interface {
	Object() interface{}
}

// MainObject is the export of a Main TLV.
type MainObject struct {
	Type           string `yaml:"type" json:"type"`
	ID             uint16 `yaml:"id" json:"id"`
	InitFnOffset   uint32 `yaml:"init_fn_offset" json:"init_fn_offset"`
	ProtectedSize  uint32 `yaml:"protected_size" json:"protected_size"`
	MinimumRAMSize uint32 `yaml:"minimum_ram_size" json:"minimum_ram_size"`
}

// Object returns the machine-consumable export of the TLV.
func (t *Main) Object() interface{} {
	return &MainObject{
		Type:           "main",
		ID:             TypeMain,
		InitFnOffset:   t.InitFnOffset,
		ProtectedSize:  t.ProtectedSize,
		MinimumRAMSize: t.MinimumRAMSize,
	}
}

// ProgramObject is the export of a Program TLV.
type ProgramObject struct {
	Type            string `yaml:"type" json:"type"`
	ID              uint16 `yaml:"id" json:"id"`
	InitFnOffset    uint32 `yaml:"init_fn_offset" json:"init_fn_offset"`
	ProtectedSize   uint32 `yaml:"protected_size" json:"protected_size"`
	MinimumRAMSize  uint32 `yaml:"minimum_ram_size" json:"minimum_ram_size"`
	BinaryEndOffset uint32 `yaml:"binary_end_offset" json:"binary_end_offset"`
	AppVersion      uint32 `yaml:"app_version" json:"app_version"`
}

// Object returns the machine-consumable export of the TLV.
func (t *Program) Object() interface{} {
	return &ProgramObject{
		Type:            "program",
		ID:              TypeProgram,
		InitFnOffset:    t.InitFnOffset,
		ProtectedSize:   t.ProtectedSize,
		MinimumRAMSize:  t.MinimumRAMSize,
		BinaryEndOffset: t.BinaryEndOffset,
		AppVersion:      t.AppVersion,
	}
}

// WriteableFlashRegionObject is one offset/length pair in a
// WriteableFlashRegionsObject.
type WriteableFlashRegionObject struct {
	Offset uint32 `yaml:"offset" json:"offset"`
	Length uint32 `yaml:"length" json:"length"`
}

// WriteableFlashRegionsObject is the export of a writeable flash regions
// TLV.
type WriteableFlashRegionsObject struct {
	Type string                       `yaml:"type" json:"type"`
	ID   uint16                       `yaml:"id" json:"id"`
	WFRs []WriteableFlashRegionObject `yaml:"wfrs" json:"wfrs"`
}

// Object returns the machine-consumable export of the TLV.
func (t *WriteableFlashRegions) Object() interface{} {
	out := &WriteableFlashRegionsObject{
		Type: "writeable_flash_regions",
		ID:   TypeWriteableFlashRegions,
		WFRs: []WriteableFlashRegionObject{},
	}
	for _, wfr := range t.Regions {
		out.WFRs = append(out.WFRs, WriteableFlashRegionObject{
			Offset: wfr.Offset,
			Length: wfr.Length,
		})
	}
	return out
}

// PackageNameObject is the export of a package name TLV.
type PackageNameObject struct {
	Type        string `yaml:"type" json:"type"`
	ID          uint16 `yaml:"id" json:"id"`
	PackageName string `yaml:"package_name" json:"package_name"`
}

// Object returns the machine-consumable export of the TLV.
func (t *PackageName) Object() interface{} {
	return &PackageNameObject{
		Type:        "name",
		ID:          TypePackageName,
		PackageName: t.Name,
	}
}

// PicOption1Object is the export of a PIC option TLV.
type PicOption1Object struct {
	Type                 string `yaml:"type" json:"type"`
	ID                   uint16 `yaml:"id" json:"id"`
	TextOffset           uint32 `yaml:"text_offset" json:"text_offset"`
	DataOffset           uint32 `yaml:"data_offset" json:"data_offset"`
	DataSize             uint32 `yaml:"data_size" json:"data_size"`
	BSSMemoryOffset      uint32 `yaml:"bss_memory_offset" json:"bss_memory_offset"`
	BSSSize              uint32 `yaml:"bss_size" json:"bss_size"`
	RelocationDataOffset uint32 `yaml:"relocation_data_offset" json:"relocation_data_offset"`
	RelocationDataSize   uint32 `yaml:"relocation_data_size" json:"relocation_data_size"`
	GOTOffset            uint32 `yaml:"got_offset" json:"got_offset"`
	GOTSize              uint32 `yaml:"got_size" json:"got_size"`
	MinimumStackLength   uint32 `yaml:"minimum_stack_length" json:"minimum_stack_length"`
}

// Object returns the machine-consumable export of the TLV.
func (t *PicOption1) Object() interface{} {
	return &PicOption1Object{
		Type:                 "pic_option_1",
		ID:                   TypePicOption1,
		TextOffset:           t.TextOffset,
		DataOffset:           t.DataOffset,
		DataSize:             t.DataSize,
		BSSMemoryOffset:      t.BSSMemoryOffset,
		BSSSize:              t.BSSSize,
		RelocationDataOffset: t.RelocationDataOffset,
		RelocationDataSize:   t.RelocationDataSize,
		GOTOffset:            t.GOTOffset,
		GOTSize:              t.GOTSize,
		MinimumStackLength:   t.MinimumStackLength,
	}
}

// FixedAddressObject is the export of a fixed addresses TLV.
type FixedAddressObject struct {
	Type              string `yaml:"type" json:"type"`
	ID                uint16 `yaml:"id" json:"id"`
	FixedAddressRAM   uint32 `yaml:"fixed_address_ram" json:"fixed_address_ram"`
	FixedAddressFlash uint32 `yaml:"fixed_address_flash" json:"fixed_address_flash"`
}

// Object returns the machine-consumable export of the TLV.
func (t *FixedAddress) Object() interface{} {
	return &FixedAddressObject{
		Type:              "fixed_addresses",
		ID:                TypeFixedAddress,
		FixedAddressRAM:   t.RAM,
		FixedAddressFlash: t.Flash,
	}
}

// KernelVersionObject is the export of a kernel version TLV.
type KernelVersionObject struct {
	Type        string `yaml:"type" json:"type"`
	ID          uint16 `yaml:"id" json:"id"`
	KernelMajor uint16 `yaml:"kernel_major" json:"kernel_major"`
	KernelMinor uint16 `yaml:"kernel_minor" json:"kernel_minor"`
}

// Object returns the machine-consumable export of the TLV.
func (t *KernelVersion) Object() interface{} {
	return &KernelVersionObject{
		Type:        "kernel_version",
		ID:          TypeKernelVersion,
		KernelMajor: t.Major,
		KernelMinor: t.Minor,
	}
}

// UnknownObject is the export of an unrecognized TLV.
type UnknownObject struct {
	Type   string `yaml:"type" json:"type"`
	ID     uint16 `yaml:"id" json:"id"`
	Buffer string `yaml:"buffer" json:"buffer"`
}

// Object returns the machine-consumable export of the TLV; the payload is
// hex-encoded.
func (t *Unknown) Object() interface{} {
	return &UnknownObject{
		Type:   "unknown",
		ID:     t.Type,
		Buffer: hex.EncodeToString(t.Payload),
	}
}
