package tbf

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// yesNo renders a flag bit the way tockloader does.
func yesNo(set bool) string {
	if set {
		return "Yes"
	}
	return "No"
}

// fieldLine renders one named numeric field with decimal and hex columns.
func fieldLine(b *strings.Builder, name string, value uint32) {
	fmt.Fprintf(b, "  %-20s: %10d %#12x\n", name, value, value)
}

// String renders the header in the aligned human-readable layout used for
// app inspection.
func (h *Header) String() string {
	var b strings.Builder

	if !h.valid {
		b.WriteString("INVALID!\n")
	}
	fmt.Fprintf(&b, "%-22s: %d\n", "version", h.Version)

	if h.Version == 1 && h.V1 != nil {
		h.renderV1(&b)
		return b.String()
	}
	if h.V2 == nil {
		return b.String()
	}

	fmt.Fprintf(&b, "%-22s: %10d %#12x\n", "header_size", h.V2.HeaderSize, h.V2.HeaderSize)
	fmt.Fprintf(&b, "%-22s: %10d %#12x\n", "total_size", h.V2.TotalSize, h.V2.TotalSize)
	fmt.Fprintf(&b, "%-22s:            %#12x\n", "checksum", h.V2.Checksum)
	fmt.Fprintf(&b, "%-22s: %10d %#12x\n", "flags", h.V2.Flags, h.V2.Flags)
	fmt.Fprintf(&b, "  %-20s: %s\n", "enabled", yesNo(h.V2.Flags&FlagEnabled != 0))
	fmt.Fprintf(&b, "  %-20s: %s\n", "sticky", yesNo(h.V2.Flags&FlagSticky != 0))

	for _, t := range h.TLVs {
		if s, ok := t.(fmt.Stringer); ok {
			b.WriteString(s.String())
		}
	}

	return b.String()
}

// renderV1 prints the version 1 base fields in name order.
func (h *Header) renderV1(b *strings.Builder) {
	f := h.V1
	for _, entry := range []struct {
		name  string
		value uint32
	}{
		{"bss_mem_offset", f.BSSMemOffset},
		{"bss_mem_size", f.BSSMemSize},
		{"checksum", f.Checksum},
		{"data_offset", f.DataOffset},
		{"data_size", f.DataSize},
		{"entry_offset", f.EntryOffset},
		{"got_offset", f.GOTOffset},
		{"got_size", f.GOTSize},
		{"min_app_heap_len", f.MinAppHeapLen},
		{"min_kernel_heap_len", f.MinKernelHeapLen},
		{"min_stack_len", f.MinStackLen},
		{"package_name_offset", f.PackageNameOffset},
		{"package_name_size", f.PackageNameSize},
		{"rel_data_offset", f.RelDataOffset},
		{"rel_data_size", f.RelDataSize},
		{"text_offset", f.TextOffset},
		{"text_size", f.TextSize},
		{"total_size", f.TotalSize},
	} {
		if entry.name == "checksum" {
			fmt.Fprintf(b, "%-22s:            %#12x\n", entry.name, entry.value)
			continue
		}
		fmt.Fprintf(b, "%-22s: %10d %#12x\n", entry.name, entry.value, entry.value)
	}
}

func (t *Main) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TLV: Main (%d)\n", TypeMain)
	if !t.valid {
		fmt.Fprintf(&b, "  %-20s: %s\n", "invalid payload", hex.EncodeToString(t.raw))
		return b.String()
	}
	fieldLine(&b, "init_fn_offset", t.InitFnOffset)
	fieldLine(&b, "protected_size", t.ProtectedSize)
	fieldLine(&b, "minimum_ram_size", t.MinimumRAMSize)
	return b.String()
}

func (t *Program) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TLV: Program (%d)\n", TypeProgram)
	if !t.valid {
		fmt.Fprintf(&b, "  %-20s: %s\n", "invalid payload", hex.EncodeToString(t.raw))
		return b.String()
	}
	fieldLine(&b, "init_fn_offset", t.InitFnOffset)
	fieldLine(&b, "protected_size", t.ProtectedSize)
	fieldLine(&b, "minimum_ram_size", t.MinimumRAMSize)
	fieldLine(&b, "binary_end_offset", t.BinaryEndOffset)
	fieldLine(&b, "app_version", t.AppVersion)
	return b.String()
}

func (t *WriteableFlashRegions) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TLV: Writeable Flash Regions (%d)\n", TypeWriteableFlashRegions)
	if !t.valid {
		fmt.Fprintf(&b, "  %-20s: %s\n", "invalid payload", hex.EncodeToString(t.raw))
		return b.String()
	}
	for i, wfr := range t.Regions {
		fmt.Fprintf(&b, "  writeable flash region %d\n", i)
		fmt.Fprintf(&b, "    %-18s: %8d %#12x\n", "offset", wfr.Offset, wfr.Offset)
		fmt.Fprintf(&b, "    %-18s: %8d %#12x\n", "length", wfr.Length, wfr.Length)
	}
	return b.String()
}

func (t *PackageName) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TLV: Package Name (%d)\n", TypePackageName)
	fmt.Fprintf(&b, "  %-20s: %s\n", "package_name", t.Name)
	return b.String()
}

func (t *PicOption1) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TLV: PIC Option 1 (%d)\n", TypePicOption1)
	if !t.valid {
		fmt.Fprintf(&b, "  %-20s: %s\n", "invalid payload", hex.EncodeToString(t.raw))
		return b.String()
	}
	fmt.Fprintf(&b, "  %-20s: %s\n", "PIC", "C Style")
	return b.String()
}

func (t *FixedAddress) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TLV: Fixed Addresses (%d)\n", TypeFixedAddress)
	if !t.valid {
		fmt.Fprintf(&b, "  %-20s: %s\n", "invalid payload", hex.EncodeToString(t.raw))
		return b.String()
	}
	fieldLine(&b, "fixed_address_ram", t.RAM)
	fieldLine(&b, "fixed_address_flash", t.Flash)
	return b.String()
}

func (t *KernelVersion) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TLV: Kernel Version (%d)\n", TypeKernelVersion)
	if !t.valid {
		fmt.Fprintf(&b, "  %-20s: %s\n", "invalid payload", hex.EncodeToString(t.raw))
		return b.String()
	}
	fmt.Fprintf(&b, "  %-20s: %d\n", "kernel_major", t.Major)
	fmt.Fprintf(&b, "  %-20s: %d\n", "kernel_minor", t.Minor)
	fmt.Fprintf(&b, "  %-20s: ^%d.%d\n", "kernel version", t.Major, t.Minor)
	return b.String()
}

func (t *Unknown) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TLV: UNKNOWN (%d)\n", t.Type)
	fmt.Fprintf(&b, "  %-20s: %s\n", "buffer", hex.EncodeToString(t.Payload))
	return b.String()
}
