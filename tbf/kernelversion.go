package tbf

import (
	"encoding/binary"

	"github.com/coreos/go-semver/semver"
)

// KernelVersion is the kernel version TLV (type 0x08). It declares the
// kernel release the application was compiled against. Compatibility
// follows caret semantics: a kernel satisfies the requirement when its
// major version matches exactly and its minor version is at least the
// declared minimum.
type KernelVersion struct {
	// Major is the required kernel major version
	Major uint16

	// Minor is the minimum kernel minor version within Major
	Minor uint16

	valid bool
	raw   []byte
}

func parseKernelVersion(payload []byte) *KernelVersion {
	t := &KernelVersion{}
	if len(payload) != kernelVersionLength {
		t.raw = cloneBytes(payload)
		return t
	}
	t.Major = binary.LittleEndian.Uint16(payload[0:])
	t.Minor = binary.LittleEndian.Uint16(payload[2:])
	t.valid = true
	return t
}

// TLVID returns TypeKernelVersion.
func (t *KernelVersion) TLVID() uint16 { return TypeKernelVersion }

// IsValid reports whether the payload had the expected length.
func (t *KernelVersion) IsValid() bool { return t.valid }

// Pack serializes the TLV. An invalid record re-emits its original
// payload verbatim.
func (t *KernelVersion) Pack() []byte {
	if !t.valid {
		return packTLV(TypeKernelVersion, t.raw)
	}
	payload := make([]byte, kernelVersionLength)
	binary.LittleEndian.PutUint16(payload[0:], t.Major)
	binary.LittleEndian.PutUint16(payload[2:], t.Minor)
	return packTLV(TypeKernelVersion, payload)
}

// Size returns the serialized size in bytes.
func (t *KernelVersion) Size() int { return len(t.Pack()) }

func (t *KernelVersion) setField(name string, value uint32) bool {
	switch name {
	case "kernel_major":
		t.Major = uint16(value)
	case "kernel_minor":
		t.Minor = uint16(value)
	default:
		return false
	}
	return true
}

// Required returns the minimum kernel version as a semantic version.
func (t *KernelVersion) Required() semver.Version {
	return semver.Version{Major: int64(t.Major), Minor: int64(t.Minor)}
}

// Compatible reports whether kernel satisfies the ^Major.Minor requirement
// declared by this TLV.
func (t *KernelVersion) Compatible(kernel semver.Version) bool {
	if kernel.Major != int64(t.Major) {
		return false
	}
	return kernel.Minor >= int64(t.Minor)
}
