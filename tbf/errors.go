package tbf

import "fmt"

// NoSuchFieldError indicates that ModifyTLV named a field the target TLV
// does not have. This is a caller contract violation, not a parse failure.
type NoSuchFieldError struct {
	// Field is the field name that was requested
	Field string

	// TLVID is the TLV type identifier the field was looked up on;
	// 0 addresses the base header fields
	TLVID uint16
}

func (e *NoSuchFieldError) Error() string {
	return fmt.Sprintf("field %q is not in TLV %d", e.Field, e.TLVID)
}

// IsNoSuchFieldError returns true if the error is a NoSuchFieldError.
func IsNoSuchFieldError(err error) bool {
	_, ok := err.(*NoSuchFieldError)
	return ok
}

// HeaderShrinkError indicates that AdjustStartingAddress would have to
// shrink the header to satisfy the fixed flash address, which is not
// possible. Callers are expected never to reach this state; the error
// marks a logic error upstream and must not be retried.
type HeaderShrinkError struct {
	// Address is the flash address the TBF object would be loaded at
	Address uint32

	// Current is Address plus the header size and protected region
	Current uint32

	// FixedFlash is the fixed flash address the application requires
	FixedFlash uint32
}

func (e *HeaderShrinkError) Error() string {
	return fmt.Sprintf(
		"cannot shrink header: app loaded at 0x%08X already extends to 0x%08X, past fixed flash address 0x%08X",
		e.Address, e.Current, e.FixedFlash)
}

// IsHeaderShrinkError returns true if the error is a HeaderShrinkError.
func IsHeaderShrinkError(err error) bool {
	_, ok := err.(*HeaderShrinkError)
	return ok
}
