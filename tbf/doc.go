// Package tbf provides parsing, validation and serialization for Tock
// Binary Format (TBF) headers.
//
// # TBF Header Format
//
// A TBF header is prepended to a compiled application binary before it is
// written to a board's flash. All fields are little-endian. The first two
// bytes hold the header version, which selects one of two layouts.
//
// Version 1 (legacy, fixed size):
//
//	[Version(4)][TotalSize(4)]...[PackageNameSize(4)][Checksum(4)]
//
// Eighteen 32-bit words of base fields followed by a trailing checksum word
// covering the first 72 bytes.
//
// Version 2 (extensible):
//
//	[Version(2)][HeaderSize(2)][TotalSize(4)][Flags(4)][Checksum(4)][TLVs...]
//
// The 16-byte base record is followed by HeaderSize-16 bytes of TLV
// entries. Each TLV starts with a 4-byte prefix:
//
//	[Type(2)][Length(2)][Payload(Length)]
//
// Length is the unpadded payload length; the cursor advances by Length
// rounded up to a 4-byte boundary so every TLV starts aligned. The header
// checksum is the XOR of the header's little-endian 32-bit words with the
// checksum field itself zeroed.
//
// A header with HeaderSize == 16 carries no TLVs and marks padding between
// applications rather than an application.
//
// # Usage
//
// Parse a header from raw flash or .tbf file bytes:
//
//	header := tbf.ParseHeader(buffer)
//	if !header.IsValid() {
//	    log.Fatal("not a TBF header")
//	}
//
//	fmt.Printf("app: %s, size: %d\n", header.AppName(), header.AppSize())
//
// Headers can be modified in place and re-serialized:
//
//	header.SetFlag("sticky", true)
//	if header.IsModified() {
//	    reflash(header.Pack())
//	}
//
// # Error Handling
//
// Parsing never fails: truncated or malformed buffers yield a header that
// reports IsValid() == false and IsApp() == false. Unknown TLV types are
// preserved verbatim so newer headers round-trip through older tools.
// Mutating operations return named errors only for caller contract
// violations (see NoSuchFieldError and HeaderShrinkError).
package tbf
