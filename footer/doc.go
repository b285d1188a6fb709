// Package footer parses, verifies and serializes the optional TLV stream
// that follows the application binary in a Tock Binary Format (TBF)
// object.
//
// # TBF Footer Format
//
// A footer is a flat sequence of TLV entries with the same 4-byte prefix
// as header TLVs:
//
//	[Type(2)][Length(2)][Payload(Length)]
//
// Unlike header TLVs, footer entries are not padded to a 4-byte boundary.
// The only type interpreted by this package is Credentials (0x80); other
// types are preserved opaquely so the footer round-trips byte for byte.
//
// # Credentials
//
// A credentials TLV asserts an integrity or authenticity property over the
// covered blob: the exact header bytes followed by the application binary.
// The payload starts with a 32-bit credentials type tag and continues with
// a type-specific body, either a hash digest (SHA-256/384/512) or an RSA
// modulus plus PKCS#1 v1.5 signature.
//
// Verification is a tri-state result, never an error: VerifiedYes,
// VerifiedNo, or VerifiedUnknown when the covered blob is unavailable
// (for example when an app was enumerated on a board without reading the
// full binary back).
//
// # Usage
//
//	header := tbf.ParseHeader(raw)
//	appBinary := raw[header.SizeBeforeApp():header.BinaryEndOffset()]
//	ftr := footer.Parse(header, appBinary, raw[header.BinaryEndOffset():header.AppSize()])
//
//	ftr.VerifyCredentials(keys, footer.IntegrityBlob(header, appBinary))
//	for _, tlv := range ftr.TLVs {
//	    if c, ok := tlv.(*footer.Credentials); ok {
//	        fmt.Println(c.Type, c.Verified())
//	    }
//	}
package footer
