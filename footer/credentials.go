package footer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/moffa90/go-tbf/tbf"
)

// TypeCredentials is the footer TLV type identifier for credentials.
const TypeCredentials uint16 = 0x80

// CredentialsType tags the body of a credentials TLV.
type CredentialsType uint32

// Credentials type enumeration.
const (
	CredentialsReserved CredentialsType = iota
	CredentialsClearTextID
	CredentialsRSA3072Key
	CredentialsRSA4096Key
	CredentialsRSA3072KeyID
	CredentialsRSA4096KeyID
	CredentialsSHA256
	CredentialsSHA384
	CredentialsSHA512
)

// Expected credential body lengths.
const (
	sha256Length = sha256.Size
	sha384Length = sha512.Size384
	sha512Length = sha512.Size

	// rsa4096KeyLength is a 512-byte big-endian modulus followed by a
	// 512-byte PKCS#1 v1.5 signature over the SHA-512 digest of the
	// covered blob
	rsa4096KeyLength   = 1024
	rsa4096ModulusSize = 512
)

var credentialsTypeNames = []string{
	"Reserved",
	"ClearTextID",
	"RSA3072KEY",
	"RSA4096KEY",
	"RSA3072KEYID",
	"RSA4096KEYID",
	"SHA256",
	"SHA384",
	"SHA512",
}

func (t CredentialsType) String() string {
	if int(t) < len(credentialsTypeNames) {
		return credentialsTypeNames[t]
	}
	return "Unknown"
}

// Verification is the tri-state outcome of checking a credential against
// the covered blob.
type Verification int

const (
	// VerifiedUnknown means the credential could not be checked either
	// way, typically because the covered binary was unavailable
	VerifiedUnknown Verification = iota

	// VerifiedYes means the credential matched the covered blob
	VerifiedYes

	// VerifiedNo means the credential was checked and did not match
	VerifiedNo
)

func (v Verification) String() string {
	switch v {
	case VerifiedYes:
		return "yes"
	case VerifiedNo:
		return "no"
	default:
		return "unknown"
	}
}

// Credentials is a credentials TLV (type 0x80) in a TBF footer. It asserts
// an integrity or authenticity property over the covered blob.
type Credentials struct {
	// Type is the credentials type tag from the first payload word
	Type CredentialsType

	// Payload is the type-specific body following the type tag
	Payload []byte

	valid    bool
	verified Verification
	raw      []byte
	log      tbf.Logger
}

// parseCredentials decodes a credentials TLV payload. A payload too short
// to carry the type tag is preserved raw so the footer still round-trips.
func parseCredentials(buffer []byte, log tbf.Logger) *Credentials {
	c := &Credentials{log: log}

	if len(buffer) < 4 {
		c.raw = append([]byte(nil), buffer...)
		return c
	}

	c.Type = CredentialsType(binary.LittleEndian.Uint32(buffer[0:]))
	c.Payload = append([]byte(nil), buffer[4:]...)

	switch c.Type {
	case CredentialsReserved:
		// Any size of reserved area is accepted for future credentials.
		c.valid = true
	case CredentialsSHA256:
		c.valid = len(c.Payload) == sha256Length
	case CredentialsSHA384:
		c.valid = len(c.Payload) == sha384Length
	case CredentialsSHA512:
		c.valid = len(c.Payload) == sha512Length
	case CredentialsRSA4096Key:
		c.valid = len(c.Payload) == rsa4096KeyLength
	default:
		log.Warn("unknown credentials type in TBF footer TLV",
			"credentials_type", uint32(c.Type))
	}

	return c
}

// TLVID returns TypeCredentials.
func (c *Credentials) TLVID() uint16 { return TypeCredentials }

// IsValid reports whether the payload parsed with the expected length for
// its credentials type.
func (c *Credentials) IsValid() bool { return c.valid }

// Verified returns the tri-state verification outcome.
func (c *Credentials) Verified() Verification { return c.verified }

// Verify checks the credential against integrityBlob, the byte sequence
// from IntegrityBlob. A nil blob leaves the outcome VerifiedUnknown.
//
// Hash credentials recompute the matching digest and compare byte for
// byte. RSA4096KEY credentials scan keys for the first one whose modulus
// matches the embedded 512-byte modulus and verify the trailing PKCS#1
// v1.5 signature over the SHA-512 digest of the blob; only the first
// matching key is tried, so callers must supply unique moduli. Without a
// matching key the outcome stays VerifiedUnknown.
func (c *Credentials) Verify(keys []*rsa.PublicKey, integrityBlob []byte) {
	if integrityBlob == nil {
		// Cannot verify either way without the covered binary. This
		// happens when the app came from a board and the full binary
		// was not read back.
		return
	}

	switch c.Type {
	case CredentialsSHA256:
		digest := sha256.Sum256(integrityBlob)
		c.compareDigest("SHA256", digest[:])
	case CredentialsSHA384:
		digest := sha512.Sum384(integrityBlob)
		c.compareDigest("SHA384", digest[:])
	case CredentialsSHA512:
		digest := sha512.Sum512(integrityBlob)
		c.compareDigest("SHA512", digest[:])
	case CredentialsRSA4096Key:
		c.verifyRSA4096Key(keys, integrityBlob)
	}
}

func (c *Credentials) compareDigest(name string, digest []byte) {
	if bytes.Equal(c.Payload, digest) {
		c.verified = VerifiedYes
		return
	}
	c.verified = VerifiedNo
	c.log.Warn(name+" hash in footer does not match binary")
}

func (c *Credentials) verifyRSA4096Key(keys []*rsa.PublicKey, integrityBlob []byte) {
	if len(c.Payload) != rsa4096KeyLength {
		return
	}
	c.log.Debug("verifying RSA4096KEY credential")

	modulus := new(big.Int).SetBytes(c.Payload[:rsa4096ModulusSize])
	signature := c.Payload[rsa4096ModulusSize:]

	for _, key := range keys {
		if key == nil || key.N.Cmp(modulus) != 0 {
			continue
		}

		digest := sha512.Sum512(integrityBlob)
		if err := rsa.VerifyPKCS1v15(key, crypto.SHA512, digest[:], signature); err != nil {
			c.verified = VerifiedNo
		} else {
			c.verified = VerifiedYes
		}

		// Only try one matching key.
		break
	}
}

// Pack serializes the TLV: prefix, 32-bit type tag, then the body. A
// payload that was too short to parse is re-emitted verbatim.
func (c *Credentials) Pack() []byte {
	if c.raw != nil {
		out := make([]byte, 4+len(c.raw))
		binary.LittleEndian.PutUint16(out[0:], TypeCredentials)
		binary.LittleEndian.PutUint16(out[2:], uint16(len(c.raw)))
		copy(out[4:], c.raw)
		return out
	}

	out := make([]byte, 8+len(c.Payload))
	binary.LittleEndian.PutUint16(out[0:], TypeCredentials)
	binary.LittleEndian.PutUint16(out[2:], uint16(4+len(c.Payload)))
	binary.LittleEndian.PutUint32(out[4:], uint32(c.Type))
	copy(out[8:], c.Payload)
	return out
}

// Size returns the serialized size in bytes.
func (c *Credentials) Size() int { return len(c.Pack()) }

func (c *Credentials) String() string {
	var verified string
	switch c.verified {
	case VerifiedYes:
		verified = " ✓ verified"
	case VerifiedNo:
		verified = " ✗ NOT verified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Footer TLV: Credentials (%d)\n", TypeCredentials)
	fmt.Fprintf(&b, "  Type: %s (%d)%s\n", c.Type, uint32(c.Type), verified)
	fmt.Fprintf(&b, "  Length: %d\n", len(c.Payload))
	return b.String()
}

// CredentialsObject is the export of a credentials TLV.
type CredentialsObject struct {
	Type            string `yaml:"type" json:"type"`
	ID              uint16 `yaml:"id" json:"id"`
	CredentialsType string `yaml:"credentials_type" json:"credentials_type"`
	Verified        string `yaml:"verified" json:"verified"`
	Length          int    `yaml:"length" json:"length"`
}

// Object returns the machine-consumable export of the TLV.
func (c *Credentials) Object() interface{} {
	return &CredentialsObject{
		Type:            "credentials",
		ID:              TypeCredentials,
		CredentialsType: c.Type.String(),
		Verified:        c.verified.String(),
		Length:          len(c.Payload),
	}
}
