package footer

import (
	"crypto/rsa"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/moffa90/go-tbf/tbf"
)

// IntegrityBlob builds the exact byte sequence credentials are computed
// over: the packed header bytes followed by the application binary.
// Returns nil when the binary is unavailable, in which case no
// verification is possible.
func IntegrityBlob(hdr *tbf.Header, appBinary []byte) []byte {
	if appBinary == nil {
		return nil
	}
	return append(hdr.Pack(), appBinary...)
}

// Footer is the parsed TLV stream following an application binary.
// Construct one with Parse.
type Footer struct {
	// Version mirrors the owning header's version; a future header
	// version may define a different footer structure
	Version uint16

	// TLVs is the ordered footer TLV sequence
	TLVs []tbf.TLV

	modified bool
	log      tbf.Logger
}

// config holds footer parse configuration.
type config struct {
	logger tbf.Logger
}

// Option is a functional option for Parse.
type Option func(*config)

// WithLogger sets a diagnostics sink for non-fatal warnings encountered
// while parsing or verifying the footer. The default discards them.
func WithLogger(logger tbf.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Parse decodes the footer TLV stream in buffer. hdr is the already-parsed
// owning header, needed to rebuild the integrity-covered blob. appBinary
// is the raw application binary when available; pass nil if the binary was
// not read, in which case every credential stays VerifiedUnknown.
//
// Hash credentials are checked immediately against the covered blob.
// Signature credentials additionally need public keys; see
// VerifyCredentials.
func Parse(hdr *tbf.Header, appBinary, buffer []byte, opts ...Option) *Footer {
	cfg := config{logger: nopLogger{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &Footer{Version: hdr.Version, log: cfg.logger}
	blob := IntegrityBlob(hdr, appBinary)

	buf := buffer
	for len(buf) >= 4 {
		id := binary.LittleEndian.Uint16(buf[0:])
		length := int(binary.LittleEndian.Uint16(buf[2:]))
		buf = buf[4:]

		if length > len(buf) {
			cfg.logger.Warn("truncated TLV in TBF footer",
				"type", id, "length", length, "remaining", len(buf))
			break
		}
		payload := buf[:length]

		if id == TypeCredentials {
			c := parseCredentials(payload, cfg.logger)
			c.Verify(nil, blob)
			f.TLVs = append(f.TLVs, c)
		} else {
			cfg.logger.Warn("unknown TLV in TBF footer", "type", id)
			f.TLVs = append(f.TLVs, &Unknown{
				Type:    id,
				Payload: append([]byte(nil), payload...),
			})
		}

		// Footer TLVs are not padded to a 4-byte boundary.
		buf = buf[length:]
	}

	return f
}

// IsModified reports whether the footer changed since it was parsed,
// meaning the caller needs to re-flash it.
func (f *Footer) IsModified() bool { return f.modified }

// DeleteTLV removes every footer TLV with the given type identifier.
func (f *Footer) DeleteTLV(id uint16) {
	kept := f.TLVs[:0]
	for i, t := range f.TLVs {
		if t.TLVID() == id {
			f.log.Debug("removing footer TLV", "index", i, "type", id)
			f.modified = true
			continue
		}
		kept = append(kept, t)
	}
	f.TLVs = kept
}

// VerifyCredentials re-evaluates every credentials TLV against the
// integrity blob with the supplied public keys. Pass the blob from
// IntegrityBlob; a nil blob leaves every credential VerifiedUnknown.
func (f *Footer) VerifyCredentials(keys []*rsa.PublicKey, integrityBlob []byte) {
	for _, t := range f.TLVs {
		if c, ok := t.(*Credentials); ok {
			c.Verify(keys, integrityBlob)
		}
	}
}

// Pack serializes the footer to its canonical byte representation.
func (f *Footer) Pack() []byte {
	buf := []byte{}
	if f.Version == 2 {
		for _, t := range f.TLVs {
			buf = append(buf, t.Pack()...)
		}
	}
	return buf
}

// String renders every footer TLV in human-readable form.
func (f *Footer) String() string {
	var b strings.Builder
	for _, t := range f.TLVs {
		if s, ok := t.(fmt.Stringer); ok {
			b.WriteString(s.String())
		}
	}
	return b.String()
}

// Object returns a tree-shaped export of the footer TLVs suitable for
// machine consumption.
func (f *Footer) Object() []interface{} {
	out := []interface{}{}
	for _, t := range f.TLVs {
		if o, ok := t.(interface{ Object() interface{} }); ok {
			out = append(out, o.Object())
		}
	}
	return out
}

// Unknown preserves a footer TLV with an unrecognized type identifier
// verbatim. Footer TLVs carry no alignment padding, so Pack re-emits
// exactly the prefix and payload.
type Unknown struct {
	// Type is the raw 16-bit TLV type identifier
	Type uint16

	// Payload is the raw payload
	Payload []byte
}

// TLVID returns the raw type identifier.
func (t *Unknown) TLVID() uint16 { return t.Type }

// Pack re-emits the TLV with its original payload, unpadded.
func (t *Unknown) Pack() []byte {
	out := make([]byte, 4+len(t.Payload))
	binary.LittleEndian.PutUint16(out[0:], t.Type)
	binary.LittleEndian.PutUint16(out[2:], uint16(len(t.Payload)))
	copy(out[4:], t.Payload)
	return out
}

// Size returns the serialized size in bytes.
func (t *Unknown) Size() int { return 4 + len(t.Payload) }

func (t *Unknown) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Footer TLV: UNKNOWN (%d)\n", t.Type)
	fmt.Fprintf(&b, "  %-20s: %s\n", "buffer", hex.EncodeToString(t.Payload))
	return b.String()
}

// UnknownObject is the export of an unrecognized footer TLV.
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
