package footer

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/moffa90/go-tbf/tbf"
)

// recordingLogger captures diagnostics for assertions.
type recordingLogger struct {
	debugs   []string
	warnings []string
	errors   []string
}

func (l *recordingLogger) Debug(msg string, _ ...interface{}) {
	l.debugs = append(l.debugs, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...interface{}) {
	l.warnings = append(l.warnings, msg)
}

func (l *recordingLogger) Error(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

// credTLVBytes assembles a credentials footer TLV: prefix, 32-bit type
// tag, body. Footer TLVs carry no alignment padding.
func credTLVBytes(ctype CredentialsType, body []byte) []byte {
	out := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint16(out[0:], TypeCredentials)
	binary.LittleEndian.PutUint16(out[2:], uint16(4+len(body)))
	binary.LittleEndian.PutUint32(out[4:], uint32(ctype))
	copy(out[8:], body)
	return out
}

func TestIntegrityBlob(t *testing.T) {
	hdr := tbf.NewPaddingHeader(512)

	if blob := IntegrityBlob(hdr, nil); blob != nil {
		t.Errorf("IntegrityBlob(hdr, nil) = %x, want nil", blob)
	}

	appBinary := []byte{0xAA, 0xBB, 0xCC}
	blob := IntegrityBlob(hdr, appBinary)
	want := append(hdr.Pack(), appBinary...)
	if !bytes.Equal(blob, want) {
		t.Errorf("IntegrityBlob() = %x, want %x", blob, want)
	}
}

func TestParseSHA256Credential(t *testing.T) {
	hdr := tbf.NewPaddingHeader(512)
	appBinary := []byte{1, 2, 3, 4}
	digest := sha256.Sum256(IntegrityBlob(hdr, appBinary))

	t.Run("matching digest", func(t *testing.T) {
		f := Parse(hdr, appBinary, credTLVBytes(CredentialsSHA256, digest[:]))
		c, ok := f.TLVs[0].(*Credentials)
		if !ok {
			t.Fatal("credentials TLV was not decoded")
		}
		if !c.IsValid() {
			t.Error("IsValid() = false, want true")
		}
		if got := c.Verified(); got != VerifiedYes {
			t.Errorf("Verified() = %v, want yes", got)
		}
	})

	t.Run("tampered digest", func(t *testing.T) {
		bad := digest
		bad[0] ^= 0xFF
		log := &recordingLogger{}

		f := Parse(hdr, appBinary, credTLVBytes(CredentialsSHA256, bad[:]),
			WithLogger(log))
		c := f.TLVs[0].(*Credentials)
		if got := c.Verified(); got != VerifiedNo {
			t.Errorf("Verified() = %v, want no", got)
		}
		if len(log.warnings) == 0 {
			t.Error("expected a hash mismatch warning")
		}
	})

	t.Run("binary unavailable", func(t *testing.T) {
		f := Parse(hdr, nil, credTLVBytes(CredentialsSHA256, digest[:]))
		c := f.TLVs[0].(*Credentials)
		if got := c.Verified(); got != VerifiedUnknown {
			t.Errorf("Verified() = %v, want unknown", got)
		}
	})
}

func TestParseUnknownFooterTLV(t *testing.T) {
	hdr := tbf.NewPaddingHeader(512)
	log := &recordingLogger{}

	// Type 0x42 with a 3-byte payload: footer TLVs are unpadded, so the
	// next TLV starts immediately after.
	buf := (&Unknown{Type: 0x42, Payload: []byte{9, 8, 7}}).Pack()
	buf = append(buf, credTLVBytes(CredentialsReserved, []byte{0, 0, 0, 0})...)

	f := Parse(hdr, nil, buf, WithLogger(log))
	if len(f.TLVs) != 2 {
		t.Fatalf("got %d TLVs, want 2", len(f.TLVs))
	}
	if len(log.warnings) == 0 {
		t.Error("expected a warning for the unknown footer TLV")
	}

	u, ok := f.TLVs[0].(*Unknown)
	if !ok {
		t.Fatal("unknown TLV was not preserved")
	}
	if !bytes.Equal(u.Payload, []byte{9, 8, 7}) {
		t.Errorf("unknown payload = %x, want 090807", u.Payload)
	}

	if got := f.Pack(); !bytes.Equal(got, buf) {
		t.Errorf("Pack() does not round-trip:\n got %x\nwant %x", got, buf)
	}
}

func TestParseTruncatedFooterTLV(t *testing.T) {
	hdr := tbf.NewPaddingHeader(512)
	log := &recordingLogger{}

	// Declared length 32 with only 2 payload bytes present.
	buf := []byte{0x80, 0x00, 0x20, 0x00, 0xAA, 0xBB}
	f := Parse(hdr, nil, buf, WithLogger(log))

	if len(f.TLVs) != 0 {
		t.Errorf("got %d TLVs, want 0", len(f.TLVs))
	}
	if len(log.warnings) == 0 {
		t.Error("expected a truncation warning")
	}
}

func TestFooterDeleteTLV(t *testing.T) {
	hdr := tbf.NewPaddingHeader(512)
	buf := append(
		credTLVBytes(CredentialsReserved, []byte{0, 0, 0, 0}),
		(&Unknown{Type: 0x42, Payload: []byte{1}}).Pack()...)

	f := Parse(hdr, nil, buf)
	if f.IsModified() {
		t.Error("IsModified() = true before any mutation")
	}

	f.DeleteTLV(TypeCredentials)
	if !f.IsModified() {
		t.Error("IsModified() = false after DeleteTLV")
	}
	if len(f.TLVs) != 1 {
		t.Fatalf("got %d TLVs, want 1", len(f.TLVs))
	}
	if _, ok := f.TLVs[0].(*Unknown); !ok {
		t.Error("remaining TLV is not the unknown entry")
	}

	want := (&Unknown{Type: 0x42, Payload: []byte{1}}).Pack()
	if got := f.Pack(); !bytes.Equal(got, want) {
		t.Errorf("Pack() = %x, want %x", got, want)
	}
}

func TestFooterObject(t *testing.T) {
	hdr := tbf.NewPaddingHeader(512)
	buf := append(
		credTLVBytes(CredentialsSHA512, make([]byte, 64)),
		(&Unknown{Type: 0x42, Payload: []byte{0xFE}}).Pack()...)

	objs := Parse(hdr, nil, buf).Object()
	if len(objs) != 2 {
		t.Fatalf("got %d objects, want 2", len(objs))
	}

	cred, ok := objs[0].(*CredentialsObject)
	if !ok || cred.CredentialsType != "SHA512" || cred.Verified != "unknown" {
		t.Errorf("unexpected credentials object: %+v", objs[0])
	}
	unknown, ok := objs[1].(*UnknownObject)
	if !ok || unknown.ID != 0x42 || unknown.Buffer != "fe" {
		t.Errorf("unexpected unknown object: %+v", objs[1])
	}
}
