package stream

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/fluxorio/streamactor/pkg/core"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported text encodings. The empty string means raw bytes.
const (
	EncodingUTF8    = "utf8"
	EncodingASCII   = "ascii"
	EncodingLatin1  = "latin1"
	EncodingBinary  = "binary"
	EncodingUTF16LE = "utf16le"
	EncodingUCS2    = "ucs2"
	EncodingBase64  = "base64"
	EncodingHex     = "hex"
)

// ErrUnknownEncoding is returned for an encoding name that is not supported
var ErrUnknownEncoding = &core.Error{Code: "UNKNOWN_ENCODING", Message: "unknown encoding"}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// NormalizeEncoding canonicalizes an encoding name ("UTF-8" -> "utf8").
// The empty string is returned unchanged.
func NormalizeEncoding(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "")
	switch n {
	case EncodingUTF8, EncodingASCII, EncodingLatin1, EncodingBinary,
		EncodingUTF16LE, EncodingBase64, EncodingHex:
		return n, nil
	case EncodingUCS2:
		return EncodingUTF16LE, nil
	}
	return "", &core.Error{Code: ErrUnknownEncoding.Code, Message: "unknown encoding: " + name}
}

// ToText renders raw bytes as text in the given encoding. For hex and base64
// the text is the encoded form of the bytes.
func ToText(b []byte, enc string) (string, error) {
	enc, err := NormalizeEncoding(enc)
	if err != nil {
		return "", err
	}
	switch enc {
	case "", EncodingUTF8:
		if utf8.Valid(b) {
			return string(b), nil
		}
		return strings.ToValidUTF8(string(b), string(utf8.RuneError)), nil
	case EncodingASCII:
		out := make([]byte, len(b))
		for i, c := range b {
			out[i] = c & 0x7f
		}
		return string(out), nil
	case EncodingLatin1, EncodingBinary:
		return charmap.ISO8859_1.NewDecoder().String(string(b))
	case EncodingUTF16LE:
		return utf16le.NewDecoder().String(string(b))
	case EncodingBase64:
		return base64.StdEncoding.EncodeToString(b), nil
	case EncodingHex:
		return hex.EncodeToString(b), nil
	}
	return "", ErrUnknownEncoding
}

// FromText converts text to raw bytes using the given encoding.
// Characters a single-byte encoding cannot represent are replaced.
func FromText(s string, enc string) ([]byte, error) {
	enc, err := NormalizeEncoding(enc)
	if err != nil {
		return nil, err
	}
	switch enc {
	case "", EncodingUTF8:
		return []byte(s), nil
	case EncodingASCII, EncodingLatin1, EncodingBinary:
		return encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).Bytes([]byte(s))
	case EncodingUTF16LE:
		return utf16le.NewEncoder().Bytes([]byte(s))
	case EncodingBase64:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, &core.Error{Code: "INVALID_CHUNK", Message: "invalid base64 chunk: " + err.Error()}
		}
		return b, nil
	case EncodingHex:
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, &core.Error{Code: "INVALID_CHUNK", Message: "invalid hex chunk: " + err.Error()}
		}
		return b, nil
	}
	return nil, ErrUnknownEncoding
}

// TextDecoder turns a byte stream into text one chunk at a time. Bytes that
// only form a character together with the next chunk (a split UTF-8 sequence,
// half a UTF-16 unit or surrogate pair, an incomplete base64 group) are held
// back until that chunk arrives or Flush is called.
type TextDecoder struct {
	enc  string
	t    transform.Transformer
	tail []byte
}

// NewTextDecoder creates a decoder for enc, which must not be empty
func NewTextDecoder(enc string) (*TextDecoder, error) {
	enc, err := NormalizeEncoding(enc)
	if err != nil {
		return nil, err
	}
	if enc == "" {
		return nil, ErrUnknownEncoding
	}
	d := &TextDecoder{enc: enc}
	switch enc {
	case EncodingUTF8:
		d.t = unicode.UTF8.NewDecoder()
	case EncodingUTF16LE:
		d.t = utf16le.NewDecoder()
	case EncodingLatin1, EncodingBinary:
		d.t = charmap.ISO8859_1.NewDecoder()
	}
	return d, nil
}

// Encoding returns the normalized encoding name
func (d *TextDecoder) Encoding() string {
	return d.enc
}

// Decode returns the text for the held-back bytes followed by b. The result
// is empty when every byte had to be held back.
func (d *TextDecoder) Decode(b []byte) (string, error) {
	return d.decode(b, false)
}

// Flush returns the held-back bytes as text, with replacement characters for
// incomplete sequences
func (d *TextDecoder) Flush() (string, error) {
	if len(d.tail) == 0 {
		return "", nil
	}
	return d.decode(nil, true)
}

// Pending reports whether bytes are held back
func (d *TextDecoder) Pending() bool {
	return len(d.tail) > 0
}

func (d *TextDecoder) decode(b []byte, atEOF bool) (string, error) {
	src := append(d.tail, b...)
	d.tail = nil
	if d.t != nil {
		// A source byte never yields more than one replacement character.
		dst := make([]byte, 3*len(src)+utf8.UTFMax)
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		if err != nil && err != transform.ErrShortSrc {
			return "", err
		}
		d.tail = append([]byte(nil), src[nSrc:]...)
		return string(dst[:nDst]), nil
	}
	n := len(src)
	if d.enc == EncodingBase64 && !atEOF {
		n -= n % 3
	}
	d.tail = append([]byte(nil), src[n:]...)
	return ToText(src[:n], d.enc)
}
