package stream

import (
	"errors"
	"testing"
)

func TestNormalizeEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"UTF-8", EncodingUTF8, false},
		{"utf8", EncodingUTF8, false},
		{"UCS-2", EncodingUTF16LE, false},
		{"utf16le", EncodingUTF16LE, false},
		{" Hex ", EncodingHex, false},
		{"binary", EncodingBinary, false},
		{"ebcdic", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeEncoding(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeEncoding(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownEncoding) {
			t.Errorf("NormalizeEncoding(%q) error = %v, want ErrUnknownEncoding", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("NormalizeEncoding(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToText(t *testing.T) {
	tests := []struct {
		enc  string
		in   []byte
		want string
	}{
		{EncodingUTF8, []byte("héllo"), "héllo"},
		{EncodingUTF8, []byte{'a', 0xff, 'b'}, "a�b"},
		{EncodingASCII, []byte{'a', 0xe1}, "aa"},
		{EncodingLatin1, []byte{'c', 'a', 'f', 0xe9}, "café"},
		{EncodingUTF16LE, []byte{'h', 0, 'i', 0}, "hi"},
		{EncodingBase64, []byte("hi"), "aGk="},
		{EncodingHex, []byte{0xca, 0xfe}, "cafe"},
	}
	for _, tt := range tests {
		got, err := ToText(tt.in, tt.enc)
		if err != nil {
			t.Errorf("ToText(%s) error = %v", tt.enc, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ToText(%s) = %q, want %q", tt.enc, got, tt.want)
		}
	}
}

func TestFromText(t *testing.T) {
	tests := []struct {
		enc     string
		in      string
		want    []byte
		wantErr bool
	}{
		{EncodingUTF8, "hé", []byte("hé"), false},
		{EncodingLatin1, "café", []byte{'c', 'a', 'f', 0xe9}, false},
		{EncodingUTF16LE, "hi", []byte{'h', 0, 'i', 0}, false},
		{EncodingBase64, "aGk=", []byte("hi"), false},
		{EncodingBase64, "!!", nil, true},
		{EncodingHex, "cafe", []byte{0xca, 0xfe}, false},
		{EncodingHex, "xyz", nil, true},
	}
	for _, tt := range tests {
		got, err := FromText(tt.in, tt.enc)
		if (err != nil) != tt.wantErr {
			t.Errorf("FromText(%q, %s) error = %v, wantErr %v", tt.in, tt.enc, err, tt.wantErr)
			continue
		}
		if string(got) != string(tt.want) {
			t.Errorf("FromText(%q, %s) = %v, want %v", tt.in, tt.enc, got, tt.want)
		}
	}
}

func TestChunk(t *testing.T) {
	var null Chunk
	if !null.IsNil() || null.Len() != 0 {
		t.Error("zero Chunk should be the null chunk")
	}
	if Bytes(nil).IsNil() {
		t.Error("Bytes(nil) should be an empty, non-null chunk")
	}
	if Text("").IsNil() {
		t.Error("Text(\"\") should be an empty, non-null chunk")
	}

	src := []byte("abc")
	c := Bytes(src)
	src[0] = 'x'
	if c.String() != "abc" {
		t.Errorf("Bytes() did not copy its input: %q", c.String())
	}
	c.Bytes()[0] = 'y'
	if c.String() != "abc" {
		t.Error("Chunk.Bytes() exposed internal storage")
	}

	txt := Text("6869")
	if !txt.IsText() || txt.Len() != 4 {
		t.Errorf("Text chunk IsText=%v Len=%d", txt.IsText(), txt.Len())
	}
	b, err := txt.Encode(EncodingHex)
	if err != nil || string(b) != "hi" {
		t.Errorf("Encode(hex) = %q, %v", b, err)
	}
	raw, err := Bytes([]byte{1, 2}).Encode(EncodingHex)
	if err != nil || len(raw) != 2 {
		t.Errorf("raw Encode() = %v, %v; raw chunks pass through", raw, err)
	}
}

func TestTextDecoder(t *testing.T) {
	tests := []struct {
		name   string
		enc    string
		chunks [][]byte
		want   []string
		rest   string
	}{
		{"utf8 split", "utf8", [][]byte{{'a', 0xc3}, {0xa9}}, []string{"a", "é"}, ""},
		{"utf8 three ways", "utf8", [][]byte{{0xe2}, {0x82}, {0xac}}, []string{"", "", "€"}, ""},
		{"utf8 truncated", "utf8", [][]byte{{'x', 0xe2, 0x82}}, []string{"x"}, "�"},
		{"utf16le odd byte", "ucs2", [][]byte{{'o', 0, 'k'}, {0}}, []string{"o", "k"}, ""},
		{"base64 groups", "base64", [][]byte{[]byte("hell"), []byte("o")}, []string{"aGVs", ""}, "bG8="},
		{"hex", "hex", [][]byte{{0xde}, {0xad}}, []string{"de", "ad"}, ""},
		{"latin1", "latin1", [][]byte{{0xe9}}, []string{"é"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewTextDecoder(tt.enc)
			if err != nil {
				t.Fatalf("NewTextDecoder() error = %v", err)
			}
			for i, c := range tt.chunks {
				got, err := d.Decode(c)
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				if got != tt.want[i] {
					t.Errorf("Decode(chunk %d) = %q, want %q", i, got, tt.want[i])
				}
			}
			rest, err := d.Flush()
			if err != nil || rest != tt.rest {
				t.Errorf("Flush() = %q, %v, want %q", rest, err, tt.rest)
			}
			if d.Pending() {
				t.Error("Pending() = true after Flush")
			}
		})
	}
}

func TestNewTextDecoder_Invalid(t *testing.T) {
	if _, err := NewTextDecoder(""); err == nil {
		t.Error("NewTextDecoder(\"\") should fail")
	}
	if _, err := NewTextDecoder("ebcdic"); err == nil {
		t.Error("NewTextDecoder(ebcdic) should fail")
	}
}
