package stream

// Chunk is an immutable payload: raw bytes, or text decoded with the source's
// encoding. The zero value is the null chunk ("nothing available").
type Chunk struct {
	data   []byte
	text   string
	isText bool
}

// Bytes returns a raw chunk holding a copy of b
func Bytes(b []byte) Chunk {
	return Chunk{data: append([]byte{}, b...)}
}

// Text returns a text chunk
func Text(s string) Chunk {
	return Chunk{text: s, isText: true}
}

// IsNil reports whether c is the null chunk
func (c Chunk) IsNil() bool {
	return c.data == nil && !c.isText
}

// IsText reports whether c carries text
func (c Chunk) IsText() bool {
	return c.isText
}

// Len returns the payload length: bytes for raw chunks, bytes of the UTF-8
// form for text chunks
func (c Chunk) Len() int {
	if c.isText {
		return len(c.text)
	}
	return len(c.data)
}

// Bytes returns the raw payload; text chunks are returned as UTF-8
func (c Chunk) Bytes() []byte {
	if c.isText {
		return []byte(c.text)
	}
	return append([]byte(nil), c.data...)
}

func (c Chunk) String() string {
	if c.isText {
		return c.text
	}
	return string(c.data)
}

// Encode returns the bytes to put on the wire. Text chunks are converted with
// enc (utf8 when empty); raw chunks are returned as is.
func (c Chunk) Encode(enc string) ([]byte, error) {
	if !c.isText {
		return c.data, nil
	}
	return FromText(c.text, enc)
}
