package loader

// streaming.go wraps the source reader so CSV parsing never sees the two
// artifacts the raw export reliably carries: a UTF-8 BOM from Windows
// tooling and the occasional invalid byte.

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// newBOMSkippingReader returns r with a leading UTF-8 BOM (0xEF 0xBB 0xBF)
// removed, if present.
func newBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		br.Discard(3)
	}
	return br
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?' on the fly, without
// buffering the whole input. A multi-byte sequence split across reads is
// held back until the next call.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	off := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[off:])
	n += off
	if n == 0 {
		return 0, err
	}

	data := p[:n]
	atEOF := err == io.EOF

	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size <= 1 {
			rest := data[read:]
			// An incomplete trailing sequence is not an error yet unless
			// the stream ended.
			if !atEOF && len(rest) < utf8.UTFMax && utf8.RuneStart(rest[0]) {
				s.pending = append(s.pending, rest...)
				break
			}
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}

	return write, err
}

// countingReader tracks bytes read for progress logging during long loads.
type countingReader struct {
	r     io.Reader
	bytes int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.bytes += int64(n)
	return n, err
}

// wrapForStreaming applies BOM skipping, then UTF-8 sanitizing, then byte
// counting. The BOM must go first, before any byte inspection.
func wrapForStreaming(r io.Reader) *countingReader {
	return &countingReader{r: newUTF8Sanitizer(newBOMSkippingReader(r))}
}
