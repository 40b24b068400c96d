package loader

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "strips BOM",
			input: []byte{0xEF, 0xBB, 0xBF, 'a', 'b', 'c'},
			want:  "abc",
		},
		{
			name:  "no BOM unchanged",
			input: []byte("abc"),
			want:  "abc",
		},
		{
			name:  "short input without BOM",
			input: []byte("ab"),
			want:  "ab",
		},
		{
			name:  "empty input",
			input: []byte{},
			want:  "",
		},
		{
			name:  "BOM only",
			input: []byte{0xEF, 0xBB, 0xBF},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newBOMSkippingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("read %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "valid ascii unchanged",
			input: []byte("hello,world"),
			want:  "hello,world",
		},
		{
			name:  "valid multibyte unchanged",
			input: []byte("Æthelred’s land"),
			want:  "Æthelred’s land",
		},
		{
			name:  "invalid byte replaced",
			input: []byte{'a', 0xFF, 'b'},
			want:  "a?b",
		},
		{
			name:  "truncated sequence at end replaced",
			input: []byte{'a', 0xC3},
			want:  "a?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("read %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUTF8Sanitizer_SequenceSplitAcrossReads(t *testing.T) {
	// "é" is 0xC3 0xA9; iotest-style one-byte reads force the sanitizer to
	// hold the first byte as pending.
	src := onByteReader{r: bytes.NewReader([]byte("café"))}
	got, err := io.ReadAll(newUTF8Sanitizer(src))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "café" {
		t.Errorf("read %q, want %q", got, "café")
	}
}

type onByteReader struct {
	r io.Reader
}

func (o onByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.r.Read(p)
}

func TestCountingReader(t *testing.T) {
	cr := wrapForStreaming(strings.NewReader("ten bytes!"))
	if _, err := io.ReadAll(cr); err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if cr.bytes != 10 {
		t.Errorf("bytes = %d, want 10", cr.bytes)
	}
}
