package encoder

import (
	"bytes"
	"fmt"

	"github.com/spf13/afero"
)

type SegmentKind int

const (
	// LiteralSegment bytes are written as they are.
	LiteralSegment SegmentKind = iota
	// FileSegment bytes are streamed from an open file.
	FileSegment
)

// Segment is one piece of the request body, in wire order.
type Segment struct {
	Kind    SegmentKind
	Literal []byte

	// Used only when Kind == FileSegment.
	File afero.File
	Path string
	Size int64
}

// Len is the number of body bytes the segment contributes.
func (s Segment) Len() int64 {
	if s.Kind == FileSegment {
		return s.Size
	}
	return int64(len(s.Literal))
}

// Plan is the fully length-determined serialization of one request body.
// It owns the file handles of its file segments until Close is called.
type Plan struct {
	Segments []Segment

	// Length is the exact number of bytes of the body.
	Length int64
	// PayloadLength counts file bytes only; progress is reported against it.
	PayloadLength int64

	// Boundary is empty when the body is not multipart.
	Boundary string
}

func (p *Plan) ContentType() string {
	if p.Boundary == "" {
		return ""
	}
	return "multipart/form-data; boundary=" + p.Boundary
}

// Files returns the file segments in order.
func (p *Plan) Files() []Segment {
	var files []Segment
	for _, s := range p.Segments {
		if s.Kind == FileSegment {
			files = append(files, s)
		}
	}
	return files
}

// Close releases every file handle held by the plan. It is safe to call
// more than once.
func (p *Plan) Close() error {
	var errs []error
	for i := range p.Segments {
		s := &p.Segments[i]
		if s.Kind != FileSegment || s.File == nil {
			continue
		}
		if err := s.File.Close(); err != nil {
			errs = append(errs, err)
		}
		s.File = nil
	}
	if len(errs) == 0 {
		return nil
	}
	return multiCloseErr{errs}
}

func (p *Plan) appendLiteral(b []byte) {
	if len(b) == 0 {
		return
	}
	p.Segments = append(p.Segments, Segment{Kind: LiteralSegment, Literal: b})
	p.Length += int64(len(b))
}

func (p *Plan) appendFile(f afero.File, path string, size int64) {
	p.Segments = append(p.Segments, Segment{Kind: FileSegment, File: f, Path: path, Size: size})
	p.Length += size
	p.PayloadLength += size
}

type multiCloseErr struct {
	errs []error
}

func (e multiCloseErr) Error() string {
	errs := e.errs
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "%d errors while closing files: ", len(errs))
	fmt.Fprintf(&msg, "[%d]: %s", 0, errs[0])
	for i := 1; i < len(errs); i++ {
		fmt.Fprintf(&msg, ", [%d]: %s", i, errs[i])
	}
	return msg.String()
}

func (e multiCloseErr) Unwrap() []error {
	return e.errs
}
