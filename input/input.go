package input

import (
	"net/url"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Input describes one upload: where it goes and what the body is made of.
// Every list is ordered; the order is preserved on the wire.
type Input struct {
	Method     Method
	URL        *url.URL
	Parameters []Field
	Header     Header
	Body       Body
}

type Method string

type Header struct {
	Fields []Field
}

type BodyType int

const (
	// MultipartBody frames fields and files as multipart/form-data.
	MultipartBody BodyType = iota
	// BinaryBody sends the raw concatenation of the files and nothing else.
	BinaryBody
)

func (t BodyType) String() string {
	switch t {
	case MultipartBody:
		return "multipart"
	case BinaryBody:
		return "binary"
	default:
		return "unknown"
	}
}

type Body struct {
	BodyType BodyType
	Fields   []Field // ignored when BodyType == BinaryBody
	Files    []File
}

type Field struct {
	Name   string
	Value  string
	IsFile bool
}

// Resolve returns the value of the field. When IsFile is set, Value is a path
// and the contents of that file are returned.
func (f Field) Resolve(fs afero.Fs) (string, error) {
	if !f.IsFile {
		return f.Value, nil
	}
	data, err := afero.ReadFile(fs, f.Value)
	if err != nil {
		return "", errors.Wrapf(err, "reading field value of '%s'", f.Name)
	}
	return string(data), nil
}

// File is a local file sent as one part of the body.
type File struct {
	Name     string // form field name
	Filename string // filename presented to the server
	Path     string // local path
	Type     string // explicit MIME type; resolved from Path when empty
}
