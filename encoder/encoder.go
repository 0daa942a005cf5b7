// Package encoder turns an upload description into a Plan: the ordered body
// segments and the exact body length, computed before any byte is sent.
package encoder

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nojima/httpie-upload/filetype"
	"github.com/nojima/httpie-upload/input"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultBoundary is the boundary token used when Options.Boundary is empty.
const DefaultBoundary = "----upie-boundary-7MA4YWxkTrZu0gW"

const crlf = "\r\n"

type Options struct {
	Boundary string
	// SniffTypes detects the type of a file from its content when neither an
	// explicit type nor the extension gives one.
	SniffTypes bool
}

// Encode opens and stats every file of in exactly once and lays the body out.
// On error nothing stays open.
func Encode(fsys afero.Fs, in *input.Input, opts Options) (_ *Plan, err error) {
	plan := &Plan{}
	defer func() {
		if err != nil {
			plan.Close()
		}
	}()

	multipart := in.Body.BodyType != input.BinaryBody
	boundary := opts.Boundary
	if boundary == "" {
		boundary = DefaultBoundary
	}
	if multipart {
		if err := ValidateBoundary(boundary); err != nil {
			return nil, err
		}
		plan.Boundary = boundary

		for _, field := range in.Body.Fields {
			if err := checkHeaderText("field name", field.Name); err != nil {
				return nil, err
			}
			value, err := field.Resolve(fsys)
			if err != nil {
				return nil, err
			}
			plan.appendLiteral(fieldPart(boundary, field.Name, value))
		}
	}

	for _, file := range in.Body.Files {
		filename := file.Filename
		if filename == "" {
			filename = filepath.Base(file.Path)
		}
		if multipart {
			if err := checkFileHeaders(file, filename); err != nil {
				return nil, err
			}
		}

		f, size, err := openFile(fsys, file.Path)
		if err != nil {
			return nil, err
		}
		if !multipart {
			plan.appendFile(f, file.Path, size)
			continue
		}

		contentType, err := resolveType(f, file, opts)
		if err != nil {
			f.Close()
			return nil, err
		}
		plan.appendLiteral(fileHeader(boundary, file.Name, filename, contentType, size))
		plan.appendFile(f, file.Path, size)
		plan.appendLiteral([]byte(crlf))
	}

	if multipart {
		plan.appendLiteral([]byte("--" + boundary + "--" + crlf))
	}
	return plan, nil
}

func openFile(fsys afero.Fs, path string) (afero.File, int64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "opening file '%s'", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrapf(err, "stat-ing file '%s'", path)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, errors.Errorf("cannot upload directory '%s'", path)
	}
	return f, info.Size(), nil
}

func resolveType(f afero.File, file input.File, opts Options) (string, error) {
	if file.Type != "" || !opts.SniffTypes {
		return filetype.Resolve(file.Type, file.Path), nil
	}
	if t := filetype.FromExtension(file.Path); t != "" {
		return t, nil
	}

	t, err := filetype.Sniff(f)
	if err != nil {
		t = filetype.Wildcard
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", errors.Wrapf(err, "rewinding file '%s'", file.Path)
	}
	return t, nil
}

// checkHeaderText rejects text that would end a part header line early.
func checkHeaderText(what, s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return errors.Errorf("%s must not contain CR or LF: %q", what, s)
	}
	return nil
}

func checkFileHeaders(file input.File, filename string) error {
	if err := checkHeaderText("field name", file.Name); err != nil {
		return err
	}
	if err := checkHeaderText("filename", filename); err != nil {
		return err
	}
	return checkHeaderText("content type", file.Type)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func fieldPart(boundary, name, value string) []byte {
	var b strings.Builder
	b.WriteString("--" + boundary + crlf)
	b.WriteString(`Content-Disposition: form-data; name="` + escapeQuotes(name) + `"` + crlf)
	b.WriteString(crlf)
	b.WriteString(value)
	b.WriteString(crlf)
	return []byte(b.String())
}

func fileHeader(boundary, name, filename, contentType string, size int64) []byte {
	var b strings.Builder
	b.WriteString("--" + boundary + crlf)
	b.WriteString(`Content-Disposition: form-data; name="` + escapeQuotes(name) +
		`"; filename="` + escapeQuotes(filename) + `"` + crlf)
	b.WriteString("Content-Type: " + contentType + crlf)
	b.WriteString("Content-length: " + strconv.FormatInt(size, 10) + crlf)
	b.WriteString(crlf)
	return []byte(b.String())
}

// ValidateBoundary checks the token against the character set and length
// allowed by RFC 2046.
func ValidateBoundary(boundary string) error {
	if len(boundary) < 1 || len(boundary) > 70 {
		return errors.Errorf("invalid boundary length: %d", len(boundary))
	}
	for _, b := range boundary {
		if 'A' <= b && b <= 'Z' || 'a' <= b && b <= 'z' || '0' <= b && b <= '9' {
			continue
		}
		switch b {
		case '\'', '(', ')', '+', '_', ',', '-', '.', '/', ':', '=', '?':
			continue
		}
		return errors.Errorf("invalid boundary character: %q", b)
	}
	return nil
}
