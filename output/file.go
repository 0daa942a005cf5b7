package output

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var reIndexSuffix = regexp.MustCompile(`\.(\d+)$`)

// FileWriter saves a response body to a file.
type FileWriter struct {
	fs       afero.Fs
	fullPath string
}

func NewFileWriter(fs afero.Fs, options *Options) (*FileWriter, error) {
	if options.OutputFile == "" {
		return nil, errors.New("no output file given")
	}

	fullPath := options.OutputFile
	if !options.Overwrite {
		var err error
		fullPath, err = makeNonOverlappingFilename(fs, fullPath)
		if err != nil {
			return nil, err
		}
	}

	return &FileWriter{
		fs:       fs,
		fullPath: fullPath,
	}, nil
}

func makeNonOverlappingFilename(fs afero.Fs, path string) (string, error) {
	for {
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return "", errors.Wrapf(err, "checking '%s'", path)
		}
		if !exists {
			return path, nil
		}
		newPath := reIndexSuffix.ReplaceAllStringFunc(path, func(index string) string {
			i, _ := strconv.Atoi(strings.TrimPrefix(index, "."))
			return fmt.Sprintf(".%d", i+1)
		})
		if newPath == path {
			newPath = fmt.Sprintf("%s.%d", path, 1)
		}
		path = newPath
	}
}

func (f *FileWriter) Write(body string) error {
	if err := afero.WriteFile(f.fs, f.fullPath, []byte(body), 0o644); err != nil {
		return errors.Wrapf(err, "writing response to '%s'", f.fullPath)
	}
	return nil
}

func (f *FileWriter) Path() string {
	return f.fullPath
}
