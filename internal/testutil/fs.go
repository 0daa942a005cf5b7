// Package testutil provides test doubles shared by the package tests.
package testutil

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// NewMemFs returns an in-memory filesystem holding files.
func NewMemFs(files map[string]string) afero.Fs {
	fs := afero.NewMemMapFs()
	for name, content := range files {
		if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
			panic(err)
		}
	}
	return fs
}

// TrackingFs counts how many files were opened and closed through it.
type TrackingFs struct {
	afero.Fs

	mu     sync.Mutex
	opened int
	closed int
}

func NewTrackingFs(fs afero.Fs) *TrackingFs {
	return &TrackingFs{Fs: fs}
}

func (fs *TrackingFs) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

func (fs *TrackingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := fs.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	fs.mu.Lock()
	fs.opened++
	fs.mu.Unlock()
	return &trackedFile{File: f, fs: fs}, nil
}

func (fs *TrackingFs) Opened() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.opened
}

func (fs *TrackingFs) Closed() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.closed
}

// Balanced reports whether every opened file has been closed.
func (fs *TrackingFs) Balanced() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.opened == fs.closed
}

type trackedFile struct {
	afero.File
	fs   *TrackingFs
	once sync.Once
}

func (f *trackedFile) Close() error {
	f.once.Do(func() {
		f.fs.mu.Lock()
		f.fs.closed++
		f.fs.mu.Unlock()
	})
	return f.File.Close()
}

// ErrInjectedRead is returned by files opened through FailingReadFs.
var ErrInjectedRead = errors.New("injected read failure")

// FailingReadFs serves files whose reads fail once FailAfter bytes have been
// read from them.
type FailingReadFs struct {
	afero.Fs
	FailAfter int64
}

func (fs FailingReadFs) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

func (fs FailingReadFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := fs.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &failingFile{File: f, left: fs.FailAfter}, nil
}

type failingFile struct {
	afero.File
	left int64
}

func (f *failingFile) Read(p []byte) (int, error) {
	if f.left <= 0 {
		return 0, ErrInjectedRead
	}
	if int64(len(p)) > f.left {
		p = p[:f.left]
	}
	n, err := f.File.Read(p)
	f.left -= int64(n)
	return n, err
}
