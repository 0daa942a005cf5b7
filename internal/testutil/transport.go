package testutil

import (
	"io"
	"net/http"
	"sync"
)

// CountingTransport counts round trips and tracks whether response bodies
// handed out were closed.
type CountingTransport struct {
	Base http.RoundTripper

	mu         sync.Mutex
	calls      int
	openBodies int
}

func (t *CountingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.openBodies++
	t.mu.Unlock()
	resp.Body = &trackedBody{ReadCloser: resp.Body, t: t}
	return resp, nil
}

func (t *CountingTransport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func (t *CountingTransport) OpenBodies() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openBodies
}

type trackedBody struct {
	io.ReadCloser
	t    *CountingTransport
	once sync.Once
}

func (b *trackedBody) Close() error {
	b.once.Do(func() {
		b.t.mu.Lock()
		b.t.openBodies--
		b.t.mu.Unlock()
	})
	return b.ReadCloser.Close()
}
