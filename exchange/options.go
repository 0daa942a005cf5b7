package exchange

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nojima/httpie-upload/version"
)

// DefaultChunkCount is the number of transfer chunks a file is split into
// when Options.ChunkCount is not set.
const DefaultChunkCount = 100

type Options struct {
	// Timeout bounds the whole exchange, body transfer included. Zero means
	// no limit.
	Timeout         time.Duration
	FollowRedirects bool
	Auth            AuthOptions

	// ChunkCount is the number of chunks each file is sent in. Progress is
	// reported once per chunk.
	ChunkCount int
	UserAgent  string

	// Transport replaces the default transport. Used by tests.
	Transport http.RoundTripper
	Logger    *log.Logger
}

type AuthOptions struct {
	Enabled  bool
	UserName string
	Password string
}

func (o *Options) chunkCount() int64 {
	if o.ChunkCount <= 0 {
		return DefaultChunkCount
	}
	return int64(o.ChunkCount)
}

func (o *Options) userAgent() string {
	if o.UserAgent != "" {
		return o.UserAgent
	}
	return fmt.Sprintf("upie/%s", version.Current())
}

func (o *Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}
