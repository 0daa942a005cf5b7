package exchange

import (
	"context"
	"io"
	"net/http"
	"net/http/httptrace"

	"github.com/charmbracelet/log"
	"github.com/nojima/httpie-upload/encoder"
	"github.com/nojima/httpie-upload/input"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// ErrCanceled is returned when the caller cancels an exchange before it
// finished.
var ErrCanceled = errors.New("upload canceled")

const copyBufferSize = 32 * 1024

// Phase is a milestone of a single exchange.
type Phase int

const (
	PhaseConnected Phase = iota
	PhaseSending
	PhaseAwaitingResponse
)

func (p Phase) String() string {
	switch p {
	case PhaseConnected:
		return "connected"
	case PhaseSending:
		return "sending"
	case PhaseAwaitingResponse:
		return "awaiting-response"
	default:
		return "unknown"
	}
}

// Hooks receive notifications while an exchange runs. They may be called
// from transport goroutines and must not block.
type Hooks struct {
	// Progress is called after every chunk with the total number of file
	// payload bytes and the number sent so far.
	Progress func(total, sent int64)
	Phase    func(Phase)
}

func (h Hooks) progress(total, sent int64) {
	if h.Progress != nil {
		h.Progress(total, sent)
	}
}

func (h Hooks) phase(p Phase) {
	if h.Phase != nil {
		h.Phase(p)
	}
}

// Engine streams encoded plans to a server and collects its response.
type Engine struct {
	client  *http.Client
	fs      afero.Fs
	options *Options
	logger  *log.Logger
}

func NewEngine(fsys afero.Fs, options *Options) (*Engine, error) {
	client, err := BuildHTTPClient(options)
	if err != nil {
		return nil, err
	}
	return &Engine{
		client:  client,
		fs:      fsys,
		options: options,
		logger:  options.logger(),
	}, nil
}

// Send transmits plan as the body of a single request described by in. The
// plan's files are read but not closed.
func (e *Engine) Send(ctx context.Context, in *input.Input, plan *encoder.Plan, hooks Hooks) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var pr *io.PipeReader
	var pw *io.PipeWriter
	var body io.Reader
	if plan.Length > 0 {
		pr, pw = io.Pipe()
		body = pr
	}

	req, err := BuildHTTPRequest(gctx, e.fs, in, plan, body, e.options)
	if err != nil {
		if pw != nil {
			pw.Close()
			pr.Close()
		}
		return nil, err
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), traceFor(hooks)))

	e.logger.Debug("sending request",
		"method", req.Method,
		"url", req.URL.String(),
		"length", plan.Length,
		"files", len(plan.Files()))

	var writeErr, doErr error
	if pw != nil {
		g.Go(func() error {
			err := e.writePlan(gctx, pw, plan, hooks)
			pw.CloseWithError(err)
			if errors.Is(err, io.ErrClosedPipe) {
				// The transport stopped reading. The round trip reports why.
				return nil
			}
			writeErr = err
			return err
		})
	}

	var resp *Response
	g.Go(func() error {
		r, err := e.roundTrip(req)
		if err != nil {
			if pr != nil {
				pr.CloseWithError(err)
			}
			doErr = err
			return err
		}
		resp = r
		return nil
	})

	err = g.Wait()
	if pr != nil {
		pr.Close()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, canceled(ctxErr)
		}
		// A failure on the sending side is the root cause of whatever the
		// round trip saw afterwards.
		if writeErr != nil && !errors.Is(writeErr, context.Canceled) &&
			(doErr == nil || !errors.Is(writeErr, doErr)) {
			return nil, writeErr
		}
		if doErr != nil {
			return nil, doErr
		}
		return nil, err
	}

	e.logger.Debug("received response", "status", resp.Status, "bytes", len(resp.Body))
	return resp, nil
}

func (e *Engine) roundTrip(req *http.Request) (*Response, error) {
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "sending HTTP request")
	}
	defer resp.Body.Close()

	return readResponse(resp)
}

// writePlan copies each segment of plan to w. File segments are split into
// chunks and progress is reported after each one.
func (e *Engine) writePlan(ctx context.Context, w io.Writer, plan *encoder.Plan, hooks Hooks) error {
	buf := make([]byte, copyBufferSize)
	var sent int64

	for _, s := range plan.Segments {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}

		switch s.Kind {
		case encoder.LiteralSegment:
			if _, err := w.Write(s.Literal); err != nil {
				return errors.Wrap(err, "writing request body")
			}

		case encoder.FileSegment:
			chunk := chunkSize(s.Size, e.options.chunkCount())
			var done int64
			for done < s.Size {
				if err := ctx.Err(); err != nil {
					return errors.WithStack(err)
				}
				n := chunk
				if rest := s.Size - done; rest < n {
					n = rest
				}
				copied, err := io.CopyBuffer(w, io.LimitReader(s.File, n), buf)
				done += copied
				sent += copied
				if err != nil {
					return errors.Wrapf(err, "sending file '%s'", s.Path)
				}
				if copied < n {
					return errors.Wrapf(io.ErrUnexpectedEOF, "file '%s' shrank while being sent", s.Path)
				}
				hooks.progress(plan.PayloadLength, sent)
			}
		}
	}
	return nil
}

// chunkSize splits size into at most count chunks. It never returns less
// than one byte.
func chunkSize(size, count int64) int64 {
	if count <= 0 {
		count = DefaultChunkCount
	}
	n := (size + count - 1) / count
	if n < 1 {
		n = 1
	}
	return n
}

func traceFor(hooks Hooks) *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GotConn: func(httptrace.GotConnInfo) {
			hooks.phase(PhaseConnected)
		},
		WroteHeaders: func() {
			hooks.phase(PhaseSending)
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			hooks.phase(PhaseAwaitingResponse)
		},
	}
}

func canceled(cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		return errors.Wrap(cause, "upload timed out")
	}
	return errors.WithStack(ErrCanceled)
}
