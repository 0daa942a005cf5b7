// Package task runs uploads in the background and reports their outcome
// exactly once.
package task

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/nojima/httpie-upload/encoder"
	"github.com/nojima/httpie-upload/exchange"
	"github.com/nojima/httpie-upload/input"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrCanceled is the error of a task that was aborted before it finished.
var ErrCanceled = exchange.ErrCanceled

// Params describe one upload.
type Params struct {
	Input *input.Input

	// OnUploadProgress is called with the total number of file bytes and
	// the number sent so far. It runs on a transfer goroutine.
	OnUploadProgress func(total, sent int64)
	// OnUploadComplete is called exactly once, after every file and the
	// connection have been released.
	OnUploadComplete func(*Result)
}

// Result is the outcome of a task. Either Err is set and the response
// fields are zero, or Err is nil and they describe the server's response.
type Result struct {
	Proto      string
	StatusCode int
	Status     string
	Header     map[string]string
	Body       string

	Err error
}

func (r *Result) Succeeded() bool {
	return r.Err == nil
}

// Uploader starts tasks sharing one set of options. It holds no per-task
// state, so tasks started from it are independent.
type Uploader struct {
	fs      afero.Fs
	engine  *exchange.Engine
	encoder encoder.Options
	logger  *log.Logger
}

func New(fs afero.Fs, exchangeOptions exchange.Options, encoderOptions encoder.Options) (*Uploader, error) {
	if encoderOptions.Boundary != "" {
		if err := encoder.ValidateBoundary(encoderOptions.Boundary); err != nil {
			return nil, err
		}
	}
	engine, err := exchange.NewEngine(fs, &exchangeOptions)
	if err != nil {
		return nil, err
	}

	logger := exchangeOptions.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Uploader{
		fs:      fs,
		engine:  engine,
		encoder: encoderOptions,
		logger:  logger,
	}, nil
}

// Start begins the upload in its own goroutine and returns immediately.
func (u *Uploader) Start(ctx context.Context, params Params) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		params: params,
		cancel: cancel,
		done:   make(chan struct{}),
		logger: u.logger,
	}
	go t.run(ctx, u)
	return t
}

// Task is a single running upload.
type Task struct {
	params Params
	logger *log.Logger

	state   atomic.Int32
	aborted atomic.Bool
	cancel  context.CancelFunc

	callbackOnce sync.Once
	callbackErr  error

	done   chan struct{}
	result *Result
}

// Abort asks the task to stop. It is safe to call from any goroutine and
// more than once. A task that already finished is not affected.
func (t *Task) Abort() {
	t.aborted.Store(true)
	t.cancel()
}

func (t *Task) Aborted() bool {
	return t.aborted.Load()
}

func (t *Task) State() State {
	return State(t.state.Load())
}

// Done is closed after OnUploadComplete has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task is done and returns its result.
func (t *Task) Wait() *Result {
	<-t.done
	return t.result
}

// advance moves the task to state to. Moves backwards or out of a terminal
// state are ignored.
func (t *Task) advance(to State) bool {
	for {
		cur := t.state.Load()
		if State(cur).Terminal() || State(cur) >= to {
			return false
		}
		if t.state.CompareAndSwap(cur, int32(to)) {
			return true
		}
	}
}

func (t *Task) run(ctx context.Context, u *Uploader) {
	var result *Result
	defer func() {
		if r := recover(); r != nil {
			result = &Result{Err: errors.Errorf("upload panicked: %v", r)}
		}
		t.finish(result)
	}()

	result = t.upload(ctx, u)
}

func (t *Task) upload(ctx context.Context, u *Uploader) *Result {
	in := t.params.Input
	if in == nil {
		return &Result{Err: errors.New("no upload input given")}
	}
	if err := ctx.Err(); err != nil {
		return &Result{Err: errors.WithStack(ErrCanceled)}
	}

	t.advance(Encoding)
	plan, err := encoder.Encode(u.fs, in, u.encoder)
	if err != nil {
		return &Result{Err: err}
	}
	defer func() {
		if err := plan.Close(); err != nil {
			t.logger.Warn("closing upload files", "error", err)
		}
	}()
	t.logger.Debug("encoded upload", "length", plan.Length, "payload", plan.PayloadLength)

	resp, err := u.engine.Send(ctx, in, plan, exchange.Hooks{
		Progress: t.progress,
		Phase:    t.phase,
	})
	if t.callbackErr != nil {
		return &Result{Err: t.callbackErr}
	}
	if err != nil {
		return &Result{Err: err}
	}

	return &Result{
		Proto:      resp.Proto,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       resp.Body,
	}
}

func (t *Task) progress(total, sent int64) {
	if t.params.OnUploadProgress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.callbackOnce.Do(func() {
				t.callbackErr = errors.Errorf("progress callback panicked: %v", r)
			})
			t.cancel()
		}
	}()
	t.params.OnUploadProgress(total, sent)
}

func (t *Task) phase(p exchange.Phase) {
	switch p {
	case exchange.PhaseConnected:
		t.advance(Connected)
	case exchange.PhaseSending:
		t.advance(Sending)
	case exchange.PhaseAwaitingResponse:
		t.advance(AwaitingResponse)
	}
}

func (t *Task) finish(result *Result) {
	defer close(t.done)
	defer t.cancel()

	if result.Err != nil {
		t.advance(Failed)
		t.logger.Debug("upload failed", "error", result.Err)
	} else {
		t.advance(Completed)
		t.logger.Debug("upload completed", "status", result.Status)
	}
	t.result = result

	if t.params.OnUploadComplete == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("completion callback panicked", "panic", r)
		}
	}()
	t.params.OnUploadComplete(result)
}
