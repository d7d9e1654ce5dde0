package app

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.hackfix.me/modelvault/db"
)

var timeNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func timeNowFn() time.Time {
	return timeNow
}

type testApp struct {
	*App
	stdin          io.Writer
	stdout, stderr *outputBuffer
}

func newTestApp(ctx context.Context) (*testApp, error) {
	// A unique name per app, to avoid clashing of in-memory SQLite DBs.
	rndName := make([]byte, 12)
	_, err := rand.Read(rndName)
	if err != nil {
		return nil, err
	}

	// A named shared-cache DB instead of :memory:, so that every connection in
	// the pool sees the same tables.
	d, err := db.Open(ctx,
		fmt.Sprintf("file:modelvault-%x?mode=memory&cache=shared", rndName), timeNowFn)
	if err != nil {
		return nil, err
	}

	stdinR, stdinW := io.Pipe()
	stdout, stderr := &outputBuffer{}, &outputBuffer{}

	app, err := New("modelvault", "/config.json", "/data",
		WithTimeNow(timeNowFn),
		WithDB(d),
		WithContext(ctx),
		WithFDs(stdinR, stdout, stderr),
		WithFS(memoryfs.New()),
		WithLogger(false, false),
	)
	if err != nil {
		return nil, err
	}

	return &testApp{App: app, stdin: stdinW, stdout: stdout, stderr: stderr}, nil
}

// Run runs a single command. The output buffers only hold the output of the
// most recent command.
func (ta *testApp) Run(args ...string) error {
	ta.stdout.Reset()
	ta.stderr.Reset()
	return ta.App.Run(args)
}

// outputBuffer collects everything written to it, and notifies waiters when a
// write matches their pattern.
type outputBuffer struct {
	mx      sync.Mutex
	buf     bytes.Buffer
	waiters []*outputWaiter
}

type outputWaiter struct {
	rx  *regexp.Regexp
	idx int
	ch  chan<- string
}

// waitFor sends the submatch at idx of the first write matching rxPat to ch.
// Each log record is a single write, so patterns match within one line. ch
// must have room for one value.
func (ob *outputBuffer) waitFor(rxPat string, idx int, ch chan<- string) {
	ob.mx.Lock()
	defer ob.mx.Unlock()
	ob.waiters = append(ob.waiters, &outputWaiter{
		rx: regexp.MustCompile(rxPat), idx: idx, ch: ch,
	})
}

func (ob *outputBuffer) Write(p []byte) (int, error) {
	ob.mx.Lock()
	defer ob.mx.Unlock()

	pending := ob.waiters[:0]
	for _, w := range ob.waiters {
		match := w.rx.FindSubmatch(p)
		if len(match) > w.idx {
			w.ch <- string(match[w.idx])
			continue
		}
		pending = append(pending, w)
	}
	ob.waiters = pending

	return ob.buf.Write(p)
}

func (ob *outputBuffer) Reset() {
	ob.mx.Lock()
	defer ob.mx.Unlock()
	ob.buf.Reset()
}

func (ob *outputBuffer) String() string {
	ob.mx.Lock()
	defer ob.mx.Unlock()
	return ob.buf.String()
}

// newTestContext returns a context that times out after timeout, and an
// assertion handler that cancels the context and fails the test immediately
// when an assertion fails, instead of waiting for the timeout.
func newTestContext(t *testing.T, timeout time.Duration) (
	ctx context.Context, cancelCtx func(), assertHandler func(bool),
) {
	ctx, cancelCtx = context.WithTimeout(t.Context(), timeout)
	assertHandler = func(success bool) {
		if !success {
			cancelCtx()
			t.FailNow()
		}
	}

	return
}
