package runner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// DefaultInputBufferSize is the default number of lines to buffer for input handlers.
const DefaultInputBufferSize = 64

type inputResult struct {
	text string
	err  error
}

// inputQueue decouples blocking reads from context-aware consumers. Lines can come from
// a pumped io.Reader or be fed directly by a host bridge.
type inputQueue struct {
	ch        chan inputResult
	done      chan struct{}
	closeOnce sync.Once
}

func newInputQueue() *inputQueue {
	return &inputQueue{
		ch:   make(chan inputResult, DefaultInputBufferSize),
		done: make(chan struct{}),
	}
}

// feed enqueues a line or an error. It drops the value once the queue is closed.
func (q *inputQueue) feed(text string, err error) {
	select {
	case q.ch <- inputResult{text: text, err: err}:
	case <-q.done:
	}
}

// pump reads r line by line until EOF, a read error or close.
func (q *inputQueue) pump(r io.Reader) {
	br := bufio.NewReader(r)
	for {
		text, err := br.ReadString('\n')
		if text != "" {
			q.feed(strings.TrimRight(text, "\r\n"), nil)
		}
		if err != nil {
			q.feed("", err)
			return
		}
		select {
		case <-q.done:
			return
		default:
		}
	}
}

// next returns the following line. After close it reports io.EOF.
func (q *inputQueue) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-q.done:
		return "", io.EOF
	case res := <-q.ch:
		return res.text, res.err
	}
}

func (q *inputQueue) close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// isExit reports whether a typed line ends the session.
func isExit(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "exit", "quit":
		return true
	}
	return false
}

// isEOF reports whether err means the input stream is over.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe)
}
