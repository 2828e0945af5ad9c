package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestDispatcherRunsJobsOnce(t *testing.T) {
	var (
		mu      sync.Mutex
		results = map[string]error{}
	)
	d := NewDispatcher(Options{Workers: 2, OnResult: func(action string, err error) {
		mu.Lock()
		defer mu.Unlock()
		results[action] = err
	}})

	var runs atomic.Int32
	boom := &net.OpError{Op: "dial", Err: errors.New("refused")}
	require.NoError(t, d.Enqueue(context.Background(), "ok", "sendMessage", func() error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, d.Enqueue(context.Background(), "fail", "sendMessage", func() error {
		runs.Add(1)
		return boom
	}))
	d.Close()

	assert.Equal(t, int32(2), runs.Load())
	assert.Equal(t, uint64(1), d.ErrorCount())
	assert.NoError(t, results["ok"])
	assert.ErrorIs(t, results["fail"], boom)
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var runs atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "flaky", "", func() error {
		if runs.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, int32(3), runs.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	err := d.Enqueue(context.Background(), "late", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	assert.Equal(t, "dial", classifyError(&net.OpError{Op: "dial", Err: errors.New("x")}))
	assert.Equal(t, "http_4xx", classifyError(&tele.Error{Code: 400, Description: "bad"}))
	assert.Equal(t, "unknown", classifyError(errors.New("boom")))
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New("Post https://api.telegram.org/bot123:ABC-def/sendMessage: EOF")
	assert.NotContains(t, sanitizeErrorMessage(err), "ABC-def")
}
