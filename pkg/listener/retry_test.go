package listener

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRetryDelay(t *testing.T) {
	d := nextRetryDelay(0)
	assert.Equal(t, minRetryDelay, d)
	assert.Equal(t, 2*minRetryDelay, nextRetryDelay(d))

	for i := 0; i < 20; i++ {
		d = nextRetryDelay(d)
	}
	assert.Equal(t, maxRetryDelay, d)
}

// failingListener fails Accept a fixed number of times, then blocks
// until closed.
type failingListener struct {
	mu       sync.Mutex
	failures int
	calls    []time.Time
	closed   chan struct{}
	once     sync.Once
}

func (f *failingListener) Accept() (net.Conn, error) {
	f.mu.Lock()
	f.calls = append(f.calls, time.Now())
	fail := len(f.calls) <= f.failures
	f.mu.Unlock()
	if fail {
		return nil, &net.OpError{Op: "accept", Net: "tcp", Err: errTooManyFiles}
	}
	<-f.closed
	return nil, net.ErrClosed
}

func (f *failingListener) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *failingListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

type tooManyFiles struct{}

func (tooManyFiles) Error() string { return "too many open files" }

var errTooManyFiles error = tooManyFiles{}

func TestServeBacksOffOnAcceptErrors(t *testing.T) {
	fl := &failingListener{failures: 3, closed: make(chan struct{})}
	l := New(&Config{Delay: -1}, nil)
	l.ln = fl

	done := make(chan error, 1)
	go func() {
		done <- l.Serve()
	}()

	require.Eventually(t, func() bool {
		fl.mu.Lock()
		defer fl.mu.Unlock()
		return len(fl.calls) > fl.failures
	}, time.Second*5, time.Millisecond)

	require.NoError(t, l.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second * 5):
		t.Fatal("Serve did not return after Close")
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()
	want := minRetryDelay
	for i := 1; i <= fl.failures; i++ {
		assert.GreaterOrEqual(t, fl.calls[i].Sub(fl.calls[i-1]), want, "accept retry %d came too soon", i)
		want *= 2
	}
}
