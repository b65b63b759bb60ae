package util

import (
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gabstv/manners"
	"github.com/pkg/errors"
)

// tcpKeepAliveListener sets TCP keep-alive timeouts on accepted
// connections so dead peers eventually go away.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}

// Listen binds a TCP listener on addr with keep-alive enabled on every
// accepted connection.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "net.Listen(%q)", addr)
	}
	return tcpKeepAliveListener{ln.(*net.TCPListener)}, nil
}

const gracefulCloseTimeout = time.Second * 5

// ServerWrapper serves an http.Server either directly or through a
// manners graceful server, which waits for in-flight requests on Close.
type ServerWrapper struct {
	vanilla  *http.Server
	graceful *manners.GracefulServer
	closed   int32
}

func NewVanillaServer(vanilla *http.Server) *ServerWrapper {
	return &ServerWrapper{vanilla: vanilla}
}

func NewGracefulServer(srv *http.Server) *ServerWrapper {
	return &ServerWrapper{graceful: manners.NewWithServer(srv)}
}

func (w *ServerWrapper) IsGraceful() bool {
	return w.graceful != nil
}

// Serve blocks until l fails or Close is called. A Close-triggered stop
// returns nil.
func (w *ServerWrapper) Serve(l net.Listener) error {
	var err error
	if w.graceful != nil {
		err = w.graceful.Serve(l)
	} else {
		err = w.vanilla.Serve(l)
	}
	if atomic.LoadInt32(&w.closed) == 1 || err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (w *ServerWrapper) Close() bool {
	if !atomic.CompareAndSwapInt32(&w.closed, 0, 1) {
		return false
	}
	if w.graceful != nil {
		// manners blocks Close until Serve has started
		done := make(chan bool, 1)
		go func() { done <- w.graceful.Close() }()
		select {
		case ok := <-done:
			return ok
		case <-time.After(gracefulCloseTimeout):
			return false
		}
	}
	w.vanilla.Close()
	return true
}
