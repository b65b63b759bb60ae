package listener

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gabstv/echobox/internal/pkg/logger"
	"github.com/gabstv/echobox/pkg/metrics"
	"github.com/gabstv/echobox/pkg/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Listener accepts stream connections one at a time. For each one it
// pauses, reads a single line and writes the configured ack back before
// closing the connection. The next connection is not accepted until the
// current one is done.
type Listener struct {
	Cfg     Config
	Logger  zerolog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// New returns a Listener for cfg. A nil cfg means all defaults and a nil
// m gets a private metrics registry.
func New(cfg *Config, m *metrics.Metrics) *Listener {
	l := &Listener{}
	if cfg != nil {
		l.Cfg = *cfg
	}
	l.Cfg.SetupDefaults()
	if m == nil {
		m = metrics.New()
	}
	l.metrics = m
	l.Logger = logger.WithComponent("listener")
	if l.Cfg.Debug {
		l.Logger = l.Logger.Level(zerolog.DebugLevel)
	}
	return l
}

// Listen binds the configured address.
func (l *Listener) Listen() error {
	ln, err := util.Listen(l.Cfg.ListenAddr)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.ln = ln
	l.closed = false
	l.mu.Unlock()
	l.Logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
	return nil
}

// Addr is nil until Listen succeeds.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Run binds and serves until Close.
func (l *Listener) Run() error {
	if err := l.Listen(); err != nil {
		return err
	}
	return l.Serve()
}

// Serve runs the accept loop. It returns nil once Close is called.
func (l *Listener) Serve() error {
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()
	if ln == nil {
		return errors.New("listener: Serve called before Listen")
	}
	var retry time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if l.isClosed() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return errors.Wrap(err, "accept")
			}
			retry = nextRetryDelay(retry)
			l.Logger.Warn().Err(err).Dur("retry_in", retry).Msg("accept failed")
			time.Sleep(retry)
			continue
		}
		retry = 0
		if err := l.ServeConn(conn); err != nil {
			l.Logger.Warn().Err(err).Msg("connection abandoned")
		}
	}
}

// ServeConn handles c to completion and closes it.
func (l *Listener) ServeConn(c net.Conn) error {
	defer c.Close()
	log := l.Logger.With().
		Str("conn", uuid.New().String()).
		Str("remote", remoteAddr(c)).
		Logger()
	l.metrics.ConnectionsAccepted.Inc()
	log.Info().Msg("connection accepted")

	if l.Cfg.Delay > 0 {
		time.Sleep(l.Cfg.Delay)
	}

	line, err := readLine(c, l.Cfg.ReadLimit)
	if err != nil {
		l.metrics.ConnectionErrors.Inc()
		return errors.Wrap(err, "read line")
	}
	if line == "" {
		log.Debug().Msg("peer sent no data")
	} else {
		l.metrics.LinesReceived.Inc()
		log.Info().Str("line", line).Msg("line received")
	}

	if _, err := io.WriteString(c, l.Cfg.Ack); err != nil {
		l.metrics.ConnectionErrors.Inc()
		return errors.Wrap(err, "write ack")
	}
	l.metrics.AcksWritten.Inc()
	return nil
}

// Close releases the socket. Serve returns nil afterwards.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil || l.closed {
		return nil
	}
	l.closed = true
	return l.ln.Close()
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// readLine reads up to the first newline or limit bytes. A trailing
// partial line at EOF counts; EOF with nothing read is an empty line.
func readLine(r io.Reader, limit int) (string, error) {
	br := bufio.NewReader(io.LimitReader(r, int64(limit)))
	s, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func remoteAddr(c net.Conn) string {
	if a := c.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}
