package listener

import (
	"net"
	"sync"
	"time"

	"github.com/gabstv/echobox/internal/pkg/logger"
	"github.com/gabstv/echobox/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DatagramSize is the largest datagram the Reverser reads; longer ones
// are truncated.
const DatagramSize = 128

// Reverser answers every datagram with its bytes in reverse order.
type Reverser struct {
	ListenAddr string
	Logger     zerolog.Logger
	metrics    *metrics.Metrics

	mu     sync.Mutex
	pc     net.PacketConn
	closed bool
}

func NewReverser(addr string, m *metrics.Metrics) *Reverser {
	if m == nil {
		m = metrics.New()
	}
	return &Reverser{
		ListenAddr: addr,
		Logger:     logger.WithComponent("reverser"),
		metrics:    m,
	}
}

func (r *Reverser) Listen() error {
	pc, err := net.ListenPacket("udp", r.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "net.ListenPacket(%q)", r.ListenAddr)
	}
	r.mu.Lock()
	r.pc = pc
	r.closed = false
	r.mu.Unlock()
	r.Logger.Info().Str("addr", pc.LocalAddr().String()).Msg("listening")
	return nil
}

func (r *Reverser) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pc == nil {
		return nil
	}
	return r.pc.LocalAddr()
}

func (r *Reverser) Run() error {
	if err := r.Listen(); err != nil {
		return err
	}
	return r.Serve()
}

func (r *Reverser) Serve() error {
	r.mu.Lock()
	pc := r.pc
	r.mu.Unlock()
	if pc == nil {
		return errors.New("reverser: Serve called before Listen")
	}
	buf := make([]byte, DatagramSize)
	var retry time.Duration
	for {
		n, addr, err := pc.ReadFrom(buf)
		if err != nil {
			if r.isClosed() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return errors.Wrap(err, "read datagram")
			}
			retry = nextRetryDelay(retry)
			r.Logger.Warn().Err(err).Dur("retry_in", retry).Msg("read failed")
			time.Sleep(retry)
			continue
		}
		retry = 0
		r.Logger.Debug().Str("remote", addr.String()).Int("size", n).Msg("datagram received")
		if _, err := pc.WriteTo(Reverse(buf[:n]), addr); err != nil {
			r.Logger.Warn().Err(err).Str("remote", addr.String()).Msg("write failed")
			continue
		}
		r.metrics.DatagramsReversed.Inc()
	}
}

func (r *Reverser) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pc == nil || r.closed {
		return nil
	}
	r.closed = true
	return r.pc.Close()
}

func (r *Reverser) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Reverse reverses b in place and returns it.
func Reverse(b []byte) []byte {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}
