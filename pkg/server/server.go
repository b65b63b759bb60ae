package server

import (
	"net"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gabstv/echobox/internal/pkg/logger"
	"github.com/gabstv/echobox/pkg/listener"
	"github.com/gabstv/echobox/pkg/metrics"
	"github.com/gabstv/echobox/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Server owns the stream listener, the datagram reverser and the demo api.
type Server interface {
	Run() error
	Close()
	Init()
	Ready() <-chan struct{}
	Handler() http.Handler
	ListenerAddr() net.Addr
	ReverserAddr() net.Addr
	APIAddr() net.Addr
	Metrics() *metrics.Metrics
	GetConfig() Config
	SetConfig(cfg Config)
}

// ErrAlreadyRun is returned by Run on a server that was already run.
var ErrAlreadyRun = errors.New("server: Run called more than once")

type sServer struct {
	Cfg      Config
	Logger   zerolog.Logger
	metrics  *metrics.Metrics
	listener *listener.Listener
	reverser *listener.Reverser
	router   *gin.Engine

	mu        sync.Mutex
	apiln     net.Listener
	wrapper   *util.ServerWrapper
	ready     chan struct{}
	closeChan chan struct{}
	closeOnce sync.Once
	started   int32
}

func (s *sServer) GetConfig() Config {
	return s.Cfg
}

// SetConfig replaces the configuration. It only has an effect before Run.
func (s *sServer) SetConfig(cfg Config) {
	s.Cfg = cfg
	s.build()
}

// Default creates a server with the given configuration; nil means all
// defaults (stream listener only).
func Default(cfg *Config) Server {
	s := &sServer{}
	if cfg != nil {
		s.Cfg = *cfg
	}
	s.Logger = logger.WithComponent("server")
	s.metrics = metrics.New()
	s.ready = make(chan struct{})
	s.closeChan = make(chan struct{})
	s.build()
	return s
}

func (s *sServer) build() {
	if s.Cfg.Debug {
		s.Cfg.Listener.Debug = true
	}
	s.Cfg.Websockets.SetupDefaults()
	s.listener = listener.New(&s.Cfg.Listener, s.metrics)
	s.Cfg.Listener = s.listener.Cfg
	s.reverser = nil
	if s.Cfg.UDPListenAddr != "" {
		s.reverser = listener.NewReverser(s.Cfg.UDPListenAddr, s.metrics)
	}
	s.router = newRouter(s.Cfg, s.listener.Cfg.Ack, s.metrics)
}

func (s *sServer) Handler() http.Handler {
	return s.router
}

func (s *sServer) Metrics() *metrics.Metrics {
	return s.metrics
}

// Ready is closed once every enabled component is bound.
func (s *sServer) Ready() <-chan struct{} {
	return s.ready
}

func (s *sServer) ListenerAddr() net.Addr {
	return s.listener.Addr()
}

func (s *sServer) ReverserAddr() net.Addr {
	if s.reverser == nil {
		return nil
	}
	return s.reverser.Addr()
}

func (s *sServer) APIAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.apiln == nil {
		return nil
	}
	return s.apiln.Addr()
}

// Run binds every enabled component and blocks until Close is called or
// one of them fails. A server runs once; later calls return ErrAlreadyRun.
func (s *sServer) Run() error {
	if !atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		return ErrAlreadyRun
	}
	s.Init()
	if err := s.bind(); err != nil {
		s.shutdown()
		return err
	}
	close(s.ready)

	errc := make(chan error, 3)
	go func() {
		if err := s.listener.Serve(); err != nil {
			errc <- errors.Wrap(err, "listener")
		}
	}()
	if s.reverser != nil {
		go func() {
			if err := s.reverser.Serve(); err != nil {
				errc <- errors.Wrap(err, "reverser")
			}
		}()
	}
	if s.wrapper != nil {
		go func() {
			s.Logger.Info().Str("addr", s.apiln.Addr().String()).Bool("graceful", s.wrapper.IsGraceful()).Msg("api listening")
			if err := s.wrapper.Serve(s.apiln); err != nil {
				errc <- errors.Wrap(err, "api")
			}
		}()
	}

	var err error
	select {
	case err = <-errc:
	case <-s.closeChan:
	}
	s.shutdown()
	return err
}

func (s *sServer) bind() error {
	if err := s.listener.Listen(); err != nil {
		return errors.Wrap(err, "listener")
	}
	if s.reverser != nil {
		if err := s.reverser.Listen(); err != nil {
			return errors.Wrap(err, "reverser")
		}
	}
	if s.Cfg.APIListen == "" {
		return nil
	}
	ln, err := util.Listen(s.Cfg.APIListen)
	if err != nil {
		return errors.Wrap(err, "api")
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: time.Second * 10,
	}
	s.mu.Lock()
	s.apiln = ln
	if s.Cfg.Graceful {
		s.wrapper = util.NewGracefulServer(srv)
	} else {
		s.wrapper = util.NewVanillaServer(srv)
	}
	s.mu.Unlock()
	return nil
}

func (s *sServer) shutdown() {
	s.Logger.Info().Msg("shutting down")
	s.listener.Close()
	if s.reverser != nil {
		s.reverser.Close()
	}
	if s.wrapper != nil {
		s.wrapper.Close()
	} else if s.apiln != nil {
		s.apiln.Close()
	}
}

func (s *sServer) Close() {
	s.closeOnce.Do(func() {
		close(s.closeChan)
	})
}

func (s *sServer) Init() {
	// first start setting the number of cpu cores to use
	ncpu := runtime.NumCPU()
	if s.Cfg.NumCPU > 0 && s.Cfg.NumCPU < ncpu {
		ncpu = s.Cfg.NumCPU
	}
	runtime.GOMAXPROCS(ncpu)
}
