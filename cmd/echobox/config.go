package main

import (
	"io/ioutil"
	"net"
	"time"

	"github.com/gabstv/echobox/internal/pkg/envs"
	"github.com/gabstv/echobox/pkg/listener"
	"github.com/gabstv/echobox/pkg/server"
	"github.com/gabstv/echobox/pkg/util"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config main config structure (yml)
type Config struct {
	Debug         bool          `yaml:"debug"`
	LogLevel      string        `yaml:"log_level"`
	NumCPU        int           `yaml:"num_cpu"`
	Graceful      bool          `yaml:"graceful"`
	ListenAddr    string        `yaml:"listen_addr"`
	AckMessage    string        `yaml:"ack_message"`
	AckDelay      time.Duration `yaml:"ack_delay"`
	ReadLimit     int           `yaml:"read_limit"`
	UDPListenAddr string        `yaml:"udp_listen_addr"`
	APIListen     string        `yaml:"api_listen"`
	Websockets    util.WsConfig `yaml:"websockets"`
}

func defaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		ListenAddr: listener.DefaultListenAddr,
		AckMessage: listener.DefaultAck,
		AckDelay:   listener.DefaultDelay,
		APIListen:  ":1234",
		Websockets: util.DefaultWsConfig,
	}
}

// loadConfig reads the yml file at path over the defaults. An empty path
// means defaults only.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	bs, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %v", path)
	}
	if err := yaml.Unmarshal(bs, cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config %v", path)
	}
	return cfg, nil
}

// applyEnv overrides cfg with the environment.
func applyEnv(cfg *Config) {
	if dbg, ok := envs.Debug(); ok {
		cfg.Debug = dbg
	}
	if vv := envs.LogLevel(); vv != "" {
		cfg.LogLevel = vv
	}
	if vv := envs.Listen(); vv != "" {
		cfg.ListenAddr = vv
	}
	if vv := envs.UDPListen(); vv != "" {
		cfg.UDPListenAddr = vv
	}
	if vv := envs.APIListen(); vv != "" {
		cfg.APIListen = vv
	}
	if vv := envs.AckMessage(); vv != "" {
		cfg.AckMessage = vv
	}
	if d, ok := envs.AckDelay(); ok {
		cfg.AckDelay = d
	}
	if graceful, ok := envs.Graceful(); ok {
		cfg.Graceful = graceful
	}
}

// unpack converts the file config into the server config.
func (cfg *Config) unpack() server.Config {
	return server.Config{
		Debug:    cfg.Debug,
		NumCPU:   cfg.NumCPU,
		Graceful: cfg.Graceful,
		Listener: listener.Config{
			ListenAddr: cfg.ListenAddr,
			Delay:      cfg.AckDelay,
			Ack:        cfg.AckMessage,
			ReadLimit:  cfg.ReadLimit,
			Debug:      cfg.Debug,
		},
		UDPListenAddr: cfg.UDPListenAddr,
		APIListen:     cfg.APIListen,
		Websockets:    cfg.Websockets,
	}
}

// dialAddr turns a listen address into one a local client can dial.
func dialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
