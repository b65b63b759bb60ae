package listener

import "time"

const (
	DefaultListenAddr = ":1235"
	DefaultDelay      = time.Second
	DefaultAck        = "Hello UDP Client! I received a message from you!"
	DefaultReadLimit  = 4096
)

// Config of the stream listener. Zero values are replaced by the defaults
// above; a negative Delay disables the pause.
type Config struct {
	ListenAddr string
	Delay      time.Duration
	Ack        string
	ReadLimit  int
	Debug      bool
}

func (c *Config) SetupDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Delay == 0 {
		c.Delay = DefaultDelay
	}
	if c.Ack == "" {
		c.Ack = DefaultAck
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = DefaultReadLimit
	}
}
