package server

import (
	"github.com/gabstv/echobox/pkg/listener"
	"github.com/gabstv/echobox/pkg/util"
)

// Config holds the settings of every component. An empty UDPListenAddr
// or APIListen disables that component.
type Config struct {
	Debug         bool
	NumCPU        int
	Graceful      bool
	Listener      listener.Config
	UDPListenAddr string
	APIListen     string
	Websockets    util.WsConfig
}
