package util

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// WsConfig websockets configuration
type WsConfig struct {
	Enabled         bool          `yaml:"enabled"`
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	ReadDeadline    time.Duration `yaml:"read_deadline"`
}

// DefaultWsConfig is used for any zero field of a WsConfig.
var DefaultWsConfig = WsConfig{
	Enabled:         true,
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	ReadDeadline:    time.Second * 60,
}

// SetupDefaults fills zero values from DefaultWsConfig.
func (c *WsConfig) SetupDefaults() {
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = DefaultWsConfig.ReadBufferSize
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = DefaultWsConfig.WriteBufferSize
	}
	if c.ReadDeadline <= 0 {
		c.ReadDeadline = DefaultWsConfig.ReadDeadline
	}
}

// ServeLines upgrades the request to a websocket and answers every
// message with respond(message) until the peer goes away. A normal close
// by the peer is not an error.
func ServeLines(rw http.ResponseWriter, req *http.Request, cfg WsConfig, respond func(msg string) string) error {
	cfg.SetupDefaults()
	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
	}
	ws, err := upgrader.Upgrade(rw, req, nil)
	if err != nil {
		// the upgrader already wrote the http error
		return errors.Wrap(err, "websocket upgrade")
	}
	defer ws.Close()

	ws.SetReadLimit(int64(cfg.ReadBufferSize))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(cfg.ReadDeadline))
	})
	for {
		ws.SetReadDeadline(time.Now().Add(cfg.ReadDeadline))
		mtype, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.Wrap(err, "websocket read")
		}
		if mtype != websocket.TextMessage {
			continue
		}
		ws.SetWriteDeadline(time.Now().Add(cfg.ReadDeadline))
		if err := ws.WriteMessage(websocket.TextMessage, []byte(respond(string(msg)))); err != nil {
			return errors.Wrap(err, "websocket write")
		}
	}
}
