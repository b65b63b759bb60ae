package envs

import (
	"os"
	"time"
)

// Debug -> DEBUG
func Debug() (debug, ok bool) {
	dbg := os.Getenv("DEBUG")
	if dbg == "" {
		return false, false
	}
	return dbg == "1", true
}

// Listen -> LISTEN
func Listen() string {
	return os.Getenv("LISTEN")
}

// Graceful -> GRACEFUL
func Graceful() (graceful, ok bool) {
	v := os.Getenv("GRACEFUL")
	if v == "" {
		return false, false
	}
	return v == "1", true
}

// UDPListen -> UDP_LISTEN
func UDPListen() string {
	return os.Getenv("UDP_LISTEN")
}

// APIListen -> API_LISTEN
func APIListen() string {
	return os.Getenv("API_LISTEN")
}

// AckMessage -> ACK_MESSAGE
func AckMessage() string {
	return os.Getenv("ACK_MESSAGE")
}

// AckDelay -> ACK_DELAY (a Go duration, e.g. "250ms")
func AckDelay() (d time.Duration, ok bool) {
	v := os.Getenv("ACK_DELAY")
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// LogLevel -> LOG_LEVEL
func LogLevel() string {
	return os.Getenv("LOG_LEVEL")
}

// Config -> ECHOBOX_CONFIG
func Config() string {
	return os.Getenv("ECHOBOX_CONFIG")
}
