package server

import (
	"fmt"
	"testing"
	"time"

	"github.com/gabstv/echobox/api"
	"github.com/gabstv/echobox/pkg/listener"
	"github.com/gabstv/freeport"
)

func runServer(t *testing.T, cfg *Config) (Server, chan error) {
	t.Helper()
	sv := Default(cfg)
	errc := make(chan error, 1)
	go func() {
		errc <- sv.Run()
	}()
	select {
	case <-sv.Ready():
	case err := <-errc:
		t.Fatalf("sv.Run ERR: %v", err)
	case <-time.After(time.Second * 5):
		t.Fatal("server did not become ready")
	}
	return sv, errc
}

func stopServer(t *testing.T, sv Server, errc chan error) {
	t.Helper()
	sv.Close()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("sv.Run should return nil after Close but returned %v", err)
		}
	case <-time.After(time.Second * 10):
		t.Fatal("sv.Run did not return after Close")
	}
}

func testServerRoundTrip(t *testing.T, graceful bool) {
	apiPort, err := freeport.TCP()
	if err != nil {
		t.Fatal(err)
	}
	sv, errc := runServer(t, &Config{
		Debug:         true,
		Graceful:      graceful,
		Listener:      listener.Config{ListenAddr: "127.0.0.1:0", Delay: time.Millisecond * 10},
		UDPListenAddr: "127.0.0.1:0",
		APIListen:     fmt.Sprintf("127.0.0.1:%v", apiPort),
	})

	reply, err := api.SendLine(sv.ListenerAddr().String(), "hello world", time.Second*5)
	if err != nil {
		t.Fatal(err)
	}
	if reply != listener.DefaultAck {
		t.Fatalf("reply should be %q but it is %q", listener.DefaultAck, reply)
	}

	rev, err := api.Reverse(sv.ReverserAddr().String(), []byte("abc"), time.Second*5)
	if err != nil {
		t.Fatal(err)
	}
	if string(rev) != "cba" {
		t.Fatalf("reversed should be cba but it is %s", rev)
	}

	cl := api.NewClient(fmt.Sprintf("http://127.0.0.1:%v", apiPort))
	v, err := cl.Get()
	if err != nil {
		t.Fatal(err)
	}
	if v != "Hello World" {
		t.Fatalf("GET /get should be Hello World but it is %v", v)
	}
	cl.HTTPClient.CloseIdleConnections()

	stopServer(t, sv, errc)
}

func TestServerRoundTrip(t *testing.T) {
	testServerRoundTrip(t, false)
}

func TestServerRoundTripGraceful(t *testing.T) {
	testServerRoundTrip(t, true)
}

func TestServerListenerOnly(t *testing.T) {
	sv, errc := runServer(t, &Config{
		Listener: listener.Config{ListenAddr: "127.0.0.1:0", Delay: -1},
	})
	if sv.ReverserAddr() != nil {
		t.Fatal("reverser should be disabled")
	}
	if sv.APIAddr() != nil {
		t.Fatal("api should be disabled")
	}
	stopServer(t, sv, errc)
}

func TestServerBindError(t *testing.T) {
	sv, errc := runServer(t, &Config{
		Listener: listener.Config{ListenAddr: "127.0.0.1:0", Delay: -1},
	})
	defer stopServer(t, sv, errc)

	sv2 := Default(&Config{
		Listener: listener.Config{ListenAddr: sv.ListenerAddr().String()},
	})
	if err := sv2.Run(); err == nil {
		t.Fatal("binding an address in use should fail")
	}
}

func TestServerConfig(t *testing.T) {
	sv := Default(nil)
	cfg := sv.GetConfig()
	if cfg.Listener.ListenAddr != listener.DefaultListenAddr {
		t.Fatalf("listen addr should default to %v but it is %v", listener.DefaultListenAddr, cfg.Listener.ListenAddr)
	}
	cfg.Listener.Ack = "changed"
	sv.SetConfig(cfg)
	if sv.GetConfig().Listener.Ack != "changed" {
		t.Fatal("SetConfig should replace the config")
	}
}

func TestServerRunTwice(t *testing.T) {
	sv, errc := runServer(t, &Config{
		Listener: listener.Config{ListenAddr: "127.0.0.1:0", Delay: -1},
	})
	if err := sv.Run(); err != ErrAlreadyRun {
		t.Fatalf("second Run should return ErrAlreadyRun but returned %v", err)
	}
	stopServer(t, sv, errc)
	if err := sv.Run(); err != ErrAlreadyRun {
		t.Fatalf("Run after Close should return ErrAlreadyRun but returned %v", err)
	}
}

func TestServerRunAfterBindError(t *testing.T) {
	sv, errc := runServer(t, &Config{
		Listener: listener.Config{ListenAddr: "127.0.0.1:0", Delay: -1},
	})
	defer stopServer(t, sv, errc)

	sv2 := Default(&Config{
		Listener: listener.Config{ListenAddr: sv.ListenerAddr().String()},
	})
	if err := sv2.Run(); err == nil || err == ErrAlreadyRun {
		t.Fatalf("first Run should fail to bind but returned %v", err)
	}
	if err := sv2.Run(); err != ErrAlreadyRun {
		t.Fatalf("second Run should return ErrAlreadyRun but returned %v", err)
	}
}
