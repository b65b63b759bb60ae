package util

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type testServer struct {
}

func (t *testServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Hello!"))
}

func testServe(t *testing.T, wrapper *ServerWrapper) {
	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	errc := make(chan error, 1)
	go func() {
		errc <- wrapper.Serve(ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status should be 200 but it is %v", resp.StatusCode)
	}
	http.DefaultClient.CloseIdleConnections()

	wrapper.Close()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Serve should return nil after Close but returned %v", err)
		}
	case <-time.After(time.Second * 10):
		t.Fatal("Serve did not return after Close")
	}
	if wrapper.Close() {
		t.Fatal("second Close should report false")
	}
}

func TestVanillaServer(t *testing.T) {
	w := NewVanillaServer(&http.Server{Handler: &testServer{}})
	if w.IsGraceful() {
		t.Fatal("vanilla server reported graceful")
	}
	testServe(t, w)
}

func TestGracefulServer(t *testing.T) {
	w := NewGracefulServer(&http.Server{Handler: &testServer{}})
	if !w.IsGraceful() {
		t.Fatal("graceful server reported vanilla")
	}
	testServe(t, w)
}

func TestListenBadAddr(t *testing.T) {
	if _, err := Listen("not an address"); err == nil {
		t.Fatal("Listen should fail on a bad address")
	}
}

func TestServeLines(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeLines(w, r, WsConfig{Enabled: true}, func(msg string) string {
			return "got " + msg
		})
	}))
	defer ts.Close()

	uri, _ := url.Parse(ts.URL)
	uri.Scheme = "ws"
	ws, _, err := websocket.DefaultDialer.Dial(uri.String(), nil)
	if err != nil {
		t.Fatalf("Could not connect %s", err)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(time.Second * 5))

	if err := ws.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	_, reply, err := ws.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(reply) != "got hello" {
		t.Fatalf("reply should be %q but it is %q", "got hello", reply)
	}
}

func TestWsConfigDefaults(t *testing.T) {
	c := WsConfig{ReadBufferSize: 512}
	c.SetupDefaults()
	if c.ReadBufferSize != 512 {
		t.Fatalf("explicit buffer size should be kept, got %v", c.ReadBufferSize)
	}
	if c.WriteBufferSize != DefaultWsConfig.WriteBufferSize || c.ReadDeadline != DefaultWsConfig.ReadDeadline {
		t.Fatalf("zero fields should get defaults, got %+v", c)
	}
}
