package api

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client talks to the demo http api.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewClient creates an api client for the given endpoint
// (e.g. "http://localhost:1234").
func NewClient(endpoint string) *Client {
	return &Client{
		Endpoint:   strings.TrimSuffix(endpoint, "/"),
		HTTPClient: &http.Client{Timeout: time.Second * 10},
	}
}

// Get calls GET /get and returns the decoded string.
func (c *Client) Get() (string, error) {
	resp, err := c.HTTPClient.Get(c.Endpoint + "/get")
	if err != nil {
		return "", errors.Wrap(err, "GET /get")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}
	var v string
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return "", errors.Wrap(err, "decode /get")
	}
	return v, nil
}

// Post sends item to POST /post and returns what the server echoed.
func (c *Client) Post(item Item) (Item, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(&item); err != nil {
		return Item{}, err
	}
	resp, err := c.HTTPClient.Post(c.Endpoint+"/post", "application/json", buf)
	if err != nil {
		return Item{}, errors.Wrap(err, "POST /post")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Item{}, statusError(resp)
	}
	out := Item{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Item{}, errors.Wrap(err, "decode /post")
	}
	return out, nil
}

// statusError renders a non-200 response. Validation failures read as
// "422 Unprocessable Entity: body.field2: field required".
func statusError(resp *http.Response) error {
	jd := ErrorResponse{}
	bs, _ := ioutil.ReadAll(resp.Body)
	if json.Unmarshal(bs, &jd) == nil && len(jd.Detail) > 0 {
		msgs := make([]string, 0, len(jd.Detail))
		for _, d := range jd.Detail {
			msgs = append(msgs, strings.Join(d.Loc, ".")+": "+d.Msg)
		}
		return errors.Errorf("%s: %s", resp.Status, strings.Join(msgs, "; "))
	}
	return errors.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(bs)))
}

// SendLine dials the stream listener at addr, writes line followed by a
// newline and reads the reply until the server closes the connection.
func SendLine(addr, line string, timeout time.Duration) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", errors.Wrapf(err, "dial %v", addr)
	}
	defer conn.Close()
	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
	}
	if _, err := io.WriteString(conn, line+"\n"); err != nil {
		return "", errors.Wrap(err, "write line")
	}
	bs, err := ioutil.ReadAll(conn)
	if err != nil {
		return "", errors.Wrap(err, "read reply")
	}
	return string(bs), nil
}

// Reverse sends payload to the datagram reverser at addr and returns the
// reply.
func Reverse(addr string, payload []byte, timeout time.Duration) ([]byte, error) {
	conn, err := net.DialTimeout("udp", addr, timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %v", addr)
	}
	defer conn.Close()
	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
	}
	if _, err := conn.Write(payload); err != nil {
		return nil, errors.Wrap(err, "write datagram")
	}
	buf := make([]byte, 65535)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, errors.Wrap(err, "read datagram")
	}
	return buf[:n], nil
}
