// Package nreplclient is the outbound side of the session protocol, used by the command line
// client and by end-to-end tests.
package nreplclient

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/uber/devrepl/src/devrepl/internal/wire"
	"github.com/uber/devrepl/src/devrepl/mapper"
	"go.uber.org/zap"
)

const _errSendToServer = "sending %s request to devrepl: %w"

// Client sends requests over one protocol connection. Requests are serialized; each call waits for
// the done status of its own request.
type Client interface {
	// Do sends msg and returns every response up to and including the one carrying the done
	// status. A missing id is assigned, and a missing session is filled with the client's session.
	Do(ctx context.Context, msg wire.Message) ([]wire.Message, error)
	// Clone opens a new session and makes it the client's session.
	Clone(ctx context.Context) (string, error)
	// Session is the session sent with requests that carry none, empty until Clone succeeds.
	Session() string
	// Close closes the connection.
	Close() error
}

type client struct {
	mu      sync.Mutex
	conn    net.Conn
	enc     *wire.Encoder
	dec     *wire.Decoder
	nextID  int64
	session string
	logger  *zap.Logger
}

// Dial connects to a devrepl server.
func Dial(ctx context.Context, address string, logger *zap.Logger) (Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", address, err)
	}
	return New(conn, logger), nil
}

// New wraps an established connection.
func New(conn net.Conn, logger *zap.Logger) Client {
	return &client{
		conn:   conn,
		enc:    wire.NewEncoder(conn),
		dec:    wire.NewDecoder(conn, 0),
		logger: logger,
	}
}

func (c *client) Do(ctx context.Context, msg wire.Message) ([]wire.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := msg.Clone()
	if req[mapper.KeyID] == "" {
		c.nextID++
		req[mapper.KeyID] = strconv.FormatInt(c.nextID, 10)
	}
	if req[mapper.KeySession] == "" && c.session != "" {
		req[mapper.KeySession] = c.session
	}
	op := req[mapper.KeyOp]

	// Unblock pending reads and writes when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer func() {
		stop()
		c.conn.SetDeadline(time.Time{})
	}()

	if err := c.enc.Encode(req); err != nil {
		return nil, fmt.Errorf(_errSendToServer, op, c.ctxErr(ctx, err))
	}

	var out []wire.Message
	for {
		resp, err := c.dec.Decode()
		if err != nil {
			return out, fmt.Errorf("reading %s response: %w", op, c.ctxErr(ctx, err))
		}
		if resp[mapper.KeyID] != req[mapper.KeyID] {
			c.logger.Warn("dropping response to another request", zap.String("id", resp[mapper.KeyID]))
			continue
		}
		out = append(out, resp)
		if IsDone(resp) {
			return out, nil
		}
	}
}

func (c *client) Clone(ctx context.Context) (string, error) {
	resps, err := c.Do(ctx, wire.Message{mapper.KeyOp: "clone"})
	if err != nil {
		return "", err
	}
	if e := Collect(resps, mapper.KeyErr); e != "" {
		return "", fmt.Errorf("cloning session: %s", e)
	}
	session := Collect(resps, mapper.KeyNewSession)
	if session == "" {
		return "", fmt.Errorf("cloning session: no session in response")
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	return session, nil
}

func (c *client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *client) Close() error {
	return c.conn.Close()
}

// ctxErr prefers the context's error over the deadline error it caused.
func (c *client) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// IsDone reports whether resp carries the done status.
func IsDone(resp wire.Message) bool {
	for _, s := range strings.Split(resp[mapper.KeyStatus], ",") {
		if s == mapper.StatusDone {
			return true
		}
	}
	return false
}

// Collect joins the values of key across responses with newlines, skipping responses without it.
func Collect(resps []wire.Message, key string) string {
	var parts []string
	for _, r := range resps {
		if v, ok := r[key]; ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}
