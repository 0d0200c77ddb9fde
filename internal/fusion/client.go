// Package fusion talks to a compositor script host over a TCP bridge and
// turns plan steps into node-graph mutations. The bridge speaks
// newline-delimited JSON: one command per line out, one response per line
// back.
package fusion

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"
)

// DefaultAddr is where the compositor script host listens by default.
const DefaultAddr = "127.0.0.1:7810"

// callTimeout bounds a single bridge round trip. Graph mutations are
// synchronous and fast; anything slower means the host is wedged.
const callTimeout = 10 * time.Second

// command is a single request to the script host.
type command struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// response is what the script host sends back.
type response struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client is a connection to the compositor script host. One in-flight call
// at a time; the bridge protocol has no request IDs.
type Client struct {
	addr string

	mu   sync.Mutex
	conn net.Conn
	rd   *bufio.Reader
}

// NewClient creates a client for the given bridge address. No connection is
// made until the first call.
func NewClient(addr string) *Client {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Client{addr: addr}
}

// Call sends one command and waits for its response. The connection is
// established lazily and dropped on any transport error so the next call
// redials.
func (c *Client) Call(ctx context.Context, action string, params map[string]any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.dial(ctx); err != nil {
			return nil, fmt.Errorf("connect to bridge %s: %w", c.addr, err)
		}
	}

	deadline := time.Now().Add(callTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)

	payload, err := json.Marshal(command{Action: action, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encode %s command: %w", action, err)
	}
	payload = append(payload, '\n')

	if _, err := c.conn.Write(payload); err != nil {
		c.drop()
		return nil, fmt.Errorf("send %s command: %w", action, err)
	}

	line, err := c.rd.ReadBytes('\n')
	if err != nil {
		c.drop()
		return nil, fmt.Errorf("read %s response: %w", action, err)
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		c.drop()
		return nil, fmt.Errorf("decode %s response: %w", action, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("bridge %s: %s", action, resp.Error)
	}

	return resp.Result, nil
}

// Ping checks whether the script host is reachable and answering.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, "ping", nil)
	return err
}

// Close drops the current connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.rd = nil
	return err
}

func (c *Client) dial(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return err
	}
	c.conn = conn
	c.rd = bufio.NewReader(conn)
	return nil
}

// drop discards a connection after a transport failure. Caller holds mu.
func (c *Client) drop() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.rd = nil
}
