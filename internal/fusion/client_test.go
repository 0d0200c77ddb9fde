package fusion

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
)

// serveOnce accepts one connection and answers each command line with the
// scripted handler's response.
func serveOnce(t *testing.T, ln net.Listener, handle func(cmd command) response) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var cmd command
			if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
				return
			}
			resp, _ := json.Marshal(handle(cmd))
			resp = append(resp, '\n')
			if _, err := conn.Write(resp); err != nil {
				return
			}
		}
	}()
}

func TestClientCall(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	serveOnce(t, ln, func(cmd command) response {
		if cmd.Action != "create_node" {
			return response{Success: false, Error: "unexpected action"}
		}
		return response{Success: true, Result: json.RawMessage(`{"name":"Background1"}`)}
	})

	c := NewClient(ln.Addr().String())
	defer c.Close()

	result, err := c.Call(context.Background(), "create_node", map[string]any{"node_type": "Background"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	var got struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(result, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "Background1" {
		t.Errorf("name = %q, want Background1", got.Name)
	}
}

func TestClientCallHostFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	serveOnce(t, ln, func(cmd command) response {
		return response{Success: false, Error: "no composition available"}
	})

	c := NewClient(ln.Addr().String())
	defer c.Close()

	_, err = c.Call(context.Background(), "execute_step", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no composition available") {
		t.Errorf("error = %v", err)
	}
}

func TestClientUnreachable(t *testing.T) {
	c := NewClient("127.0.0.1:1")
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Call(ctx, "ping", nil); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestNewBridgeUnreachableHost(t *testing.T) {
	c := NewClient("127.0.0.1:1")
	defer c.Close()

	b := NewBridge(context.Background(), c)
	if b.Available() {
		t.Error("bridge should be unavailable when the host cannot be reached")
	}
}

func TestNewBridgeProbesPing(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	serveOnce(t, ln, func(cmd command) response {
		return response{Success: true, Result: json.RawMessage(`{}`)}
	})

	c := NewClient(ln.Addr().String())
	defer c.Close()

	b := NewBridge(context.Background(), c)
	if !b.Available() {
		t.Error("bridge should be available when the host answers ping")
	}
}
