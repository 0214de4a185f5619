package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// rpcCall performs a single JSON-RPC 2.0 round trip over the unix socket.
// One connection per call keeps the client stateless; the archive methods
// are cheap enough that connection reuse buys nothing here.
func rpcCall(ctx context.Context, socket, method string, params any, out any) error {
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "unix", socket)
	if err != nil {
		return fmt.Errorf("dial %s: %w", socket, err)
	}
	defer func() { _ = conn.Close() }()

	if err := json.NewEncoder(conn).Encode(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	}); err != nil {
		return err
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return err
	}
	if resp.Error != nil {
		if resp.Error.Code == 40400 {
			return fmt.Errorf("%s: not found", method)
		}
		return fmt.Errorf("%s failed (%d): %s", method, resp.Error.Code, resp.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}
