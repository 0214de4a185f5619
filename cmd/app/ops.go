package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

func doArchiveList(ctx context.Context, cfg cliConfig, q string, limit int, out any) error {
	if cfg.Transport == "uds" {
		return rpcCall(ctx, cfg.Socket, "archive.list", map[string]any{"q": q, "limit": limit}, out)
	}
	client := newAPIClient(cfg.Server)
	params := url.Values{}
	if q != "" {
		params.Set("q", q)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/investigations"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return client.request(ctx, http.MethodGet, path, nil, out)
}

func doArchiveShow(ctx context.Context, cfg cliConfig, id uint, out any) error {
	if cfg.Transport == "uds" {
		return rpcCall(ctx, cfg.Socket, "archive.show", map[string]any{"id": id}, out)
	}
	client := newAPIClient(cfg.Server)
	return client.request(ctx, http.MethodGet, fmt.Sprintf("/api/investigations/%d", id), nil, out)
}

func doArchiveGraph(ctx context.Context, cfg cliConfig, id uint, out any) error {
	if cfg.Transport == "uds" {
		return rpcCall(ctx, cfg.Socket, "archive.graph", map[string]any{"id": id}, out)
	}
	client := newAPIClient(cfg.Server)
	return client.request(ctx, http.MethodGet, fmt.Sprintf("/api/investigations/%d/graph", id), nil, out)
}
