package tool

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

var DialTimeout = 30 * time.Second

// NewHTTPClient creates the client used for uploads and actions. It has no
// client timeout; per-task deadlines come from the request context.
// A non-empty proxyAddr routes connections through that SOCKS5 proxy.
func NewHTTPClient(proxyAddr string) (*http.Client, error) {
	dialer := &net.Dialer{
		Timeout:   DialTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if proxyAddr != "" {
		socks, err := proxy.SOCKS5("tcp", proxyAddr, nil, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to set up socks5 proxy %s: %w", proxyAddr, err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := socks.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return socks.Dial(network, addr)
		}
	}
	return &http.Client{Transport: transport}, nil
}
