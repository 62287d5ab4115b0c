package custom

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"github.com/yato-cli/yato/internal/cache"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/net/http2"
)

// Lua API of the http_tls global:
//
//	http_tls.get(url [, headers])                              -> body
//	http_tls.request{url, method, headers, body, cache}        -> {status, body}
//
// Requests carry a Chrome TLS ClientHello. HTTP/2 is tried first and HTTP/1.1
// is used when the server refuses it.

const (
	tlsTimeout       = 30 * time.Second
	browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

func registerTLSClient(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(httpTLSGet))
	L.SetField(mod, "request", L.NewFunction(httpTLSRequest))
	L.SetGlobal("http_tls", mod)
}

type tlsResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func stateContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func tableToHeaders(table *lua.LTable) map[string]string {
	headers := make(map[string]string)
	if table == nil {
		return headers
	}
	table.ForEach(func(k, v lua.LValue) {
		headers[k.String()] = v.String()
	})
	return headers
}

func httpTLSGet(L *lua.LState) int {
	url := L.CheckString(1)
	headers := tableToHeaders(L.OptTable(2, nil))

	resp, err := doTLSRequest(stateContext(L), http.MethodGet, url, headers, "")
	if err != nil {
		L.RaiseError("http_tls.get: %s", err.Error())
		return 0
	}

	L.Push(lua.LString(resp.Body))
	return 1
}

func httpTLSRequest(L *lua.LState) int {
	opts := L.CheckTable(1)

	url := getStringField(opts, "url", "")
	if url == "" {
		L.RaiseError("http_tls.request: url is required")
		return 0
	}

	method := strings.ToUpper(getStringField(opts, "method", http.MethodGet))
	body := getStringField(opts, "body", "")
	useCache := lua.LVAsBool(opts.RawGetString("cache"))

	var headers map[string]string
	if tbl, ok := opts.RawGetString("headers").(*lua.LTable); ok {
		headers = tableToHeaders(tbl)
	}

	var key string
	if useCache {
		key = cache.Key(url+body, method)
		var cached tlsResponse
		if cache.Read(key, &cached) {
			L.Push(responseToTable(L, cached))
			return 1
		}
	}

	resp, err := doTLSRequest(stateContext(L), method, url, headers, body)
	if err != nil {
		L.RaiseError("http_tls.request: %s", err.Error())
		return 0
	}

	if useCache && resp.Status == http.StatusOK {
		_ = cache.Write(key, resp)
	}

	L.Push(responseToTable(L, resp))
	return 1
}

func responseToTable(L *lua.LState, resp tlsResponse) *lua.LTable {
	table := L.NewTable()
	L.SetField(table, "status", lua.LNumber(resp.Status))
	L.SetField(table, "body", lua.LString(resp.Body))
	return table
}

func getStringField(tbl *lua.LTable, key, def string) string {
	val := tbl.RawGetString(key)
	if val == lua.LNil {
		return def
	}
	return val.String()
}

var (
	h2Transport     *http2.Transport
	h2TransportOnce sync.Once

	h1Transport = &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLS(ctx, network, addr, []string{"http/1.1"})
		},
	}
)

func getH2Transport() *http2.Transport {
	h2TransportOnce.Do(func() {
		h2Transport = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialTLS(ctx, network, addr, nil)
			},
		}
	})
	return h2Transport
}

func newTLSRequest(ctx context.Context, method, url string, headers map[string]string, body string) (*http.Request, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func doTLSRequest(ctx context.Context, method, url string, headers map[string]string, body string) (tlsResponse, error) {
	req, err := newTLSRequest(ctx, method, url, headers, body)
	if err != nil {
		return tlsResponse{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := (&http.Client{Timeout: tlsTimeout, Transport: getH2Transport()}).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return tlsResponse{}, ctx.Err()
		}

		// The body reader was consumed by the first attempt.
		req, err = newTLSRequest(ctx, method, url, headers, body)
		if err != nil {
			return tlsResponse{}, err
		}

		resp, err = (&http.Client{Timeout: tlsTimeout, Transport: h1Transport}).Do(req)
		if err != nil {
			return tlsResponse{}, fmt.Errorf("request failed: %w", err)
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return tlsResponse{Status: resp.StatusCode}, fmt.Errorf("read body: %w", err)
	}

	return tlsResponse{Status: resp.StatusCode, Body: string(data)}, nil
}

// dialTLS opens a connection presenting Chrome 120's ClientHello. A nil
// protos keeps Chrome's own ALPN list.
func dialTLS(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: tlsTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
