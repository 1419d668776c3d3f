package script

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

	"github.com/comiknet/comiknet/internal/cache"
	utls "github.com/refraction-networking/utls"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/net/http2"
)

// The http_tls module lets scripts reach sites that reject the default Go TLS handshake. Requests
// present a Chrome ClientHello, try HTTP/2 first and fall back to HTTP/1.1.
//
//	http_tls.get(url [, headers])  -> body
//	http_tls.request(options)      -> {status, body, headers}
//
// options: method, url, headers, body, cache. Cached responses are keyed by plugin name.

const (
	httpModule  = "http_tls"
	httpTimeout = 30 * time.Second
	browserUA   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type response struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

var (
	h2Once   sync.Once
	h2Client *http.Client
	h1Client *http.Client
)

func clients() (*http.Client, *http.Client) {
	h2Once.Do(func() {
		h2Client = &http.Client{
			Timeout: httpTimeout,
			Transport: &http2.Transport{
				DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
					return dialChrome(ctx, network, addr, nil)
				},
			},
		}
		h1Client = &http.Client{
			Timeout: httpTimeout,
			Transport: &http.Transport{
				DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					return dialChrome(ctx, network, addr, []string{"http/1.1"})
				},
			},
		}
	})
	return h2Client, h1Client
}

func dialChrome(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: httpTimeout}
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
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}

func fetch(ctx context.Context, method, url string, headers map[string]string, body string) (*response, error) {
	build := func() (*http.Request, error) {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}

		req.Header.Set("User-Agent", browserUA)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}

	h2, h1 := clients()

	req, err := build()
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := h2.Do(req)
	if err != nil {
		// the server may not speak h2
		if req, err = build(); err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if resp, err = h1.Do(req); err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	result := &response{Status: resp.StatusCode, Body: string(data), Headers: make(map[string]string)}
	for k := range resp.Header {
		result.Headers[k] = resp.Header.Get(k)
	}
	return result, nil
}

// httpLoader returns the module loader of http_tls bound to a plugin namespace.
func httpLoader(namespace string) lua.LGFunction {
	return func(L *lua.LState) int {
		mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"get":     httpGet,
			"request": httpRequest(namespace),
		})
		L.Push(mod)
		return 1
	}
}

func contextOf(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func headersOf(table *lua.LTable) map[string]string {
	headers := make(map[string]string)
	if table != nil {
		table.ForEach(func(k, v lua.LValue) {
			headers[k.String()] = v.String()
		})
	}
	return headers
}

func httpGet(L *lua.LState) int {
	url := L.CheckString(1)
	headers := headersOf(L.OptTable(2, nil))

	resp, err := fetch(contextOf(L), http.MethodGet, url, headers, "")
	if err != nil {
		L.RaiseError("http_tls.get failed: %s", err.Error())
		return 0
	}

	L.Push(lua.LString(resp.Body))
	return 1
}

func httpRequest(namespace string) lua.LGFunction {
	return func(L *lua.LState) int {
		opts := L.CheckTable(1)

		method := strings.ToUpper(stringField(opts, "method", http.MethodGet))
		url := stringField(opts, "url", "")
		body := stringField(opts, "body", "")
		useCache := lua.LVAsBool(opts.RawGetString("cache"))

		if url == "" {
			L.RaiseError("http_tls.request: url is required")
			return 0
		}

		headers, _ := opts.RawGetString("headers").(*lua.LTable)

		var key string
		if useCache {
			key = cache.GenerateKey(method+" "+url+body, namespace)
			var cached response
			if cache.Read(key, &cached) {
				L.Push(responseTable(L, &cached))
				return 1
			}
		}

		resp, err := fetch(contextOf(L), method, url, headersOf(headers), body)
		if err != nil {
			L.RaiseError("http_tls.request failed: %s", err.Error())
			return 0
		}

		if useCache && resp.Status == http.StatusOK {
			_ = cache.Write(key, resp)
		}

		L.Push(responseTable(L, resp))
		return 1
	}
}

func responseTable(L *lua.LState, resp *response) *lua.LTable {
	table := L.NewTable()
	table.RawSetString("status", lua.LNumber(resp.Status))
	table.RawSetString("body", lua.LString(resp.Body))
	table.RawSetString("headers", mapToTable(L, resp.Headers))
	return table
}

func stringField(table *lua.LTable, key, def string) string {
	val := table.RawGetString(key)
	if val == lua.LNil {
		return def
	}
	return val.String()
}
