package utils

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/icholy/digest"
)

type AccelHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// NewAccelHTTPClient builds a client scoped to one download. The TLS policy and
// the digest credential live on its transport, so every request made through
// it (HEAD, probe GET, ranged GETs) is treated the same way.
func NewAccelHTTPClient(cfg HTTPClientConfig) *AccelHTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 90 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if cfg.HighThreadMode {
		dialer.Control = func(network, address string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				setSocketOptions(fd)
			})
		}
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		IdleConnTimeout:       cfg.KATimeout,
		ResponseHeaderTimeout: cfg.Timeout,
		TLSHandshakeTimeout:   30 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		DisableCompression:    true, // range offsets refer to raw bytes
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: cfg.Insecure},
	}
	if cfg.ProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.ProxyURL); err == nil {
			if cfg.ProxyUsername != "" {
				if cfg.ProxyPassword != "" {
					proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
				} else {
					proxyURL.User = url.User(cfg.ProxyUsername)
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	var rt http.RoundTripper = transport
	if cfg.Credential != nil {
		rt = &digest.Transport{
			Username:  cfg.Credential.Username,
			Password:  cfg.Credential.Password,
			Transport: transport,
		}
	}
	return &AccelHTTPClient{
		// no overall client timeout, a large range can legitimately take hours
		client: &http.Client{Transport: rt},
		config: cfg,
	}
}

// Do sends req with the configured User-Agent and extra headers. Headers the
// caller already set on req (Range in particular) take precedence.
func (c *AccelHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	for k, v := range c.config.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return c.client.Do(req)
}
