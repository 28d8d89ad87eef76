// Package collyfetcher implements harvest.Fetcher on top of gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/inat-harvester/internal/harvest"
)

const defaultTimeout = 30 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// Headers are sent with every request unless the request overrides them.
	Headers http.Header
	// MaxBodySize caps response bodies in bytes; zero means unlimited.
	MaxBodySize int
	// Transport overrides the HTTP transport; tests inject a mock here.
	Transport http.RoundTripper
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Fetcher performs single GETs through a cloned colly collector.
type Fetcher struct {
	cfg       Config
	transport http.RoundTripper
	base      *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// visit accumulates the outcome of one collector run.
type visit struct {
	request  harvest.FetchRequest
	defaults http.Header
	start    time.Time
	resp     harvest.FetchResponse
	err      error
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	// API pages are requested repeatedly and original photos exceed colly's
	// default body cap.
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.MaxBodySize(cfg.MaxBodySize),
	)
	c.IgnoreRobotsTxt = true

	transport := cfg.Transport
	if transport == nil {
		transport = newHTTPTransport()
	}
	c.WithTransport(transport)

	return &Fetcher{cfg: cfg, transport: transport, base: c}
}

// Fetch executes request and returns the response once the body is read.
func (f *Fetcher) Fetch(ctx context.Context, request harvest.FetchRequest) (harvest.FetchResponse, error) {
	v := &visit{request: request, defaults: f.cfg.Headers, start: time.Now()}
	collector := f.collector()
	v.register(collector)

	done := make(chan error, 1)
	go func() { done <- collector.Visit(request.URL) }()

	select {
	case <-ctx.Done():
		return harvest.FetchResponse{}, fmt.Errorf("fetch %s: %w", request.URL, ctx.Err())
	case err := <-done:
		if v.err != nil {
			return harvest.FetchResponse{}, v.err
		}
		if err != nil {
			return harvest.FetchResponse{}, fmt.Errorf("fetch %s: %w", request.URL, err)
		}
		return v.resp, nil
	}
}

func (f *Fetcher) collector() *colly.Collector {
	c := f.base.Clone()
	if f.cfg.UserAgent != "" {
		c.UserAgent = f.cfg.UserAgent
	}
	c.SetRequestTimeout(f.cfg.Timeout)
	c.WithTransport(f.transport)
	return c
}

func (v *visit) register(hooks collectorHooks) {
	hooks.OnRequest(func(r *colly.Request) {
		for key, values := range v.defaults {
			if r.Headers.Get(key) == "" {
				for _, val := range values {
					r.Headers.Add(key, val)
				}
			}
		}
		for key, values := range v.request.Headers {
			r.Headers.Del(key)
			for _, val := range values {
				r.Headers.Add(key, val)
			}
		}
	})

	hooks.OnResponse(func(r *colly.Response) {
		v.resp = harvest.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(v.start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= http.StatusBadRequest {
			v.err = &StatusError{URL: v.request.URL, Code: r.StatusCode}
			return
		}
		v.err = fmt.Errorf("fetch %s: %w", v.request.URL, err)
	})
}

// IsStatus reports whether err carries the HTTP status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: time.Second,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}
}
