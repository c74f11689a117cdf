// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport delivers JSONP style responses from cross-origin
// geocoding endpoints.
//
// Every call registers a uniquely named callback, appends its name to the
// request and expects the body to be an invocation of that callback with the
// JSON payload as its only argument. Registrations live in a map owned by the
// Transport and are released when the call returns, whatever the outcome.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jcodagnone/geocontrol/utils/httputils"
)

// Common errors returned by the transport.
var (
	ErrTimeout          = errors.New("jsonp request timed out")
	ErrCanceled         = errors.New("jsonp request canceled")
	ErrMalformedPayload = errors.New("malformed jsonp payload")
)

const (
	defaultTimeout        = 30 * time.Second
	defaultCallbackParam  = "callback"
	defaultCallbackPrefix = "_l_geocoder_"
	maxBodySize           = 8 << 20
)

// StatusError is returned when the endpoint answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("endpoint %s returned status %d", e.URL, e.StatusCode)
}

// Request describes a single JSONP call.
type Request struct {
	// Endpoint is the service URL, without query string.
	Endpoint string

	// Params are encoded as the query string.
	Params url.Values

	// CallbackParam names the query parameter carrying the callback name.
	// Defaults to "callback".
	CallbackParam string

	// Wrap asks the service to wrap the payload itself through the
	// prepend/append parameters instead of a callback parameter.
	Wrap bool
}

// URL returns the request URL for the given callback name.
func (r *Request) URL(callbackID string) string {
	params := url.Values{}
	for k, v := range r.Params {
		params[k] = append([]string(nil), v...)
	}

	if r.Wrap {
		params.Set("prepend", callbackID+"(")
		params.Set("append", ")")
	} else {
		param := r.CallbackParam
		if param == "" {
			param = defaultCallbackParam
		}

		params.Set(param, callbackID)
	}

	sep := "?"
	if strings.Contains(r.Endpoint, "?") {
		sep = "&"
	}

	return r.Endpoint + sep + params.Encode()
}

// Handler receives the outcome of an asynchronous call. It is invoked exactly
// once.
type Handler func(payload json.RawMessage, err error)

// Options configuration for Transport.
type Options struct {
	// HTTPClient overrides the client built from the other options.
	HTTPClient *http.Client

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Timeout bounds each call that has no earlier deadline. Defaults to 30s.
	Timeout time.Duration

	// Trace receives a light dump of every HTTP exchange when set.
	Trace io.Writer

	// TraceBody includes response bodies in the trace.
	TraceBody bool

	// CallbackPrefix is prepended to the counter to build callback names.
	CallbackPrefix string
}

// pending is a registered callback waiting for its single delivery.
type pending struct {
	cancel context.CancelFunc
}

// Transport performs JSONP calls. It is safe for concurrent use.
type Transport struct {
	client  *http.Client
	timeout time.Duration
	prefix  string
	counter atomic.Uint64

	mu       sync.Mutex
	registry map[string]*pending
}

// New creates a Transport with the provided options.
func New(options *Options) *Transport {
	if options == nil {
		options = &Options{}
	}

	client := options.HTTPClient
	if client == nil {
		client = NewHTTPClient(options)
	}

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	prefix := options.CallbackPrefix
	if prefix == "" {
		prefix = defaultCallbackPrefix
	}

	return &Transport{
		client:   client,
		timeout:  timeout,
		prefix:   prefix,
		registry: make(map[string]*pending),
	}
}

// NewHTTPClient builds the HTTP client used when Options.HTTPClient is nil.
func NewHTTPClient(options *Options) *http.Client {
	var rt http.RoundTripper = http.DefaultTransport

	if options.Trace != nil {
		rt = &httputils.LoggingRoundTripper{
			Transport: rt,
			Writer:    options.Trace,
			DumpBody:  options.TraceBody,
		}
	}

	if options.UserAgent != "" {
		rt = &httputils.AppendRequestHeadersRoundTripper{
			Transport: rt,
			Headers:   map[string]string{"User-Agent": options.UserAgent},
		}
	}

	return &http.Client{Transport: rt}
}

var (
	defaultOnce      sync.Once
	defaultTransport *Transport
)

// Default returns a process wide Transport with default options.
func Default() *Transport {
	defaultOnce.Do(func() {
		defaultTransport = New(nil)
	})

	return defaultTransport
}

// nextID returns a fresh callback name.
func (t *Transport) nextID() string {
	return t.prefix + strconv.FormatUint(t.counter.Add(1)-1, 10)
}

func (t *Transport) register(id string, p *pending) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.registry[id] = p
}

func (t *Transport) release(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.registry, id)
}

// Pending returns the number of registered callbacks that have not fired.
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.registry)
}

// Cancel aborts the in-flight call registered under id. It reports whether
// such a call existed.
func (t *Transport) Cancel(id string) bool {
	t.mu.Lock()
	p, ok := t.registry[id]
	t.mu.Unlock()

	if ok {
		p.cancel()
	}

	return ok
}

// Do issues the request and blocks until its callback fires, the context is
// done or the transport timeout elapses.
func (t *Transport) Do(ctx context.Context, req *Request) (json.RawMessage, error) {
	return t.do(ctx, t.nextID(), req)
}

// Go issues the request on a new goroutine and hands the outcome to handler.
// It returns the callback name, which can be passed to Cancel.
func (t *Transport) Go(ctx context.Context, req *Request, handler Handler) string {
	id := t.nextID()

	// registered before the goroutine starts so Cancel works right away
	ctx, cancel := context.WithCancel(ctx)
	t.register(id, &pending{cancel: cancel})

	go func() {
		defer cancel()

		payload, err := t.do(ctx, id, req)
		handler(payload, err)
	}()

	return id
}

func (t *Transport) do(ctx context.Context, id string, req *Request) (json.RawMessage, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if _, ok := ctx.Deadline(); !ok {
		var cancelTimeout context.CancelFunc

		ctx, cancelTimeout = context.WithTimeout(ctx, t.timeout)
		defer cancelTimeout()
	}

	target := req.URL(id)

	t.register(id, &pending{cancel: cancel})
	defer t.release(id)

	body, err := t.fetch(ctx, target)
	if err != nil {
		return nil, contextError(ctx, err)
	}

	return unwrap(body, id)
}

func (t *Transport) fetch(ctx context.Context, target string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("jsonp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: httpReq.URL.Scheme + "://" + httpReq.URL.Host + httpReq.URL.Path}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return body, nil
}

// contextError replaces context failures with the transport sentinels while
// keeping the original error in the chain.
func contextError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	default:
		return err
	}
}

// unwrap extracts the argument of the callback invocation in body. The
// invocation must target id.
func unwrap(body []byte, id string) (json.RawMessage, error) {
	s := bytes.TrimSpace(body)
	s = bytes.TrimPrefix(s, []byte("/**/"))
	s = bytes.TrimSpace(s)
	s = bytes.TrimSuffix(s, []byte(";"))
	s = bytes.TrimSpace(s)

	open := bytes.IndexByte(s, '(')
	if open < 0 || !bytes.HasSuffix(s, []byte(")")) {
		return nil, fmt.Errorf("%w: response is not a callback invocation", ErrMalformedPayload)
	}

	name := string(bytes.TrimSpace(s[:open]))
	if name != id {
		log.Printf("jsonp: response invoked %q while waiting for %q", name, id)

		return nil, fmt.Errorf("%w: unexpected callback %q", ErrMalformedPayload, name)
	}

	payload := bytes.TrimSpace(s[open+1 : len(s)-1])
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%w: invalid json in %s", ErrMalformedPayload, id)
	}

	return json.RawMessage(payload), nil
}
