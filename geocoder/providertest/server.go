// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package providertest serves fake Nominatim, Bing and RaveGeo endpoints that
// answer the way the real services do over JSONP.
package providertest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/gin-gonic/gin"
)

// Provider identifies one of the fake endpoints.
type Provider string

const (
	Nominatim Provider = "nominatim"
	Bing      Provider = "bing"
	RaveGeo   Provider = "ravegeo"
)

// emptyPayloads are served for queries without a fixture.
var emptyPayloads = map[Provider]string{
	Nominatim: `[]`,
	Bing:      `{"statusCode":200,"resourceSets":[{"estimatedTotal":0,"resources":[]}]}`,
	RaveGeo:   `[]`,
}

type fixture struct {
	payload string
	status  int
	stall   bool
}

// Request is a call received by the fake server.
type Request struct {
	Provider Provider
	Query    url.Values
}

// Server is a running fake provider server.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	fixtures map[Provider]map[string]fixture
	requests []Request
	release  chan struct{}
	closed   bool
}

// NewServer starts a fake server. Callers must Close it.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		fixtures: map[Provider]map[string]fixture{
			Nominatim: {},
			Bing:      {},
			RaveGeo:   {},
		},
		release: make(chan struct{}),
	}

	r := gin.New()
	r.GET("/nominatim/search", s.handle(Nominatim, "q", callbackParam("json_callback")))
	r.GET("/bing/REST/v1/Locations", s.handle(Bing, "query", callbackParam("jsonp")))
	r.GET("/ravegeo", s.handle(RaveGeo, "address", wrapParams))

	s.Server = httptest.NewServer(r)

	return s
}

// Close releases stalled requests and shuts the server down.
func (s *Server) Close() {
	s.mu.Lock()
	if !s.closed {
		close(s.release)
		s.closed = true
	}
	s.mu.Unlock()

	s.Server.Close()
}

// NominatimURL returns the fake Nominatim search endpoint.
func (s *Server) NominatimURL() string { return s.URL + "/nominatim/search" }

// BingURL returns the fake Bing Locations endpoint.
func (s *Server) BingURL() string { return s.URL + "/bing/REST/v1/Locations" }

// RaveGeoURL returns the fake RaveGeo endpoint.
func (s *Server) RaveGeoURL() string { return s.URL + "/ravegeo" }

// Respond makes provider answer query with the raw JSON payload.
func (s *Server) Respond(p Provider, query, payload string) {
	s.set(p, query, fixture{payload: payload, status: http.StatusOK})
}

// Fail makes provider answer query with an HTTP status and no payload.
func (s *Server) Fail(p Provider, query string, status int) {
	s.set(p, query, fixture{status: status})
}

// Stall makes provider never answer query; the request stays open until the
// client gives up or the server is closed.
func (s *Server) Stall(p Provider, query string) {
	s.set(p, query, fixture{stall: true})
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Request(nil), s.requests...)
}

func (s *Server) set(p Provider, query string, f fixture) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fixtures[p][query] = f
}

func (s *Server) lookup(p Provider, query string) fixture {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.fixtures[p][query]; ok {
		return f
	}

	return fixture{payload: emptyPayloads[p], status: http.StatusOK}
}

// wrapper builds the body around payload from the request parameters.
type wrapper func(q url.Values, payload string) string

func callbackParam(name string) wrapper {
	return func(q url.Values, payload string) string {
		if cb := q.Get(name); cb != "" {
			return cb + "(" + payload + ");"
		}

		return payload
	}
}

func wrapParams(q url.Values, payload string) string {
	return q.Get("prepend") + payload + q.Get("append")
}

func (s *Server) handle(p Provider, queryParam string, wrap wrapper) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		q := ctx.Request.URL.Query()

		s.mu.Lock()
		s.requests = append(s.requests, Request{Provider: p, Query: q})
		s.mu.Unlock()

		f := s.lookup(p, q.Get(queryParam))

		if f.stall {
			select {
			case <-ctx.Request.Context().Done():
			case <-s.release:
			}

			ctx.AbortWithStatus(http.StatusServiceUnavailable)

			return
		}

		if f.status != http.StatusOK {
			ctx.AbortWithStatus(f.status)

			return
		}

		ctx.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(wrap(q, f.payload)))
	}
}
