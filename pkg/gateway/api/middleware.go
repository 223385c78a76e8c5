// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/LeeDigitalWorks/zapgw/pkg/logger"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	HeaderRequestID  = "X-Request-Id"
	HeaderObjectSize = "X-Object-Size"
)

// Operation labels
const (
	opDeleteBucket = "DeleteBucket"
	opPutObject    = "PutObject"
	opDeleteObject = "DeleteObject"
	opHeadObject   = "HeadObject"
	opGetObject    = "GetObject"
)

var (
	metricsRequest = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zapgw_http_requests_total",
		Help: "Number of gateway API requests handled",
	}, []string{"operation", "status_code"})

	metricsRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zapgw_http_request_duration_seconds",
		Help:    "Duration of gateway API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status_code"})

	metricsRateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zapgw_http_rate_limited_total",
		Help: "Number of requests rejected by the rate limiter",
	})
)

func init() {
	prometheus.MustRegister(
		metricsRequest,
		metricsRequestDuration,
		metricsRateLimited,
	)
}

// withRequestID tags the request with an ID and stores a request scoped
// logger in its context. A client supplied ID is kept.
func (s *GatewayServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		l := logger.Ctx(r.Context()).With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithLogger(r.Context(), &l)))
	})
}

func (s *GatewayServer) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			metricsRateLimited.Inc()
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, msgSlowDown)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument records request metrics and an access log line for op
func (s *GatewayServer) instrument(op string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrappedWriter := &wrappedResponseRecorder{ResponseWriter: w}

		defer func() {
			status := wrappedWriter.status()
			// A client that went away is not a server error
			if status == http.StatusInternalServerError && errors.Is(r.Context().Err(), context.Canceled) {
				status = 0
			}
			code := strconv.Itoa(status)
			elapsed := time.Since(start)
			metricsRequest.WithLabelValues(op, code).Inc()
			metricsRequestDuration.WithLabelValues(op, code).Observe(elapsed.Seconds())

			logger.Ctx(r.Context()).Debug().
				Str("operation", op).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int64("bytes", wrappedWriter.bytesWritten).
				Dur("duration", elapsed).
				Msg("request completed")
		}()

		h(wrappedWriter, r)
	})
}
