// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"net/http"

	"github.com/LeeDigitalWorks/zapgw/pkg/gateway/object"

	"golang.org/x/time/rate"
)

// DefaultMaxUploadMemory is the part of a multipart upload held in memory
// before the rest spills to temporary files.
const DefaultMaxUploadMemory int64 = 32 << 20

// GatewayServer serves the object gateway HTTP API
type GatewayServer struct {
	svc             object.Service
	maxUploadMemory int64
	limiter         *rate.Limiter // nil when rate limiting is disabled

	handler http.Handler
}

// ServerConfig holds configuration for creating a GatewayServer
type ServerConfig struct {
	Service object.Service

	// MaxUploadMemory bounds the in-memory part of multipart parsing.
	// Zero selects DefaultMaxUploadMemory.
	MaxUploadMemory int64

	// RateLimitRPS is the global request rate limit. Zero disables it.
	RateLimitRPS float64
	// RateLimitBurst defaults to the ceiling of RateLimitRPS.
	RateLimitBurst int
}

func NewGatewayServer(cfg ServerConfig) (*GatewayServer, error) {
	if cfg.Service == nil {
		return nil, errors.New("object service is required")
	}
	if cfg.RateLimitRPS < 0 {
		return nil, errors.New("rate limit must not be negative")
	}

	s := &GatewayServer{
		svc:             cfg.Service,
		maxUploadMemory: cfg.MaxUploadMemory,
	}
	if s.maxUploadMemory <= 0 {
		s.maxUploadMemory = DefaultMaxUploadMemory
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = int(cfg.RateLimitRPS)
			if float64(burst) < cfg.RateLimitRPS {
				burst++
			}
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	mux := http.NewServeMux()
	s.handle(mux, "DELETE /delete_bucket/{bucket}", opDeleteBucket, s.DeleteBucketHandler)
	s.handle(mux, "PUT /upload/{bucket}/{key...}", opPutObject, s.PutObjectHandler)
	s.handle(mux, "DELETE /{bucket}/{key...}", opDeleteObject, s.DeleteObjectHandler)
	s.handle(mux, "HEAD /{bucket}/{key...}", opHeadObject, s.HeadObjectHandler)
	s.handle(mux, "GET /{bucket}/{key...}", opGetObject, s.GetObjectHandler)

	s.handler = s.withRequestID(s.withRateLimit(mux))
	return s, nil
}

func (s *GatewayServer) handle(mux *http.ServeMux, pattern, op string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(op, h))
}

func (s *GatewayServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
