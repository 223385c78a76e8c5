// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"errors"
	"time"

	"github.com/LeeDigitalWorks/zapgw/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for database operations
var (
	dbQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zapgw_db_query_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation", "status"},
	)

	dbQueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zapgw_db_queries_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		dbQueryDuration,
		dbQueryTotal,
	)
}

// recordMetric records timing and status for an operation. A not-found
// lookup is an expected outcome and is counted separately from errors.
func recordMetric(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	switch {
	case errors.Is(err, ErrObjectNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	dbQueryDuration.WithLabelValues(operation, status).Observe(duration)
	dbQueryTotal.WithLabelValues(operation, status).Inc()
}

// MetricsDB wraps a DB implementation and adds metrics instrumentation
type MetricsDB struct {
	db DB
}

// NewMetricsDB creates a new metrics-instrumented DB wrapper
func NewMetricsDB(db DB) *MetricsDB {
	return &MetricsDB{db: db}
}

// Unwrap returns the underlying DB implementation
func (m *MetricsDB) Unwrap() DB {
	return m.db
}

// Close closes the database connection
func (m *MetricsDB) Close() error {
	return m.db.Close()
}

// Migrate runs database migrations
func (m *MetricsDB) Migrate(ctx context.Context) error {
	start := time.Now()
	err := m.db.Migrate(ctx)
	recordMetric("migrate", start, err)
	return err
}

func (m *MetricsDB) Ping(ctx context.Context) error {
	start := time.Now()
	err := m.db.Ping(ctx)
	recordMetric("ping", start, err)
	return err
}

// ============================================================================
// ObjectStore implementation
// ============================================================================

func (m *MetricsDB) FindObject(ctx context.Context, bucket, key string) (*types.ObjectRecord, error) {
	start := time.Now()
	rec, err := m.db.FindObject(ctx, bucket, key)
	recordMetric("find_object", start, err)
	return rec, err
}

func (m *MetricsDB) UpsertObject(ctx context.Context, rec *types.ObjectRecord) error {
	start := time.Now()
	err := m.db.UpsertObject(ctx, rec)
	recordMetric("upsert_object", start, err)
	return err
}

func (m *MetricsDB) DeleteObject(ctx context.Context, bucket, key string) error {
	start := time.Now()
	err := m.db.DeleteObject(ctx, bucket, key)
	recordMetric("delete_object", start, err)
	return err
}

func (m *MetricsDB) DeleteBucketObjects(ctx context.Context, bucket string) (int64, error) {
	start := time.Now()
	n, err := m.db.DeleteBucketObjects(ctx, bucket)
	recordMetric("delete_bucket_objects", start, err)
	return n, err
}

func (m *MetricsDB) CountObjects(ctx context.Context, bucket string) (int64, error) {
	start := time.Now()
	n, err := m.db.CountObjects(ctx, bucket)
	recordMetric("count_objects", start, err)
	return n, err
}

var _ DB = (*MetricsDB)(nil)
