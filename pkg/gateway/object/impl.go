// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/zapgw/pkg/logger"
	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db"
	"github.com/LeeDigitalWorks/zapgw/pkg/nodeid"
	"github.com/LeeDigitalWorks/zapgw/pkg/objpath"
	"github.com/LeeDigitalWorks/zapgw/pkg/storage/backend"
	"github.com/LeeDigitalWorks/zapgw/pkg/types"
	"github.com/LeeDigitalWorks/zapgw/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// serviceImpl implements the Service interface
type serviceImpl struct {
	db         db.ObjectStore
	storage    types.BackendStorage
	resolver   *objpath.Resolver
	nodeID     nodeid.Provider
	locks      *utils.KeyLock // nil unless key locking is enabled
	compensate bool
}

// Config holds configuration for the object service
type Config struct {
	DB       db.ObjectStore
	Storage  types.BackendStorage
	Resolver *objpath.Resolver
	NodeID   nodeid.Provider

	// KeyLocking serializes PutObject and DeleteObject on the same
	// (bucket, key) within this process.
	KeyLocking bool

	// CompensateFailedUpsert removes the file written by PutObject when
	// the record cannot be stored.
	CompensateFailedUpsert bool
}

// NewService creates a new object service
func NewService(cfg Config) (Service, error) {
	if cfg.DB == nil {
		return nil, newValidationError(errors.New("DB is required"))
	}
	if cfg.Storage == nil {
		return nil, newValidationError(errors.New("Storage is required"))
	}
	if cfg.Resolver == nil {
		return nil, newValidationError(errors.New("Resolver is required"))
	}
	if cfg.NodeID == nil {
		cfg.NodeID = nodeid.Static("")
	}

	s := &serviceImpl{
		db:         cfg.DB,
		storage:    cfg.Storage,
		resolver:   cfg.Resolver,
		nodeID:     cfg.NodeID,
		compensate: cfg.CompensateFailedUpsert,
	}
	if cfg.KeyLocking {
		s.locks = utils.NewKeyLock()
	}
	return s, nil
}

// locate normalizes the key and resolves the object location
func (s *serviceImpl) locate(bucket, key string) (objpath.Location, error) {
	loc, err := s.resolver.Split(bucket, key)
	if err != nil {
		return objpath.Location{}, newValidationError(err)
	}
	return loc, nil
}

// lock takes the per-key lock when key locking is enabled
func (s *serviceImpl) lock(loc objpath.Location) func() {
	if s.locks == nil {
		return func() {}
	}
	return s.locks.Lock(loc.Bucket + "\x00" + loc.Key)
}

// find loads the record and checks that its file still exists
func (s *serviceImpl) find(ctx context.Context, loc objpath.Location) (*types.ObjectRecord, error) {
	log := logger.Ctx(ctx).With().Str("bucket", loc.Bucket).Str("key", loc.Key).Logger()

	rec, err := s.db.FindObject(ctx, loc.Bucket, loc.Key)
	if err != nil {
		if errors.Is(err, db.ErrObjectNotFound) {
			log.Warn().Msg("object record not found")
			return nil, newNotFoundError(ReasonNoRecord)
		}
		return nil, newInternalError(fmt.Errorf("find object: %w", err))
	}

	exists, err := s.storage.Exists(ctx, rec.Path)
	if err != nil {
		return nil, newInternalError(fmt.Errorf("stat %s: %w", rec.Path, err))
	}
	if !exists {
		log.Warn().Str("path", rec.Path).Msg("object file not found on disk")
		return nil, newNotFoundError(ReasonMissingOnDisk)
	}
	return rec, nil
}

func (s *serviceImpl) DeleteBucket(ctx context.Context, bucket string) (*DeleteBucketResult, error) {
	dir, err := s.resolver.BucketDir(bucket)
	if err != nil {
		return nil, newValidationError(err)
	}
	log := logger.Ctx(ctx).With().Str("bucket", bucket).Str("path", dir).Logger()

	existed, err := s.storage.RemoveAll(ctx, dir)
	if err != nil {
		return nil, newInternalError(fmt.Errorf("remove bucket directory: %w", err))
	}
	if existed {
		log.Info().Msg("bucket directory deleted")
	} else {
		log.Warn().Msg("bucket directory not found")
	}

	n, err := s.db.DeleteBucketObjects(ctx, bucket)
	if err != nil {
		return nil, newInternalError(fmt.Errorf("delete bucket records: %w", err))
	}
	log.Info().Int64("records", n).Msg("bucket records deleted")

	return &DeleteBucketResult{
		Bucket:           bucket,
		DirectoryExisted: existed,
		RecordsDeleted:   n,
	}, nil
}

func (s *serviceImpl) PutObject(ctx context.Context, req *PutObjectRequest) (*PutObjectResult, error) {
	if req == nil || req.Body == nil {
		return nil, newValidationError(errors.New("body is required"))
	}

	loc, err := s.locate(req.Bucket, req.Key)
	if err != nil {
		return nil, err
	}
	defer s.lock(loc)()

	log := logger.Ctx(ctx).With().Str("bucket", loc.Bucket).Str("key", loc.Key).Str("path", loc.Path).Logger()

	if err := s.storage.MkdirAll(ctx, loc.BucketDir); err != nil {
		return nil, newInternalError(fmt.Errorf("create bucket directory: %w", err))
	}
	if loc.PrefixDir != loc.BucketDir {
		if err := s.storage.MkdirAll(ctx, loc.PrefixDir); err != nil {
			return nil, newInternalError(fmt.Errorf("create prefix directory: %w", err))
		}
	}

	if err := s.storage.Write(ctx, loc.Path, req.Body); err != nil {
		return nil, newInternalError(fmt.Errorf("write object: %w", err))
	}

	size, err := s.storage.Size(ctx, loc.Path)
	if err != nil {
		return nil, newInternalError(fmt.Errorf("measure object: %w", err))
	}
	log.Info().Int64("size", size).Str("size_human", humanize.IBytes(uint64(size))).Msg("object written")

	node, err := s.nodeID.NodeID(ctx)
	if err != nil {
		return nil, newInternalError(fmt.Errorf("node id: %w", err))
	}

	// The store replaces ID with the existing row's on overwrite
	rec := &types.ObjectRecord{
		ID:        uuid.New(),
		Bucket:    loc.Bucket,
		Key:       loc.Key,
		NodeName:  node,
		Path:      loc.Path,
		Size:      size,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.db.UpsertObject(ctx, rec); err != nil {
		if s.compensate {
			if rmErr := s.storage.Delete(ctx, loc.Path); rmErr != nil {
				log.Error().Err(rmErr).Msg("failed to remove object file after upsert failure")
			} else {
				log.Warn().Msg("removed object file after upsert failure")
			}
		}
		return nil, newInternalError(fmt.Errorf("upsert object: %w", err))
	}
	log.Info().Str("node_name", rec.Node()).Msg("object metadata stored")

	return &PutObjectResult{Record: rec}, nil
}

func (s *serviceImpl) DeleteObject(ctx context.Context, bucket, key string) (*DeleteObjectResult, error) {
	loc, err := s.locate(bucket, key)
	if err != nil {
		return nil, err
	}
	defer s.lock(loc)()

	// The record stays when the file is already gone
	rec, err := s.find(ctx, loc)
	if err != nil {
		return nil, err
	}

	if err := s.storage.Delete(ctx, rec.Path); err != nil {
		return nil, newInternalError(fmt.Errorf("delete object file: %w", err))
	}
	if err := s.db.DeleteObject(ctx, loc.Bucket, loc.Key); err != nil {
		return nil, newInternalError(fmt.Errorf("delete object record: %w", err))
	}

	logger.Ctx(ctx).Info().
		Str("bucket", loc.Bucket).
		Str("key", loc.Key).
		Str("node_name", rec.Node()).
		Msg("object deleted")

	return &DeleteObjectResult{Record: rec}, nil
}

func (s *serviceImpl) HeadObject(ctx context.Context, bucket, key string) (*HeadObjectResult, error) {
	loc, err := s.locate(bucket, key)
	if err != nil {
		return nil, err
	}

	rec, err := s.find(ctx, loc)
	if err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Debug().
		Str("bucket", loc.Bucket).
		Str("key", loc.Key).
		Str("node_name", rec.Node()).
		Int64("size", rec.Size).
		Msg("object exists")

	return &HeadObjectResult{Record: rec}, nil
}

func (s *serviceImpl) GetObject(ctx context.Context, bucket, key string) (*GetObjectResult, error) {
	loc, err := s.locate(bucket, key)
	if err != nil {
		return nil, err
	}

	rec, err := s.find(ctx, loc)
	if err != nil {
		return nil, err
	}

	body, err := s.storage.Open(ctx, rec.Path)
	if err != nil {
		// Removed between the existence check and the open
		if errors.Is(err, backend.ErrNotFound) {
			logger.Ctx(ctx).Warn().Str("bucket", loc.Bucket).Str("key", loc.Key).Msg("object file vanished before open")
			return nil, newNotFoundError(ReasonMissingOnDisk)
		}
		return nil, newInternalError(fmt.Errorf("open object: %w", err))
	}

	logger.Ctx(ctx).Info().
		Str("bucket", loc.Bucket).
		Str("key", loc.Key).
		Str("node_name", rec.Node()).
		Msg("serving object")

	return &GetObjectResult{Record: rec, Body: body}, nil
}
