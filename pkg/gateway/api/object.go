// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"path"
	"strconv"

	"github.com/LeeDigitalWorks/zapgw/pkg/gateway/object"
	"github.com/LeeDigitalWorks/zapgw/pkg/logger"
)

func (s *GatewayServer) PutObjectHandler(w http.ResponseWriter, r *http.Request) {
	bucket, key := pathParams(r)

	body, cleanup, err := s.uploadBody(r)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("failed to read upload body")
		writeError(w, http.StatusInternalServerError, msgUploadFailed)
		return
	}
	defer cleanup()

	_, err = s.svc.PutObject(r.Context(), &object.PutObjectRequest{
		Bucket: bucket,
		Key:    key,
		Body:   body,
	})
	if err != nil {
		writeObjectError(w, r, err, bucket, key, msgUploadFailed)
		return
	}

	writeMessage(w, http.StatusOK, msgUploaded)
}

func (s *GatewayServer) DeleteObjectHandler(w http.ResponseWriter, r *http.Request) {
	bucket, key := pathParams(r)

	if _, err := s.svc.DeleteObject(r.Context(), bucket, key); err != nil {
		writeObjectError(w, r, err, bucket, key, msgDeleteFailed)
		return
	}

	writeMessage(w, http.StatusOK, msgDeleted)
}

// HeadObjectHandler reports the recorded size in the headers only
func (s *GatewayServer) HeadObjectHandler(w http.ResponseWriter, r *http.Request) {
	bucket, key := pathParams(r)

	res, err := s.svc.HeadObject(r.Context(), bucket, key)
	if err != nil {
		writeObjectError(w, r, err, bucket, key, msgHeadFailed)
		return
	}

	size := strconv.FormatInt(res.Record.Size, 10)
	w.Header().Set("Content-Length", size)
	w.Header().Set(HeaderObjectSize, size)
	w.WriteHeader(http.StatusOK)
}

func (s *GatewayServer) GetObjectHandler(w http.ResponseWriter, r *http.Request) {
	bucket, key := pathParams(r)

	res, err := s.svc.GetObject(r.Context(), bucket, key)
	if err != nil {
		writeObjectError(w, r, err, bucket, key, msgGetFailed)
		return
	}
	defer res.Body.Close()

	w.Header().Set(HeaderObjectSize, strconv.FormatInt(res.Record.Size, 10))
	http.ServeContent(w, r, path.Base(res.Record.Key), res.Body.ModTime(), res.Body)
}
