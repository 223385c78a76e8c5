// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"net/http"

	"github.com/LeeDigitalWorks/zapgw/pkg/gateway/object"
	"github.com/LeeDigitalWorks/zapgw/pkg/logger"
)

// Response texts
const (
	msgUploaded           = "File uploaded and metadata stored successfully"
	msgDeleted            = "File deleted successfully"
	msgNotFound           = "File not found"
	msgNotFoundOnDisk     = "File not found on disk"
	msgInvalidBucketOrKey = "Invalid bucket or key"
	msgSlowDown           = "Too many requests"

	msgDeleteBucketFailed = "Failed to delete bucket"
	msgUploadFailed       = "Failed to upload file"
	msgDeleteFailed       = "Failed to delete file"
	msgHeadFailed         = "Failed to check file"
	msgGetFailed          = "Failed to retrieve file"
)

// MessageResponse is the body of a successful mutation
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

type wrappedResponseRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func (w *wrappedResponseRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *wrappedResponseRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

func (w *wrappedResponseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *wrappedResponseRecorder) status() int {
	if !w.wroteHeader {
		return http.StatusOK
	}
	return w.statusCode
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeObjectError maps a service error to a response. Internal errors are
// logged and answered with the operation's generic failure text.
func writeObjectError(w http.ResponseWriter, r *http.Request, err error, bucket, key, failure string) {
	switch object.CodeOf(err) {
	case object.ErrCodeValidation:
		writeError(w, http.StatusBadRequest, msgInvalidBucketOrKey)
	case object.ErrCodeNotFound:
		msg := msgNotFound
		if object.NotFoundReasonOf(err) == object.ReasonMissingOnDisk {
			msg = msgNotFoundOnDisk
		}
		writeError(w, http.StatusNotFound, msg)
	default:
		logger.Ctx(r.Context()).Error().
			Err(err).
			Str("bucket", bucket).
			Str("key", key).
			Msg(failure)
		writeError(w, http.StatusInternalServerError, failure)
	}
}
