// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var errNoFilePart = errors.New("multipart upload has no file part")

// pathParams returns the bucket and key wildcards as UTF-8. Bytes that are
// not valid UTF-8 are read as ISO-8859-1.
func pathParams(r *http.Request) (bucket, key string) {
	return getUTF8String(r.PathValue("bucket")), getUTF8String(r.PathValue("key"))
}

func getUTF8String(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	// The ISO-8859-1 decoder maps every byte and never fails
	out, _ := charmap.ISO8859_1.NewDecoder().String(s)
	return out
}

// uploadBody returns the object bytes of an upload request: the "file" part
// of a multipart form, or the raw body otherwise. The returned cleanup
// releases temporary files of the form.
func (s *GatewayServer) uploadBody(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	if err := r.ParseMultipartForm(s.maxUploadMemory); err != nil {
		return nil, nil, err
	}
	cleanup := func() { r.MultipartForm.RemoveAll() }

	file, _, err := r.FormFile("file")
	if err != nil {
		cleanup()
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, errNoFilePart
		}
		return nil, nil, err
	}
	return file, func() {
		file.Close()
		cleanup()
	}, nil
}
