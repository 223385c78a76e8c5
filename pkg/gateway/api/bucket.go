// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"net/http"
)

// DeleteBucketHandler removes the bucket directory and every record of the
// bucket. A bucket without a directory still succeeds.
func (s *GatewayServer) DeleteBucketHandler(w http.ResponseWriter, r *http.Request) {
	bucket, _ := pathParams(r)

	if _, err := s.svc.DeleteBucket(r.Context(), bucket); err != nil {
		writeObjectError(w, r, err, bucket, "", msgDeleteBucketFailed)
		return
	}

	writeMessage(w, http.StatusOK, fmt.Sprintf("Bucket '%s' and all associated records deleted successfully", bucket))
}
