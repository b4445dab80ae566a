// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package middleware

import (
	"context"
	"net/http"

	"github.com/tomtom215/wayfarer/internal/logging"
)

// RequestIDHeader is the header read from clients and echoed back.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds client-supplied ids; longer ones are replaced.
const maxRequestIDLen = 128

// RequestID propagates the caller's X-Request-ID, or generates one, and
// stores it in the request context where logging.Ctx picks it up.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = logging.GenerateRequestID()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID stored by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	return logging.RequestIDFromContext(ctx)
}
