// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package api is the admin HTTP surface of "wayfarer serve".

Routes:

	GET  /healthz                         liveness
	GET  /readyz                          503 until every artifact is published
	GET  /metrics                         Prometheus exposition
	GET  /v1/recommend                    ranked places (user, tags, q, provinces, k, filter, include_seen)
	POST /v1/interactions                 record an interaction event
	GET  /v1/ratings/{user}/{place}       stored rating of a pair
	POST /admin/rebuild/{kind}            rebuild and publish artifacts

Every JSON body uses the same envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","query_time_ms":3}}
	{"status":"error","error":{"code":"INVALID_ARGUMENT","message":"..."},"metadata":{...}}

Error codes are the apperr codes; each maps to one HTTP status.
*/
package api
