// Package server exposes a workflow session over HTTP.
//
// A single server may run per data directory; Start takes an exclusive
// flock on the configured lock path before listening. When an API token is
// configured every route requires "Authorization: Bearer <token>". Errors
// are returned as api.ErrorResponse with a status derived from the
// services error marker.
package server
