// Package observability builds the service's zap loggers and extracts
// request-scoped log fields.
package observability
