// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the job runner, translating HTTP concerns to job submissions and
// status queries.
package api
