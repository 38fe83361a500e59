// Package store defines the persistence interfaces used by the job
// lifecycle, decoupling the worker pool and HTTP handlers from any
// concrete storage backend so tests can substitute an in-memory fake.
package store
