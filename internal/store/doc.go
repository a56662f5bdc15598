// Package store defines the configuration store contract consumed by the
// backup engine, together with its implementations: an HTTP client for a
// remote server, a bbolt-backed local vault, and an in-memory fake for
// tests.
package store
