// Package memory provides in-memory implementations of the storage ports.
// They hold everything in process memory and are used for tests and for
// short-lived runs that need no persistence.
package memory
