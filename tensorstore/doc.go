// Package tensorstore provides storage abstraction for tensor artifacts.
//
// Store is the interface for reading and writing encoded tensor frames.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: In-memory, for tests and ephemeral pipelines
//   - LocalStore: Local filesystem with atomic replace
//   - s3.Store: Amazon S3 with multipart uploads
//   - minio.Store: MinIO and other S3-compatible object stores
//
// # Custom Implementations
//
// Implement the Store interface to support custom backends:
//
//	type Store interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error       // Atomic replace
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// The GetTensor/PutTensor helpers pair any Store with the codec package for
// checksummed, optionally compressed tensor frames.
package tensorstore
