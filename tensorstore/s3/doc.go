// Package s3 provides an S3 implementation of the tensorstore.Store
// interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("tensors/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = tensorstore.PutTensor(ctx, store, "inputs/frame-0", src, codec.CompressionZSTD)
//
// # Features
//
//   - Multipart uploads for large tensors
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
