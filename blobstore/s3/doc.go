// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("kmeans/run-1/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for large shards (feature/s3/manager)
//   - Automatic pagination for listing
//   - Custom endpoints for S3-compatible services
package s3
