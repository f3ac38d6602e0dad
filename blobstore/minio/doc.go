// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible systems (Ceph, SeaweedFS,
// Garage) and is the usual home for shards generated with `distkmeans gen`
// when the worker processes run on different hosts.
//
// # Basic Usage
//
//	store, err := minioblob.Connect(ctx, minioblob.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "kmeans",
//	    Prefix:    "run-1/",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	points, d, err := shard.Load(ctx, store, shard.Name(rank), nil)
//
// Streaming uploads (Create) use an io.Pipe, so large shards are never held
// in memory twice.
package minio
