package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/hupe1980/distkmeans/blobstore"
	minioblob "github.com/hupe1980/distkmeans/blobstore/minio"
	s3blob "github.com/hupe1980/distkmeans/blobstore/s3"
	"github.com/hupe1980/distkmeans/internal/resource"
)

var errNoStore = errors.New("no blob store configured (use --dir, --s3-bucket or --minio-endpoint)")

// storeFlags select where shards and checkpoints live.
type storeFlags struct {
	dir string

	s3Bucket   string
	s3Prefix   string
	s3Region   string
	s3Endpoint string

	minioEndpoint  string
	minioAccessKey string
	minioSecretKey string
	minioBucket    string
	minioPrefix    string
	minioSecure    bool

	ioConcurrency int64
	ioRate        int64
	memoryLimit   int64
}

func (s *storeFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&s.dir, "dir", "", "local directory blob store")

	flags.StringVar(&s.s3Bucket, "s3-bucket", "", "S3 bucket blob store")
	flags.StringVar(&s.s3Prefix, "s3-prefix", "", "key prefix inside the S3 bucket")
	flags.StringVar(&s.s3Region, "s3-region", "", "AWS region (default from environment)")
	flags.StringVar(&s.s3Endpoint, "s3-endpoint", "", "custom S3 endpoint")

	flags.StringVar(&s.minioEndpoint, "minio-endpoint", "", "MinIO endpoint (host:port)")
	flags.StringVar(&s.minioAccessKey, "minio-access-key", "minioadmin", "MinIO access key")
	flags.StringVar(&s.minioSecretKey, "minio-secret-key", "minioadmin", "MinIO secret key")
	flags.StringVar(&s.minioBucket, "minio-bucket", "distkmeans", "MinIO bucket")
	flags.StringVar(&s.minioPrefix, "minio-prefix", "", "key prefix inside the MinIO bucket")
	flags.BoolVar(&s.minioSecure, "minio-secure", false, "use TLS for MinIO")

	flags.Int64Var(&s.ioConcurrency, "io-concurrency", 4, "concurrent shard transfers")
	flags.Int64Var(&s.ioRate, "io-rate", 0, "shard transfer limit in bytes/s (0 = unlimited)")
	flags.Int64Var(&s.memoryLimit, "io-memory-limit", 0, "bytes of shard data buffered at once (0 = unlimited)")
}

func (s *storeFlags) open(ctx context.Context) (blobstore.BlobStore, error) {
	switch {
	case s.dir != "":
		return blobstore.NewLocalStore(s.dir), nil
	case s.s3Bucket != "":
		store, err := s3blob.New(ctx, s.s3Bucket,
			s3blob.WithPrefix(s.s3Prefix),
			s3blob.WithRegion(s.s3Region),
			s3blob.WithEndpoint(s.s3Endpoint),
		)
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		return store, nil
	case s.minioEndpoint != "":
		store, err := minioblob.Connect(ctx, minioblob.Config{
			Endpoint:     s.minioEndpoint,
			AccessKey:    s.minioAccessKey,
			SecretKey:    s.minioSecretKey,
			Bucket:       s.minioBucket,
			Prefix:       s.minioPrefix,
			Secure:       s.minioSecure,
			CreateBucket: true,
		})
		if err != nil {
			return nil, fmt.Errorf("minio store: %w", err)
		}
		return store, nil
	default:
		return nil, errNoStore
	}
}

func (s *storeFlags) controller() *resource.Controller {
	return resource.NewController(resource.Config{
		MaxConcurrentIO:    s.ioConcurrency,
		IOLimitBytesPerSec: s.ioRate,
		MemoryLimitBytes:   s.memoryLimit,
	})
}
