// Package storage stores rendered subtitle files.
//
// # Backends
//
//   - storage/local: a directory on the local filesystem (default "results")
//   - storage/s3: Amazon S3 and S3-compatible storage such as MinIO
//
// # Configuration
//
//	storage:
//	  provider: s3
//	  s3:
//	    bucket: subtitles
//	    region: us-east-1
package storage
