// Package store defines the object-store capability consumed by ferry.
//
// A store writes a file's bytes under (container, key) and reads an object back.
// Containers are "bucket" or "bucket/prefix" strings; backends split them with
// ParsePath. Three backends are provided:
//   - S3Store: AWS S3 via aws-sdk-go-v2
//   - MinioStore: any S3-compatible endpoint via minio-go
//   - LodeStore: local filesystem or in-memory storage via lode
package store

import (
	"context"
	"io"
	"path"
	"strings"
)

// Visibility controls the access semantics of a written object.
type Visibility string

const (
	// VisibilityPrivate leaves the object with the bucket's default ACL.
	VisibilityPrivate Visibility = "private"
	// VisibilityPublicRead grants anonymous read on the object.
	VisibilityPublicRead Visibility = "public-read"
)

// ProgressFunc receives the cumulative bytes acknowledged by the store and
// the total expected. Called in the order the backend observes progress.
type ProgressFunc func(acked, total int64)

// WriteOptions configures a single write.
type WriteOptions struct {
	ContentType string
	Visibility  Visibility
	// Progress is optional.
	Progress ProgressFunc
}

// Writer writes objects.
type Writer interface {
	// Write stores size bytes from body under container/key and returns a
	// resolvable location for the object.
	Write(ctx context.Context, container, key string, body io.Reader, size int64, opts WriteOptions) (string, error)
}

// Reader reads objects.
type Reader interface {
	// Read returns the full object body. A missing object is an error
	// satisfying errors.Is(err, ErrNotFound).
	Read(ctx context.Context, container, key string) ([]byte, error)
}

// Store is both a Writer and a Reader.
type Store interface {
	Writer
	Reader
	io.Closer
}

// ParsePath parses a path in format "bucket/prefix" or "bucket".
func ParsePath(p string) (bucket, prefix string) {
	parts := strings.SplitN(strings.Trim(p, "/"), "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = parts[1]
	}
	return bucket, prefix
}

// JoinContainer joins a base container with a sub-path.
// Either side may be empty.
func JoinContainer(base, sub string) string {
	base = strings.Trim(base, "/")
	sub = strings.Trim(sub, "/")
	switch {
	case base == "":
		return sub
	case sub == "":
		return base
	default:
		return base + "/" + sub
	}
}

// ObjectKey returns the bucket and the full object key for container/key.
func ObjectKey(container, key string) (bucket, objectKey string) {
	bucket, prefix := ParsePath(container)
	if prefix == "" {
		return bucket, strings.TrimPrefix(key, "/")
	}
	return bucket, path.Join(prefix, key)
}
