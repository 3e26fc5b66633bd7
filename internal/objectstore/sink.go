// Package objectstore holds the blob sinks that uploaded artifacts and batch
// markers are written to.
package objectstore

import (
	"context"
	"fmt"
)

type Sink interface {
	Put(ctx context.Context, bucket, key string, body []byte) error
	ListCommonPrefixes(ctx context.Context, bucket, prefix, delimiter string) ([]string, error)
}

// StorageError reports a sink failure for a single object or listing.
type StorageError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s s3://%s: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("storage %s s3://%s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
