// =============================================================================
// GSTR-2B to Tally Masters - Storage Module
// =============================================================================
//
// This module reads reports and writes generated documents. A location is
// either a local path or an s3://bucket/key URI; the Router picks the
// backend from the location.
//
// =============================================================================

package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// s3Scheme prefixes object storage locations.
const s3Scheme = "s3://"

// Store reads, writes and deletes whole documents by location.
type Store interface {
	Read(ctx context.Context, location string) ([]byte, error)
	Write(ctx context.Context, location string, data []byte) error
	Delete(ctx context.Context, location string) error
}

// IsS3URI reports whether location names an S3 object or prefix.
func IsS3URI(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// ParseS3URI splits s3://bucket/key into its bucket and key.
// Both parts are required.
func ParseS3URI(location string) (bucket, key string, err error) {
	if !IsS3URI(location) {
		return "", "", fmt.Errorf("not an s3 location: %q", location)
	}

	rest := strings.TrimPrefix(location, s3Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 location %q has no bucket", location)
	}
	if key == "" {
		return "", "", fmt.Errorf("s3 location %q has no key", location)
	}
	return bucket, key, nil
}

// Join appends name to a directory or s3 prefix.
func Join(dir, name string) string {
	if IsS3URI(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}

// Base returns the last element of a location.
func Base(location string) string {
	if IsS3URI(location) {
		return path.Base(location)
	}
	return filepath.Base(location)
}

// contentType picks the object content type from the file extension.
func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".xml":
		return "application/xml"
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
