// Package state persists the checkpoint map of the sync engine: the last version
// replicated for every (bucket, flow) pair.
//
// The checkpoint document is a single JSON object stored at a location which may be
// a local file path, an s3://bucket/key URL or a gs://bucket/key URL.
package state
