// Copyright © 2018 One Concern

// Package storage provides interface to handle backend storage objects.
//
// The checkpoint document of the sync engine is persisted as a single object
// in one of these backends:
//   - local file system (atomic rename of a staged file)
//   - S3 (AWS)
//   - GCS (Google)
package storage
