// Package status declares error constants returned by the replicator and its publishers
package status

import "github.com/oneconcern/registrysync/pkg/errors"

var (
	// ErrFormat is returned when a flow version document cannot be rendered
	ErrFormat = errors.New("cannot format flow version document")

	// ErrPublish is returned when a record could not be published
	ErrPublish = errors.New("cannot publish record")

	// ErrProbe is returned when the current revision of a path could not be determined
	ErrProbe = errors.New("cannot probe published record")

	// ErrConflict is returned when the repository changed concurrently
	ErrConflict = errors.New("conflicting update of published record")

	// ErrUnauthorized is returned when the repository host rejects the credentials
	ErrUnauthorized = errors.New("unauthorized by repository host")

	// ErrNotFound is returned when the repository or branch does not exist
	ErrNotFound = errors.New("repository not found")

	// ErrPush is returned when commits could not be pushed to the remote
	ErrPush = errors.New("cannot push to remote repository")

	// ErrInvalidConfig is returned when a publisher is not properly configured
	ErrInvalidConfig = errors.New("invalid publisher configuration")
)
