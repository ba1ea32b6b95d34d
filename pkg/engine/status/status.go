// Package status declares error constants returned by the sync engine
package status

import "github.com/oneconcern/registrysync/pkg/errors"

var (
	// ErrListBuckets is returned when a cycle cannot enumerate the registry buckets
	ErrListBuckets = errors.New("cannot list registry buckets")

	// ErrListFlows is reported when the flows of a bucket cannot be listed
	ErrListFlows = errors.New("cannot list flows")

	// ErrListVersions is reported when the versions of a flow cannot be listed
	ErrListVersions = errors.New("cannot list flow versions")

	// ErrFetch is reported when the content of a flow version cannot be fetched
	ErrFetch = errors.New("cannot fetch flow version")

	// ErrReplicate is reported when a flow version cannot be replicated
	ErrReplicate = errors.New("cannot replicate flow version")

	// ErrSave is reported when checkpoints cannot be saved
	ErrSave = errors.New("cannot save checkpoints")
)
