// Package status declares error constants returned by deployments
package status

import "github.com/oneconcern/registrysync/pkg/errors"

var (
	// ErrLookup is returned when the bucket, flow, version or registry client cannot be resolved
	ErrLookup = errors.New("deployment target lookup failed")

	// ErrDeploy is returned when NiFi refuses to create or update the process group
	ErrDeploy = errors.New("deployment failed")
)
