// Package status declares error constants returned by the NiFi client
package status

import "github.com/oneconcern/registrysync/pkg/errors"

var (
	// ErrNotFound is returned when NiFi does not know the requested component
	ErrNotFound = errors.New("not found in NiFi")

	// ErrUnauthorized is returned when NiFi rejects the credentials or the token
	ErrUnauthorized = errors.New("unauthorized by NiFi")

	// ErrLogin is returned when no access token could be obtained
	ErrLogin = errors.New("cannot log in to NiFi")

	// ErrNiFiAPI is returned for any other failed call to NiFi
	ErrNiFiAPI = errors.New("NiFi API error")

	// ErrDecode is returned when a NiFi response cannot be decoded
	ErrDecode = errors.New("cannot decode NiFi response")

	// ErrUpdateFailed is returned when a version update request does not complete successfully
	ErrUpdateFailed = errors.New("process group version update failed")

	// ErrUpdateTimeout is returned when a version update request is still running after the update timeout
	ErrUpdateTimeout = errors.New("process group version update timed out")

	// ErrInvalidConfig is returned when the client configuration is not usable
	ErrInvalidConfig = errors.New("invalid NiFi client configuration")
)
