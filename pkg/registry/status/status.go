// Package status declares error constants returned by the registry client
package status

import "github.com/oneconcern/registrysync/pkg/errors"

var (
	// ErrNotFound is returned when the registry does not know the bucket, flow or version
	ErrNotFound = errors.New("not found in registry")

	// ErrUnauthorized is returned when the registry rejects the credentials
	ErrUnauthorized = errors.New("unauthorized by registry")

	// ErrForbidden is returned when the registry denies access to the resource
	ErrForbidden = errors.New("forbidden by registry")

	// ErrRegistryAPI is returned for any other failed call to the registry
	ErrRegistryAPI = errors.New("registry API error")

	// ErrContentTooBig is returned when a response exceeds the configured maximum size
	ErrContentTooBig = errors.New("registry response exceeds maximum content size")

	// ErrDecode is returned when a response cannot be decoded
	ErrDecode = errors.New("cannot decode registry response")

	// ErrInvalidConfig is returned when the client configuration is not usable
	ErrInvalidConfig = errors.New("invalid registry client configuration")
)
