// Package github publishes file records with the GitHub contents API.
//
// Each record becomes one commit on the configured branch. The current blob sha of the
// path is probed first, so that an existing file is updated rather than rejected.
package github
