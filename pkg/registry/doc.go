// Package registry is a client for the NiFi Registry REST API.
//
// It lists buckets, flows and flow versions, and fetches the content of
// a flow version (a versioned flow snapshot) as an opaque document.
package registry
