// Package nifi is a minimal client for the NiFi REST API.
//
// It covers what is needed to deploy a versioned flow from a registry:
// the root process group, registry clients, child process groups,
// creation of a versioned process group and version update requests.
package nifi
