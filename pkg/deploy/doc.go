// Package deploy pushes a flow version from the registry into a running NiFi instance.
//
// The process group named after the flow, directly under the root group, is
// updated to the requested version. When there is no such group, a new
// versioned process group is created.
package deploy
