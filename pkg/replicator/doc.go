// Package replicator turns flow versions into file records and publishes them to a source control repository.
//
// A record is deterministic: the same flow version always produces the same path,
// content and commit message. Publishing backends live in sub-packages:
//   - github: the GitHub contents API
//   - gitrepo: a git working copy, optionally pushed to a remote
package replicator
