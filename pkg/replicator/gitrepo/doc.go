// Package gitrepo publishes file records as commits in a git working copy.
//
// Without a remote, commits stay local. With a remote, the working copy is cloned on first use,
// brought in line with the remote branch before each write and pushed after each commit.
// A rejected push resets the local branch, so that the record is published again on the next attempt.
package gitrepo
