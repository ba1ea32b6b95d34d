// Package model describes the base objects manipulated by registrysync.
//
// The object model is composed of:
//
//	Buckets:
//	  A bucket is a namespace of the flow registry, grouping versioned flows.
//
//	Flows:
//	  A flow is a named, versioned object inside a bucket. Flow identifiers are unique
//	  across the whole registry.
//
//	Versions:
//	  An immutable, integer-ordered revision of a flow. The content of a version (a Document)
//	  never changes once created.
//
//	Checkpoints:
//	  The last synchronized version per (bucket, flow). For every entry, all versions up to
//	  the recorded number have been replicated at least once.
//
//	File records:
//	  The representation of one version in the mirrored source repository: a deterministic
//	  path, the formatted content and a commit message.
package model
