// Package engine runs synchronization cycles: it compares the registry inventory with the
// checkpoints of the last replicated versions, replicates what is new, then saves the checkpoints.
//
// Delivery is at-least-once. A checkpoint never advances past a version that failed to replicate,
// so that the version is retried on the next cycle. Flows seen for the first time only get their
// latest version replicated.
package engine
