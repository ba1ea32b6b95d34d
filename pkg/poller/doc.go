// Package poller runs synchronization cycles at a fixed interval, until cancelled.
package poller
