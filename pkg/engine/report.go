package engine

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// VersionRef identifies a replicated flow version
type VersionRef struct {
	Bucket  string
	Flow    string
	Version int64
}

func (v VersionRef) String() string {
	return fmt.Sprintf("%s/%s v%d", v.Bucket, v.Flow, v.Version)
}

// Failure is a unit of work which failed during a cycle
type Failure struct {
	Stage   string
	Bucket  string
	Flow    string
	Version int64
	Err     error
}

// Report summarizes a cycle
type Report struct {
	ID         string
	Buckets    int
	Flows      int
	Replicated []VersionRef
	Failures   []Failure
	Rollbacks  int
	Saved      bool
	Duration   time.Duration
}

// Err combines the errors of all failures, or returns nil
func (r Report) Err() error {
	var err error
	for _, failure := range r.Failures {
		err = multierr.Append(err, failure.Err)
	}
	return err
}
