package model

import (
	"sort"
)

// Checkpoints maps a bucket identifier to the last synchronized version of each of its flows.
//
// The zero value is not usable: use NewCheckpoints.
type Checkpoints map[string]map[string]int64

// NewCheckpoints builds an empty set of checkpoints
func NewCheckpoints() Checkpoints {
	return make(Checkpoints)
}

// Get the last synchronized version of a flow. The boolean is false if the flow was never synchronized.
func (c Checkpoints) Get(bucketID, flowID string) (int64, bool) {
	flows, ok := c[bucketID]
	if !ok {
		return 0, false
	}
	v, ok := flows[flowID]
	return v, ok
}

// Set the last synchronized version of a flow
func (c Checkpoints) Set(bucketID, flowID string, version int64) {
	flows, ok := c[bucketID]
	if !ok {
		flows = make(map[string]int64)
		c[bucketID] = flows
	}
	flows[flowID] = version
}

// Delete the checkpoint of a flow. It returns false if there was no such entry.
func (c Checkpoints) Delete(bucketID, flowID string) bool {
	flows, ok := c[bucketID]
	if !ok {
		return false
	}
	if _, ok = flows[flowID]; !ok {
		return false
	}
	delete(flows, flowID)
	if len(flows) == 0 {
		delete(c, bucketID)
	}
	return true
}

// DeleteBucket removes all the checkpoints of a bucket. It returns false if there was no such bucket.
func (c Checkpoints) DeleteBucket(bucketID string) bool {
	if _, ok := c[bucketID]; !ok {
		return false
	}
	delete(c, bucketID)
	return true
}

// Len is the number of flows with a checkpoint
func (c Checkpoints) Len() int {
	n := 0
	for _, flows := range c {
		n += len(flows)
	}
	return n
}

// Clone makes a deep copy
func (c Checkpoints) Clone() Checkpoints {
	res := make(Checkpoints, len(c))
	for bucketID, flows := range c {
		cp := make(map[string]int64, len(flows))
		for flowID, v := range flows {
			cp[flowID] = v
		}
		res[bucketID] = cp
	}
	return res
}

// Buckets returns the sorted list of bucket identifiers
func (c Checkpoints) Buckets() []string {
	res := make([]string, 0, len(c))
	for bucketID := range c {
		res = append(res, bucketID)
	}
	sort.Strings(res)
	return res
}

// Flows returns the sorted list of flow identifiers with a checkpoint in a bucket
func (c Checkpoints) Flows(bucketID string) []string {
	flows := c[bucketID]
	res := make([]string, 0, len(flows))
	for flowID := range flows {
		res = append(res, flowID)
	}
	sort.Strings(res)
	return res
}

// MarshalCheckpoints renders checkpoints as indented JSON, with sorted keys
func MarshalCheckpoints(c Checkpoints) ([]byte, error) {
	if c == nil {
		c = NewCheckpoints()
	}
	return marshalIndent(c)
}

// UnmarshalCheckpoints parses checkpoints
func UnmarshalCheckpoints(data []byte) (Checkpoints, error) {
	var c Checkpoints
	if err := jsonAPI.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c == nil {
		c = NewCheckpoints()
	}
	for bucketID, flows := range c {
		if flows == nil {
			delete(c, bucketID)
		}
	}
	return c, nil
}
