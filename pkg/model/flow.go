package model

// Bucket is a namespace in the flow registry
type Bucket struct {
	Identifier  string `json:"identifier" yaml:"identifier"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	_           struct{}
}

// Flow is a versioned flow stored in a bucket
type Flow struct {
	Identifier       string `json:"identifier" yaml:"identifier"`
	Name             string `json:"name" yaml:"name"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
	BucketIdentifier string `json:"bucketIdentifier" yaml:"bucketIdentifier"`
	BucketName       string `json:"bucketName,omitempty" yaml:"bucketName,omitempty"`
	VersionCount     int64  `json:"versionCount,omitempty" yaml:"versionCount,omitempty"`
	_                struct{}
}

// VersionMetadata describes one version of a flow, without its content
type VersionMetadata struct {
	BucketIdentifier string `json:"bucketIdentifier" yaml:"bucketIdentifier"`
	FlowIdentifier   string `json:"flowIdentifier" yaml:"flowIdentifier"`
	Version          int64  `json:"version" yaml:"version"`
	Timestamp        int64  `json:"timestamp,omitempty" yaml:"timestamp,omitempty"` // millis since epoch
	Author           string `json:"author,omitempty" yaml:"author,omitempty"`
	Comments         string `json:"comments,omitempty" yaml:"comments,omitempty"`
	_                struct{}
}

// Versions is a list of version metadata, ordered newest-first
type Versions []VersionMetadata

func (v Versions) Len() int           { return len(v) }
func (v Versions) Less(i, j int) bool { return v[i].Version > v[j].Version }
func (v Versions) Swap(i, j int)      { v[i], v[j] = v[j], v[i] }

// Latest version number, or 0 if the list is empty
func (v Versions) Latest() int64 {
	if len(v) == 0 {
		return 0
	}
	return v[0].Version
}

// Range returns the version numbers listed in (after, upTo], in ascending order.
//
// Versions must be sorted newest-first.
func (v Versions) Range(after, upTo int64) []int64 {
	res := make([]int64, 0, len(v))
	for i := len(v) - 1; i >= 0; i-- {
		n := v[i].Version
		if n > after && n <= upTo {
			res = append(res, n)
		}
	}
	return res
}

// FileRecord is the representation of one flow version in the mirrored repository
type FileRecord struct {
	Path    string
	Content []byte
	Message string
}
