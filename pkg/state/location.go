package state

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/oneconcern/registrysync/pkg/storage/status"
)

// DefaultLocation of the checkpoint document
const DefaultLocation = "/app/data/sync_state.json"

// Location schemes
const (
	SchemeFile = "file"
	SchemeS3   = "s3"
	SchemeGCS  = "gs"
)

// Location of the checkpoint document. For local files, Bucket is the parent directory.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return filepath.Join(l.Bucket, l.Key)
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// ParseLocation splits a location string into its parts.
//
// Accepted forms are a file path, file:///path, s3://bucket/key and gs://bucket/key.
// An empty location resolves to DefaultLocation.
func ParseLocation(location string) (Location, error) {
	if location == "" {
		location = DefaultLocation
	}

	if !strings.Contains(location, "://") {
		return fileLocation(location)
	}

	u, err := url.Parse(location)
	if err != nil {
		return Location{}, status.ErrInvalidLocation.Wrap(err)
	}

	switch u.Scheme {
	case SchemeFile:
		return fileLocation(u.Path)
	case SchemeS3, SchemeGCS:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
			return Location{}, status.ErrInvalidLocation.WrapMessage("expected %s://bucket/key, got %q", u.Scheme, location)
		}
		return Location{Scheme: u.Scheme, Bucket: u.Host, Key: key}, nil
	default:
		return Location{}, status.ErrInvalidLocation.WrapMessage("unsupported scheme %q in %q", u.Scheme, location)
	}
}

func fileLocation(pth string) (Location, error) {
	if pth == "" || strings.HasSuffix(pth, "/") {
		return Location{}, status.ErrInvalidLocation.WrapMessage("expected a file path, got %q", pth)
	}
	clean := filepath.Clean(pth)
	return Location{
		Scheme: SchemeFile,
		Bucket: filepath.Dir(clean),
		Key:    filepath.Base(clean),
	}, nil
}
