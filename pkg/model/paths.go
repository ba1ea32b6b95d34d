package model

import (
	"fmt"
	"strings"
)

const (
	// flowsRoot is the top-level folder of mirrored flows in the source repository
	flowsRoot = "flows"
)

var pathReplacer = strings.NewReplacer("/", "_", `\`, "_")

// pathSegment keeps a registry name usable as a single path element.
// Empty and dot-only names would resolve outside of the flows folder: every dot becomes "_".
func pathSegment(name string) string {
	if strings.Trim(name, ".") == "" {
		if name == "" {
			return "_"
		}
		return strings.Repeat("_", len(name))
	}
	return pathReplacer.Replace(name)
}

// GetPathToFlowVersion yields the path of a flow version in the mirrored repository,
// as in: flows/{bucket}/{flow}/v{version}.json
func GetPathToFlowVersion(bucketName, flowName string, version int64) string {
	return fmt.Sprintf("%s/%s/%s/v%d.json", flowsRoot, pathSegment(bucketName), pathSegment(flowName), version)
}

// GetCommitMessage yields the commit message used when mirroring a flow version
func GetCommitMessage(bucketName, flowName string, version int64) string {
	return fmt.Sprintf("Update %s to version %d\n\nBucket: %s\nFlow: %s\nVersion: %d",
		flowName, version, bucketName, flowName, version)
}
