package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set at link time with -ldflags "-X"
var (
	Version   string
	BuildDate string
	GitCommit string
	GitState  string
)

// VersionInfo describes the build of the binary
type VersionInfo struct {
	Version   string `json:"version,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
	GitState  string `json:"gitState,omitempty"`
}

// NewVersionInfo reports the build information, "dev" when built without version
func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   "dev",
		BuildDate: BuildDate,
		GitCommit: GitCommit,
	}
	if Version != "" {
		ver.Version = Version
		ver.GitState = "clean"
	}
	if GitState != "" {
		ver.GitState = GitState
	}
	return ver
}

func (v VersionInfo) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Version: %s\n", v.Version)
	fmt.Fprintf(&buf, "Build date: %s\n", v.BuildDate)
	fmt.Fprintf(&buf, "Commit: %s\n", v.GitCommit)
	fmt.Fprintf(&buf, "Working tree: %s\n", v.GitState)
	return buf.String()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of registrysync",
	Long: `Prints the version of registrysync. It includes the following components:
	* Semver (output of git describe --tags)
	* Build Date (date at which the binary was built)
	* Git Commit (the git commit hash this binary was built from)
	* Git State (when dirty there were uncommitted changes during the build)
`,
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), NewVersionInfo().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
