package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type flagsT struct {
	root struct {
		configFile string
	}
	sync struct {
		once bool
	}
	deploy struct {
		bucket  string
		flow    string
		version int64
		x       float64
		y       float64
	}
	state struct {
		output string
		bucket string
		flow   string
		all    bool
	}
}

var flags = flagsT{}

// bindFlag makes a flag the highest precedence source for a config key
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func addConfigFileFlag(cmd *cobra.Command) string {
	name := "config"
	cmd.PersistentFlags().StringVar(&flags.root.configFile, name, "",
		"Config file (default is ./registrysync.yaml, then $HOME/.registrysync, then /etc/registrysync). Also set by "+configEnvVar)
	return name
}

func addLogLevelFlag(cmd *cobra.Command) string {
	name := "log-level"
	cmd.PersistentFlags().String(name, "", "Log level: debug, info, warn, error or none")
	bindFlag("log_level", cmd.PersistentFlags().Lookup(name))
	return name
}

func addLogEncodingFlag(cmd *cobra.Command) string {
	name := "log-encoding"
	cmd.PersistentFlags().String(name, "", "Log encoding: json or console")
	bindFlag("log_encoding", cmd.PersistentFlags().Lookup(name))
	return name
}

func addRegistryURLFlag(cmd *cobra.Command) string {
	name := "registry-url"
	cmd.PersistentFlags().String(name, "", "NiFi Registry API root (NIFI_REGISTRY_URL)")
	bindFlag("registry_url", cmd.PersistentFlags().Lookup(name))
	return name
}

func addStateFileFlag(cmd *cobra.Command) string {
	name := "state-file"
	cmd.PersistentFlags().String(name, "", "Checkpoint location: a local path, s3://bucket/key or gs://bucket/key (STATE_FILE)")
	bindFlag("state_file", cmd.PersistentFlags().Lookup(name))
	return name
}

func addPublisherFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("publisher", "", `Where flow versions are committed: "github" (contents API) or "git" (local working copy)`)
	f.String("github-repo", "", "GitHub repository as owner/name (GITHUB_REPO)")
	f.String("github-branch", "", "Branch receiving the commits (GITHUB_BRANCH)")
	f.String("github-api-url", "", "GitHub API root, for GitHub Enterprise")
	f.Float64("github-writes-per-second", 0, "Maximum commit rate on the GitHub API, 0 to disable pacing")
	f.String("git-dir", "", "Working copy of the git publisher")
	f.String("git-remote", "", "Remote pushed to by the git publisher")

	bindFlag("publisher", f.Lookup("publisher"))
	bindFlag("github_repo", f.Lookup("github-repo"))
	bindFlag("github_branch", f.Lookup("github-branch"))
	bindFlag("github_api_url", f.Lookup("github-api-url"))
	bindFlag("github_writes_per_second", f.Lookup("github-writes-per-second"))
	bindFlag("git_dir", f.Lookup("git-dir"))
	bindFlag("git_remote", f.Lookup("git-remote"))
}

func addPollFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Duration("poll-interval", 0, "Delay between two cycles (POLL_INTERVAL, a bare number is a count of seconds)")
	f.Duration("cycle-timeout", 0, "Deadline of a single cycle, 0 for none")
	f.String("max-flow-size", "", "Maximum size of a flow version document, e.g. 64MB")
	f.BoolVar(&flags.sync.once, "once", false, "Run a single cycle and exit")

	bindFlag("poll_interval", f.Lookup("poll-interval"))
	bindFlag("cycle_timeout", f.Lookup("cycle-timeout"))
	bindFlag("max_flow_size", f.Lookup("max-flow-size"))
}

func addMetricsAddrFlag(cmd *cobra.Command) string {
	name := "metrics-addr"
	cmd.Flags().String(name, "", "Listen address of the /metrics, /healthz and /readyz endpoints, e.g. :9090. Disabled when empty")
	bindFlag("metrics_addr", cmd.Flags().Lookup(name))
	return name
}

func addDeployFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flags.deploy.bucket, "bucket", "", "Registry bucket holding the flow")
	f.StringVar(&flags.deploy.flow, "flow", "", "Name of the flow to deploy. The process group has the same name")
	f.Int64Var(&flags.deploy.version, "version", 0, "Flow version to deploy, latest when 0")
	f.Float64Var(&flags.deploy.x, "x", 0, "Horizontal position of a new process group")
	f.Float64Var(&flags.deploy.y, "y", 0, "Vertical position of a new process group")
	f.String("nifi-url", "", "NiFi API root, overrides the environment")
	f.String("registry-client", "", "Name of the registry client configured in NiFi")
	f.Duration("update-timeout", 0, "Maximum wait for NiFi to complete a version update")
	f.String("pushgateway-url", "", "Prometheus pushgateway receiving the deploy outcome. Disabled when empty")

	bindFlag("nifi_url", f.Lookup("nifi-url"))
	bindFlag("registry_client", f.Lookup("registry-client"))
	bindFlag("nifi_update_timeout", f.Lookup("update-timeout"))
	bindFlag("pushgateway_url", f.Lookup("pushgateway-url"))
}

func addStateOutputFlag(cmd *cobra.Command) string {
	name := "output"
	cmd.Flags().StringVarP(&flags.state.output, name, "o", outputJSON, "Output format: json, yaml or table")
	return name
}

func addStateSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flags.state.bucket, "bucket", "", "Bucket identifier")
	cmd.Flags().StringVar(&flags.state.flow, "flow", "", "Flow identifier, requires --bucket")
	cmd.Flags().BoolVar(&flags.state.all, "all", false, "Remove all checkpoints")
}
