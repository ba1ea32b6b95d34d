package cmd

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/mitchellh/mapstructure"
	"github.com/oneconcern/registrysync/pkg/deploy"
	"github.com/oneconcern/registrysync/pkg/dlogger"
	"github.com/oneconcern/registrysync/pkg/nifi"
	"github.com/oneconcern/registrysync/pkg/registry"
	"github.com/oneconcern/registrysync/pkg/replicator/github"
	"github.com/oneconcern/registrysync/pkg/state"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	configEnvVar = "REGISTRYSYNC_CONFIG"

	publisherGitHub = "github"
	publisherGit    = "git"

	defaultPollInterval = 60 * time.Second
)

// CLIConfig describes the CLI configuration.
//
// Values are resolved by viper, from flags, then environment, then config file, then defaults.
type CLIConfig struct {
	LogLevel    string `json:"logLevel" yaml:"log_level" mapstructure:"log_level"`
	LogEncoding string `json:"logEncoding" yaml:"log_encoding" mapstructure:"log_encoding"`

	RegistryURL     string        `json:"registryURL" yaml:"registry_url" mapstructure:"registry_url"`
	RegistryTimeout time.Duration `json:"registryTimeout" yaml:"registry_timeout" mapstructure:"registry_timeout"`
	MaxFlowSize     int64         `json:"maxFlowSize" yaml:"max_flow_size" mapstructure:"max_flow_size"` // accepts human sizes such as 64MB

	Publisher             string  `json:"publisher" yaml:"publisher" mapstructure:"publisher"`
	GitHubRepo            string  `json:"githubRepo" yaml:"github_repo" mapstructure:"github_repo"` // owner/name
	GitHubToken           string  `json:"-" yaml:"-" mapstructure:"github_token"`
	GitHubBranch          string  `json:"githubBranch" yaml:"github_branch" mapstructure:"github_branch"`
	GitHubAPIURL          string  `json:"githubAPIURL" yaml:"github_api_url" mapstructure:"github_api_url"`
	GitHubWritesPerSecond float64 `json:"githubWritesPerSecond" yaml:"github_writes_per_second" mapstructure:"github_writes_per_second"`
	GitDir                string  `json:"gitDir" yaml:"git_dir" mapstructure:"git_dir"`
	GitRemote             string  `json:"gitRemote" yaml:"git_remote" mapstructure:"git_remote"`
	GitAuthorName         string  `json:"gitAuthorName" yaml:"git_author_name" mapstructure:"git_author_name"`
	GitAuthorEmail        string  `json:"gitAuthorEmail" yaml:"git_author_email" mapstructure:"git_author_email"`

	PollInterval time.Duration `json:"pollInterval" yaml:"poll_interval" mapstructure:"poll_interval"` // a bare number is a count of seconds
	CycleTimeout time.Duration `json:"cycleTimeout" yaml:"cycle_timeout" mapstructure:"cycle_timeout"`
	StateFile    string        `json:"stateFile" yaml:"state_file" mapstructure:"state_file"`
	MetricsAddr  string        `json:"metricsAddr" yaml:"metrics_addr" mapstructure:"metrics_addr"`

	S3Region       string `json:"s3Region" yaml:"s3_region" mapstructure:"s3_region"`
	S3Endpoint     string `json:"s3Endpoint" yaml:"s3_endpoint" mapstructure:"s3_endpoint"`
	S3PathStyle    bool   `json:"s3PathStyle" yaml:"s3_path_style" mapstructure:"s3_path_style"`
	GCSCredentials string `json:"gcsCredentials" yaml:"gcs_credentials" mapstructure:"gcs_credentials"`

	NiFiURL        string            `json:"nifiURL" yaml:"nifi_url" mapstructure:"nifi_url"`
	NiFiUsername   string            `json:"nifiUsername" yaml:"nifi_username" mapstructure:"nifi_username"`
	NiFiPassword   string            `json:"-" yaml:"-" mapstructure:"nifi_password"`
	RegistryClient string            `json:"registryClient" yaml:"registry_client" mapstructure:"registry_client"`
	Environments   map[string]string `json:"environments" yaml:"environments" mapstructure:"environments"`

	NiFiUpdateTimeout time.Duration `json:"nifiUpdateTimeout" yaml:"nifi_update_timeout" mapstructure:"nifi_update_timeout"`
	PushgatewayURL    string        `json:"pushgatewayURL" yaml:"pushgateway_url" mapstructure:"pushgateway_url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", dlogger.LogLevelInfo)
	v.SetDefault("log_encoding", dlogger.EncodingJSON)
	v.SetDefault("registry_url", registry.DefaultURL)
	v.SetDefault("registry_timeout", registry.DefaultTimeout)
	v.SetDefault("max_flow_size", units.BytesSize(float64(registry.DefaultMaxContentSize)))
	v.SetDefault("publisher", publisherGitHub)
	v.SetDefault("github_repo", "")
	v.SetDefault("github_token", "")
	v.SetDefault("github_branch", github.DefaultBranch)
	v.SetDefault("github_api_url", github.DefaultAPIURL)
	v.SetDefault("github_writes_per_second", github.DefaultWritesPerSecond)
	v.SetDefault("git_dir", "")
	v.SetDefault("git_remote", "")
	v.SetDefault("git_author_name", "")
	v.SetDefault("git_author_email", "")
	v.SetDefault("poll_interval", defaultPollInterval)
	v.SetDefault("cycle_timeout", 0)
	v.SetDefault("state_file", state.DefaultLocation)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("s3_region", "")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_path_style", false)
	v.SetDefault("gcs_credentials", "")
	v.SetDefault("nifi_url", "")
	v.SetDefault("nifi_username", "")
	v.SetDefault("nifi_password", "")
	v.SetDefault("registry_client", deploy.DefaultRegistryClient)
	v.SetDefault("nifi_update_timeout", nifi.DefaultUpdateTimeout)
	v.SetDefault("pushgateway_url", "")
	v.SetDefault("environments", map[string]string{
		"staging": "http://nifi-stg:8080/nifi-api",
		"prod":    "http://nifi-prod:8080/nifi-api",
	})
}

// bindLegacyEnv keeps the environment variables of the legacy sync service working
func bindLegacyEnv(v *viper.Viper) {
	for key, env := range map[string]string{
		"registry_url":  "NIFI_REGISTRY_URL",
		"github_token":  "GITHUB_TOKEN",
		"github_repo":   "GITHUB_REPO",
		"github_branch": "GITHUB_BRANCH",
		"poll_interval": "POLL_INTERVAL",
		"state_file":    "STATE_FILE",
	} {
		prefixed := "REGISTRYSYNC_" + strings.ToUpper(key)
		_ = v.BindEnv(key, prefixed, env)
	}
}

func newConfig(v *viper.Viper) (*CLIConfig, error) {
	var c CLIConfig
	err := v.Unmarshal(&c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsHookFunc(),
		byteSizeHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	int64Type    = reflect.TypeOf(int64(0))
)

// secondsHookFunc reads a bare number as a count of seconds, like POLL_INTERVAL=60
func secondsHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != durationType || from == durationType {
			return data, nil
		}
		switch from.Kind() {
		case reflect.String:
			s := strings.TrimSpace(data.(string))
			if n, err := cast.ToInt64E(s); err == nil {
				return time.Duration(n) * time.Second, nil
			}
			return time.ParseDuration(s)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return time.Duration(cast.ToInt64(data)) * time.Second, nil
		case reflect.Float32, reflect.Float64:
			return time.Duration(cast.ToFloat64(data) * float64(time.Second)), nil
		default:
			return data, nil
		}
	}
}

// byteSizeHookFunc reads human sizes such as "64MB" or "1.5GiB", in multiples of 1024
func byteSizeHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != int64Type || from.Kind() != reflect.String {
			return data, nil
		}
		s := strings.TrimSpace(data.(string))
		if s == "" {
			return int64(0), nil
		}
		return units.RAMInBytes(s)
	}
}

func (c *CLIConfig) registryConfig() registry.Config {
	return registry.Config{
		URL:            c.RegistryURL,
		Timeout:        c.RegistryTimeout,
		MaxContentSize: c.MaxFlowSize,
		UserAgent:      "registrysync/" + NewVersionInfo().Version,
	}
}

// ValidateSync checks what the sync command needs
func (c *CLIConfig) ValidateSync() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	switch c.Publisher {
	case publisherGitHub:
		if c.GitHubRepo == "" {
			return errors.New("a GitHub repository is required (GITHUB_REPO, as owner/name)")
		}
		if c.GitHubToken == "" {
			return errors.New("a GitHub token is required (GITHUB_TOKEN)")
		}
	case publisherGit:
		if c.GitDir == "" {
			return errors.New("a working copy directory is required for the git publisher (--git-dir)")
		}
	default:
		return fmt.Errorf("unknown publisher %q, expected %q or %q", c.Publisher, publisherGitHub, publisherGit)
	}
	return nil
}

// NiFiEndpoint resolves the NiFi API endpoint of a deployment target.
//
// An explicit URL wins over the environment name.
func (c *CLIConfig) NiFiEndpoint(environment string) (string, error) {
	if c.NiFiURL != "" {
		return c.NiFiURL, nil
	}
	if environment == "" {
		return "", errors.New("a deployment environment or a NiFi URL (--nifi-url) is required")
	}
	endpoint, ok := c.Environments[environment]
	if !ok || endpoint == "" {
		known := make([]string, 0, len(c.Environments))
		for name := range c.Environments {
			known = append(known, name)
		}
		sort.Strings(known)
		return "", fmt.Errorf("unknown environment %q (known: %s)", environment, strings.Join(known, ", "))
	}
	return endpoint, nil
}
