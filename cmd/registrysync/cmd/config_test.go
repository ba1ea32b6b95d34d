package cmd

import (
	"testing"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	toPin := []struct {
		name         string
		set          map[string]interface{}
		pollInterval time.Duration
		maxFlowSize  int64
	}{
		{
			name:         "defaults",
			pollInterval: time.Minute,
			maxFlowSize:  64 * units.MiB,
		},
		{
			name:         "bare seconds",
			set:          map[string]interface{}{"poll_interval": "90", "max_flow_size": "8MB"},
			pollInterval: 90 * time.Second,
			maxFlowSize:  8 * units.MiB,
		},
		{
			name:         "integer seconds from a config file",
			set:          map[string]interface{}{"poll_interval": 30},
			pollInterval: 30 * time.Second,
			maxFlowSize:  64 * units.MiB,
		},
		{
			name:         "duration",
			set:          map[string]interface{}{"poll_interval": "2m30s", "max_flow_size": "1GiB"},
			pollInterval: 150 * time.Second,
			maxFlowSize:  units.GiB,
		},
		{
			name:         "flag value",
			set:          map[string]interface{}{"poll_interval": 5 * time.Second},
			pollInterval: 5 * time.Second,
			maxFlowSize:  64 * units.MiB,
		},
	}

	for _, toPin := range toPin {
		testcase := toPin
		t.Run(testcase.name, func(t *testing.T) {
			t.Parallel()
			v := viper.New()
			setDefaults(v)
			for key, value := range testcase.set {
				v.Set(key, value)
			}
			c, err := newConfig(v)
			require.NoError(t, err)
			assert.Equal(t, testcase.pollInterval, c.PollInterval)
			assert.Equal(t, testcase.maxFlowSize, c.MaxFlowSize)
			assert.Equal(t, "https://api.github.com", c.GitHubAPIURL)
			assert.Equal(t, "default-registry-client", c.RegistryClient)
			assert.Equal(t, "/app/data/sync_state.json", c.StateFile)
		})
	}
}

func TestNewConfigInvalidSize(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("max_flow_size", "a lot")
	_, err := newConfig(v)
	require.Error(t, err)
}

func TestNewConfigDeploy(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	c, err := newConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, c.NiFiUpdateTimeout)
	assert.Empty(t, c.PushgatewayURL)

	v.Set("nifi_update_timeout", "120")
	v.Set("pushgateway_url", "http://pushgateway:9091")
	c, err = newConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, c.NiFiUpdateTimeout)
	assert.Equal(t, "http://pushgateway:9091", c.PushgatewayURL)
}

func TestValidateSync(t *testing.T) {
	valid := CLIConfig{
		Publisher:    publisherGitHub,
		GitHubRepo:   "acme/flows",
		GitHubToken:  "token",
		PollInterval: time.Minute,
	}
	require.NoError(t, valid.ValidateSync())

	toPin := []struct {
		name   string
		change func(*CLIConfig)
		errMsg string
	}{
		{name: "no repository", change: func(c *CLIConfig) { c.GitHubRepo = "" }, errMsg: "GITHUB_REPO"},
		{name: "no token", change: func(c *CLIConfig) { c.GitHubToken = "" }, errMsg: "GITHUB_TOKEN"},
		{name: "no interval", change: func(c *CLIConfig) { c.PollInterval = 0 }, errMsg: "poll interval"},
		{name: "git without directory", change: func(c *CLIConfig) { c.Publisher = publisherGit }, errMsg: "--git-dir"},
		{name: "unknown publisher", change: func(c *CLIConfig) { c.Publisher = "svn" }, errMsg: "unknown publisher"},
	}
	for _, toPin := range toPin {
		testcase := toPin
		t.Run(testcase.name, func(t *testing.T) {
			t.Parallel()
			c := valid
			testcase.change(&c)
			err := c.ValidateSync()
			require.Error(t, err)
			assert.Contains(t, err.Error(), testcase.errMsg)
		})
	}

	c := valid
	c.Publisher = publisherGit
	c.GitDir = "/var/lib/registrysync/mirror"
	c.GitHubToken = ""
	assert.NoError(t, c.ValidateSync(), "the git publisher works without a token")
}

func TestNiFiEndpoint(t *testing.T) {
	c := CLIConfig{Environments: map[string]string{
		"staging": "http://nifi-stg:8080/nifi-api",
		"prod":    "http://nifi-prod:8080/nifi-api",
	}}

	endpoint, err := c.NiFiEndpoint("prod")
	require.NoError(t, err)
	assert.Equal(t, "http://nifi-prod:8080/nifi-api", endpoint)

	_, err = c.NiFiEndpoint("qa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known: prod, staging")

	_, err = c.NiFiEndpoint("")
	require.Error(t, err)

	c.NiFiURL = "http://localhost:8080/nifi-api"
	endpoint, err = c.NiFiEndpoint("prod")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/nifi-api", endpoint)
}
