package cmd

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ExitMocks struct {
	mock.Mock
	messages []string
}

func (m *ExitMocks) Fatalf(format string, v ...interface{}) {
	m.messages = append(m.messages, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (m *ExitMocks) Fatalln(v ...interface{}) {
	m.messages = append(m.messages, strings.TrimSpace(fmt.Sprintln(v...)))
}

func (m *ExitMocks) fatalCalls() int {
	return len(m.messages)
}

// run executes the CLI with fresh flags and a dedicated config file.
// Fatal exits are recorded instead of terminating the test binary.
func run(t *testing.T, configYAML string, args ...string) (string, *ExitMocks) {
	exits := &ExitMocks{}
	logFatalf = exits.Fatalf
	logFatalln = exits.Fatalln
	t.Cleanup(func() {
		logFatalf = defaultFatalf
		logFatalln = defaultFatalln
	})

	configFile := filepath.Join(t.TempDir(), "registrysync.yaml")
	if configYAML == "" {
		configYAML = "{}\n"
	}
	require.NoError(t, ioutil.WriteFile(configFile, []byte(configYAML), 0600))

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", configFile, "--log-level", "none"}, args...))
	require.NoError(t, rootCmd.Execute())
	return out.String(), exits
}

var (
	defaultFatalf  = logFatalf
	defaultFatalln = logFatalln
)

// resetFlags restores every flag to its default, since cobra keeps flag values between executions
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// clearEnv isolates tests from the environment of the developer
func clearEnv(t *testing.T) {
	for _, env := range []string{
		"NIFI_REGISTRY_URL", "GITHUB_TOKEN", "GITHUB_REPO", "GITHUB_BRANCH", "POLL_INTERVAL", "STATE_FILE", configEnvVar,
	} {
		if _, ok := os.LookupEnv(env); ok {
			t.Setenv(env, "")
		}
	}
}

// newFakeRegistry serves one bucket "team-a" with one flow "ingest-pipeline" in versions 1 and 2
func newFakeRegistry(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
	mux.HandleFunc("/nifi-registry-api/buckets", func(w http.ResponseWriter, _ *http.Request) {
		write(w, `[{"identifier":"b-a","name":"team-a"}]`)
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-a/flows", func(w http.ResponseWriter, _ *http.Request) {
		write(w, `[{"identifier":"f-1","name":"ingest-pipeline","bucketIdentifier":"b-a"}]`)
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-a/flows/f-1/versions", func(w http.ResponseWriter, _ *http.Request) {
		write(w, `[{"bucketIdentifier":"b-a","flowIdentifier":"f-1","version":1},{"bucketIdentifier":"b-a","flowIdentifier":"f-1","version":2}]`)
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-a/flows/f-1/versions/2", func(w http.ResponseWriter, _ *http.Request) {
		write(w, `{"snapshotMetadata":{"version":2},"flowContents":{"name":"ingest-pipeline"}}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// fakeGitHub accepts every commit through the contents API
type fakeGitHub struct {
	mx    sync.Mutex
	files map[string]string
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *httptest.Server) {
	f := &fakeGitHub{files: make(map[string]string)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mx.Lock()
		defer f.mx.Unlock()
		pth := strings.TrimPrefix(r.URL.Path, "/repos/acme/flows/contents/")
		switch r.Method {
		case http.MethodGet:
			if _, ok := f.files[pth]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{"sha":"abc"}`))
		case http.MethodPut:
			var payload struct {
				Content string `json:"content"`
			}
			body, _ := ioutil.ReadAll(r.Body)
			if err := json.Unmarshal(body, &payload); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			content, _ := base64.StdEncoding.DecodeString(payload.Content)
			f.files[pth] = string(content)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeGitHub) paths() []string {
	f.mx.Lock()
	defer f.mx.Unlock()
	res := make([]string, 0, len(f.files))
	for pth := range f.files {
		res = append(res, pth)
	}
	return res
}

// newFakeNiFi serves an empty root process group, which records created groups
func newFakeNiFi(t *testing.T) (*[]string, *httptest.Server) {
	var (
		mx      sync.Mutex
		created []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/nifi-api/flow/process-groups/root", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"processGroupFlow":{"id":"root-id"}}`))
	})
	mux.HandleFunc("/nifi-api/flow/registries", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"registries":[{"id":"reg-1","component":{"id":"reg-1","name":"default-registry-client"}}]}`))
	})
	mux.HandleFunc("/nifi-api/process-groups/root-id/process-groups", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"processGroups":[]}`))
			return
		}
		body, _ := ioutil.ReadAll(r.Body)
		mx.Lock()
		created = append(created, string(body))
		mx.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pg-new","revision":{"version":1},"component":{"id":"pg-new","name":"ingest-pipeline"}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return &created, server
}
