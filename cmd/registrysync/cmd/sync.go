package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oneconcern/registrysync/pkg/dlogger"
	"github.com/oneconcern/registrysync/pkg/engine"
	"github.com/oneconcern/registrysync/pkg/metrics"
	"github.com/oneconcern/registrysync/pkg/poller"
	"github.com/oneconcern/registrysync/pkg/registry"
	"github.com/oneconcern/registrysync/pkg/replicator"
	"github.com/oneconcern/registrysync/pkg/replicator/github"
	"github.com/oneconcern/registrysync/pkg/replicator/gitrepo"
	"github.com/oneconcern/registrysync/pkg/state"
	"github.com/oneconcern/registrysync/pkg/storage/gcs"
	"github.com/oneconcern/registrysync/pkg/storage/sthree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror flow versions from the registry to git",
	Long: `Polls the NiFi Registry and commits every new flow version to git.

A flow seen for the first time is mirrored from its latest version. A known flow
is mirrored from the version following its checkpoint, in order. Checkpoints are
saved once per cycle.

The first cycle starts immediately. The command stops on SIGINT or SIGTERM.
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := config.ValidateSync(); err != nil {
			wrapFatalln("invalid sync configuration", err)
			return
		}
		logger, err := newLogger()
		if err != nil {
			wrapFatalln("could not create logger", err)
			return
		}
		defer func() {
			_ = logger.Sync()
		}()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.NewSync(metrics.WithRegisterer(reg))

		eng, err := newEngine(ctx, logger, m)
		if err != nil {
			wrapFatalln("could not start sync", err)
			return
		}

		if config.MetricsAddr != "" {
			srv := newMetricsServer(config.MetricsAddr, reg, logger)
			go srv.serve()
			defer srv.shutdown()
		}

		if flags.sync.once {
			report, erc := eng.Cycle(ctx)
			if erc == nil {
				erc = report.Err()
			}
			if erc != nil {
				wrapFatalln("sync cycle failed", erc)
				return
			}
			return
		}

		if err = poller.New(eng, config.PollInterval,
			poller.WithLogger(logger),
			poller.WithMetrics(m),
			poller.WithCycleTimeout(config.CycleTimeout),
		).Run(ctx); err != nil {
			wrapFatalln("poll loop failed", err)
			return
		}
	},
}

func newLogger() (*zap.Logger, error) {
	return dlogger.GetLogger(config.LogLevel, dlogger.Encoding(config.LogEncoding), dlogger.Service("registrysync"))
}

func newStateOptions(logger *zap.Logger) []state.Option {
	s3Opts := []sthree.Option{sthree.PathStyle(config.S3PathStyle)}
	if config.S3Region != "" {
		s3Opts = append(s3Opts, sthree.Region(config.S3Region))
	}
	if config.S3Endpoint != "" {
		s3Opts = append(s3Opts, sthree.Endpoint(config.S3Endpoint))
	}
	var gcsOpts []gcs.Option
	if config.GCSCredentials != "" {
		gcsOpts = append(gcsOpts, gcs.CredentialsFile(config.GCSCredentials))
	}
	return []state.Option{
		state.WithLogger(logger),
		state.WithS3Options(s3Opts...),
		state.WithGCSOptions(gcsOpts...),
	}
}

func newPublisher(ctx context.Context, logger *zap.Logger) (replicator.Publisher, error) {
	if config.Publisher == publisherGit {
		return gitrepo.New(ctx, gitrepo.Config{
			Dir:         config.GitDir,
			RemoteURL:   config.GitRemote,
			Branch:      config.GitHubBranch,
			Token:       config.GitHubToken,
			AuthorName:  config.GitAuthorName,
			AuthorEmail: config.GitAuthorEmail,
		}, gitrepo.WithLogger(logger))
	}
	return github.New(github.Config{
		Repository:      config.GitHubRepo,
		Branch:          config.GitHubBranch,
		Token:           config.GitHubToken,
		APIURL:          config.GitHubAPIURL,
		WritesPerSecond: config.GitHubWritesPerSecond,
	}, github.WithLogger(logger))
}

func newEngine(ctx context.Context, logger *zap.Logger, m *metrics.Sync) (*engine.Engine, error) {
	registryClient, err := registry.New(config.registryConfig(), registry.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	publisher, err := newPublisher(ctx, logger)
	if err != nil {
		return nil, err
	}
	store, err := state.Open(ctx, config.StateFile, append(newStateOptions(logger), state.WithLatency(m.StorageLatency))...)
	if err != nil {
		return nil, err
	}

	logger.Info("starting registry sync",
		zap.String("registry", registryClient.String()),
		zap.String("publisher", publisher.String()),
		zap.String("state", store.String()),
		zap.Duration("pollInterval", config.PollInterval),
		zap.Bool("once", flags.sync.once),
		zap.String("version", NewVersionInfo().Version),
	)

	return engine.New(ctx, registryClient, registryClient,
		replicator.New(publisher, replicator.WithLogger(logger), replicator.WithMetrics(m)),
		store,
		engine.WithLogger(logger),
		engine.WithMetrics(m),
	), nil
}

func init() {
	addPublisherFlags(syncCmd)
	addPollFlags(syncCmd)
	addMetricsAddrFlag(syncCmd)
	rootCmd.AddCommand(syncCmd)
}
