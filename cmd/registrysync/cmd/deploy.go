package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/oneconcern/registrysync/pkg/deploy"
	"github.com/oneconcern/registrysync/pkg/metrics"
	"github.com/oneconcern/registrysync/pkg/nifi"
	"github.com/oneconcern/registrysync/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var deployCmd = &cobra.Command{
	Use:   "deploy [environment]",
	Short: "Deploy a flow version to NiFi",
	Long: `Deploys a flow version from the registry to a NiFi instance.

The environment is looked up in the "environments" map of the config file, e.g.

  environments:
    staging: http://nifi-stg:8080/nifi-api
    prod: http://nifi-prod:8080/nifi-api

--nifi-url bypasses the lookup.

With --pushgateway-url, the outcome of the deployment is pushed to a Prometheus
pushgateway under the job "registrysync_deploy", grouped by environment.

The process group named like the flow, under the root process group, is updated
to the version. When there is no such group, a versioned process group is created.
`,
	Example: `registrysync deploy staging --bucket my-project --flow my-flow
registrysync deploy --nifi-url http://localhost:8080/nifi-api --bucket my-project --flow my-flow --version 4`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var environment string
		if len(args) > 0 {
			environment = args[0]
		}
		if flags.deploy.bucket == "" || flags.deploy.flow == "" {
			wrapFatalln("--bucket and --flow are required", nil)
			return
		}
		endpoint, err := config.NiFiEndpoint(environment)
		if err != nil {
			wrapFatalln("invalid deploy target", err)
			return
		}
		logger, err := newLogger()
		if err != nil {
			wrapFatalln("could not create logger", err)
			return
		}

		registryClient, err := registry.New(config.registryConfig(), registry.WithLogger(logger))
		if err != nil {
			wrapFatalln("invalid registry configuration", err)
			return
		}
		nifiClient, err := nifi.New(nifi.Config{
			URL:      endpoint,
			Timeout:  config.RegistryTimeout,
			Username: config.NiFiUsername,
			Password: config.NiFiPassword,
		}, nifi.WithLogger(logger), nifi.WithUpdateTimeout(config.NiFiUpdateTimeout))
		if err != nil {
			wrapFatalln("invalid NiFi configuration", err)
			return
		}

		opts := []deploy.Option{deploy.WithLogger(logger.With(zap.String("nifi", nifiClient.String())))}
		var reg *prometheus.Registry
		if config.PushgatewayURL != "" {
			reg = prometheus.NewRegistry()
			opts = append(opts, deploy.WithMetrics(metrics.NewDeploy(metrics.WithRegisterer(reg))))
		}

		res, err := deploy.New(registryClient, nifiClient, opts...).Deploy(ctx, deploy.Request{
			Bucket:         flags.deploy.bucket,
			Flow:           flags.deploy.flow,
			Version:        flags.deploy.version,
			RegistryClient: config.RegistryClient,
			Position:       nifi.Position{X: flags.deploy.x, Y: flags.deploy.y},
		})
		if reg != nil {
			pushDeployMetrics(logger, reg, environment)
		}
		if err != nil {
			wrapFatalln(fmt.Sprintf("could not deploy %s/%s", flags.deploy.bucket, flags.deploy.flow), err)
			return
		}

		target := environment
		if target == "" {
			target = endpoint
		}
		_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
			"Flow %s/%s deployed to %s successfully! (version %d, %s process group %s)\n",
			flags.deploy.bucket, flags.deploy.flow, target, res.Version, res.Outcome, res.GroupID)
	},
}

const deployPushJob = "registrysync_deploy"

// pushDeployMetrics sends the deploy counters to the configured pushgateway
func pushDeployMetrics(logger *zap.Logger, gatherer prometheus.Gatherer, environment string) {
	pusher := push.New(config.PushgatewayURL, deployPushJob).
		Gatherer(gatherer).
		Client(&http.Client{Timeout: config.RegistryTimeout})
	if environment != "" {
		pusher = pusher.Grouping("environment", environment)
	}
	if err := pusher.Push(); err != nil {
		logger.Warn("could not push deploy metrics", zap.String("pushgateway", config.PushgatewayURL), zap.Error(err))
	}
}

func init() {
	addDeployFlags(deployCmd)
	rootCmd.AddCommand(deployCmd)
}
