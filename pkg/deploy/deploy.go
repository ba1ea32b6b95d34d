package deploy

import (
	"context"

	"github.com/oneconcern/registrysync/pkg/deploy/status"
	"github.com/oneconcern/registrysync/pkg/metrics"
	"github.com/oneconcern/registrysync/pkg/model"
	"github.com/oneconcern/registrysync/pkg/nifi"
	"go.uber.org/zap"
)

// DefaultRegistryClient is the name of the registry client configured in NiFi
const DefaultRegistryClient = "default-registry-client"

// Outcomes of a deployment
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

// Registry resolves flows in the flow registry
type Registry interface {
	FindBucket(ctx context.Context, name string) (model.Bucket, error)
	FindFlow(ctx context.Context, bucketID, name string) (model.Flow, error)
	LatestVersion(ctx context.Context, bucketID, flowID string) (int64, error)
}

// NiFi manipulates process groups
type NiFi interface {
	Login(ctx context.Context) error
	RootProcessGroupID(ctx context.Context) (string, error)
	FindRegistryClient(ctx context.Context, name string) (nifi.RegistryClient, error)
	FindProcessGroup(ctx context.Context, parentID, name string) (nifi.ProcessGroup, bool, error)
	CreateVersionedGroup(ctx context.Context, parentID string, vci nifi.VersionControl, position nifi.Position) (nifi.ProcessGroup, error)
	UpdateVersion(ctx context.Context, pg nifi.ProcessGroup, version int64) error
}

// Request describes what to deploy.
//
// A zero Version deploys the latest version. An empty RegistryClient uses DefaultRegistryClient.
type Request struct {
	Bucket         string
	Flow           string
	Version        int64
	RegistryClient string
	Position       nifi.Position
}

// Result of a deployment
type Result struct {
	Outcome string
	GroupID string
	Version int64
}

// Deployer deploys flow versions
type Deployer struct {
	registry Registry
	nifi     NiFi
	metrics  *metrics.Deploy
	l        *zap.Logger
}

// Option for the deployer
type Option func(*Deployer)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Deployer) {
		if l != nil {
			d.l = l
		}
	}
}

// WithMetrics counts deployments by outcome
func WithMetrics(m *metrics.Deploy) Option {
	return func(d *Deployer) {
		d.metrics = m
	}
}

// New deployer
func New(registry Registry, target NiFi, opts ...Option) *Deployer {
	d := &Deployer{
		registry: registry,
		nifi:     target,
		l:        zap.NewNop(),
	}
	for _, apply := range opts {
		apply(d)
	}
	return d
}

// Deploy a flow version
func (d *Deployer) Deploy(ctx context.Context, req Request) (res Result, err error) {
	defer func() {
		if err != nil {
			d.metrics.Outcome(OutcomeFailed)
			return
		}
		d.metrics.Outcome(res.Outcome)
	}()

	if req.RegistryClient == "" {
		req.RegistryClient = DefaultRegistryClient
	}
	lg := d.l.With(zap.String("bucket", req.Bucket), zap.String("flow", req.Flow))

	bucket, err := d.registry.FindBucket(ctx, req.Bucket)
	if err != nil {
		return res, status.ErrLookup.Wrap(err)
	}
	flow, err := d.registry.FindFlow(ctx, bucket.Identifier, req.Flow)
	if err != nil {
		return res, status.ErrLookup.Wrap(err)
	}
	version := req.Version
	if version == 0 {
		if version, err = d.registry.LatestVersion(ctx, bucket.Identifier, flow.Identifier); err != nil {
			return res, status.ErrLookup.Wrap(err)
		}
	}
	res.Version = version
	lg = lg.With(zap.Int64("version", version))

	if err = d.nifi.Login(ctx); err != nil {
		return res, status.ErrDeploy.WrapWithLog(lg, err, zap.String("step", "login"))
	}
	client, err := d.nifi.FindRegistryClient(ctx, req.RegistryClient)
	if err != nil {
		return res, status.ErrLookup.Wrap(err)
	}
	root, err := d.nifi.RootProcessGroupID(ctx)
	if err != nil {
		return res, status.ErrDeploy.WrapWithLog(lg, err, zap.String("step", "root process group"))
	}

	existing, found, err := d.nifi.FindProcessGroup(ctx, root, req.Flow)
	if err != nil {
		return res, status.ErrDeploy.WrapWithLog(lg, err, zap.String("step", "find process group"))
	}

	if !found {
		lg.Info("creating process group", zap.String("registryClient", client.Name))
		created, erc := d.nifi.CreateVersionedGroup(ctx, root, nifi.VersionControl{
			RegistryID: client.ID,
			BucketID:   bucket.Identifier,
			FlowID:     flow.Identifier,
			Version:    version,
		}, req.Position)
		if erc != nil {
			return res, status.ErrDeploy.WrapWithLog(lg, erc, zap.String("step", "create process group"))
		}
		res.Outcome = OutcomeCreated
		res.GroupID = created.ID
		return res, nil
	}

	res.GroupID = existing.ID
	if existing.VersionControl != nil && existing.VersionControl.Version == version {
		lg.Info("process group already at this version", zap.String("group", existing.ID))
		res.Outcome = OutcomeUnchanged
		return res, nil
	}

	lg.Info("updating process group", zap.String("group", existing.ID))
	if err = d.nifi.UpdateVersion(ctx, existing, version); err != nil {
		return res, status.ErrDeploy.WrapWithLog(lg, err, zap.String("step", "update process group"), zap.String("group", existing.ID))
	}
	res.Outcome = OutcomeUpdated
	return res, nil
}
