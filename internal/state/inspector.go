// Package state runs the inspection pipeline: enumerate the project's
// containers, decode and merge their metadata, and resolve host ports.
//
// The pipeline never fails as a whole. Runtime errors, broken labels and
// unmapped ports are logged and reflected in the returned Snapshot, so a
// single bad container cannot hide the others.
package state

import (
	"context"

	"go.uber.org/zap"

	"github.com/shinji-kodama/sidecar/internal/docker"
	"github.com/shinji-kodama/sidecar/internal/meta"
	"github.com/shinji-kodama/sidecar/internal/model"
	"github.com/shinji-kodama/sidecar/internal/service"
)

// Inspector collects a Snapshot for one project.
type Inspector struct {
	runtime    docker.Runtime
	projectID  string
	host       string
	metaDir    string
	extraPorts map[string]int
	logger     *zap.Logger
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithHost sets the hostname used in rendered URIs.
func WithHost(host string) Option {
	return func(i *Inspector) {
		i.host = host
	}
}

// WithMetaDir sets the directory searched for metadata override files.
func WithMetaDir(dir string) Option {
	return func(i *Inspector) {
		i.metaDir = dir
	}
}

// WithExtraPorts registers internal ports for non-built-in services.
func WithExtraPorts(ports map[string]int) Option {
	return func(i *Inspector) {
		i.extraPorts = ports
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// NewInspector creates an Inspector for projectID backed by rt.
func NewInspector(rt docker.Runtime, projectID string, opts ...Option) *Inspector {
	i := &Inspector{
		runtime:   rt,
		projectID: projectID,
		host:      service.DefaultHost,
		metaDir:   meta.DefaultOverrideDir,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Containers enumerates the project's containers and merges their metadata.
// A runtime failure is logged and yields an empty list.
func (i *Inspector) Containers(ctx context.Context) []model.Container {
	infos, err := i.runtime.ListContainers(ctx, i.projectID)
	if err != nil {
		i.logger.Warn("could not list containers",
			zap.String("project", i.projectID),
			zap.Error(err))
		return nil
	}
	i.logger.Debug("listed containers",
		zap.String("project", i.projectID),
		zap.Int("count", len(infos)))

	containers := make([]model.Container, 0, len(infos))
	for _, info := range infos {
		containers = append(containers, i.toContainer(info))
	}
	return containers
}

// toContainer interprets labels and merges the metadata override file.
func (i *Inspector) toContainer(info model.ContainerInfo) model.Container {
	labels := docker.ParseLabels(info.Labels)

	raw := labels.Meta
	if raw == "" {
		raw = meta.EmptyLabel
	}
	decoded, err := meta.DecodeVerbose(raw)
	if err != nil {
		i.logger.Debug("ignoring undecodable metadata label",
			zap.String("container", info.Name),
			zap.Error(err))
	}

	override := meta.LoadOverride(i.metaDir, i.projectID, labels.Service)

	return model.Container{
		Name:    info.Name,
		Service: labels.Service,
		Keep:    labels.Keep,
		Meta:    meta.Merge(decoded, override),
	}
}

// Resolve looks up the host port for c and renders its connection.
// ok is false when c's service has no known internal port; such
// containers are not part of any report.
func (i *Inspector) Resolve(ctx context.Context, c model.Container) (conn model.Connection, ok bool) {
	internal, known := service.ContainerPort(c.Service, i.extraPorts)
	if !known {
		i.logger.Debug("skipping container with unknown service",
			zap.String("container", c.Name),
			zap.String("service", c.Service))
		return model.Connection{}, false
	}

	conn = model.Connection{Container: c, ContainerPort: internal}

	port, err := i.runtime.HostPort(ctx, c.Name, internal)
	if err != nil || port <= 0 {
		i.logger.Warn("could not resolve port",
			zap.String("container", c.Name),
			zap.Int("containerPort", internal),
			zap.Error(err))
		return conn, true
	}

	conn.HostPort = port
	conn.URI = service.BuildURI(c.Service, i.host, port)
	conn.Env = service.BuildEnv(c.Service, i.host, port, c.Meta)
	return conn, true
}

// Collect runs the whole pipeline.
func (i *Inspector) Collect(ctx context.Context) *model.Snapshot {
	snap := &model.Snapshot{
		ProjectID:   i.projectID,
		Host:        i.host,
		Containers:  i.Containers(ctx),
		Connections: []model.Connection{},
		Services:    append(service.Known(), service.ExtraServices(i.extraPorts)...),
	}
	if snap.Containers == nil {
		snap.Containers = []model.Container{}
	}

	for _, c := range snap.Containers {
		if conn, ok := i.Resolve(ctx, c); ok {
			snap.Connections = append(snap.Connections, conn)
		}
	}
	return snap
}
