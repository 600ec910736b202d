package cli

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shinji-kodama/sidecar/internal/docker"
	"github.com/shinji-kodama/sidecar/internal/model"
	"github.com/shinji-kodama/sidecar/internal/project"
	"github.com/shinji-kodama/sidecar/internal/state"
)

// Seams replaced in tests.
var (
	openRuntime = docker.Open
	now         = time.Now
)

// resolveProject returns the project directory and its identifier.
func resolveProject() (dir, id string, err error) {
	dir, id, err = project.Resolver{Override: projectDir}.Current()
	if err != nil {
		return "", "", model.WrapCLIError(model.ExitGeneralError,
			"failed to determine project directory", err)
	}
	return dir, id, nil
}

// collectSnapshot runs the inspection pipeline for the current project
// with the loaded configuration.
func collectSnapshot(ctx context.Context) (*model.Snapshot, error) {
	dir, id, err := resolveProject()
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved project", zap.String("dir", dir), zap.String("id", id))

	rt, err := openRuntime(ctx, cfg.Runtime, cfg.DockerBin)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rt.Close() }()

	inspector := state.NewInspector(rt, id,
		state.WithHost(cfg.Host),
		state.WithMetaDir(cfg.MetaDir),
		state.WithExtraPorts(cfg.ExtraPorts),
		state.WithLogger(logger),
	)
	return inspector.Collect(ctx), nil
}
