package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"sensorlog/internal/config"
	"sensorlog/internal/logging"
)

type commandContext struct {
	baseDirFlag   *string
	logLevelFlag  *string
	logFormatFlag *string
}

func newCommandContext(baseDirFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		baseDirFlag:   baseDirFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func flagValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func (c *commandContext) baseDir() (string, error) {
	return config.ResolveBaseDir(flagValue(c.baseDirFlag))
}

func (c *commandContext) resolvePath(path string) (string, error) {
	base, err := c.baseDir()
	if err != nil {
		return "", err
	}
	return config.ResolvePath(base, path)
}

func (c *commandContext) loadConfig(path string) (*config.Config, error) {
	return config.Load(path, flagValue(c.baseDirFlag))
}

// runLogger builds the logger for one invocation and tags it, and the
// returned context, with a fresh run ID. The caller closes the logger's
// files through the returned func.
func (c *commandContext) runLogger(ctx context.Context, cfg *config.Config) (context.Context, *slog.Logger, func() error, error) {
	logger, closeLogs, err := logging.NewFromConfig(cfg, flagValue(c.logLevelFlag), flagValue(c.logFormatFlag))
	if err != nil {
		return ctx, nil, nil, fmt.Errorf("configure logging: %w", err)
	}
	ctx = logging.ContextWithRunID(ctx, uuid.NewString())
	return ctx, logging.WithContext(ctx, logger), closeLogs, nil
}
