package cmd

import (
	"github.com/philipparndt/goslice/internal/config"
	"github.com/philipparndt/goslice/internal/logging"
	"github.com/philipparndt/goslice/internal/pipeline"
	"github.com/philipparndt/goslice/internal/preconditions"
	"github.com/philipparndt/goslice/internal/server"
	"github.com/philipparndt/goslice/internal/store"
)

type ServeCmd struct {
	Config string `help:"Server config file (YAML, JSON or TOML)" type:"existingfile"`
	Addr   string `help:"Listen address, overrides the config file"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}

	log, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return err
	}

	if err := preconditions.Check(preconditions.OutputDir(cfg.OutputDir)); err != nil {
		return err
	}
	st, err := store.New(cfg.OutputDir)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	srv := server.New(log, cfg, pipeline.New(log), st)
	return srv.ListenAndServe(ctx)
}
