package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lazypower/mindgraph/internal/config"
	"github.com/lazypower/mindgraph/internal/engine"
	"github.com/lazypower/mindgraph/internal/store"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	dbPath     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "mindgraph",
		Short:        "A self-organising knowledge graph",
		Long:         "mindgraph links notes and commitments that share tags, lays them out with a force simulation and schedules them for spaced review.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default ~/.mindgraph/config.toml)")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "database path (overrides config and "+config.EnvDB+")")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log engine activity to stderr")

	root.AddCommand(
		newVersionCmd(),
		newServeCmd(g),
		newNodesCmd(g),
		newLinksCmd(g),
		newTraceCmd(g),
		newLayoutCmd(g),
		newClustersCmd(g),
		newImportCmd(g),
		newExportCmd(g),
		newReviewCmd(g),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func (g *globals) resolveConfigPath() (string, error) {
	if g.configPath != "" {
		return g.configPath, nil
	}
	return config.DefaultPath()
}

func (g *globals) loadConfig() (config.Config, error) {
	path, err := g.resolveConfigPath()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if g.dbPath != "" {
		cfg.Database.Path = g.dbPath
	}
	return cfg, nil
}

// newLogger builds the zap logger described by c. One-shot commands pass
// quiet so that only warnings reach the terminal. The returned level can be
// changed while the logger is in use.
func newLogger(c config.LogConfig, quiet bool) (*zap.Logger, zap.AtomicLevel, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, zc.Level, fmt.Errorf("log level: %w", err)
	}
	if quiet && lvl < zapcore.WarnLevel {
		lvl = zapcore.WarnLevel
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	logger, err := zc.Build()
	return logger, zc.Level, err
}

func engineOptions(cfg config.Config) engine.Options {
	return engine.Options{
		Params:          cfg.Simulation.Params(),
		FPS:             cfg.Simulation.FPS,
		PersistInterval: cfg.Simulation.PersistInterval,
		SettleEnergy:    cfg.Simulation.SettleEnergy,
	}
}

// session is an opened store with a loaded engine.
type session struct {
	cfg        config.Config
	configPath string
	db         *store.DB
	engine     *engine.Engine
	log        *zap.Logger
	level      zap.AtomicLevel
}

func (g *globals) open(ctx context.Context, quiet bool) (*session, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, level, err := newLogger(cfg.Log, quiet && !g.verbose)
	if err != nil {
		return nil, err
	}
	configPath, _ := g.resolveConfigPath()

	dbPath := cfg.Database.Path
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	eng := engine.New(db, engineOptions(cfg), logger, nil)
	if err := eng.Load(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &session{
		cfg:        cfg,
		configPath: configPath,
		db:         db,
		engine:     eng,
		log:        logger,
		level:      level,
	}, nil
}

func (s *session) Close() {
	s.engine.Stop()
	s.db.Close()
	s.log.Sync()
}
