package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lazypower/mindgraph/internal/config"
	"github.com/lazypower/mindgraph/internal/server"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server and dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, g *globals, addr string) error {
	s, err := g.open(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	if s.cfg.Simulation.Autostart {
		if err := s.engine.Start(0); err != nil {
			return err
		}
	}

	if addr == "" {
		addr = s.cfg.ListenAddr()
	}
	handler := server.New(s.db, s.engine, s.log, server.Options{
		Version:        VersionString(),
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
	})
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		err := config.Watch(watchCtx, s.configPath, s.log, func(c config.Config) {
			if lvl, err := zapcore.ParseLevel(c.Log.Level); err == nil && lvl != s.level.Level() {
				s.level.SetLevel(lvl)
				s.log.Info("log level changed", zap.Stringer("level", lvl))
			}
		})
		if err != nil {
			s.log.Debug("config watch disabled", zap.Error(err))
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		out := cmd.ErrOrStderr()
		fmt.Fprintf(out, "%s serving on %s\n", brand.Sprint("mindgraph"), addr)
		subtle.Fprintf(out, "  db: %s\n", s.db.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		s.log.Warn("http shutdown", zap.Error(err))
	}
	return s.engine.Close(ctx)
}
