package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/refyne-backend/internal/app"
)

var shutdownTimeout time.Duration

var rootCmd = &cobra.Command{
	Use:   "refyne",
	Short: "Refyne document processing backend",
	Long: `Refyne turns uploaded documents into reviewable knowledge chunks.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "grace period for in-flight work on exit")
	rootCmd.AddCommand(serveCmd, migrateCmd, processCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	log, err := app.NewLogger()
	if err != nil {
		return err
	}
	application, err := app.New(ctx, log)
	if err != nil {
		log.Error("Init failed", "error", err)
		log.Sync()
		return err
	}
	defer application.Close()

	if err := application.Start(ctx); err != nil {
		log.Error("Start failed", "error", err)
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- application.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server failed", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("HTTP shutdown failed", "error", err)
	}
	return <-errCh
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log, err := app.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := app.LoadConfig(log)
	gdb, err := app.OpenDB(log, cfg)
	if err != nil {
		log.Error("Migration failed", "error", err)
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	log.Info("Schema up to date", "driver", cfg.DBDriver)
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}
