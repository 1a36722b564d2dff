package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dotsian/dexscript/internal/config"
	"github.com/dotsian/dexscript/internal/server"
)

const appName = "dexscript"

var serveListen string

func init() {
	_ = godotenv.Load()

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address to listen on (default from config or DEX_LISTEN)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the script API over HTTP",
	Long: `Serve the script API over HTTP.

Every route but /models requires "Authorization: Bearer <token>", with
the token taken from the config file or DEX_TOKEN. The server listens on
127.0.0.1:8080 unless told otherwise.

Routes:
  POST /run      Execute a script (JSON {"code": ...} or multipart with files);
                 replied files come back inline, base64-encoded
  GET  /models   List registered models
  GET  /yields   List staged creations awaiting PUSH`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	appVersion := buildinfo.SourceVersion()
	if appVersion == "" {
		appVersion = Version
	}

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := mustLoadConfig(ctx)
	if serveListen != "" {
		cfg.Listen = serveListen
	}
	if cfg.Token == "" {
		exitWithError(ExitConfigError, "no API token configured (set token in %s or DEX_TOKEN)", config.GlobalConfigPath())
	}

	run, st := mustOpenRunner(cfg)
	defer st.Close()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.New(run, log, server.Options{Token: cfg.Token, Origins: cfg.Origins}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting to listen for connections", "addr", cfg.Listen, "db", cfg.DBPath())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err.Error())
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "err", err.Error())
			return err
		}
	}
	return nil
}
