package main

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shiftcrew/shiftcrew/internal/api"
	"github.com/shiftcrew/shiftcrew/internal/config"
	"github.com/shiftcrew/shiftcrew/internal/debug"
	"github.com/shiftcrew/shiftcrew/internal/notify"
	"github.com/shiftcrew/shiftcrew/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "setup",
	Short:   "Run the HTTP API and notification dispatcher",
	Long: `Run the HTTP API server and the outbox dispatcher until interrupted.

The server speaks the same operations as the CLI, authenticated with JWT
bearer tokens (see 'auth.secret' in config). The dispatcher drains queued
notifications on an interval. Editing .shiftcrew/config.yaml while serving
applies log-level changes without a restart.

Telemetry is off unless SHIFTCREW_OTEL_ENABLED=true; see also
OTEL_EXPORTER_OTLP_ENDPOINT and SHIFTCREW_OTEL_STDOUT.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (default: config 'listen' or :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command) {
	listen, _ := cmd.Flags().GetString("listen")
	if listen == "" {
		listen = config.GetString("listen")
	}

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(config.GetString("log-level")); err == nil {
		log.SetLevel(lvl)
	}
	if verboseFlag {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := telemetry.Init(rootCtx, "sc", FullVersionString()); err != nil {
		WarnError("telemetry init failed: %v", err)
	}
	defer telemetry.Shutdown(context.Background())

	srv := api.NewServer(api.Config{
		Addr:        listen,
		CORSOrigins: config.GetStringSlice("cors.origins"),
	}, log, api.Services{
		Store:       store,
		Auth:        app.Auth,
		Orgs:        app.Orgs,
		Templates:   app.Templates,
		Instances:   app.Instances,
		Assignments: app.Assignments,
		Schedules:   app.Schedules,
		Attendance:  app.Attendance,
		Announce:    app.Announce,
		Tasks:       app.Tasks,
		Evaluations: app.Evaluations,
	})

	dispatcher := notify.NewDispatcher(store, log, notify.DispatcherConfig{
		PollInterval: config.GetDuration("notify.interval"),
		BatchSize:    config.GetInt("notify.batch-size"),
	})

	g, ctx := errgroup.WithContext(rootCtx)
	g.Go(func() error { return srv.Start(ctx) })
	g.Go(func() error { return dispatcher.Run(ctx) })
	g.Go(func() error { return watchConfigFile(ctx, log) })

	log.WithField("addr", listen).Info("sc serving; Ctrl+C to stop")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		FatalError("%v", err)
	}
}

// watchConfigFile reloads the log level when config.yaml changes. Editors
// fire several events per save, so changes are debounced.
func watchConfigFile(ctx context.Context, log *logrus.Logger) error {
	dir, err := config.FindConfigDir()
	if err != nil {
		debug.Logf("config watch disabled: %v", err)
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	debug.Logf("watching %s for config changes", dir)

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if filepath.Base(ev.Name) != "config.yaml" {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(300*time.Millisecond, func() {
				applyConfigReload(dir, log)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Config watcher error")
		}
	}
}

func applyConfigReload(dir string, log *logrus.Logger) {
	lc := config.LoadLocalConfig(dir)
	if lc.LogLevel == "" {
		return
	}
	lvl, err := logrus.ParseLevel(lc.LogLevel)
	if err != nil {
		log.WithField("log-level", lc.LogLevel).Warn("Ignoring invalid log level from config.yaml")
		return
	}
	if log.GetLevel() == lvl {
		return
	}
	log.SetLevel(lvl)
	log.WithField("level", lvl).Info("Log level reloaded from config.yaml")
}
