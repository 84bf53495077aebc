package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/importer/sources"
	mcpserver "taskboard/internal/mcp"
	"taskboard/internal/secret"
	"taskboard/internal/server"
	"taskboard/internal/service"
	"taskboard/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	mcpMode := flag.Bool("mcp", false, "serve MCP over stdio instead of HTTP")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	projectStore := storage.NewProjectStore(db)
	taskStore := storage.NewTaskStore(db)
	importStore := storage.NewImportStore(db)
	connStore := storage.NewDBConnectionStore(db)

	secrets, err := secret.NewFileStore(filepath.Join(cfg.Server.DataDir, "secrets.json"))
	if err != nil {
		log.Fatalf("open secret store: %v", err)
	}

	if *mcpMode {
		serveMCP(cfg, projectStore, taskStore, importStore, connStore, secrets)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	events := server.NewBroadcaster()

	projectSvc := service.NewProjectService(projectStore, taskStore, events)
	taskSvc := service.NewTaskService(taskStore, projectStore, events)
	connSvc := service.NewConnectionService(connStore, secrets)
	defer connSvc.Close()
	importSvc := service.NewImportService(ctx, importStore, taskStore, projectStore, events,
		time.Duration(cfg.Import.RunTimeoutMinutes)*time.Minute)

	// The database import source reads through the connection pool.
	sources.SetDBProvider(connSvc)

	importSvc.RestartWatchers()
	defer importSvc.Stop()

	sweeper := service.NewOverdueSweeper(taskStore, events)
	if err := sweeper.Start(ctx, cfg.Sweep.Schedule); err != nil {
		log.Fatalf("start overdue sweep: %v", err)
	}
	defer sweeper.Stop()

	srv := server.New(server.Options{
		Projects:    projectSvc,
		Tasks:       taskSvc,
		Imports:     importSvc,
		Connections: connSvc,
		Events:      events,
		StaticDir:   cfg.Server.StaticDir,
	})

	// Pick up sweep schedule changes without a restart; address or
	// database changes still need one.
	stopWatch, err := config.Watch(*configPath, func(fresh *config.Config) {
		log.Printf("config reloaded from %s", *configPath)
		sweeper.Stop()
		if err := sweeper.Start(ctx, fresh.Sweep.Schedule); err != nil {
			log.Printf("restart overdue sweep: %v", err)
		}
	})
	if err != nil {
		log.Printf("config watch disabled: %v", err)
	} else {
		defer stopWatch()
	}

	go func() {
		<-ctx.Done()
		log.Println("shutting down...")

		// Let in-flight imports finish before the server goes away.
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 30*time.Second)
		importSvc.WaitRunning(waitCtx)
		waitCancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s (driver=%s)", cfg.Server.Addr, cfg.Database.Driver)
	if err := srv.Start(cfg.Server.Addr); err != nil {
		log.Printf("server stopped: %v", err)
	}
}

// noopEmitter is used in MCP mode, where there are no HTTP clients to notify.
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// serveMCP runs the app as a standalone MCP server on stdin/stdout.
func serveMCP(
	cfg *config.Config,
	projectStore *storage.ProjectStore,
	taskStore *storage.TaskStore,
	importStore *storage.ImportStore,
	connStore *storage.DBConnectionStore,
	secrets secret.SecretStore,
) {
	emitter := noopEmitter{}

	projectSvc := service.NewProjectService(projectStore, taskStore, emitter)
	taskSvc := service.NewTaskService(taskStore, projectStore, emitter)
	connSvc := service.NewConnectionService(connStore, secrets)
	defer connSvc.Close()
	importSvc := service.NewImportService(context.Background(), importStore, taskStore, projectStore, emitter,
		time.Duration(cfg.Import.RunTimeoutMinutes)*time.Minute)
	defer importSvc.Stop()

	sources.SetDBProvider(connSvc)

	mcpSrv := mcpserver.New(mcpserver.Deps{
		Projects:    projectSvc,
		Tasks:       taskSvc,
		Imports:     importSvc,
		Connections: connSvc,
	})
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
