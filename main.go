package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reasonableperson/etrial-manager/api"
	"github.com/reasonableperson/etrial-manager/batch"
	"github.com/reasonableperson/etrial-manager/notify"
	"github.com/reasonableperson/etrial-manager/tool"
	"github.com/reasonableperson/etrial-manager/transfer"
	"github.com/reasonableperson/etrial-manager/types"
	"github.com/reasonableperson/etrial-manager/view"
)

func main() {
	flags := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(flags.Log)

	appCfg, err := tool.LoadConfig(flags.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlags(&appCfg, flags)

	client, err := transfer.NewClient(appCfg)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case flags.Action != "":
		if err := client.PostAction(ctx, transfer.SplitActionPath(flags.Action)...); err != nil {
			tool.DefaultLogger.Errorf("Action %s failed: %v", flags.Action, err)
			os.Exit(1)
		}
	case len(flags.Files) > 0:
		os.Exit(uploadOnce(ctx, client, appCfg, flags.Files))
	default:
		serve(ctx, client, appCfg)
	}
}

// uploadOnce treats the command-line files as one drop and waits for the
// batch. The exit code is non-zero if any file did not upload.
func uploadOnce(ctx context.Context, client *transfer.Client, appCfg types.AppConfig, paths []string) int {
	files := make([]types.DroppedFile, 0, len(paths))
	for _, p := range paths {
		f, err := tool.GetFileInfoFromPath(p)
		if err != nil {
			tool.DefaultLogger.Errorf("Skipping %s: %v", p, err)
			continue
		}
		files = append(files, f)
	}

	forwarder := notify.NewForwarder(appCfg.NotifySocket)
	defer forwarder.Close(notify.SocketTimeout)

	coordinator := batch.NewCoordinator(client, batch.Config{
		Observer:    batch.Observers{view.NewTerminal(os.Stdout), forwarder},
		TaskTimeout: appCfg.TaskTimeout,
	})
	b := coordinator.StartBatch(ctx, files)
	if err := b.Wait(ctx); err != nil {
		b.CancelAll()
		<-b.Done()
	}
	if len(files) != len(paths) || b.Count(batch.Succeeded) != len(files) {
		return 1
	}
	return 0
}

func serve(ctx context.Context, client *transfer.Client, appCfg types.AppConfig) {
	apiServer, err := api.NewServer(appCfg, client)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	go func() {
		if err := apiServer.Start(); err != nil {
			tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
		}
	}()

	<-ctx.Done()
	tool.DefaultLogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		tool.DefaultLogger.Warnf("Shutdown: %v", err)
	}
}
