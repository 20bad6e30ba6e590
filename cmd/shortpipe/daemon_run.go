package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"shortpipe/internal/config"
	"shortpipe/internal/daemon"
	"shortpipe/internal/ipc"
	"shortpipe/internal/logging"
	"shortpipe/internal/notifications"
	"shortpipe/internal/queue"
	"shortpipe/internal/rendering"
	"shortpipe/internal/scheduler"
	"shortpipe/internal/scoring"
	"shortpipe/internal/segmenting"
	"shortpipe/internal/services"
	"shortpipe/internal/templating"
	"shortpipe/internal/transcribing"
	"shortpipe/internal/workflow"
)

// newDaemonRunCommand is the hidden foreground entry point the start
// command launches as a detached subprocess.
func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:    "daemon",
		Short:  "Run the shortpipe daemon in the foreground",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir, "shortpipe*.log",
		filepath.Join(cfg.Paths.LogDir, "shortpipe.log"))

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)

	manager := workflow.NewManager(cfg, store, notifier, logger)
	if err := registerStages(manager, cfg, store, logger, notifier); err != nil {
		return fmt.Errorf("configure stages: %w", err)
	}

	sched, err := scheduler.New(cfg, store, services.NullPublisher{}, notifier, logger, nil)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	d, err := daemon.New(cfg, store, logger, manager, sched, notifier)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger, cancel)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("shortpipe daemon shutting down")
	return nil
}

// registerStages wires the five pipeline stages. Transcription,
// compositing, and publishing are external integrations; until one is
// linked in, the null collaborators make the missing piece visible as a
// configuration failure on the affected items.
func registerStages(mgr *workflow.Manager, cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) error {
	compositor := services.NullCompositor{}
	return mgr.ConfigureStages(workflow.StageSet{
		Transcriber:      transcribing.NewTranscriber(cfg, store, logger, services.NullTranscriber{}),
		Segmenter:        segmenting.NewSegmenter(cfg, store, logger, compositor),
		TemplateSelector: templating.NewSelector(cfg, store, logger),
		Dispositioner:    scoring.NewDispositioner(cfg, logger, notifier),
		Renderer:         rendering.NewRenderer(cfg, store, logger, compositor),
	})
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
