package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/relaykit/mediator/ai/anthropic"
	"github.com/relaykit/mediator/decision"
	"github.com/relaykit/mediator/errors"
	"github.com/relaykit/mediator/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Spawn a single worker outside the gateway, or inspect workers through a running gateway",
}

var (
	spawnTask    string
	spawnCommand string
	spawnWorkdir string
	spawnID      string
)

var workerSpawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Spawn one worker in this process and run it to completion",
	Long: `spawn runs a single worker synchronously: it opens the worker's
transcript files, launches it under a PTY, mediates its confirmation
prompts through the Hybrid Decision Engine, and blocks until it exits.
Useful for trying out a worker's behaviour without standing up the
full gateway.`,
	RunE: runWorkerSpawn,
}

func init() {
	workerSpawnCmd.Flags().StringVar(&spawnID, "id", "", "worker id (generated if omitted)")
	workerSpawnCmd.Flags().StringVar(&spawnTask, "task", "", "human-readable task description")
	workerSpawnCmd.Flags().StringVar(&spawnCommand, "cmd", "", "shell command to run as the worker (required)")
	workerSpawnCmd.Flags().StringVar(&spawnWorkdir, "workdir", "", "worker working directory (defaults to workspace_root/<id>)")
	_ = workerSpawnCmd.MarkFlagRequired("cmd")

	workerCmd.AddCommand(workerSpawnCmd)
}

func runWorkerSpawn(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	workerID := spawnID
	if workerID == "" {
		workerID = uuid.NewString()
	}
	workdir := spawnWorkdir
	if workdir == "" {
		workdir = filepath.Join(cfg.WorkspaceRoot, workerID)
	}
	task := spawnTask
	if task == "" {
		task = spawnCommand
	}

	advisor := anthropic.NewClient(anthropic.Config{
		APIKey: cfg.Anthropic.APIKey,
		Model:  cfg.Anthropic.Model,
	})
	engine := decision.NewEngine(cfg, advisor)
	mgr := worker.NewManager(cfg, engine, terminalEscalation)

	if _, err := mgr.Spawn(workerID, task, nil, workdir, []string{spawnCommand}); err != nil {
		return errors.Wrap(err, "spawn worker")
	}

	pterm.Success.Printf("spawned worker %s in %s\n", workerID, workdir)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := mgr.RunInteractiveSession(ctx, workerID, 0, 0)
	if err != nil {
		return errors.Wrap(err, "run worker session")
	}

	pterm.Info.Printf("worker %s finished: state=%s iterations=%d\n", result.WorkerID, result.FinalState, result.Iterations)
	return nil
}
