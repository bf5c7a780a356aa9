package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/relaykit/mediator/ai/anthropic"
	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/decision"
	"github.com/relaykit/mediator/domain"
	"github.com/relaykit/mediator/errors"
	"github.com/relaykit/mediator/gateway"
	"github.com/relaykit/mediator/logger"
	"github.com/relaykit/mediator/monitor"
	"github.com/relaykit/mediator/status"
	"github.com/relaykit/mediator/transcript"
	"github.com/relaykit/mediator/worker"
)

var (
	configPath string
	spawnCmds  []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the supervisor and its streaming gateway",
	Long: `serve runs the Worker Manager, Hybrid Decision Engine, File Monitor,
Status Aggregator and Streaming Gateway in one process. Each --spawn
flag starts one worker running that shell command, mediated the same
way for the life of the process; the gateway's REST/WebSocket API
streams all of them to the web UI.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a mediator.toml config file")
	serveCmd.Flags().StringArrayVar(&spawnCmds, "spawn", nil, "shell command to run as a worker on startup (repeatable)")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	advisor := anthropic.NewClient(anthropic.Config{
		APIKey: cfg.Anthropic.APIKey,
		Model:  cfg.Anthropic.Model,
	})

	engine := decision.NewEngine(cfg, advisor)
	statusAgg := status.NewAggregator()
	mon, err := monitor.NewRegistry(cfg.HistoryEmitLimit, cfg.WSSendQueueDepth, time.Duration(cfg.PollIntervalMS)*time.Millisecond)
	if err != nil {
		return errors.Wrap(err, "start file monitor")
	}
	mgr := worker.NewManager(cfg, engine, terminalEscalation)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, cmdline := range spawnCmds {
		if err := spawnAndTrack(ctx, cfg, mgr, statusAgg, mon, cmdline); err != nil {
			logger.Errorw("failed to spawn worker", "command", cmdline, logger.FieldError, err)
		}
	}

	srv := gateway.NewServer(cfg, statusAgg, engine, mon)

	pterm.Success.Printf("mediator listening on %s (workspace %s)\n", cfg.Gateway.Addr, cfg.WorkspaceRoot)
	logger.Infow("mediator starting", "addr", cfg.Gateway.Addr, "workspace_root", cfg.WorkspaceRoot, "workers", len(spawnCmds))

	return srv.Serve(ctx)
}

// spawnAndTrack spawns one worker, mirrors its lifecycle into statusAgg,
// and runs its dialogue loop to completion in the background.
func spawnAndTrack(ctx context.Context, cfg *config.Config, mgr *worker.Manager, statusAgg *status.Aggregator, mon *monitor.Registry, cmdline string) error {
	workerID := uuid.NewString()
	workingDir := filepath.Join(cfg.WorkspaceRoot, workerID)

	w, err := mgr.Spawn(workerID, cmdline, nil, workingDir, []string{cmdline})
	if err != nil {
		return err
	}
	statusAgg.Register(*w)

	go pollWorkerStatus(mgr, statusAgg, mon, cfg, workerID, time.Duration(cfg.PollIntervalMS)*time.Millisecond)

	go func() {
		result, err := mgr.RunInteractiveSession(ctx, workerID, 0, 0)
		if err != nil {
			logger.Errorw("worker session ended with error", logger.FieldWorkerID, workerID, logger.FieldError, err)
			statusAgg.UpdateErrorMessage(workerID, err.Error())
			statusAgg.UpdateState(workerID, domain.WorkerFailed)
			return
		}
		statusAgg.UpdateState(workerID, result.FinalState)
	}()

	return nil
}

// pollWorkerStatus mirrors the Worker Manager's in-memory state into the
// Status Aggregator every pollInterval until the worker reaches a
// terminal state, at which point it mirrors the final state once more,
// releases the worker's transcript files from the File Monitor (§4.5),
// and exits.
func pollWorkerStatus(mgr *worker.Manager, statusAgg *status.Aggregator, mon *monitor.Registry, cfg *config.Config, workerID string, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastLines, lastConfirmations int64
	for range ticker.C {
		w, err := mgr.GetStatus(workerID)
		if err != nil {
			return
		}

		if w.OutputLines > lastLines {
			statusAgg.UpdateOutputMetrics(workerID, w.OutputLines-lastLines)
			lastLines = w.OutputLines
		}
		for ; lastConfirmations < w.ConfirmationCount; lastConfirmations++ {
			statusAgg.UpdateConfirmationCount(workerID)
		}
		statusAgg.UpdateState(workerID, w.State)
		if w.ErrorMessage != "" {
			statusAgg.UpdateErrorMessage(workerID, w.ErrorMessage)
		}

		if w.State.IsTerminal() {
			workerDir := filepath.Join(cfg.WorkspaceRoot, workerID)
			mon.MarkTerminated(filepath.Join(workerDir, transcript.DialogueFileName))
			mon.MarkTerminated(filepath.Join(workerDir, transcript.RawLogFileName))
			mon.MarkTerminated(filepath.Join(workerDir, transcript.MetricsFileName))
			return
		}
	}
}

// terminalEscalation is the default escalation callback for serve: it
// prints the confirmation request to the controlling terminal and
// blocks on a y/n answer. The Worker Manager already enforces the
// escalation timeout around this call, so an operator who never
// answers just times out to deny.
func terminalEscalation(req domain.ConfirmationRequest, d domain.Decision) bool {
	pterm.Warning.Printf("[%s] escalation: %s\n", req.WorkerID, req.RawPrompt)
	pterm.Printf("  reasoning: %s\n", d.Reasoning)
	pterm.Printf("approve? [y/N]: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")
}
