package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/relaykit/mediator/errors"
)

var gatewayURL string

var workerLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List workers known to a running mediator gateway",
	RunE:  runWorkerLs,
}

var workerStatusCmd = &cobra.Command{
	Use:   "status <worker-id>",
	Short: "Show one worker's status, as reported by a running mediator gateway",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkerStatus,
}

func init() {
	workerLsCmd.Flags().StringVar(&gatewayURL, "gateway", "http://localhost:8877", "base URL of a running mediator gateway")
	workerStatusCmd.Flags().StringVar(&gatewayURL, "gateway", "http://localhost:8877", "base URL of a running mediator gateway")

	workerCmd.AddCommand(workerLsCmd)
	workerCmd.AddCommand(workerStatusCmd)
}

var gatewayHTTPClient = &http.Client{Timeout: 5 * time.Second}

func getJSON(url string, out interface{}) error {
	resp, err := gatewayHTTPClient.Get(url)
	if err != nil {
		return errors.Wrapf(err, "GET %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrWorkerNotFound, "GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type workerListItem struct {
	WorkerID          string `json:"worker_id"`
	State             string `json:"state"`
	LastActivity      string `json:"last_activity"`
	OutputLines       int64  `json:"output_lines"`
	ConfirmationCount int64  `json:"confirmation_count"`
}

func runWorkerLs(cmd *cobra.Command, args []string) error {
	var list struct {
		Workers []workerListItem `json:"workers"`
	}
	if err := getJSON(gatewayURL+"/api/v1/workers", &list); err != nil {
		return err
	}
	items := list.Workers

	if len(items) == 0 {
		pterm.Info.Println("no workers")
		return nil
	}

	rows := [][]string{{"WORKER ID", "STATE", "OUTPUT LINES", "CONFIRMATIONS", "LAST ACTIVITY"}}
	for _, it := range items {
		rows = append(rows, []string{
			it.WorkerID, it.State,
			fmt.Sprintf("%d", it.OutputLines),
			fmt.Sprintf("%d", it.ConfirmationCount),
			it.LastActivity,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runWorkerStatus(cmd *cobra.Command, args []string) error {
	var snap map[string]interface{}
	if err := getJSON(gatewayURL+"/api/v1/workers/"+args[0], &snap); err != nil {
		return err
	}

	rows := [][]string{{"FIELD", "VALUE"}}
	for _, key := range []string{"worker_id", "task", "state", "progress", "health", "elapsed_seconds", "output_lines", "confirmation_count", "error_message"} {
		if v, ok := snap[key]; ok {
			rows = append(rows, []string{key, fmt.Sprintf("%v", v)})
		}
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
