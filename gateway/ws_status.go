package gateway

import (
	"net/http"
	"time"

	"github.com/relaykit/mediator/logger"
)

const statusPushInterval = 500 * time.Millisecond

// handleWSStatus upgrades to /ws/status/{worker_id}: one snapshot
// immediately, then one every statusPushInterval until the worker
// reaches a terminal state, then a final snapshot and close. An
// unknown worker gets a single null-data frame and an immediate close.
func (s *Server) handleWSStatus(w http.ResponseWriter, r *http.Request) {
	workerID := r.PathValue("worker_id")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debugw("gateway: websocket upgrade failed", logger.FieldError, err)
		return
	}

	wc := newWSConn(conn, s.cfg.WSSendQueueDepth)
	go wc.writePump()

	go s.pushStatusFrames(wc, workerID)

	wc.readPump()
}

func (s *Server) pushStatusFrames(wc *wsConn, workerID string) {
	defer wc.close()

	snap, ok := s.status.GetStatus(workerID)
	if !ok {
		wc.push(wsFrame{Type: "status", Data: nil})
		return
	}
	wc.push(wsFrame{Type: "status", Data: snap})
	if snap.State.IsTerminal() {
		return
	}

	ticker := time.NewTicker(statusPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wc.closed:
			return
		case <-ticker.C:
			snap, ok := s.status.GetStatus(workerID)
			if !ok {
				wc.push(wsFrame{Type: "status", Data: nil})
				return
			}
			wc.push(wsFrame{Type: "status", Data: snap})
			if snap.State.IsTerminal() {
				return
			}
		}
	}
}
