package gateway

import (
	"net/http"

	"github.com/relaykit/mediator/logger"
	"github.com/relaykit/mediator/monitor"
)

// handleWSDialogue upgrades to /ws/dialogue/{worker_id}: historical
// replay of dialogue_transcript.jsonl, a ready marker, then live lines.
func (s *Server) handleWSDialogue(w http.ResponseWriter, r *http.Request) {
	workerID := r.PathValue("worker_id")
	s.serveTailSocket(w, r, workerID, s.dialoguePath(workerID))
}

// handleWSTerminal upgrades to /ws/terminal/{worker_id}: same framing,
// but each entry is a raw ANSI-stripped terminal line instead of JSON.
func (s *Server) handleWSTerminal(w http.ResponseWriter, r *http.Request) {
	workerID := r.PathValue("worker_id")
	s.serveTailSocket(w, r, workerID, s.rawLogPath(workerID))
}

func (s *Server) serveTailSocket(w http.ResponseWriter, r *http.Request, workerID, path string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debugw("gateway: websocket upgrade failed", logger.FieldError, err)
		return
	}

	wc := newWSConn(conn, s.cfg.WSSendQueueDepth)
	go wc.writePump()

	sub := s.monitor.Watch(path)
	defer sub.Close()

	go func() {
		defer wc.close()
		historical := true
		for {
			select {
			case <-wc.closed:
				return
			case e, ok := <-sub.Chan():
				if !ok {
					return
				}
				if e.IsReady() {
					historical = false
					wc.push(wsFrame{Type: "ready"})
					continue
				}
				frameType := "entry"
				if historical {
					frameType = "historical"
				}
				wc.push(wsFrame{Type: frameType, Data: tailEntryPayload(e)})
			}
		}
	}()

	wc.readPump()
}

// tailEntryPayload renders a monitor.Entry as the WS frame's data field:
// the parsed JSON object when available, otherwise the raw line text.
func tailEntryPayload(e monitor.Entry) interface{} {
	if e.Data != nil {
		return e.Data
	}
	return e.Line
}
