package gateway

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/mediator/domain"
)

func wsURL(httpURL, path string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + path
}

func TestWSDialogue_HistoricalThenReadyThenLive(t *testing.T) {
	s := newTestServer(t)
	workerID := "w1"
	dir := filepath.Join(s.cfg.WorkspaceRoot, workerID)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := s.dialoguePath(workerID)
	require.NoError(t, os.WriteFile(path, []byte(`{"seq":1}`+"\n"), 0644))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL, "/ws/dialogue/"+workerID), nil)
	require.NoError(t, err)
	defer conn.Close()

	var historical, ready bool
	for i := 0; i < 5 && !ready; i++ {
		var f wsFrame
		require.NoError(t, conn.ReadJSON(&f))
		switch f.Type {
		case "historical":
			historical = true
		case "ready":
			ready = true
		}
	}
	assert.True(t, historical)
	assert.True(t, ready)

	out, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = out.WriteString(`{"seq":2}` + "\n")
	require.NoError(t, err)
	out.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var live wsFrame
	require.NoError(t, conn.ReadJSON(&live))
	assert.Equal(t, "entry", live.Type)
}

func TestWSStatus_UnknownWorkerClosesWithNullData(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL, "/ws/status/missing"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var f wsFrame
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "status", f.Type)
	assert.Nil(t, f.Data)
}

func TestWSStatus_TerminalWorkerSendsOneFrameThenCloses(t *testing.T) {
	s := newTestServer(t)
	s.status.Register(domain.Worker{WorkerID: "done", State: domain.WorkerCompleted, StartTime: time.Now(), LastActivity: time.Now()})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL, "/ws/status/done"), nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f wsFrame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "status", f.Type)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
