package feed

import (
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/connectplay/internal/board"
	"github.com/hailam/connectplay/internal/engine"
)

type fakeAnalysis struct {
	mu    sync.Mutex
	roots []board.Board
}

func (f *fakeAnalysis) SubmitRoot(b board.Board) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roots = append(f.roots, b)
}

func (f *fakeAnalysis) submitted() []board.Board {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]board.Board(nil), f.roots...)
}

func position(t *testing.T, seq string) board.Board {
	t.Helper()
	b, err := board.FromMoves(seq)
	require.NoError(t, err)
	return b
}

func newTestServer(t *testing.T, moves string) (*Server, *fakeAnalysis, *httptest.Server) {
	t.Helper()
	fa := &fakeAnalysis{}
	s, err := New(fa, Options{Session: "abcd1234", Moves: moves})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, fa, ts
}

func getStatus(t *testing.T, url string) statusResponse {
	t.Helper()
	resp, err := http.Get(url + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func postPosition(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url+"/api/position", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestStatus(t *testing.T) {
	_, _, ts := newTestServer(t, "44")

	st := getStatus(t, ts.URL)
	assert.Equal(t, "abcd1234", st.Session)
	assert.Equal(t, "44", st.Moves)
	assert.Equal(t, "Red", st.NextPlayer)
	assert.Empty(t, st.Winner)
	assert.Equal(t, hashString(position(t, "44")), st.Hash)
	assert.Equal(t, position(t, "44").String(), st.Board)
	assert.Equal(t, 0, st.Report.BestColumn)
	assert.Equal(t, "0", st.Report.ScoreText)
}

func TestNewRejectsBadStart(t *testing.T) {
	_, err := New(&fakeAnalysis{}, Options{Moves: "9"})
	assert.ErrorContains(t, err, "starting position")
}

func TestPostPosition(t *testing.T) {
	_, fa, ts := newTestServer(t, "")

	resp, _ := postPosition(t, ts.URL, `{"moves":"4453"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, fa.submitted(), 1)
	assert.Equal(t, position(t, "4453"), fa.submitted()[0])
	assert.Equal(t, "4453", getStatus(t, ts.URL).Moves)

	t.Run("Grid", func(t *testing.T) {
		resp, _ := postPosition(t, ts.URL, `{"grid":"YRYRRYR/RRRYYYR/YYYRRRY/RRRYYYR/RYYYRRY/RRYYRYY"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		st := getStatus(t, ts.URL)
		assert.Empty(t, st.Moves)
		assert.Empty(t, st.NextPlayer, "full board")
		assert.Empty(t, st.Winner)
	})

	t.Run("Errors", func(t *testing.T) {
		for _, body := range []string{`{"moves":"48"}`, `{"grid":"RRRR"}`, `not json`} {
			resp, data := postPosition(t, ts.URL, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
			assert.Contains(t, string(data), "error", body)
		}
		assert.Len(t, fa.submitted(), 2, "rejected positions are not analyzed")
	})
}

func TestImage(t *testing.T) {
	_, _, ts := newTestServer(t, "4")

	resp, err := http.Get(ts.URL + "/api/position.png?cell=16")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, board.Cols*16, img.Bounds().Dx())
}

func TestMetrics(t *testing.T) {
	_, _, ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "connectplay_engine_nodes_evaluated_total")
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebsocketFeed(t *testing.T) {
	s, _, ts := newTestServer(t, "44")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := make(chan engine.Report)
	runDone := make(chan error, 1)
	go func() { runDone <- s.Run(ctx, reports) }()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/analysis"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	require.Equal(t, "status", msg.Type)
	var st statusResponse
	require.NoError(t, json.Unmarshal(msg.Payload, &st))
	assert.Equal(t, "44", st.Moves)

	// A report for a stale root is not forwarded.
	reports <- engine.Report{Root: position(t, "4"), Score: 99, Column: 6}
	reports <- engine.Report{Root: position(t, "44"), Score: 35, Column: 3, Nodes: 12, Exhausted: true}

	msg = readMessage(t, conn)
	require.Equal(t, "report", msg.Type)
	var rep reportDTO
	require.NoError(t, json.Unmarshal(msg.Payload, &rep))
	assert.Equal(t, 35, rep.Score)
	assert.Equal(t, "+35", rep.ScoreText)
	assert.Equal(t, 4, rep.BestColumn)
	assert.Equal(t, 12, rep.Nodes)
	assert.True(t, rep.Exhausted)
	assert.Equal(t, 4, getStatus(t, ts.URL).Report.BestColumn)

	resp, _ := postPosition(t, ts.URL, `{"moves":"445"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msg = readMessage(t, conn)
	require.Equal(t, "status", msg.Type)
	require.NoError(t, json.Unmarshal(msg.Payload, &st))
	assert.Equal(t, "445", st.Moves)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: "request_status"}))
	msg = readMessage(t, conn)
	assert.Equal(t, "status", msg.Type)

	cancel()
	require.NoError(t, <-runDone)
}
