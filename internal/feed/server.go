// Package feed serves the live analysis over HTTP and websockets.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hailam/connectplay/internal/board"
	"github.com/hailam/connectplay/internal/engine"
	"github.com/hailam/connectplay/internal/render"
)

// Analysis receives the positions posted to the feed.
type Analysis interface {
	SubmitRoot(b board.Board)
}

// Options configures a Server.
type Options struct {
	Session string // analysis session id shown to clients
	Moves   string // starting position
	Logger  *zerolog.Logger
}

// Server holds the current position and its latest analysis report.
type Server struct {
	analysis Analysis
	hub      *Hub
	session  string
	log      zerolog.Logger

	mu     sync.RWMutex
	moves  string
	board  board.Board
	report engine.Report
}

// New creates a feed for analysis, starting from opts.Moves.
// The starting position is not submitted; the analyzer is expected to start there.
func New(analysis Analysis, opts Options) (*Server, error) {
	b, err := board.FromMoves(opts.Moves)
	if err != nil {
		return nil, fmt.Errorf("starting position: %w", err)
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Server{
		analysis: analysis,
		hub:      NewHub(),
		session:  opts.Session,
		log:      logger,
		moves:    opts.Moves,
		board:    b,
		report:   engine.Report{Root: b, Column: engine.NoRecommendation},
	}, nil
}

type reportDTO struct {
	Hash       string `json:"hash"`
	Score      int    `json:"score"`
	ScoreText  string `json:"score_text"`
	BestColumn int    `json:"best_column"` // 1-7, 0 when unknown
	Nodes      int    `json:"nodes"`
	Exhausted  bool   `json:"exhausted"`
}

type statusResponse struct {
	Session    string    `json:"session"`
	Moves      string    `json:"moves"`
	Grid       string    `json:"grid"`
	Board      string    `json:"board"`
	Hash       string    `json:"hash"`
	NextPlayer string    `json:"next_player,omitempty"`
	Winner     string    `json:"winner,omitempty"`
	Report     reportDTO `json:"report"`
}

type positionRequest struct {
	Moves string `json:"moves"`
	Grid  string `json:"grid,omitempty"`
}

func hashString(b board.Board) string {
	return fmt.Sprintf("%016x", b.Hash())
}

func reportToDTO(r engine.Report) reportDTO {
	return reportDTO{
		Hash:       hashString(r.Root),
		Score:      r.Score,
		ScoreText:  engine.FormatScore(r.Score),
		BestColumn: r.Column + 1,
		Nodes:      r.Nodes,
		Exhausted:  r.Exhausted,
	}
}

// status must be called with mu held.
func (s *Server) status() statusResponse {
	resp := statusResponse{
		Session: s.session,
		Moves:   s.moves,
		Grid:    s.board.Grid(),
		Board:   s.board.String(),
		Hash:    hashString(s.board),
		Report:  reportToDTO(s.report),
	}
	if p, ok := s.board.NextToMove(); ok {
		resp.NextPlayer = p.String()
	}
	if p, ok := s.board.Winner(); ok {
		resp.Winner = p.String()
	}
	return resp
}

func (s *Server) currentStatus() statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status()
}

// SetPosition makes b the current position and submits it for analysis.
func (s *Server) SetPosition(moves string, b board.Board) {
	s.mu.Lock()
	s.moves = moves
	s.board = b
	s.report = engine.Report{Root: b, Column: engine.NoRecommendation}
	st := s.status()
	s.mu.Unlock()

	s.analysis.SubmitRoot(b)
	s.hub.Publish(wsMessage{Type: "status", Payload: mustMarshal(st)})
	s.log.Debug().Str("hash", st.Hash).Str("moves", moves).Msg("position-set")
}

// Run broadcasts reports for the current position until ctx is done or
// reports is closed.
func (s *Server) Run(ctx context.Context, reports <-chan engine.Report) error {
	hubDone := make(chan struct{})
	defer close(hubDone)
	go s.hub.Run(hubDone)

	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-reports:
			if !ok {
				return nil
			}
			s.mu.Lock()
			if r.Root != s.board {
				s.mu.Unlock()
				continue
			}
			s.report = r
			s.mu.Unlock()
			s.hub.Publish(wsMessage{Type: "report", Payload: mustMarshal(reportToDTO(r))})
		}
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/api/status", s.handleStatus)
	r.Post("/api/position", s.handlePosition)
	r.Get("/api/position.png", s.handleImage)
	r.Get("/ws/analysis", s.handleWS)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// ListenAndServe serves Handler on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("feed-listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("graceful-shutdown-failed")
		return server.Close()
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http-request")
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentStatus())
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	var (
		b   board.Board
		err error
	)
	if req.Grid != "" {
		b, err = board.ParseGrid(req.Grid)
		req.Moves = ""
	} else {
		b, err = board.FromMoves(req.Moves)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.SetPosition(req.Moves, b)
	writeJSON(w, http.StatusOK, s.currentStatus())
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	b, col := s.board, s.report.Column
	s.mu.RUnlock()

	opts := render.DefaultOptions()
	opts.Highlight = col
	if v := r.URL.Query().Get("cell"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 256 {
			opts.CellSize = n
		}
	}

	w.Header().Set("Content-Type", "image/png")
	if err := render.PNG(w, b, opts); err != nil {
		s.log.Error().Err(err).Msg("render-failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{send: make(chan []byte, clientBuffer)}
	s.hub.register(c)
	s.hub.sendTo(c, wsMessage{Type: "status", Payload: mustMarshal(s.currentStatus())})

	go func() {
		defer conn.Close()
		if err := writeLoop(conn, c.send); err != nil {
			s.log.Debug().Err(err).Msg("ws-write-failed")
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.hub.unregister(c)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "request_status" {
			s.hub.sendTo(c, wsMessage{Type: "status", Payload: mustMarshal(s.currentStatus())})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
