package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/jackpot/internal/core/domain"
	"github.com/vietddude/jackpot/internal/health"
	"github.com/vietddude/jackpot/internal/jackpot"
	"github.com/vietddude/jackpot/internal/query"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultRenderTimeout = 3 * time.Second
	defaultWinnersLimit  = 20
	maxWinnersLimit      = 100
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host          string
	Port          int
	RenderTimeout time.Duration
	// EnableWithdraw exposes POST /api/withdraw, which signs with the server's key.
	EnableWithdraw bool
}

// ServerDeps are the components the server renders from.
type ServerDeps struct {
	Client  *query.Client
	Queries *jackpot.Queries
	// Board is the long-lived board of the configured wallet.
	Board   *Board
	History History
	ChainID uint64
	Health  *health.Monitor
	Logger  *slog.Logger
}

// Server serves the dashboard as HTML and JSON.
type Server struct {
	cfg  ServerConfig
	deps ServerDeps
	log  *slog.Logger
	tmpl *template.Template

	mux     *http.ServeMux
	httpSrv *http.Server
}

// NewServer creates the dashboard server.
func NewServer(cfg ServerConfig, deps ServerDeps) (*Server, error) {
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = defaultRenderTimeout
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	tmpl, err := template.New("dashboard").
		Funcs(template.FuncMap{"withdrawEnabled": func() bool { return cfg.EnableWithdraw }}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  log.With("component", "server"),
		tmpl: tmpl,
		mux:  http.NewServeMux(),
	}
	s.registerRoutes(s.mux)

	s.httpSrv = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /api/withdraw", s.handleWithdraw)
	mux.HandleFunc("GET /api/winners", s.handleWinners)
	if s.deps.Health != nil {
		s.deps.Health.Register(mux)
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("Dashboard listening", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// snapshot renders the board for the request's address parameter, mounting a
// temporary board when it differs from the configured wallet.
func (s *Server) snapshot(r *http.Request) (Snapshot, error) {
	board := s.deps.Board
	if raw := r.URL.Query().Get("address"); raw != "" {
		if !common.IsHexAddress(raw) {
			return Snapshot{}, fmt.Errorf("invalid address %q", raw)
		}
		addr := common.HexToAddress(raw)
		if board == nil || board.Wallet() == nil || *board.Wallet() != addr {
			board = Mount(s.deps.Client, s.deps.Queries, &addr, WithHistory(s.deps.History, s.deps.ChainID))
			defer board.Close()
		}
	}
	if board == nil {
		board = Mount(s.deps.Client, s.deps.Queries, nil, WithHistory(s.deps.History, s.deps.ChainID))
		defer board.Close()
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RenderTimeout)
	defer cancel()
	board.Wait(ctx)
	return board.Snapshot(), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "dashboard.html", snap); err != nil {
		s.log.Error("Failed to render dashboard", "error", err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type withdrawResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	TxHash string `json:"tx_hash,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.EnableWithdraw {
		writeError(w, http.StatusForbidden, "withdrawals over http are disabled (server.enable_withdraw)")
		return
	}
	board := s.deps.Board
	if board == nil || board.Withdrawer() == nil {
		writeError(w, http.StatusServiceUnavailable, "withdrawals are disabled: no wallet key configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RenderTimeout)
	board.user.Wait(ctx)
	cancel()

	state, err := board.Withdrawer().Submit(r.Context(), board.Winnings())
	resp := withdrawResponse{ID: state.ID, Status: state.Status.String()}
	switch {
	case errors.Is(err, ErrNothingToWithdraw), errors.Is(err, ErrWithdrawPending):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		resp.Error = err.Error()
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	resp.TxHash = state.TxHash.Hex()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWinners(w http.ResponseWriter, r *http.Request) {
	limit := defaultWinnersLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxWinnersLimit)
	}

	results := []domain.JackpotResult{}
	if s.deps.History != nil {
		list, err := s.deps.History.List(r.Context(), s.deps.ChainID, limit)
		if err != nil {
			s.log.Error("Failed to list winners", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list winners")
			return
		}
		results = append(results, list...)
	}
	writeJSON(w, http.StatusOK, results)
}
