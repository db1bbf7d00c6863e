package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/luxlogik/raritycheck/internal/coins"
	"github.com/luxlogik/raritycheck/internal/config"
	"github.com/luxlogik/raritycheck/internal/resolver"
	"github.com/luxlogik/raritycheck/internal/view"
)

// BalanceResolver is what the server needs from the resolver.
type BalanceResolver interface {
	Resolve(ctx context.Context, addresses []string) (resolver.Batch, error)
}

type Server struct {
	cfg      *config.Config
	loader   *coins.Loader
	resolver BalanceResolver

	mux    *http.ServeMux
	server *http.Server
}

// New wires the routes. metrics serves /metrics, pass promhttp.Handler() or
// a handler for a private registry.
func New(cfg *config.Config, loader *coins.Loader, res BalanceResolver, metrics http.Handler) *Server {
	mux := http.NewServeMux()
	s := &Server{
		cfg:      cfg,
		loader:   loader,
		resolver: res,
		mux:      mux,
	}

	mux.Handle("GET /metrics", metrics)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/collections", s.handleCollections)
	mux.HandleFunc("GET /api/collections/{id}", s.handleCollection)
	mux.HandleFunc("GET /address/{address}", s.handleAddress)

	s.server = &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler              { return s.mux }
func (s *Server) Serve() error                       { return s.server.ListenAndServe() }
func (s *Server) Shutdown(ctx context.Context) error { return s.server.Shutdown(ctx) }

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Listed())
}

type TypeView struct {
	config.CoinType
	Count int        `json:"count"`
	Rows  []view.Row `json:"rows"`
}

type CollectionView struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	BatchID    string          `json:"batchId"`
	Source     resolver.Source `json:"source"`
	ResolvedAt time.Time       `json:"resolvedAt"`
	Types      []TypeView      `json:"types"`
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()
	out, err := s.Collection(r.Context(), id, q.Get("type"), view.Filter{
		Serial:  q.Get("serial"),
		Address: q.Get("address"),
		Balance: q.Get("balance"),
		Status:  q.Get("status"),
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, out)
	case errors.Is(err, config.ErrUnknownCollection):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, coins.ErrNoAddresses), errors.Is(err, resolver.ErrNoAddresses):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		zap.L().Error("collection request failed", zap.String("collection", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
	}
}

// Collection loads, resolves and renders one collection. coinType limits the
// output to a single coin type when non-empty.
func (s *Server) Collection(ctx context.Context, id, coinType string, f view.Filter) (*CollectionView, error) {
	col, err := s.cfg.Collection(id)
	if err != nil {
		return nil, err
	}
	ix, err := s.loader.Load(col)
	if err != nil {
		return nil, err
	}
	batch, err := s.resolver.Resolve(ctx, ix.Addresses())
	if err != nil {
		return nil, err
	}

	out := &CollectionView{
		ID:         col.ID,
		Name:       col.Name,
		BatchID:    batch.ID,
		Source:     batch.Source,
		ResolvedAt: time.Now().UTC(),
	}
	for _, te := range ix.Types {
		if coinType != "" && te.CoinType.Type != coinType {
			continue
		}
		rows := view.Rows(te.Entries, batch.Balances)
		out.Types = append(out.Types, TypeView{
			CoinType: te.CoinType,
			Count:    len(rows),
			Rows:     view.FilterRows(rows, f),
		})
	}
	return out, nil
}

func (s *Server) handleAddress(w http.ResponseWriter, r *http.Request) {
	target := view.ExplorerURL(s.cfg.Blockchain.ExplorerURL, r.PathValue("address"))
	http.Redirect(w, r, target, http.StatusFound)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
