package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumera-labs/lumera-streams/pkg/cache"
	"github.com/lumera-labs/lumera-streams/pkg/history"
	"github.com/lumera-labs/lumera-streams/pkg/metrics"
	"github.com/lumera-labs/lumera-streams/pkg/ratelimit"
	"github.com/lumera-labs/lumera-streams/pkg/types"
	"github.com/lumera-labs/lumera-streams/pkg/view"
	"github.com/lumera-labs/lumera-streams/schema"
)

// HistorySource returns the audit trail of one stream.
type HistorySource interface {
	History(ctx context.Context, streamID uint64) ([]types.Event, error)
}

type Config struct {
	Cache      *cache.SnapshotCache
	History    HistorySource
	Metrics    *metrics.Metrics
	Symbol     string
	RatePerMin int
	Burst      int
	// Tick is the push interval of /ws.
	Tick time.Duration
}

type Server struct {
	cfg     Config
	mux     *http.ServeMux
	limiter *ratelimit.Limiter
}

func New(cfg Config) *Server {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.Symbol == "" {
		cfg.Symbol = "APT"
	}
	s := &Server{cfg: cfg, mux: http.NewServeMux(), limiter: ratelimit.New(cfg.RatePerMin, cfg.Burst)}
	s.mux.HandleFunc("GET /healthz", s.healthz)
	s.mux.HandleFunc("GET /openapi.yaml", s.openapi)
	if cfg.Metrics != nil {
		s.mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}
	s.mux.HandleFunc("GET /streams/incoming", s.wrap("/streams/incoming", s.handleIncoming))
	s.mux.HandleFunc("GET /streams/outgoing", s.wrap("/streams/outgoing", s.handleOutgoing))
	s.mux.HandleFunc("GET /streams/{id}/history", s.wrap("/streams/{id}/history", s.handleHistory))
	s.mux.HandleFunc("GET /rate", s.wrap("/rate", s.handleRate))
	s.mux.HandleFunc("GET /ws", s.limited(s.handleWS))
	return s
}

func (s *Server) Mux() *http.ServeMux { return s.mux }

// Handler is the mux behind the request-id middleware.
func (s *Server) Handler() http.Handler { return requestID(s.mux) }

// Limiter exposes the per-IP limiter so callers can prune idle clients.
func (s *Server) Limiter() *ratelimit.Limiter { return s.limiter }

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(r) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func (s *Server) wrap(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		defer func() { s.cfg.Metrics.Request(route, rec.code) }()
		if !s.limiter.Allow(r) {
			rec.Header().Set("Retry-After", "1")
			http.Error(rec, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		rec.Header().Set("Content-Type", "application/json; charset=utf-8")
		rec.Header().Set("Cache-Control", "public, max-age=1")
		next(rec, r)
	}
}

// parseAccount accepts a 0x-prefixed hex address of at most 32 bytes.
func parseAccount(r *http.Request) (string, bool) {
	a := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("account")))
	if !strings.HasPrefix(a, "0x") || len(a) < 3 || len(a) > 66 {
		return "", false
	}
	for _, c := range a[2:] {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return "", false
		}
	}
	return a, true
}

func parseSort(r *http.Request) (types.SortKey, bool) {
	raw := r.URL.Query().Get("sort")
	if raw == "" {
		return types.SortMostRecent, true
	}
	return view.ParseSortKey(raw)
}

func parseStatus(r *http.Request) (types.FilterStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return types.FilterActive, true
	}
	return view.ParseFilterStatus(raw)
}

func etagMatches(header, etag string) bool {
	for _, part := range strings.Split(header, ",") {
		p := strings.TrimPrefix(strings.TrimSpace(part), "W/")
		if p == "*" || strings.Trim(p, `"`) == etag {
			return true
		}
	}
	return false
}

// snapshot evaluates the account's streams at the current time and reports 304 when the
// client already holds that evaluation.
func (s *Server) snapshot(r *http.Request, account string, sort types.SortKey) (*types.WalletSnapshot, int, error) {
	snap, err := s.cfg.Cache.Snapshot(r.Context(), account, sort)
	if err != nil {
		return nil, 0, err
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && etagMatches(inm, snap.ETag) {
		return snap, http.StatusNotModified, nil
	}
	return snap, http.StatusOK, nil
}

// load runs the shared parameter parsing and snapshot lookup. It reports false once a
// response has been written.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (*types.WalletSnapshot, bool) {
	account, ok := parseAccount(r)
	if !ok {
		http.Error(w, "invalid account", http.StatusBadRequest)
		return nil, false
	}
	sort, ok := parseSort(r)
	if !ok {
		http.Error(w, "invalid sort", http.StatusBadRequest)
		return nil, false
	}
	snap, status, err := s.snapshot(r, account, sort)
	if err != nil {
		slog.Error("snapshot failed", "path", r.URL.Path, "account", account,
			"request_id", w.Header().Get("X-Request-ID"), "err", err)
		http.Error(w, "upstream error", http.StatusBadGateway)
		return nil, false
	}
	w.Header().Set("ETag", `"`+snap.ETag+`"`)
	w.Header().Set("X-Updated-At", snap.UpdatedAt.Format(time.RFC3339))
	if status == http.StatusNotModified {
		w.WriteHeader(status)
		return nil, false
	}
	return snap, true
}

func writeJSON(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

type streamsResponse struct {
	Account   string              `json:"account"`
	Now       int64               `json:"now"`
	UpdatedAt time.Time           `json:"updated_at"`
	ETag      string              `json:"etag"`
	Sort      types.SortKey       `json:"sort"`
	Status    types.FilterStatus  `json:"status,omitempty"`
	Streams   []types.StreamEntry `json:"streams"`
	Skipped   int                 `json:"skipped,omitempty"`
}

func (s *Server) handleIncoming(w http.ResponseWriter, r *http.Request) {
	status, ok := parseStatus(r)
	if !ok {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, streamsResponse{
		Account: snap.Account, Now: snap.Now, UpdatedAt: snap.UpdatedAt, ETag: snap.ETag,
		Sort: snap.Sort, Status: status,
		Streams: view.Select(snap.Incoming, status),
		Skipped: snap.Incoming.Skipped,
	})
}

func (s *Server) handleOutgoing(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, streamsResponse{
		Account: snap.Account, Now: snap.Now, UpdatedAt: snap.UpdatedAt, ETag: snap.ETag,
		Sort: snap.Sort, Streams: snap.Outgoing,
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, struct {
		Account       string  `json:"account"`
		Now           int64   `json:"now"`
		RatePerSecond float64 `json:"rate_per_second"`
		Display       string  `json:"display"`
	}{snap.Account, snap.Now, snap.NetRatePerSecond, snap.NetRateDisplay})
}

type historyEntry struct {
	types.Event
	Description string `json:"description"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid stream id", http.StatusBadRequest)
		return
	}
	events, err := s.cfg.History.History(r.Context(), id)
	if err != nil {
		slog.Error("history failed", "stream_id", id, "request_id", w.Header().Get("X-Request-ID"), "err", err)
		http.Error(w, "upstream error", http.StatusBadGateway)
		return
	}
	out := make([]historyEntry, 0, len(events))
	for _, ev := range events {
		out = append(out, historyEntry{Event: ev, Description: history.Describe(ev, s.cfg.Symbol)})
	}
	writeJSON(w, struct {
		StreamID uint64         `json:"stream_id"`
		Totals   history.Totals `json:"totals"`
		Events   []historyEntry `json:"events"`
	}{id, history.Summarize(events), out})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
		Time   string `json:"time"`
	}{"ok", time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) openapi(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(schema.OpenAPI)
}
