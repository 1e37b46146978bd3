// Package server exposes the read-only query API over HTTP/JSON.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"MintLedger/internal/observability"
	"MintLedger/internal/query"
)

// QueryServer serves the view tables. It has no write surface: the
// only writer is the fold loop's persistence worker.
type QueryServer struct {
	svc     *query.Service
	log     zerolog.Logger
	metrics *observability.Metrics
}

func NewQueryServer(svc *query.Service, metrics *observability.Metrics) *QueryServer {
	return &QueryServer{
		svc:     svc,
		log:     observability.NewLogger("query-server"),
		metrics: metrics,
	}
}

// Router builds the chi route tree.
func (qs *QueryServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/v1/tokens/{token}/balances/{owner}", qs.handleBalance)
	r.Get("/v1/tokens/{token}/supply", qs.handleSupply)
	r.Get("/v1/tokens/{token}/liquidity", qs.handleLiquidity)
	r.Get("/v1/tokens/{token}/offers", qs.handleOffers)
	r.Get("/v1/tokens/{token}/offers/{offerID}", qs.handleOffer)
	r.Get("/v1/tokens/{token}/offers/{offerID}/components", qs.handleComponents)
	r.Get("/v1/volume", qs.handleVolume)
	r.Get("/v1/mints", qs.handleMints)
	r.Get("/v1/bonds", qs.handleBonds)

	return r
}

func (qs *QueryServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	owner := chi.URLParam(r, "owner")

	var asOfBlock *uint64
	if s := r.URL.Query().Get("block"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			qs.writeError(w, "balance", http.StatusBadRequest, "invalid block")
			return
		}
		asOfBlock = &n
	}

	qs.respond(w, "balance", func() (any, error) {
		return qs.svc.GetBalance(r.Context(), token, owner, asOfBlock)
	})
}

func (qs *QueryServer) handleSupply(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	qs.respond(w, "supply", func() (any, error) {
		return qs.svc.GetSupply(r.Context(), token)
	})
}

func (qs *QueryServer) handleLiquidity(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	qs.respond(w, "liquidity", func() (any, error) {
		return qs.svc.GetLiquidity(r.Context(), token)
	})
}

func (qs *QueryServer) handleOffers(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		status = &s
	}
	limit := parseLimit(r, 100)

	qs.respond(w, "offers", func() (any, error) {
		return qs.svc.ListOffers(r.Context(), token, status, limit)
	})
}

func (qs *QueryServer) handleOffer(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	offerID, err := strconv.ParseUint(chi.URLParam(r, "offerID"), 10, 64)
	if err != nil {
		qs.writeError(w, "offer", http.StatusBadRequest, "invalid offer id")
		return
	}

	qs.respond(w, "offer", func() (any, error) {
		return qs.svc.GetOffer(r.Context(), token, offerID)
	})
}

func (qs *QueryServer) handleComponents(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	offerID, err := strconv.ParseUint(chi.URLParam(r, "offerID"), 10, 64)
	if err != nil {
		qs.writeError(w, "components", http.StatusBadRequest, "invalid offer id")
		return
	}

	qs.respond(w, "components", func() (any, error) {
		return qs.svc.ListComponents(r.Context(), token, offerID)
	})
}

func (qs *QueryServer) handleVolume(w http.ResponseWriter, r *http.Request) {
	qs.respond(w, "volume", func() (any, error) {
		return qs.svc.GetVolume(r.Context())
	})
}

func (qs *QueryServer) handleMints(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)

	var beforeTime *uint64
	if s := r.URL.Query().Get("before"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			qs.writeError(w, "mints", http.StatusBadRequest, "invalid before cursor")
			return
		}
		beforeTime = &n
	}

	qs.respond(w, "mints", func() (any, error) {
		return qs.svc.ListMints(r.Context(), limit, beforeTime)
	})
}

func (qs *QueryServer) handleBonds(w http.ResponseWriter, r *http.Request) {
	qs.respond(w, "bonds", func() (any, error) {
		return qs.svc.ListBonds(r.Context())
	})
}

// respond runs one query and writes the JSON result with uniform
// error mapping and metrics.
func (qs *QueryServer) respond(w http.ResponseWriter, endpoint string, fn func() (any, error)) {
	start := time.Now()

	result, err := fn()
	if err != nil {
		if errors.Is(err, query.ErrNotFound) {
			qs.writeError(w, endpoint, http.StatusNotFound, "not found")
			return
		}
		qs.log.Error().Err(err).Str("endpoint", endpoint).Msg("query failed")
		qs.writeError(w, endpoint, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)

	if qs.metrics != nil {
		qs.metrics.QueryRequests.WithLabelValues(endpoint, "ok").Inc()
		qs.metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

func (qs *QueryServer) writeError(w http.ResponseWriter, endpoint string, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})

	if qs.metrics != nil {
		qs.metrics.QueryRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	}
}

func parseLimit(r *http.Request, def int) int {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 1000 {
		return def
	}
	return n
}
