package results

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Server exposes a Store over HTTP: POST /rows, GET /rows, GET /best, GET /health.
type Server struct {
	Store  Store
	Addr   string
	Logger *zap.Logger
}

// NewServer creates a server that uses the given Store.
func NewServer(store Store, addr string) *Server {
	if addr == "" {
		addr = ":8080"
	}
	return &Server{Store: store, Addr: addr, Logger: zap.L()}
}

type rowsResponse struct {
	Rows []rowJSON `json:"rows"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rows", s.handleRecord)
	mux.HandleFunc("GET /rows", s.handleRows)
	mux.HandleFunc("GET /best", s.handleBest)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.Addr, s.Handler())
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req rowJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	row := req.row()
	if err := s.Store.Record(r.Context(), row); err != nil {
		s.Logger.Error("record row", zap.String("evaluator", row.Evaluator), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseQuery(r *http.Request) Query {
	v := r.URL.Query()
	q := Query{
		Evaluator: v.Get("evaluator"),
		Precision: v.Get("precision"),
	}
	if from := v.Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			q.From = t
		}
	}
	if to := v.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			q.To = t
		}
	}
	if limit := v.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			q.Limit = n
		}
	}
	return q
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Store.Query(r.Context(), parseQuery(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := rowsResponse{Rows: make([]rowJSON, len(rows))}
	for i, row := range rows {
		resp.Rows[i] = toJSON(row)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleBest(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Store.Query(r.Context(), parseQuery(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	best, ok := Best(rows)
	if !ok {
		http.Error(w, "no rows", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toJSON(best))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
