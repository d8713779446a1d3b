package endpoints

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/twitter/ice/common/stats"
	"github.com/twitter/ice/ice"
)

// AdminServer serves health, stats and the dependency graph of a chain alongside
// an application's own routes.
type AdminServer struct {
	Stats stats.StatsReceiver
	Chain *ice.ScopeChain
}

func NewAdminServer(stat stats.StatsReceiver, chain *ice.ScopeChain) *AdminServer {
	return &AdminServer{Stats: stat, Chain: chain}
}

// Mount adds the admin routes to r.
func (s *AdminServer) Mount(r chi.Router) {
	r.Get("/", helpHandler)
	r.Get("/health", healthHandler)
	r.Get("/admin/metrics.json", s.statsHandler)
	r.Get("/admin/graph", s.graphHandler)
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Common paths: '/health', '/admin/metrics.json', '/admin/graph'", 501)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "ok")
}

func (s *AdminServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	const contentTypeHdr = "Content-Type"
	const contentTypeVal = "application/json; charset=utf-8"
	w.Header().Set(contentTypeHdr, contentTypeVal)

	pretty := r.URL.Query().Get("pretty") == "true"
	str := s.Stats.Render(pretty)
	if _, err := io.Copy(w, bytes.NewBuffer(str)); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
}

// graphHandler renders the chain as DOT, or with ?topo=true as a construction order.
func (s *AdminServer) graphHandler(w http.ResponseWriter, r *http.Request) {
	g := s.Chain.Graph()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if r.URL.Query().Get("topo") != "true" {
		io.WriteString(w, g.DOT())
		return
	}
	order, err := g.TopoOrder()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	for _, id := range order {
		fmt.Fprintln(w, id)
	}
}
