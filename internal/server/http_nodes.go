package server

import (
	"net/http"
	"time"
)

// handleListNodes handles GET /v1/nodes. The optional active_within
// parameter (a Go duration such as "1h") limits the list to nodes seen
// within that window.
func (s *HubServer) handleListNodes(w http.ResponseWriter, r *http.Request) {
	var within time.Duration
	if v := r.URL.Query().Get("active_within"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid active_within: "+v)
			return
		}
		within = d
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": s.nodes.Nodes(within)})
}
