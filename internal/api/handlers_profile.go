package api

import (
	"encoding/json"
	"net/http"
)

// handleProfile exposes the active segmentation profile: which colors
// map to which labels, title heuristics and chunk sizing.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.profile)
}
