package api

import (
	"encoding/json"
	"net/http"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type optimizeResponse struct {
	Message          string `json:"message"`
	DBSCANCSVPath    string `json:"dbscan_csv_path"`
	KMeansCSVPath    string `json:"kmeans_csv_path"`
	ComparisonImage  string `json:"comparison_image"`
	RunID            string `json:"run_id"`
	Points           int    `json:"points"`
	DBSCANClusters   int    `json:"dbscan_clusters"`
	NoisePoints      int    `json:"noise_points"`
	KMeansIterations int    `json:"kmeans_iterations"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.ErrorContext(r.Context(), "failed to write reply", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, r, status, errorResponse{Error: message})
}
