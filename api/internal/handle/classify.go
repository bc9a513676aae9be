package handle

import (
	"encoding/json"
	"net/http"

	"paddydoc/api/internal/report"
)

type ClassifyRequest struct {
	Text string `json:"text"`
}

// Classify turns an already obtained model answer into a report.
func (h *Handle) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report.Encode(report.Classify(req.Text)))
}
