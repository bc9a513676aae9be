package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"paddydoc/api/internal/report"
	"paddydoc/api/internal/store"
	"paddydoc/api/internal/util"
	"paddydoc/api/internal/vision"
)

type DiagnoseRequest struct {
	LLMName  string `json:"llm_name"`
	ImageB64 string `json:"image_b64"`
	MimeType string `json:"mime_type,omitempty"`
}

type DiagnoseResponse struct {
	Engine  string          `json:"engine"`
	Model   string          `json:"model"`
	RawText string          `json:"raw_text"`
	Cached  bool            `json:"cached"`
	Report  report.Envelope `json:"report"`
}

// Diagnose sends a leaf photo to the chosen engine and returns the classified
// answer. Engine failures come back as error reports with status 200.
func (h *Handle) Diagnose(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	var req DiagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	img, hint, err := util.DecodeBase64MaybeDataURL(req.ImageB64)
	if err != nil || len(img) == 0 {
		writeError(w, http.StatusBadRequest, "bad image_b64")
		return
	}
	engine, err := h.engs.GetEngine(req.LLMName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deadline(r))
	defer cancel()

	hash := util.SHA256Hex(img)
	resp := DiagnoseResponse{Engine: engine.Name(), Model: engine.GetModel()}

	if h.cache != nil {
		d, err := h.cache.FindByHash(ctx, hash, resp.Engine, resp.Model, h.opts.CacheMaxAge)
		switch {
		case err == nil:
			resp.RawText, resp.Cached = d.RawText, true
			resp.Report = report.Encode(d.Report)
			writeJSON(w, http.StatusOK, resp)
			return
		case !errors.Is(err, store.ErrNotFound):
			logger.Warn().Err(err).Msg("diagnosis cache lookup failed")
		}
	}

	resp.RawText = vision.Describe(ctx, engine, img, util.PickMIME(req.MimeType, hint, img))
	rep := report.Classify(resp.RawText)
	resp.Report = report.Encode(rep)

	if h.cache != nil && rep.Kind() != report.KindError {
		d := &store.Diagnosis{ImageHash: hash, Engine: resp.Engine, Model: resp.Model, RawText: resp.RawText}
		if err := h.cache.Upsert(ctx, d); err != nil {
			logger.Warn().Err(err).Msg("diagnosis cache store failed")
		}
	}

	logger.Info().
		Str("engine", resp.Engine).
		Str("kind", string(rep.Kind())).
		Int("sections", len(resp.Report.Sections)).
		Msg("diagnosis done")
	writeJSON(w, http.StatusOK, resp)
}
