package server

import (
	"errors"
	"net/http"

	"github.com/ashita-ai/keifu/internal/ledger"
	"github.com/ashita-ai/keifu/internal/model"
)

// HandleCreateDecision handles POST /v1/decisions.
func (h *Handlers) HandleCreateDecision(w http.ResponseWriter, r *http.Request) {
	var req model.RecordRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	rec, err := h.store.Record(req.Title, req.Decision, req.Rationale, req.DecisionMaker, ledger.RecordInput{
		Alternatives: req.Alternatives,
		Stakeholders: req.Stakeholders,
		Context:      req.Context,
		Tags:         req.Tags,
	})
	if err != nil {
		h.writeInternalError(w, r, "failed to record decision", err)
		return
	}

	h.logger.Info("decision recorded",
		"id", rec.ID,
		"decision_maker", rec.DecisionMaker,
		"request_id", RequestIDFromContext(r.Context()))

	writeJSON(w, r, http.StatusCreated, rec)
}

// HandleListDecisions handles GET /v1/decisions. Returns all records in
// creation order.
func (h *Handlers) HandleListDecisions(w http.ResponseWriter, r *http.Request) {
	records := h.store.All()
	writeJSON(w, r, http.StatusOK, map[string]any{
		"records": records,
		"total":   len(records),
	})
}

// HandleGetDecision handles GET /v1/decisions/{id}.
func (h *Handlers) HandleGetDecision(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(pathID(r))
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "decision not found")
			return
		}
		h.writeInternalError(w, r, "failed to get decision", err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// HandleSetOutcome handles POST /v1/decisions/{id}/outcome.
func (h *Handlers) HandleSetOutcome(w http.ResponseWriter, r *http.Request) {
	var req model.OutcomeRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Outcome == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "outcome is required")
		return
	}

	id := pathID(r)
	if err := h.store.SetOutcome(id, req.Outcome); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "decision not found")
			return
		}
		h.writeInternalError(w, r, "failed to set outcome", err)
		return
	}

	rec, err := h.store.Get(id)
	if err != nil {
		h.writeInternalError(w, r, "failed to get decision after outcome update", err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// HandleSupersede handles POST /v1/decisions/{id}/supersede. The body is the
// replacement decision; it is recorded first, then linked to the original.
func (h *Handlers) HandleSupersede(w http.ResponseWriter, r *http.Request) {
	var req model.RecordRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	id := pathID(r)
	// Check the original before recording the replacement, so a bad id does
	// not leave an orphan record behind.
	orig, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "decision not found")
			return
		}
		h.writeInternalError(w, r, "failed to get decision", err)
		return
	}

	replacement, err := h.store.Record(req.Title, req.Decision, req.Rationale, req.DecisionMaker, ledger.RecordInput{
		Alternatives: req.Alternatives,
		Stakeholders: req.Stakeholders,
		Context:      req.Context,
		Tags:         req.Tags,
	})
	if err != nil {
		h.writeInternalError(w, r, "failed to record replacement decision", err)
		return
	}

	if err := h.store.Supersede(id, replacement); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "decision not found")
			return
		}
		h.writeInternalError(w, r, "failed to supersede decision", err)
		return
	}

	h.logger.Info("decision superseded",
		"id", orig.ID,
		"superseded_by", replacement.ID,
		"request_id", RequestIDFromContext(r.Context()))

	writeJSON(w, r, http.StatusCreated, replacement)
}

// HandleReverse handles POST /v1/decisions/{id}/reverse.
func (h *Handlers) HandleReverse(w http.ResponseWriter, r *http.Request) {
	var req model.ReverseRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Reason == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "reason is required")
		return
	}
	if req.DecisionMaker == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "decision_maker is required")
		return
	}

	id := pathID(r)
	reversal, err := h.store.Reverse(id, req.Reason, req.DecisionMaker)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "decision not found")
			return
		}
		h.writeInternalError(w, r, "failed to reverse decision", err)
		return
	}

	h.logger.Info("decision reversed",
		"id", id,
		"reversal_id", reversal.ID,
		"request_id", RequestIDFromContext(r.Context()))

	writeJSON(w, r, http.StatusCreated, reversal)
}

// HandleLineage handles GET /v1/decisions/{id}/lineage.
func (h *Handlers) HandleLineage(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	chain := h.store.Lineage(id)
	if len(chain) == 0 {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "decision not found")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"id":    id,
		"chain": chain,
	})
}

// HandleQuery handles POST /v1/query.
func (h *Handlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req model.QueryRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Filters.Status != nil && !req.Filters.Status.Valid() {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid status filter")
		return
	}
	if tr := req.Filters.TimeRange; tr != nil && tr.From != nil && tr.To != nil && tr.From.After(*tr.To) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "time range from is after to")
		return
	}

	records := h.store.Query(req.Filters)
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[:req.Limit]
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"records": records,
		"total":   len(records),
	})
}

// HandleReport handles GET /v1/report. With ?format=text the rendered
// summary is returned instead of the structured report.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	report := h.store.Report()
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(report.Render()))
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// HandleExport handles GET /v1/export (admin-only).
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	records := h.store.Export()
	writeJSON(w, r, http.StatusOK, map[string]any{
		"records": records,
		"total":   len(records),
	})
}

// HandleImport handles POST /v1/import (admin-only). Replaces the ledger
// contents with the supplied snapshot.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	var req model.ImportRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	h.store.Import(req.Records)

	h.logger.Info("ledger imported",
		"records", len(req.Records),
		"request_id", RequestIDFromContext(r.Context()))

	writeJSON(w, r, http.StatusOK, map[string]any{
		"imported": len(req.Records),
	})
}

// HandleClear handles POST /v1/clear (admin-only). Removes every record and
// resets the identifier sequence.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	removed := h.store.Len()
	h.store.Clear()

	h.logger.Info("ledger cleared",
		"removed", removed,
		"request_id", RequestIDFromContext(r.Context()))

	writeJSON(w, r, http.StatusOK, map[string]any{
		"removed": removed,
	})
}
