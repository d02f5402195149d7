package nda

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rfpgate/rfpgate/pkg/auth"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the package error taxonomy onto HTTP statuses.
// Denials are 403, validation failures 400, lifecycle conflicts 409,
// missing records 404; everything else is an internal error.
func writeDomainError(w http.ResponseWriter, err error) {
	var denied *auth.DeniedError
	if errors.As(err, &denied) {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":  denied.Error(),
			"reason": denied.Reason,
		})
		return
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": validation.Error(),
			"field": validation.Field,
		})
		return
	}
	var conflict *StateConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":   conflict.Error(),
			"current": string(conflict.Current),
		})
		return
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrRFPNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
}

// signIndividualHandler records the caller's personal signature.
// POST /rfps/{rfpID}/nda/sign
func signIndividualHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rfpID := chi.URLParam(r, "rfpID")
		actor := auth.ActorFromContext(r.Context())

		var sig Signature
		if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rec, err := m.SignIndividual(actor, rfpID, sig)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// signCompanyHandler records a company-wide signature.
// POST /rfps/{rfpID}/nda/company-sign
func signCompanyHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rfpID := chi.URLParam(r, "rfpID")
		actor := auth.ActorFromContext(r.Context())

		var sig Signature
		if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rec, err := m.SignCompany(actor, rfpID, sig)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// statusHandler returns the caller's NDA standing for an RFP.
// GET /rfps/{rfpID}/nda/status
func statusHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rfpID := chi.URLParam(r, "rfpID")
		actor := auth.ActorFromContext(r.Context())

		view, err := m.GetStatus(actor, rfpID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// countersignHandler approves a signed NDA.
// POST /ndas/{kind}/{id}/countersign
func countersignHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := Kind(chi.URLParam(r, "kind"))
		id := chi.URLParam(r, "id")
		actor := auth.ActorFromContext(r.Context())

		var cs Countersignature
		if err := json.NewDecoder(r.Body).Decode(&cs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rec, err := m.Countersign(actor, kind, id, cs)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// rejectHandler declines a signed NDA.
// POST /ndas/{kind}/{id}/reject
func rejectHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := Kind(chi.URLParam(r, "kind"))
		id := chi.URLParam(r, "id")
		actor := auth.ActorFromContext(r.Context())

		var body struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rec, err := m.Reject(actor, kind, id, body.Reason)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// auditHandler lists the audit trail of an NDA.
// GET /ndas/{kind}/{id}/audit?pageSize=20&pageToken=...
func auditHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := Kind(chi.URLParam(r, "kind"))
		id := chi.URLParam(r, "id")
		actor := auth.ActorFromContext(r.Context())

		pageSize := 20
		if ps := r.URL.Query().Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				pageSize = v
			}
		}
		pageToken := r.URL.Query().Get("pageToken")

		entries, nextToken, err := m.ListAudit(actor, kind, id, pageSize, pageToken)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"entries":       entries,
			"nextPageToken": nextToken,
		})
	}
}
