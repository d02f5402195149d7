package accessreq

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
	if errors.Is(err, ErrDuplicate) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrRFPNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
}

// submitHandler files an access request for the caller.
// POST /rfps/{rfpID}/access-requests
func submitHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rfpID := chi.URLParam(r, "rfpID")
		actor := auth.ActorFromContext(r.Context())

		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rec, err := wf.Submit(actor, rfpID, body.Message)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// mineHandler returns the caller's own request for an RFP.
// GET /rfps/{rfpID}/access-requests/mine
func mineHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rfpID := chi.URLParam(r, "rfpID")
		actor := auth.ActorFromContext(r.Context())

		rec, err := wf.GetMine(actor, rfpID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if rec == nil {
			writeError(w, http.StatusNotFound, "no access request for this rfp")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// listHandler lists requests for admin review.
// GET /access-requests?rfpId=...&status=pending&limit=100
func listHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.ActorFromContext(r.Context())

		limit := 0
		if l := r.URL.Query().Get("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 {
				limit = v
			}
		}

		records, err := wf.List(actor,
			r.URL.Query().Get("rfpId"),
			Status(r.URL.Query().Get("status")),
			limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"requests": records})
	}
}

// decideHandler approves or rejects a pending request.
// POST /access-requests/{id}/approve
// POST /access-requests/{id}/reject
func decideHandler(wf *Workflow, to Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		actor := auth.ActorFromContext(r.Context())

		var body struct {
			Note string `json:"note"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var (
			rec *AccessRequestRecord
			err error
		)
		if to == StatusApproved {
			rec, err = wf.Approve(actor, id, body.Note)
		} else {
			rec, err = wf.Reject(actor, id, body.Note)
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// RegisterRoutes mounts the access request endpoints on the given router.
func RegisterRoutes(r chi.Router, wf *Workflow) {
	r.Route("/rfps/{rfpID}/access-requests", func(r chi.Router) {
		r.Post("/", submitHandler(wf))
		r.Get("/mine", mineHandler(wf))
	})

	r.Route("/access-requests", func(r chi.Router) {
		r.Get("/", listHandler(wf))
		r.Post("/{id}/approve", decideHandler(wf, StatusApproved))
		r.Post("/{id}/reject", decideHandler(wf, StatusRejected))
	})
}
