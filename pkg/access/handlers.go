package access

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

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

// checkDocumentHandler returns the caller's decision for a document.
// GET /documents/{id}/access
//
// A deny is a 200 with allowed=false; only a missing target is an error
// status.
func checkDocumentHandler(decider Decider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		actor := auth.ActorFromContext(r.Context())

		decision, err := decider.CanAccessDocument(actor, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "document not found")
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, decision)
	}
}

// checkRFPHandler returns the caller's decision for an RFP.
// GET /rfps/{id}/access
func checkRFPHandler(decider Decider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		actor := auth.ActorFromContext(r.Context())

		decision, err := decider.CanAccessRFP(actor, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "rfp not found")
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, decision)
	}
}

// RegisterRoutes mounts the decision check endpoints on the given router.
func RegisterRoutes(r chi.Router, decider Decider) {
	r.Get("/documents/{id}/access", checkDocumentHandler(decider))
	r.Get("/rfps/{id}/access", checkRFPHandler(decider))
}
