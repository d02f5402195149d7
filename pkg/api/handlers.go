package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rfpgate/rfpgate/pkg/access"
	"github.com/rfpgate/rfpgate/pkg/accessreq"
	"github.com/rfpgate/rfpgate/pkg/auth"
	"github.com/rfpgate/rfpgate/pkg/nda"
	"github.com/rfpgate/rfpgate/pkg/rfp"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDeny renders a deny decision. The target exists, the caller just
// may not see it, so the status is 403 with the reason attached.
func writeDeny(w http.ResponseWriter, decision access.Decision) {
	writeJSON(w, http.StatusForbidden, decision)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// canManageRFP reports whether the actor may mutate the RFP.
func canManageRFP(actor auth.Actor, record *rfp.RFPRecord) bool {
	return actor.IsAdmin() || (!actor.IsAnonymous() && actor.UserID == record.ClientID)
}

// createRFPHandler creates an RFP in draft state unless told otherwise.
// POST /api/rfpgate/v1/rfps
func (s *Server) createRFPHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if actor.IsAnonymous() {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	if !actor.IsReviewer() {
		writeError(w, http.StatusForbidden, "only clients and admins may create rfps")
		return
	}

	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Visibility  string `json:"visibility"`
		ClientID    string `json:"clientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	visibility := rfp.Visibility(body.Visibility)
	if visibility == "" {
		visibility = rfp.VisibilityPublic
	}
	if visibility != rfp.VisibilityPublic && visibility != rfp.VisibilityConfidential {
		writeError(w, http.StatusBadRequest, "visibility must be public or confidential")
		return
	}

	clientID := actor.UserID
	if body.ClientID != "" && actor.IsAdmin() {
		clientID = body.ClientID
	}

	rec := &rfp.RFPRecord{
		ID:          uuid.New().String(),
		Title:       body.Title,
		Description: body.Description,
		Visibility:  visibility,
		Status:      rfp.StatusDraft,
		ClientID:    clientID,
	}
	if err := s.rfps.Create(rec); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create rfp: %v", err))
		return
	}

	s.logger.Info("rfp created", "rfpID", rec.ID, "clientID", clientID)
	writeJSON(w, http.StatusCreated, rec)
}

// listRFPsHandler lists the RFPs the caller may see. A failed decision
// for one RFP degrades to hiding that item rather than failing the list.
// GET /api/rfpgate/v1/rfps?limit=50
func (s *Server) listRFPsHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	records, err := s.rfps.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list rfps: %v", err))
		return
	}

	visible := make([]rfp.RFPRecord, 0, len(records))
	for _, rec := range records {
		if rec.Status == rfp.StatusDraft && !canManageRFP(actor, &rec) {
			continue
		}
		decision, err := s.engine.CanAccessRFP(actor, rec.ID)
		if err != nil {
			s.logger.Error("rfp decision failed during list, hiding item",
				"rfpID", rec.ID, "error", err)
			continue
		}
		if decision.Allowed || canManageRFP(actor, &rec) {
			visible = append(visible, rec)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"rfps": visible})
}

// getRFPHandler returns an RFP's metadata when the caller may see it.
// GET /api/rfpgate/v1/rfps/{rfpID}
func (s *Server) getRFPHandler(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")
	actor := auth.ActorFromContext(r.Context())

	rec, err := s.rfps.GetRFP(rfpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get rfp: %v", err))
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "rfp not found")
		return
	}

	if !canManageRFP(actor, rec) {
		if rec.Status == rfp.StatusDraft {
			writeDeny(w, access.Deny(access.ReasonRFPNotPublished))
			return
		}
		decision, err := s.engine.CanAccessRFP(actor, rfpID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("decision failed: %v", err))
			return
		}
		if !decision.Allowed {
			writeDeny(w, decision)
			return
		}
	}

	writeJSON(w, http.StatusOK, rec)
}

// updateRFPHandler updates title, description, visibility, or status.
// PATCH /api/rfpgate/v1/rfps/{rfpID}
func (s *Server) updateRFPHandler(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")
	actor := auth.ActorFromContext(r.Context())

	rec, err := s.rfps.GetRFP(rfpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get rfp: %v", err))
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "rfp not found")
		return
	}
	if !canManageRFP(actor, rec) {
		writeError(w, http.StatusForbidden, "only the owning client or an admin may update an rfp")
		return
	}

	var body struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Visibility  *string `json:"visibility"`
		Status      *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.Title != nil {
		if *body.Title == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		rec.Title = *body.Title
	}
	if body.Description != nil {
		rec.Description = *body.Description
	}
	if body.Visibility != nil {
		v := rfp.Visibility(*body.Visibility)
		if v != rfp.VisibilityPublic && v != rfp.VisibilityConfidential {
			writeError(w, http.StatusBadRequest, "visibility must be public or confidential")
			return
		}
		rec.Visibility = v
	}
	if body.Status != nil {
		st := rfp.Status(*body.Status)
		if st != rfp.StatusDraft && st != rfp.StatusActive && st != rfp.StatusClosed {
			writeError(w, http.StatusBadRequest, "status must be draft, active, or closed")
			return
		}
		rec.Status = st
	}

	if err := s.rfps.Update(rec); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update rfp: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// deleteRFPHandler deletes an RFP together with everything it owns:
// documents, both NDA kinds with their audit trails, and access
// requests, in one transaction.
// DELETE /api/rfpgate/v1/rfps/{rfpID}
func (s *Server) deleteRFPHandler(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")
	actor := auth.ActorFromContext(r.Context())

	rec, err := s.rfps.GetRFP(rfpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get rfp: %v", err))
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "rfp not found")
		return
	}
	if !canManageRFP(actor, rec) {
		writeError(w, http.StatusForbidden, "only the owning client or an admin may delete an rfp")
		return
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := nda.DeleteByRFPTx(tx, rfpID); err != nil {
			return err
		}
		if err := accessreq.DeleteByRFPTx(tx, rfpID); err != nil {
			return err
		}
		return rfp.DeleteByRFPTx(tx, rfpID)
	})
	if err != nil {
		if errors.Is(err, rfp.ErrNotFound) {
			writeError(w, http.StatusNotFound, "rfp not found")
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete rfp: %v", err))
		return
	}

	s.logger.Info("rfp deleted", "rfpID", rfpID, "actor", actor.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "rfpId": rfpID})
}

// createDocumentHandler attaches a document to an RFP.
// POST /api/rfpgate/v1/rfps/{rfpID}/documents
func (s *Server) createDocumentHandler(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")
	actor := auth.ActorFromContext(r.Context())

	rec, err := s.rfps.GetRFP(rfpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get rfp: %v", err))
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "rfp not found")
		return
	}
	if !canManageRFP(actor, rec) {
		writeError(w, http.StatusForbidden, "only the owning client or an admin may attach documents")
		return
	}

	var body struct {
		Name        string `json:"name"`
		ContentType string `json:"contentType"`
		RequiresNDA bool   `json:"requiresNda"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	doc := &rfp.DocumentRecord{
		ID:          uuid.New().String(),
		RFPID:       rfpID,
		Name:        body.Name,
		ContentType: body.ContentType,
		StorageKey:  fmt.Sprintf("rfps/%s/%s", rfpID, uuid.New().String()),
		RequiresNDA: body.RequiresNDA,
	}
	if err := s.rfps.CreateDocument(doc); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create document: %v", err))
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// listDocumentsHandler lists an RFP's document metadata. Visibility
// follows the RFP decision; per-document content gating happens at
// download time.
// GET /api/rfpgate/v1/rfps/{rfpID}/documents
func (s *Server) listDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")
	actor := auth.ActorFromContext(r.Context())

	rec, err := s.rfps.GetRFP(rfpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get rfp: %v", err))
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "rfp not found")
		return
	}

	if !canManageRFP(actor, rec) {
		if rec.Status == rfp.StatusDraft {
			writeDeny(w, access.Deny(access.ReasonRFPNotPublished))
			return
		}
		decision, err := s.engine.CanAccessRFP(actor, rfpID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("decision failed: %v", err))
			return
		}
		if !decision.Allowed {
			writeDeny(w, decision)
			return
		}
	}

	docs, err := s.rfps.ListDocuments(rfpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list documents: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// downloadDocumentHandler issues a signed download URL after an Allow
// decision. The engine has no opinion on storage; URL issuance is a
// separate call made only once access is granted.
// GET /api/rfpgate/v1/documents/{id}/download
func (s *Server) downloadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor := auth.ActorFromContext(r.Context())

	decision, err := s.engine.CanAccessDocument(actor, id)
	if err != nil {
		if errors.Is(err, access.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("decision failed: %v", err))
		return
	}
	if !decision.Allowed {
		writeDeny(w, decision)
		return
	}

	if s.issuer == nil {
		writeError(w, http.StatusServiceUnavailable, "document storage is not configured")
		return
	}

	doc, err := s.rfps.GetDocument(id)
	if err != nil || doc == nil {
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	url, err := s.issuer.SignedGetURL(r.Context(), doc.StorageKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to issue download url: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url":         url,
		"name":        doc.Name,
		"contentType": doc.ContentType,
	})
}

// listNotificationsHandler returns the caller's notifications.
// GET /api/rfpgate/v1/notifications?limit=50
func (s *Server) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if actor.IsAnonymous() {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	records, err := s.notifications.ListByUser(actor.UserID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list notifications: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": records})
}
