// Package api assembles the HTTP surface of the portal: RFP and document
// management, document download, the decision check endpoints, and the
// NDA and access request routes contributed by their packages.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"github.com/rfpgate/rfpgate/pkg/access"
	"github.com/rfpgate/rfpgate/pkg/accessreq"
	"github.com/rfpgate/rfpgate/pkg/auth"
	"github.com/rfpgate/rfpgate/pkg/docstore"
	"github.com/rfpgate/rfpgate/pkg/nda"
	"github.com/rfpgate/rfpgate/pkg/notify"
	"github.com/rfpgate/rfpgate/pkg/rfp"
)

// BasePath is the mount point of the versioned API.
const BasePath = "/api/rfpgate/v1"

// Server owns the assembled stores and managers behind the HTTP surface.
type Server struct {
	db            *gorm.DB
	rfps          *rfp.Store
	ndaManager    *nda.Manager
	accessWf      *accessreq.Workflow
	engine        access.Decider
	notifications *notify.Store
	issuer        docstore.SignedURLIssuer
	logger        *slog.Logger
}

// NewServer wires the API server. issuer may be nil when no document
// storage backend is configured; downloads then report the backend as
// unavailable.
func NewServer(
	db *gorm.DB,
	rfps *rfp.Store,
	ndaManager *nda.Manager,
	accessWf *accessreq.Workflow,
	engine access.Decider,
	notifications *notify.Store,
	issuer docstore.SignedURLIssuer,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		db:            db,
		rfps:          rfps,
		ndaManager:    ndaManager,
		accessWf:      accessWf,
		engine:        engine,
		notifications: notifications,
		issuer:        issuer,
		logger:        logger,
	}
}

// MountRoutes creates the HTTP router with all routes mounted.
func (s *Server) MountRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Remote-User", "X-Remote-Role", "X-Remote-Company", "X-Remote-Company-Role"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(auth.IdentityMiddleware())

	r.Get("/healthz", s.healthHandler)
	r.Get("/livez", s.healthHandler)

	r.Route(BasePath, func(r chi.Router) {
		r.Post("/rfps", s.createRFPHandler)
		r.Get("/rfps", s.listRFPsHandler)
		r.Get("/rfps/{rfpID}", s.getRFPHandler)
		r.Patch("/rfps/{rfpID}", s.updateRFPHandler)
		r.Delete("/rfps/{rfpID}", s.deleteRFPHandler)

		r.Post("/rfps/{rfpID}/documents", s.createDocumentHandler)
		r.Get("/rfps/{rfpID}/documents", s.listDocumentsHandler)
		r.Get("/documents/{id}/download", s.downloadDocumentHandler)

		r.Get("/notifications", s.listNotificationsHandler)

		nda.RegisterRoutes(r, s.ndaManager)
		accessreq.RegisterRoutes(r, s.accessWf)
		access.RegisterRoutes(r, s.engine)
	})

	return r
}
