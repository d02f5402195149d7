package nda

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the NDA endpoints on the given router. The RFP
// scoped routes carry the signing surface; the /ndas routes carry the
// review surface.
func RegisterRoutes(r chi.Router, m *Manager) {
	r.Route("/rfps/{rfpID}/nda", func(r chi.Router) {
		r.Post("/sign", signIndividualHandler(m))
		r.Post("/company-sign", signCompanyHandler(m))
		r.Get("/status", statusHandler(m))
	})

	r.Route("/ndas/{kind}/{id}", func(r chi.Router) {
		r.Post("/countersign", countersignHandler(m))
		r.Post("/reject", rejectHandler(m))
		r.Get("/audit", auditHandler(m))
	})
}
