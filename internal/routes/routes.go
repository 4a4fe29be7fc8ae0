// internal/routes/routes.go
package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"hcert-verifier/internal/handlers"
	"hcert-verifier/internal/middleware"
	apperrors "hcert-verifier/pkg/errors"
	"hcert-verifier/pkg/utils"
)

type Handlers struct {
	Health      *handlers.HealthHandler
	Certificate *handlers.CertificateHandler
	// Audit is nil when the audit log is disabled.
	Audit *handlers.AuditHandler
}

// SetupRoutes builds the router. auth may be nil to leave the API open.
func SetupRoutes(h *Handlers, auth *middleware.Authenticator, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer())
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(middleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.SendErrorResponse(w, apperrors.NewNotFoundError("route "+r.URL.Path))
	})

	// Health check routes
	r.Get("/", h.Health.HealthCheck)
	r.Get("/health", h.Health.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		if auth != nil {
			r.Use(auth.Middleware())
		}

		r.Route("/certificates", func(r chi.Router) {
			r.Post("/check", h.Certificate.CheckCertificate)
			r.Post("/verify", h.Certificate.VerifyCertificate)
			r.Post("/verify-batch", h.Certificate.VerifyBatch)
		})

		if h.Audit != nil {
			r.Route("/verifications", func(r chi.Router) {
				r.Get("/stats", h.Audit.GetStats)
				r.Get("/kid/{kid}/history", h.Audit.GetKidHistory)
			})
		}
	})

	return r
}
