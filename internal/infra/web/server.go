package web

import (
	"net/http"

	"wallet-flows/internal/usecase"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the HTTP surface of the flow service: health, metrics, session
// minting after a finished login, and the buy-flow driving endpoints used by
// the mobile shell.
type Server struct {
	flow        *usecase.BuyFlowService
	credentials *usecase.CredentialsFlow
	auth        *AuthManager
	log         *zerolog.Logger
}

func NewServer(
	flow *usecase.BuyFlowService,
	credentials *usecase.CredentialsFlow,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		flow:        flow,
		credentials: credentials,
		auth:        auth,
		log:         logger,
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", s.sessionMintHandler())

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)
			r.Get("/flow", s.flowHistoryHandler())
			r.Post("/flow/start", s.flowStartHandler())
			r.Post("/flow/next", s.flowNextHandler())
			r.Post("/flow/previous", s.flowPreviousHandler())
			r.Get("/credentials", s.credentialsStateHandler())
		})
	})
	return r
}

// sessionMiddleware requires a valid session token minted by this service.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
