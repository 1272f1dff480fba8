package wire

import (
	"net/http"

	"ticket-broker/internal/adaptor"
	"ticket-broker/internal/data/repository"
	"ticket-broker/internal/usecase"
	"ticket-broker/pkg/middleware"
	"ticket-broker/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type App struct {
	Router *chi.Mux
}

// Wiring connects repositories, services and handlers into a router.
func Wiring(repo *repository.Repository, mailer usecase.Mailer, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, mailer, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wireShow(r, handler.Show, config, logger)
	wireBooking(r, handler.Booking, handler.Ticket, config, logger)
	wireTicket(r, handler.Ticket, config, logger)
	wireSettings(r, handler.Settings, config, logger)
	wireAudit(r, handler.Audit, config, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
