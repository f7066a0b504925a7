package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/metrics"
	authsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/auth"
	discoverysvc "github.com/neopath7/pethoria-matchpage-server/internal/services/discovery"
	geosvc "github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
	matchessvc "github.com/neopath7/pethoria-matchpage-server/internal/services/matches"
	searchsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/search"
	swipesvc "github.com/neopath7/pethoria-matchpage-server/internal/services/swipes"
	"github.com/neopath7/pethoria-matchpage-server/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService      *authsvc.Service
	DiscoveryService *discoverysvc.Service
	GeoService       *geosvc.Service
	MatchService     *matchessvc.Service
	SearchService    *searchsvc.Service
	SwipeService     *swipesvc.Service
	Store            handlers.Pinger
	Metrics          *metrics.Recorder
	Logger           *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Logger)
	discoverHandler := handlers.NewDiscoverHandler(deps.DiscoveryService, deps.Logger)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService, deps.Logger)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService, deps.Logger)
	searchHandler := handlers.NewSearchHandler(deps.SearchService, deps.Logger)
	locationHandler := handlers.NewLocationHandler(deps.GeoService, deps.Logger)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Handle)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/discover", discoverHandler.Handle)
		r.Post("/swipes", swipeHandler.Handle)
		r.Get("/swipes/limit", swipeHandler.Limit)
		r.Get("/matches", matchesHandler.Handle)
		r.Post("/unmatch", matchesHandler.Unmatch)
		r.Post("/search", searchHandler.Handle)
		r.Post("/location", locationHandler.Handle)
	})
}
