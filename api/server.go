package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Route binds a handler to a method and path
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// NewRouter returns the router serving the raffle API under /v1
func NewRouter(api *APIHandler) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	v1Subrouter := router.PathPrefix("/v1").Subrouter()
	v1Subrouter.Use(loggingMiddleware)

	for _, route := range apiRoutes(api) {
		v1Subrouter.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(route.HandlerFunc)
	}

	return router
}

// NewServer returns an HTTP server initialized with the raffle API handler
func NewServer(api *APIHandler, listenAddress string) *http.Server {
	return &http.Server{
		Addr:         listenAddress,
		Handler:      NewRouter(api),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}
}

func apiRoutes(api *APIHandler) []Route {
	return []Route{
		{Name: "RafflesGet", Method: http.MethodGet, Pattern: "/raffles", HandlerFunc: api.ListRaffles},
		{Name: "RafflesIdGet", Method: http.MethodGet, Pattern: "/raffles/{id}", HandlerFunc: api.GetRaffle},
		{Name: "RafflesIdEntriesPost", Method: http.MethodPost, Pattern: "/raffles/{id}/entries", HandlerFunc: api.Enter},
		{Name: "RafflesIdPlayersGet", Method: http.MethodGet, Pattern: "/raffles/{id}/players", HandlerFunc: api.GetPlayers},
		{Name: "RafflesIdPlayersIndexGet", Method: http.MethodGet, Pattern: "/raffles/{id}/players/{index}", HandlerFunc: api.GetPlayer},
		{Name: "RafflesIdUpkeepGet", Method: http.MethodGet, Pattern: "/raffles/{id}/upkeep", HandlerFunc: api.CheckUpkeep},
		{Name: "RafflesIdUpkeepPost", Method: http.MethodPost, Pattern: "/raffles/{id}/upkeep", HandlerFunc: api.PerformUpkeep},
		{Name: "RafflesIdResetPost", Method: http.MethodPost, Pattern: "/raffles/{id}/reset", HandlerFunc: api.ResetRound},
		{Name: "RafflesIdWinnersGet", Method: http.MethodGet, Pattern: "/raffles/{id}/winners", HandlerFunc: api.GetRecentWinners},
		{Name: "AccountsAddressGet", Method: http.MethodGet, Pattern: "/accounts/{address}", HandlerFunc: api.GetAccount},
		{Name: "AccountsAddressDepositsPost", Method: http.MethodPost, Pattern: "/accounts/{address}/deposits", HandlerFunc: api.Deposit},
		{Name: "MockRequestsIdFulfillPost", Method: http.MethodPost, Pattern: "/mock/requests/{request_id}/fulfill", HandlerFunc: api.FulfillRequest},
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := ""
		if current := mux.CurrentRoute(r); current != nil {
			route = current.GetName()
		}
		log.WithFields(log.Fields{
			"method":   r.Method,
			"url":      r.URL.String(),
			"route":    route,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("Handled API request")
	})
}
