package api

import (
	"database/sql"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ourlife/backend/config"
	"ourlife/backend/handlers"
	"ourlife/backend/middleware"
	"ourlife/backend/security"
	"ourlife/backend/services"
)

// Server represents the API server
type Server struct {
	router  *mux.Router
	handler *handlers.Handler
	auth    *middleware.Authenticator
	admins  middleware.AdminChecker
	cors    func(http.Handler) http.Handler
}

// NewServer wires the services over db and registers every route. A nil
// verifier runs authentication in development mode.
func NewServer(db *sql.DB, cfg config.Config, cipher *security.Cipher, verifier middleware.TokenVerifier) *Server {
	graph := services.NewAccessGraph(db)
	users := services.NewUserService(db, cipher, graph, cfg.BcryptCost, cfg.DefaultEventColor)

	s := &Server{
		router: mux.NewRouter(),
		handler: handlers.NewHandler(
			users,
			graph,
			services.NewVisibilityResolver(db),
			services.NewLedgerCoordinator(db),
			services.NewBudgetService(db),
			services.NewPeriodService(db, cipher),
		),
		auth:   middleware.NewAuthenticator(verifier),
		admins: users,
		cors:   middleware.CORS(cfg.CORSAllowedOrigins, cfg.IsDevelopment()),
	}

	// Register routes with both direct paths and /api prefix
	apiRouter := s.router.PathPrefix("/api").Subrouter()
	s.RegisterRoutes(apiRouter)
	s.RegisterRoutes(s.router)

	return s
}

// RegisterRoutes registers all API routes on r
func (s *Server) RegisterRoutes(r *mux.Router) {
	h := s.handler

	// Public routes (no auth required)
	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET", "OPTIONS")
	r.HandleFunc("/login", h.Login).Methods("POST", "OPTIONS")

	protected := r.PathPrefix("").Subrouter()
	protected.Use(s.auth.Middleware)

	protected.HandleFunc("/transactions", h.GetTransactions).Methods("GET")
	protected.HandleFunc("/transactions", h.AddTransaction).Methods("POST")
	protected.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods("DELETE")

	protected.HandleFunc("/calendar", h.GetEvents).Methods("GET")
	protected.HandleFunc("/calendar", h.AddEvent).Methods("POST")
	protected.HandleFunc("/calendar/{id}", h.DeleteEvent).Methods("DELETE")

	protected.HandleFunc("/budget", h.GetBudget).Methods("GET")
	protected.HandleFunc("/budget", h.AddBudgetLine).Methods("POST")

	protected.HandleFunc("/period", h.GetPeriods).Methods("GET")
	protected.HandleFunc("/period", h.AddPeriod).Methods("POST")

	protected.HandleFunc("/users/{username}/profile", h.GetProfile).Methods("GET")
	protected.HandleFunc("/users/{username}/profile", h.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/users/{username}/admin", h.GetAdminStatus).Methods("GET")
	protected.HandleFunc("/users/{username}/password", h.ChangePassword).Methods("PUT")

	admin := protected.PathPrefix("").Subrouter()
	admin.Use(middleware.RequireAdmin(s.admins))

	admin.HandleFunc("/access", h.GetAccessGrants).Methods("GET")
	admin.HandleFunc("/access", h.GrantAccess).Methods("POST")
	admin.HandleFunc("/access", h.RevokeAccess).Methods("DELETE")

	admin.HandleFunc("/users", h.GetUsers).Methods("GET")
	admin.HandleFunc("/users", h.AddUser).Methods("POST")
	admin.HandleFunc("/users/{username}", h.DeleteUser).Methods("DELETE")
	admin.HandleFunc("/users/{username}/admin", h.GrantAdmin).Methods("POST")
	admin.HandleFunc("/users/{username}/admin", h.RevokeAdmin).Methods("DELETE")
}

// ServeStatic serves the built frontend from dir and answers every other GET
// with index.html for client-side routing. Call it after the API routes are
// registered.
func (s *Server) ServeStatic(dir string) {
	fs := http.FileServer(http.Dir(dir))
	s.router.PathPrefix("/assets/").Handler(fs)
	s.router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}).Methods("GET")
}

// Handler returns the HTTP handler for the API server. CORS and request
// logging wrap the router so that preflights and unmatched paths pass
// through them too.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(middleware.RequestLogger(s.cors(s.router)), "ourlife-api")
}
