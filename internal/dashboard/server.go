package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ssupport/internal/analytics"
	"ssupport/internal/config"
	"ssupport/internal/metrics"
	"ssupport/internal/modules/audit"
	"ssupport/internal/storage"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	sessionName     = "ssupport-session"
	sessionTokenKey = "access_token"
	sessionStateKey = "oauth_state"
)

type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GuildInfo is what the running bot knows about a guild it is in.
type GuildInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	MemberCount int      `json:"member_count"`
	Roles       []Option `json:"roles"`
	Channels    []Option `json:"channels"`
}

type BotStatus struct {
	Status     string `json:"status"`
	GuildCount int    `json:"guild_count"`
	UserCount  int    `json:"user_count"`
	Uptime     string `json:"uptime"`
	Version    string `json:"version"`
}

// Directory exposes the bot's live view of its guilds.
type Directory interface {
	Guild(guildID string) (GuildInfo, bool)
	Status() BotStatus
}

type Server struct {
	cfg       config.DashboardConfig
	store     *storage.Store
	reports   *analytics.Service
	directory Directory
	audit     *audit.Logger
	logger    *zap.Logger
	sessions  *sessions.CookieStore
	oauth     *oauth2.Config
	discord   *discordClient
	limiter   *limiter.Limiter
	router    *mux.Router
}

func New(cfg config.DashboardConfig, store *storage.Store, reports *analytics.Service, directory Directory, auditLogger *audit.Logger, logger *zap.Logger) (*Server, error) {
	if cfg.SessionKey == "" {
		return nil, errors.New("dashboard session key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	apiBase := strings.TrimRight(cfg.DiscordAPIBase, "/")
	oauth := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{"identify", "guilds"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   apiBase + "/oauth2/authorize",
			TokenURL:  apiBase + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	cookies := sessions.NewCookieStore([]byte(cfg.SessionKey))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   strings.HasPrefix(cfg.PublicURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	}

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	ttl := time.Duration(cfg.GuildCacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	s := &Server{
		cfg:       cfg,
		store:     store,
		reports:   reports,
		directory: directory,
		audit:     auditLogger,
		logger:    logger,
		sessions:  cookies,
		oauth:     oauth,
		discord:   newDiscordClient(oauth, apiBase, ttl),
		limiter:   tollbooth.NewLimiter(rps, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour}),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument, s.rateLimit)

	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodGet)
	r.HandleFunc("/callback", s.handleCallback).Methods(http.MethodGet)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/servers", s.authenticated(s.handleServers)).Methods(http.MethodGet)
	api.HandleFunc("/bot/status", s.authenticated(s.handleBotStatus)).Methods(http.MethodGet)

	api.HandleFunc("/server/{id}/data", s.guildRoute(s.handleGuildData)).Methods(http.MethodGet)
	api.HandleFunc("/server/{id}/save", s.guildRoute(s.handleSave)).Methods(http.MethodPost)
	api.HandleFunc("/server/{id}/blacklist", s.guildRoute(s.handleBlacklist)).Methods(http.MethodPost)
	api.HandleFunc("/server/{id}/warned_users", s.guildRoute(s.handleWarnedUsers)).Methods(http.MethodGet)
	api.HandleFunc("/server/{id}/tickets", s.guildRoute(s.handleTickets)).Methods(http.MethodGet)
	api.HandleFunc("/server/{id}/summary", s.guildRoute(s.handleSummary)).Methods(http.MethodGet)

	api.HandleFunc("/warnings/clear/{user_id}", s.guildRoute(s.handleClearWarnings)).Methods(http.MethodPost)
	api.HandleFunc("/warnings/{user_id}", s.guildRoute(s.handleWarnings)).Methods(http.MethodGet)
	api.HandleFunc("/warnings/{user_id}/{warning_id}", s.guildRoute(s.handleDeleteWarning)).Methods(http.MethodDelete)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the dashboard in the background. The caller owns shutdown.
func (s *Server) Start() *http.Server {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 20 * time.Second,
	}
	go func() {
		s.logger.Info("dashboard starting", zap.String("addr", s.cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("dashboard server error", zap.Error(err))
		}
	}()
	return server
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.DashboardRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpError := tollbooth.LimitByRequest(s.limiter, w, r); httpError != nil {
			writeError(w, httpError.StatusCode, httpError.Message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": message})
}
