package dashboard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ssupport/internal/modules/audit"
	"ssupport/internal/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type ctxKey int

const tokenKey ctxKey = iota

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// requestToken prefers an explicit bearer header over the cookie session.
func (s *Server) requestToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return ""
	}
	token, _ := session.Values[sessionTokenKey].(string)
	return token
}

func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := s.requestToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), tokenKey, token)))
	}
}

// guildRoute authorizes a request against the guild named by the {id} path
// variable or the server_id query parameter.
func (s *Server) guildRoute(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request) {
		guildID := mux.Vars(r)["id"]
		if guildID == "" {
			guildID = r.URL.Query().Get("server_id")
		}
		if guildID == "" {
			writeError(w, http.StatusBadRequest, "Server ID required")
			return
		}
		if !storage.ValidID(guildID) {
			writeError(w, http.StatusBadRequest, "Invalid server ID")
			return
		}
		status, message := s.authorizeGuild(r.Context(), tokenFrom(r.Context()), guildID)
		if status != http.StatusOK {
			writeError(w, status, message)
			return
		}
		next(w, r, guildID)
	})
}

func (s *Server) authorizeGuild(ctx context.Context, token, guildID string) (int, string) {
	guilds, err := s.discord.Guilds(ctx, token)
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized, "Unauthorized"
	}
	if err != nil {
		s.logger.Warn("guild lookup failed", zap.Error(err))
		return http.StatusBadGateway, "Failed to reach Discord"
	}
	for _, guild := range guilds {
		if guild.ID != guildID {
			continue
		}
		if !guild.CanManage() {
			return http.StatusForbidden, "Manage Server permission required"
		}
		if _, ok := s.directory.Guild(guildID); !ok {
			return http.StatusNotFound, "Guild not found"
		}
		return http.StatusOK, ""
	}
	return http.StatusForbidden, "Manage Server permission required"
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	state := uuid.NewString()
	session.Values[sessionStateKey] = state
	if err := session.Save(r, w); err != nil {
		s.logger.Error("session save failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	expected, _ := session.Values[sessionStateKey].(string)
	code := r.URL.Query().Get("code")
	if code == "" || expected == "" || r.URL.Query().Get("state") != expected {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	delete(session.Values, sessionStateKey)

	token, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Warn("oauth exchange failed", zap.Error(err))
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	session.Values[sessionTokenKey] = token.AccessToken
	if err := session.Save(r, w); err != nil {
		s.logger.Error("session save failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	target := s.cfg.PublicURL
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	if token, ok := session.Values[sessionTokenKey].(string); ok {
		s.discord.Forget(token)
	}
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	_ = session.Save(r, w)
	http.Redirect(w, r, "/", http.StatusFound)
}

type serverEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	MemberCount int    `json:"member_count"`
}

func (s *Server) handleServers(w http.ResponseWriter, r *http.Request) {
	guilds, err := s.discord.Guilds(r.Context(), tokenFrom(r.Context()))
	if errors.Is(err, ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		s.logger.Warn("guild lookup failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to reach Discord")
		return
	}
	servers := make([]serverEntry, 0)
	for _, guild := range guilds {
		if !guild.CanManage() {
			continue
		}
		info, ok := s.directory.Guild(guild.ID)
		if !ok {
			continue
		}
		servers = append(servers, serverEntry{ID: guild.ID, Name: info.Name, Icon: guild.Icon, MemberCount: info.MemberCount})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "servers": servers})
}

func (s *Server) handleBotStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.directory.Status())
}

func (s *Server) handleGuildData(w http.ResponseWriter, r *http.Request, guildID string) {
	info, _ := s.directory.Guild(guildID)
	roles, channels := info.Roles, info.Channels
	if roles == nil {
		roles = []Option{}
	}
	if channels == nil {
		channels = []Option{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roles":    roles,
		"channels": channels,
		"saved":    s.store.GuildConfig(guildID),
	})
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

// handleSave overlays the posted settings onto the stored document, so keys
// the form does not send keep their current value.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, guildID string) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	_, err = s.store.UpdateGuildConfig(guildID, func(cfg *storage.GuildConfig) error {
		return json.Unmarshal(body, cfg)
	})
	if err != nil {
		s.logger.Warn("dashboard save failed", zap.String("guild_id", guildID), zap.Error(err))
		writeError(w, http.StatusBadRequest, "Failed to save settings")
		return
	}
	s.audit.Log(r.Context(), audit.LevelInfo, guildID, "", "dashboard_settings_saved", "")
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "success": true})
}

func (s *Server) handleBlacklist(w http.ResponseWriter, r *http.Request, guildID string) {
	var payload struct {
		BlacklistedWords []string `json:"blacklisted_words"`
	}
	body, err := readBody(r)
	if err == nil {
		err = json.Unmarshal(body, &payload)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	cfg, err := s.store.UpdateGuildConfig(guildID, func(cfg *storage.GuildConfig) error {
		cfg.BlacklistedWords = payload.BlacklistedWords
		return nil
	})
	if err != nil {
		s.logger.Warn("dashboard blacklist save failed", zap.String("guild_id", guildID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save blacklist")
		return
	}
	s.audit.Log(r.Context(), audit.LevelInfo, guildID, "", "dashboard_blacklist_saved", strconv.Itoa(len(cfg.BlacklistedWords))+" words")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "blacklisted_words": cfg.BlacklistedWords})
}

func (s *Server) handleWarnedUsers(w http.ResponseWriter, r *http.Request, guildID string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "warned_users": s.store.WarnedUsers(guildID)})
}

// handleTickets lists open tickets, or every ticket with ?status=all.
func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request, guildID string) {
	tickets := s.store.OpenTickets(guildID)
	if r.URL.Query().Get("status") == "all" {
		tickets = s.store.GuildTickets(guildID)
	}
	if tickets == nil {
		tickets = []storage.Ticket{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "tickets": tickets})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, guildID string) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 365 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = parsed
	}
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "summary": s.reports.Report(guildID, since)})
}

func userParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := mux.Vars(r)["user_id"]
	if !storage.ValidID(userID) {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return "", false
	}
	return userID, true
}

func (s *Server) handleWarnings(w http.ResponseWriter, r *http.Request, guildID string) {
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	warnings := s.store.Warnings(guildID, userID)
	if warnings == nil {
		warnings = []storage.WarningRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "warnings": warnings})
}

func (s *Server) handleClearWarnings(w http.ResponseWriter, r *http.Request, guildID string) {
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	cleared, err := s.store.ClearWarnings(guildID, userID)
	if err != nil {
		s.logger.Warn("dashboard clear warnings failed", zap.String("guild_id", guildID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to clear warnings")
		return
	}
	s.audit.Log(r.Context(), audit.LevelInfo, guildID, userID, "warnings_cleared", strconv.Itoa(cleared)+" cleared from dashboard")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "cleared": cleared})
}

func (s *Server) handleDeleteWarning(w http.ResponseWriter, r *http.Request, guildID string) {
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	warningID := mux.Vars(r)["warning_id"]
	err := s.store.RemoveWarning(guildID, userID, warningID)
	if errors.Is(err, storage.ErrWarningNotFound) {
		writeError(w, http.StatusNotFound, "Warning not found")
		return
	}
	if err != nil {
		s.logger.Warn("dashboard remove warning failed", zap.String("guild_id", guildID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to remove warning")
		return
	}
	s.audit.Log(r.Context(), audit.LevelInfo, guildID, userID, "warning_removed", warningID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
