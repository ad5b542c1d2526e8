package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/controlroom/internal/assistant"
	"github.com/MarcoPoloResearchLab/controlroom/internal/auth"
	"github.com/MarcoPoloResearchLab/controlroom/internal/command"
	"github.com/MarcoPoloResearchLab/controlroom/internal/gateway"
	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	"github.com/MarcoPoloResearchLab/controlroom/internal/settings"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const operatorContextKey = "controlroom_operator"

var (
	errMissingPlanner       = errors.New("planner service dependency required")
	errMissingTerminal      = errors.New("command router dependency required")
	errMissingAssistant     = errors.New("assistant dependency required")
	errInvalidAuthorization = errors.New("authorization header or session cookie missing or invalid")
)

// SessionValidator authenticates operator requests. A nil validator disables auth.
type SessionValidator interface {
	ValidateRequest(r *http.Request) (string, error)
	ValidateToken(token string) (string, error)
	CookieName() string
}

type Dependencies struct {
	Planner            *planner.Service
	Terminal           *command.Router
	Gateway            *gateway.Gateway
	Assistant          *assistant.Assistant
	Sessions           SessionValidator
	Realtime           *RealtimeDispatcher
	Logger             *zap.Logger
	AllowedOrigins     []string
	SettingsCookieName string
	OpenAIConfigured   bool
	Location           *time.Location
	HeartbeatInterval  time.Duration
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Planner == nil {
		return nil, errMissingPlanner
	}
	if deps.Terminal == nil {
		return nil, errMissingTerminal
	}
	if deps.Assistant == nil {
		return nil, errMissingAssistant
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	realtime := deps.Realtime
	if realtime == nil {
		realtime = NewRealtimeDispatcher()
	}
	location := deps.Location
	if location == nil {
		location = time.UTC
	}
	cookieName := strings.TrimSpace(deps.SettingsCookieName)
	if cookieName == "" {
		cookieName = settings.CookieName
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	handler := &httpHandler{
		planner:           deps.Planner,
		terminal:          deps.Terminal,
		gateway:           deps.Gateway,
		assistant:         deps.Assistant,
		sessions:          deps.Sessions,
		realtime:          realtime,
		logger:            logger,
		settingsCookie:    cookieName,
		openAIConfigured:  deps.OpenAIConfigured,
		location:          location,
		heartbeatInterval: heartbeat,
	}

	templates, err := parseTemplates(location)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware(deps.AllowedOrigins...))
	router.SetHTMLTemplate(templates)

	router.GET("/api/test", handler.handleAPITest)
	router.GET("/session", handler.handleSession)

	protected := router.Group("/")
	if handler.sessions != nil {
		protected.Use(handler.authorizeRequest)
	}
	protected.GET("/stream", handler.handleStream)

	api := protected.Group("/api")
	api.POST("/ai", handler.handleAI)
	api.POST("/ai/chat", handler.handleAIChat)
	api.POST("/ai/test", handler.handleAIProbe)
	api.GET("/db-test", handler.handleDBTest)
	api.POST("/terminal", handler.handleTerminalAPI)

	handler.registerPages(protected)

	return router, nil
}

type httpHandler struct {
	planner           *planner.Service
	terminal          *command.Router
	gateway           *gateway.Gateway
	assistant         *assistant.Assistant
	sessions          SessionValidator
	realtime          *RealtimeDispatcher
	logger            *zap.Logger
	settingsCookie    string
	openAIConfigured  bool
	location          *time.Location
	heartbeatInterval time.Duration
}

func corsMiddleware(origins ...string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			config.AllowOriginFunc = func(string) bool { return true }
			return cors.New(config)
		}
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}
	// Without configured origins only the dashboard's own host passes.
	config.AllowOriginWithContextFunc = func(c *gin.Context, origin string) bool {
		if _, ok := allowed[origin]; ok {
			return true
		}
		parsed, err := url.Parse(origin)
		return err == nil && parsed.Host == c.Request.Host
	}
	return cors.New(config)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		if c.Request.URL.Path == "/stream" {
			return
		}
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
		)
	}
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	subject, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredSessionToken) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	c.Set(operatorContextKey, subject)
	c.Next()
}

// handleSession exchanges a token query parameter for the session cookie.
func (h *httpHandler) handleSession(c *gin.Context) {
	if h.sessions == nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	if _, err := h.sessions.ValidateToken(token); err != nil {
		h.logger.Warn("session exchange rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.sessions.CookieName(),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.Request.TLS != nil,
	})
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *httpHandler) currentSettings(c *gin.Context) settings.Settings {
	raw, err := c.Cookie(h.settingsCookie)
	if err != nil {
		return settings.Defaults()
	}
	return settings.Decode(raw)
}

// statusForError maps domain and gateway failures to HTTP status codes.
func statusForError(err error) int {
	var schemaErr *gateway.SchemaError
	var providerErr *gateway.ProviderError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, planner.ErrQueueFull):
		return http.StatusConflict
	case errors.Is(err, planner.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, planner.ErrValidation),
		errors.As(err, &schemaErr),
		errors.Is(err, gateway.ErrMalformedReply),
		errors.Is(err, gateway.ErrInvalidDate),
		errors.Is(err, gateway.ErrMissingText):
		return http.StatusBadRequest
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	case errors.Is(err, gateway.ErrGatewayDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
