package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MarcoPoloResearchLab/controlroom/internal/assistant"
	"github.com/MarcoPoloResearchLab/controlroom/internal/command"
	"github.com/MarcoPoloResearchLab/controlroom/internal/gateway"
	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	"github.com/MarcoPoloResearchLab/controlroom/internal/settings"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	messageMissingText     = "Missing text"
	messageTaskNotFound    = "Task not found"
	messageNoEventFound    = "No event found for person"
	messageSystemFailure   = "System failure. Please check logs."
	messageDatabaseHealthy = "Database connection successful."
)

type aiRequestPayload struct {
	Text   string `json:"text"`
	APIKey string `json:"apiKey"`
}

type aiResponsePayload struct {
	OK       bool            `json:"ok"`
	Executed gateway.Command `json:"executed,omitempty"`
	Task     *planner.Task   `json:"task,omitempty"`
	Event    *planner.Event  `json:"event,omitempty"`
	Error    string          `json:"error,omitempty"`
	Code     string          `json:"code,omitempty"`
	Issues   []gateway.Issue `json:"issues,omitempty"`
	Raw      string          `json:"raw,omitempty"`
}

func (h *httpHandler) handleAI(c *gin.Context) {
	var request aiRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Text) == "" {
		c.JSON(http.StatusBadRequest, aiResponsePayload{Error: messageMissingText})
		return
	}

	var (
		result gateway.Result
		err    error
	)
	if h.gateway == nil {
		err = gateway.ErrGatewayDisabled
	} else {
		result, err = h.gateway.Execute(c.Request.Context(), request.Text, strings.TrimSpace(request.APIKey))
	}
	if err != nil {
		status := statusForError(err)
		response := aiResponsePayload{Executed: result.Executed, Error: aiErrorMessage(result, err)}
		var schemaErr *gateway.SchemaError
		if errors.As(err, &schemaErr) {
			response.Issues = schemaErr.Issues
		}
		var replyErr *gateway.ReplyError
		if errors.As(err, &replyErr) {
			response.Raw = replyErr.Raw
		}
		var serviceErr *planner.ServiceError
		if errors.As(err, &serviceErr) {
			response.Code = serviceErr.Code()
		}
		if status >= http.StatusInternalServerError {
			h.logger.Error("ai command failed", zap.Int("status", status), zap.Error(err))
		}
		c.JSON(status, response)
		return
	}

	h.realtime.BoardChanged()
	c.JSON(http.StatusOK, aiResponsePayload{
		OK:       true,
		Executed: result.Executed,
		Task:     result.Task,
		Event:    result.Event,
	})
}

func aiErrorMessage(result gateway.Result, err error) string {
	switch {
	case errors.Is(err, gateway.ErrMissingText):
		return messageMissingText
	case errors.Is(err, planner.ErrNotFound):
		if _, ok := result.Executed.(gateway.RescheduleEvent); ok {
			return messageNoEventFound
		}
		return messageTaskNotFound
	default:
		return command.Describe(err)
	}
}

type chatRequestPayload struct {
	Message string `json:"message"`
	APIKey  string `json:"apiKey"`
	Mode    string `json:"mode"`
}

func (h *httpHandler) handleAIChat(c *gin.Context) {
	var request chatRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, assistant.Reply{OK: false, Message: messageSystemFailure})
		return
	}
	reply := h.assistant.Chat(c.Request.Context(), requestMode(request.Mode), strings.TrimSpace(request.APIKey), request.Message)
	c.JSON(http.StatusOK, reply)
}

type probeRequestPayload struct {
	Mode   string `json:"mode"`
	APIKey string `json:"apiKey"`
}

func (h *httpHandler) handleAIProbe(c *gin.Context) {
	var request probeRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, assistant.Reply{OK: false, Message: messageSystemFailure})
		return
	}
	reply := h.assistant.Probe(c.Request.Context(), requestMode(request.Mode), strings.TrimSpace(request.APIKey))
	c.JSON(http.StatusOK, reply)
}

// requestMode keeps unknown modes intact so the assistant can report them.
func requestMode(raw string) settings.Mode {
	if mode, ok := settings.ParseMode(raw); ok {
		return mode
	}
	return settings.Mode(raw)
}

func (h *httpHandler) handleAPITest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"hasDb":     h.planner != nil,
		"hasOpenAI": h.openAIConfigured,
	})
}

func (h *httpHandler) handleDBTest(c *gin.Context) {
	count, err := h.planner.CountTasks(c.Request.Context())
	if err != nil {
		h.logger.Error("database probe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": count, "message": messageDatabaseHealthy})
}

type terminalRequestPayload struct {
	Text string `json:"text"`
}

type terminalResponsePayload struct {
	Lines []command.Line `json:"lines"`
}

func (h *httpHandler) handleTerminalAPI(c *gin.Context) {
	var request terminalRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	lines := h.terminal.Run(c.Request.Context(), request.Text, h.currentSettings(c))
	if lines == nil {
		lines = []command.Line{}
	}
	c.JSON(http.StatusOK, terminalResponsePayload{Lines: lines})
}
