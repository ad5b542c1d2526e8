package server

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/controlroom/internal/command"
	"github.com/MarcoPoloResearchLab/controlroom/internal/gateway"
	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	"github.com/MarcoPoloResearchLab/controlroom/internal/settings"
	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	displayTimeLayout = "Mon 02 Jan 15:04"
	inputTimeLayout   = "2006-01-02T15:04"
	inputDateLayout   = "2006-01-02"
	eventPageLimit    = 50
	settingsMaxAge    = 365 * 24 * 60 * 60
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// PageData holds the fields every page template reads.
type PageData struct {
	Title    string
	Nav      string
	Error    string
	Settings settings.Settings
}

type controlRoomPage struct {
	PageData
	Overview planner.Overview
	Lines    []command.Line
}

type backlogPage struct {
	PageData
	Captures []planner.Capture
}

type nextActionsPage struct {
	PageData
	Actions     []planner.NextAction
	ActiveCount int64
	Capacity    int
}

type tasksPage struct {
	PageData
	Tasks []planner.Task
}

type eventsPage struct {
	PageData
	Events []planner.Event
}

type peoplePage struct {
	PageData
	People []planner.Person
}

type intelligencePage struct {
	PageData
	Signals   []planner.Signal
	Dossiers  []planner.Dossier
	Brief     planner.DailyBrief
	HasBrief  bool
	BriefHTML template.HTML
}

type settingsPage struct {
	PageData
	Saved bool
}

func parseTemplates(location *time.Location) (*template.Template, error) {
	inLocation := func(value time.Time) time.Time { return value.In(location) }
	funcMap := template.FuncMap{
		"when": func(value time.Time) string {
			return inLocation(value).Format(displayTimeLayout)
		},
		"whenPtr": func(value *time.Time) string {
			if value == nil {
				return ""
			}
			return inLocation(*value).Format(displayTimeLayout)
		},
		"inputTime": func(value time.Time) string {
			if value.IsZero() {
				return ""
			}
			return inLocation(value).Format(inputTimeLayout)
		},
		"inputDate": func(value *time.Time) string {
			if value == nil {
				return ""
			}
			return inLocation(*value).Format(inputDateLayout)
		},
		"deref": func(value *string) string {
			if value == nil {
				return ""
			}
			return *value
		},
		"taskStatuses": func() []planner.TaskStatus {
			return []planner.TaskStatus{planner.TaskBacklog, planner.TaskPlanned, planner.TaskActive, planner.TaskDone, planner.TaskArchived}
		},
		"nextActionStatuses": func() []planner.NextActionStatus {
			return []planner.NextActionStatus{planner.NextActionQueued, planner.NextActionDoing, planner.NextActionDone}
		},
		"eventTypes": func() []planner.EventType {
			return []planner.EventType{planner.EventMeeting, planner.EventCall}
		},
		"categories": func() []planner.Category {
			return []planner.Category{planner.CategoryBusiness, planner.CategoryFriends, planner.CategoryFamily}
		},
		"dossierTypes": func() []planner.DossierType {
			return []planner.DossierType{planner.DossierTopic, planner.DossierPerson, planner.DossierCompany}
		},
	}
	return template.New("pages").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
}

// renderMarkdown converts the brief to HTML. Raw HTML in the source is not passed through.
func renderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}

func (h *httpHandler) registerPages(group *gin.RouterGroup) {
	group.GET("/", h.pageControlRoom)
	group.POST("/terminal", h.submitTerminal)

	group.GET("/backlog", h.pageBacklog)
	group.POST("/backlog", h.formAddCapture)
	group.POST("/backlog/:id/promote", h.formPromoteCapture)
	group.POST("/backlog/:id/convert", h.formConvertCapture)
	group.POST("/backlog/:id/delete", h.formDeleteCapture)

	group.GET("/next-actions", h.pageNextActions)
	group.POST("/next-actions", h.formAddNextAction)
	group.POST("/next-actions/:id/status", h.formNextActionStatus)
	group.POST("/next-actions/:id/toggle", h.formToggleNextAction)
	group.POST("/next-actions/:id/demote", h.formDemoteNextAction)
	group.POST("/next-actions/:id/delete", h.formDeleteNextAction)

	group.GET("/tasks", h.pageTasks)
	group.POST("/tasks", h.formCreateTask)
	group.POST("/tasks/:id", h.formUpdateTask)
	group.POST("/tasks/:id/status", h.formTaskStatus)
	group.POST("/tasks/:id/toggle", h.formToggleTask)
	group.POST("/tasks/:id/delete", h.formDeleteTask)

	group.GET("/events", h.pageEvents)
	group.POST("/events", h.formCreateEvent)
	group.POST("/events/:id", h.formUpdateEvent)
	group.POST("/events/:id/delete", h.formDeleteEvent)

	group.GET("/people", h.pagePeople)
	group.POST("/people", h.formAddPerson)
	group.POST("/people/:id", h.formUpdatePerson)
	group.POST("/people/:id/contacted", h.formContactedPerson)
	group.POST("/people/:id/delete", h.formDeletePerson)

	group.GET("/intelligence", h.pageIntelligence)
	group.POST("/intelligence/signals", h.formAddSignal)
	group.POST("/intelligence/signals/:id/delete", h.formDeleteSignal)
	group.POST("/intelligence/dossiers", h.formAddDossier)
	group.POST("/intelligence/dossiers/:id/delete", h.formDeleteDossier)
	group.POST("/intelligence/brief", h.formSaveBrief)

	group.GET("/settings", h.pageSettings)
	group.POST("/settings", h.formSaveSettings)
}

func (h *httpHandler) pageData(c *gin.Context, title, nav string) PageData {
	return PageData{
		Title:    title,
		Nav:      nav,
		Error:    c.Query("error"),
		Settings: h.currentSettings(c),
	}
}

// renderPage writes a named template, or a plain 500 when loading its data failed.
func (h *httpHandler) renderPage(c *gin.Context, name string, data any, loadErr error) {
	if loadErr != nil {
		h.logger.Error("page load failed", zap.String("page", name), zap.Error(loadErr))
		c.String(http.StatusInternalServerError, messageSystemFailure)
		return
	}
	c.HTML(http.StatusOK, name, data)
}

// mutate runs a form mutation and redirects back, carrying a failure as ?error=.
func (h *httpHandler) mutate(c *gin.Context, fallback string, mutation func(ctx context.Context) error) {
	target := redirectTarget(c.PostForm("redirect"), fallback)
	if err := mutation(c.Request.Context()); err != nil {
		if !planner.IsDomainError(err) {
			h.logger.Error("form mutation failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.Redirect(http.StatusSeeOther, target+"?error="+url.QueryEscape(command.Describe(err)))
		return
	}
	h.realtime.BoardChanged()
	c.Redirect(http.StatusSeeOther, target)
}

// redirectTarget accepts only local absolute paths.
func redirectTarget(requested, fallback string) string {
	requested = strings.TrimSpace(requested)
	if !strings.HasPrefix(requested, "/") || strings.HasPrefix(requested, "//") || strings.ContainsAny(requested, "?#\\") {
		return fallback
	}
	return requested
}

func (h *httpHandler) formTime(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, ok := gateway.ParseISO(raw, h.location)
	if !ok {
		return time.Time{}, &planner.FieldError{Field: field, Message: "is not a valid date"}
	}
	return parsed, nil
}

func (h *httpHandler) formTimePtr(field, raw string) (*time.Time, error) {
	parsed, err := h.formTime(field, raw)
	if err != nil || parsed.IsZero() {
		return nil, err
	}
	return &parsed, nil
}

func formBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

func (h *httpHandler) pageControlRoom(c *gin.Context) {
	overview, err := h.planner.Overview(c.Request.Context())
	h.renderPage(c, "control_room", controlRoomPage{
		PageData: h.pageData(c, "Control Room", "home"),
		Overview: overview,
	}, err)
}

func (h *httpHandler) submitTerminal(c *gin.Context) {
	current := h.currentSettings(c)
	lines := h.terminal.Run(c.Request.Context(), c.PostForm("text"), current)
	overview, err := h.planner.Overview(c.Request.Context())
	h.renderPage(c, "control_room", controlRoomPage{
		PageData: PageData{Title: "Control Room", Nav: "home", Settings: current},
		Overview: overview,
		Lines:    lines,
	}, err)
}

func (h *httpHandler) pageBacklog(c *gin.Context) {
	captures, err := h.planner.ListCaptures(c.Request.Context())
	h.renderPage(c, "backlog", backlogPage{
		PageData: h.pageData(c, "Backlog", "backlog"),
		Captures: captures,
	}, err)
}

func (h *httpHandler) formAddCapture(c *gin.Context) {
	h.mutate(c, "/backlog", func(ctx context.Context) error {
		_, err := h.planner.AddCapture(ctx, c.PostForm("title"))
		return err
	})
}

func (h *httpHandler) formPromoteCapture(c *gin.Context) {
	h.mutate(c, "/backlog", func(ctx context.Context) error {
		_, err := h.planner.PromoteCapture(ctx, c.Param("id"))
		return err
	})
}

func (h *httpHandler) formConvertCapture(c *gin.Context) {
	h.mutate(c, "/backlog", func(ctx context.Context) error {
		_, err := h.planner.ConvertCapture(ctx, c.Param("id"))
		return err
	})
}

func (h *httpHandler) formDeleteCapture(c *gin.Context) {
	h.mutate(c, "/backlog", func(ctx context.Context) error {
		return h.planner.DeleteCapture(ctx, c.Param("id"))
	})
}

func (h *httpHandler) pageNextActions(c *gin.Context) {
	ctx := c.Request.Context()
	actions, err := h.planner.ListNextActions(ctx)
	var active int64
	if err == nil {
		active, err = h.planner.CountActiveNextActions(ctx)
	}
	h.renderPage(c, "next_actions", nextActionsPage{
		PageData:    h.pageData(c, "Next Actions", "next"),
		Actions:     actions,
		ActiveCount: active,
		Capacity:    planner.NextActionCapacity,
	}, err)
}

func (h *httpHandler) formAddNextAction(c *gin.Context) {
	h.mutate(c, "/next-actions", func(ctx context.Context) error {
		_, err := h.planner.AddNextAction(ctx, c.PostForm("title"))
		return err
	})
}

func (h *httpHandler) formNextActionStatus(c *gin.Context) {
	h.mutate(c, "/next-actions", func(ctx context.Context) error {
		status, err := planner.ParseNextActionStatus(c.PostForm("status"))
		if err != nil {
			return err
		}
		_, err = h.planner.SetNextActionStatus(ctx, c.Param("id"), status)
		return err
	})
}

func (h *httpHandler) formToggleNextAction(c *gin.Context) {
	h.mutate(c, "/next-actions", func(ctx context.Context) error {
		_, err := h.planner.ToggleNextAction(ctx, c.Param("id"), formBool(c.PostForm("done")))
		return err
	})
}

func (h *httpHandler) formDemoteNextAction(c *gin.Context) {
	h.mutate(c, "/next-actions", func(ctx context.Context) error {
		_, err := h.planner.DemoteNextAction(ctx, c.Param("id"))
		return err
	})
}

func (h *httpHandler) formDeleteNextAction(c *gin.Context) {
	h.mutate(c, "/next-actions", func(ctx context.Context) error {
		return h.planner.DeleteNextAction(ctx, c.Param("id"))
	})
}

func (h *httpHandler) pageTasks(c *gin.Context) {
	tasks, err := h.planner.ListTasks(c.Request.Context())
	h.renderPage(c, "tasks", tasksPage{
		PageData: h.pageData(c, "Tasks", "tasks"),
		Tasks:    tasks,
	}, err)
}

func (h *httpHandler) formCreateTask(c *gin.Context) {
	h.mutate(c, "/tasks", func(ctx context.Context) error {
		_, err := h.planner.CreateTask(ctx, c.PostForm("title"), planner.TaskStatus(c.PostForm("status")))
		return err
	})
}

func (h *httpHandler) formUpdateTask(c *gin.Context) {
	h.mutate(c, "/tasks", func(ctx context.Context) error {
		title := c.PostForm("title")
		notes := c.PostForm("notes")
		patch := planner.TaskPatch{Title: &title, Notes: &notes}
		if raw := strings.TrimSpace(c.PostForm("priority")); raw != "" {
			priority, err := strconv.Atoi(raw)
			if err != nil {
				return &planner.FieldError{Field: "priority", Message: "must be a whole number"}
			}
			patch.Priority = &priority
		}
		dueAt, err := h.formTimePtr("dueAt", c.PostForm("dueAt"))
		if err != nil {
			return err
		}
		if dueAt == nil {
			patch.ClearDueAt = true
		} else {
			patch.DueAt = dueAt
		}
		_, err = h.planner.UpdateTask(ctx, c.Param("id"), patch)
		return err
	})
}

func (h *httpHandler) formTaskStatus(c *gin.Context) {
	h.mutate(c, "/tasks", func(ctx context.Context) error {
		status, err := planner.ParseTaskStatus(c.PostForm("status"))
		if err != nil {
			return err
		}
		_, err = h.planner.SetTaskStatus(ctx, c.Param("id"), status)
		return err
	})
}

func (h *httpHandler) formToggleTask(c *gin.Context) {
	h.mutate(c, "/tasks", func(ctx context.Context) error {
		_, err := h.planner.ToggleBacklogTask(ctx, c.Param("id"), formBool(c.PostForm("done")))
		return err
	})
}

func (h *httpHandler) formDeleteTask(c *gin.Context) {
	h.mutate(c, "/tasks", func(ctx context.Context) error {
		return h.planner.DeleteTask(ctx, c.Param("id"))
	})
}

func (h *httpHandler) pageEvents(c *gin.Context) {
	events, err := h.planner.ListEvents(c.Request.Context(), eventPageLimit)
	h.renderPage(c, "events", eventsPage{
		PageData: h.pageData(c, "Events", "events"),
		Events:   events,
	}, err)
}

func (h *httpHandler) formCreateEvent(c *gin.Context) {
	h.mutate(c, "/events", func(ctx context.Context) error {
		startAt, err := h.formTime("startAt", c.PostForm("startAt"))
		if err != nil {
			return err
		}
		endAt, err := h.formTime("endAt", c.PostForm("endAt"))
		if err != nil {
			return err
		}
		_, err = h.planner.CreateEvent(ctx, planner.EventInput{
			Type:     planner.EventType(c.PostForm("type")),
			Title:    c.PostForm("title"),
			Person:   c.PostForm("person"),
			Location: c.PostForm("location"),
			StartAt:  startAt,
			EndAt:    endAt,
			Notes:    c.PostForm("notes"),
		})
		return err
	})
}

func (h *httpHandler) formUpdateEvent(c *gin.Context) {
	h.mutate(c, "/events", func(ctx context.Context) error {
		patch := planner.EventPatch{}
		if raw, ok := c.GetPostForm("type"); ok {
			eventType := planner.EventType(raw)
			patch.Type = &eventType
		}
		for field, target := range map[string]**string{
			"title":    &patch.Title,
			"person":   &patch.Person,
			"location": &patch.Location,
			"notes":    &patch.Notes,
		} {
			if raw, ok := c.GetPostForm(field); ok {
				value := raw
				*target = &value
			}
		}
		startAt, err := h.formTimePtr("startAt", c.PostForm("startAt"))
		if err != nil {
			return err
		}
		endAt, err := h.formTimePtr("endAt", c.PostForm("endAt"))
		if err != nil {
			return err
		}
		patch.StartAt = startAt
		patch.EndAt = endAt
		_, err = h.planner.UpdateEvent(ctx, c.Param("id"), patch)
		return err
	})
}

func (h *httpHandler) formDeleteEvent(c *gin.Context) {
	h.mutate(c, "/events", func(ctx context.Context) error {
		return h.planner.DeleteEvent(ctx, c.Param("id"))
	})
}

func (h *httpHandler) pagePeople(c *gin.Context) {
	people, err := h.planner.ListPeople(c.Request.Context())
	h.renderPage(c, "people", peoplePage{
		PageData: h.pageData(c, "People", "people"),
		People:   people,
	}, err)
}

func (h *httpHandler) personInput(c *gin.Context) (planner.PersonInput, error) {
	followUp, err := h.formTimePtr("nextFollowUp", c.PostForm("nextFollowUp"))
	if err != nil {
		return planner.PersonInput{}, err
	}
	lastContact, err := h.formTimePtr("lastContact", c.PostForm("lastContact"))
	if err != nil {
		return planner.PersonInput{}, err
	}
	return planner.PersonInput{
		Name:         c.PostForm("name"),
		Category:     planner.Category(c.PostForm("category")),
		Context:      c.PostForm("context"),
		Notes:        c.PostForm("notes"),
		LastContact:  lastContact,
		NextFollowUp: followUp,
	}, nil
}

func (h *httpHandler) formAddPerson(c *gin.Context) {
	h.mutate(c, "/people", func(ctx context.Context) error {
		input, err := h.personInput(c)
		if err != nil {
			return err
		}
		_, err = h.planner.AddPerson(ctx, input)
		return err
	})
}

func (h *httpHandler) formUpdatePerson(c *gin.Context) {
	h.mutate(c, "/people", func(ctx context.Context) error {
		input, err := h.personInput(c)
		if err != nil {
			return err
		}
		_, err = h.planner.UpdatePerson(ctx, c.Param("id"), input)
		return err
	})
}

func (h *httpHandler) formContactedPerson(c *gin.Context) {
	h.mutate(c, "/people", func(ctx context.Context) error {
		_, err := h.planner.MarkContactedToday(ctx, c.Param("id"))
		return err
	})
}

func (h *httpHandler) formDeletePerson(c *gin.Context) {
	h.mutate(c, "/people", func(ctx context.Context) error {
		return h.planner.DeletePerson(ctx, c.Param("id"))
	})
}

func (h *httpHandler) pageIntelligence(c *gin.Context) {
	ctx := c.Request.Context()
	page := intelligencePage{PageData: h.pageData(c, "Intelligence", "intelligence")}
	var err error
	page.Signals, err = h.planner.ListSignals(ctx)
	if err == nil {
		page.Dossiers, err = h.planner.ListDossiers(ctx)
	}
	if err == nil {
		page.Brief, page.HasBrief, err = h.planner.GetDailyBrief(ctx)
	}
	if page.HasBrief {
		page.BriefHTML = renderMarkdown(page.Brief.Content)
	}
	h.renderPage(c, "intelligence", page, err)
}

func (h *httpHandler) formAddSignal(c *gin.Context) {
	h.mutate(c, "/intelligence", func(ctx context.Context) error {
		_, err := h.planner.AddSignal(ctx, c.PostForm("text"), c.PostForm("source"))
		return err
	})
}

func (h *httpHandler) formDeleteSignal(c *gin.Context) {
	h.mutate(c, "/intelligence", func(ctx context.Context) error {
		return h.planner.DeleteSignal(ctx, c.Param("id"))
	})
}

func (h *httpHandler) formAddDossier(c *gin.Context) {
	h.mutate(c, "/intelligence", func(ctx context.Context) error {
		_, err := h.planner.AddDossier(ctx, c.PostForm("name"), planner.DossierType(c.PostForm("type")), c.PostForm("note"))
		return err
	})
}

func (h *httpHandler) formDeleteDossier(c *gin.Context) {
	h.mutate(c, "/intelligence", func(ctx context.Context) error {
		return h.planner.DeleteDossier(ctx, c.Param("id"))
	})
}

func (h *httpHandler) formSaveBrief(c *gin.Context) {
	h.mutate(c, "/intelligence", func(ctx context.Context) error {
		_, err := h.planner.SaveDailyBrief(ctx, c.PostForm("content"))
		return err
	})
}

func (h *httpHandler) pageSettings(c *gin.Context) {
	h.renderPage(c, "settings", settingsPage{
		PageData: h.pageData(c, "Settings", "settings"),
		Saved:    c.Query("saved") != "",
	}, nil)
}

func (h *httpHandler) formSaveSettings(c *gin.Context) {
	updated := h.currentSettings(c)
	if mode, ok := settings.ParseMode(c.PostForm("mode")); ok {
		updated.AI.Mode = mode
	}
	if provider, ok := settings.ParseProvider(c.PostForm("provider")); ok {
		updated.AI.Provider = provider
	}
	if apiKey, ok := c.GetPostForm("apiKey"); ok {
		updated.AI.APIKey = apiKey
	}
	updated.UI.CompactLayout = formBool(c.PostForm("compactLayout"))
	updated.UI.ReducedMotion = formBool(c.PostForm("reducedMotion"))

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.settingsCookie,
		Value:    settings.Encode(updated),
		Path:     "/",
		MaxAge:   settingsMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.Request.TLS != nil,
	})
	c.Redirect(http.StatusSeeOther, "/settings?saved=1")
}
