package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	"github.com/MarcoPoloResearchLab/controlroom/internal/settings"
)

func TestPagesRender(t *testing.T) {
	server := newTestServer(t, testServerOptions{})
	paths := []string{"/", "/backlog", "/next-actions", "/tasks", "/events", "/people", "/intelligence", "/settings"}

	for _, path := range paths {
		recorder := server.get(path)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d: %s", path, recorder.Code, recorder.Body.String())
		}
		if !strings.Contains(recorder.Header().Get("Content-Type"), "text/html") {
			t.Fatalf("expected html for %s, got %q", path, recorder.Header().Get("Content-Type"))
		}
	}
}

func TestControlRoomShowsQueueAtCapacity(t *testing.T) {
	server := newTestServer(t, testServerOptions{})
	ctx := context.Background()
	for index := 0; index < planner.NextActionCapacity; index++ {
		if _, err := server.planner.AddNextAction(ctx, fmt.Sprintf("action %d", index)); err != nil {
			t.Fatalf("failed to seed action: %v", err)
		}
	}

	body := server.get("/").Body.String()
	if !strings.Contains(body, "10/10") {
		t.Fatalf("expected capacity counter in body")
	}
	if !strings.Contains(body, "Queue is full") {
		t.Fatalf("expected capacity alert in body")
	}
}

func TestFormAddCaptureRedirectsBack(t *testing.T) {
	server := newTestServer(t, testServerOptions{})

	recorder := server.postForm("/backlog", url.Values{"title": {"call the bank"}})
	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/backlog" {
		t.Fatalf("unexpected redirect %q", location)
	}
	captures, err := server.planner.ListCaptures(context.Background())
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(captures) != 1 || captures[0].Title != "call the bank" {
		t.Fatalf("unexpected captures %+v", captures)
	}
}

func TestFormFailureCarriesErrorInRedirect(t *testing.T) {
	server := newTestServer(t, testServerOptions{})

	recorder := server.postForm("/backlog", url.Values{"title": {"   "}})
	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", recorder.Code)
	}
	location, err := url.Parse(recorder.Header().Get("Location"))
	if err != nil {
		t.Fatalf("unexpected location: %v", err)
	}
	if location.Path != "/backlog" || !strings.HasPrefix(location.Query().Get("error"), "Invalid input") {
		t.Fatalf("unexpected redirect %s", location)
	}

	page := server.get(location.String()).Body.String()
	if !strings.Contains(page, "Invalid input") {
		t.Fatalf("expected flash message on the redirected page")
	}
}

func TestFormPromoteAtCapacityReportsFullQueue(t *testing.T) {
	server := newTestServer(t, testServerOptions{})
	ctx := context.Background()
	for index := 0; index < planner.NextActionCapacity; index++ {
		if _, err := server.planner.AddNextAction(ctx, fmt.Sprintf("action %d", index)); err != nil {
			t.Fatalf("failed to seed action: %v", err)
		}
	}
	capture, err := server.planner.AddCapture(ctx, "overflow")
	if err != nil {
		t.Fatalf("unexpected capture error: %v", err)
	}

	recorder := server.postForm("/backlog/"+capture.ID+"/promote", url.Values{})
	location, err := url.Parse(recorder.Header().Get("Location"))
	if err != nil {
		t.Fatalf("unexpected location: %v", err)
	}
	if !strings.Contains(location.Query().Get("error"), "full") {
		t.Fatalf("expected queue full message, got %q", location.Query().Get("error"))
	}
	captures, err := server.planner.ListCaptures(ctx)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(captures) != 1 {
		t.Fatalf("expected capture to stay in the backlog")
	}
}

func TestFormCompleteFromControlRoomReturnsHome(t *testing.T) {
	server := newTestServer(t, testServerOptions{})
	action, err := server.planner.AddNextAction(context.Background(), "ship build")
	if err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}

	recorder := server.postForm("/next-actions/"+action.ID+"/toggle", url.Values{"done": {"true"}, "redirect": {"/"}})
	if location := recorder.Header().Get("Location"); location != "/" {
		t.Fatalf("expected redirect home, got %q", location)
	}
	actions, err := server.planner.ListNextActions(context.Background())
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if !actions[0].Done || actions[0].Status != planner.NextActionDone {
		t.Fatalf("expected action to be done, got %+v", actions[0])
	}
}

func TestFormCreateEventReadsLocalTime(t *testing.T) {
	server := newTestServer(t, testServerOptions{})

	recorder := server.postForm("/events", url.Values{
		"type":    {"CALL"},
		"title":   {"Sync"},
		"person":  {"Sam"},
		"startAt": {"2024-01-02T09:30"},
	})
	if location := recorder.Header().Get("Location"); location != "/events" {
		t.Fatalf("unexpected redirect %q", location)
	}
	events, err := server.planner.ListEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].StartAt.Hour() != 9 || events[0].Duration() != planner.DefaultEventDuration {
		t.Fatalf("unexpected event %+v", events[0])
	}
}

func TestSubmitTerminalRendersLines(t *testing.T) {
	server := newTestServer(t, testServerOptions{})

	recorder := server.postForm("/terminal", url.Values{"text": {"add backlog: buy milk"}})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Captured to Backlog: buy milk") {
		t.Fatalf("expected terminal output in page")
	}
}

func TestSaveSettingsWritesCookie(t *testing.T) {
	server := newTestServer(t, testServerOptions{})

	recorder := server.postForm("/settings", url.Values{
		"mode":          {"byok"},
		"provider":      {"openai"},
		"apiKey":        {" sk-test "},
		"compactLayout": {"on"},
	})
	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", recorder.Code)
	}
	var saved *http.Cookie
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == settings.CookieName {
			saved = cookie
		}
	}
	if saved == nil {
		t.Fatalf("expected settings cookie to be set")
	}
	decoded := settings.Decode(saved.Value)
	if decoded.AI.Mode != settings.ModeBYOK || decoded.AI.Provider != settings.ProviderOpenAI || decoded.AI.APIKey != "sk-test" {
		t.Fatalf("unexpected saved settings %+v", decoded)
	}
	if !decoded.UI.CompactLayout || decoded.UI.ReducedMotion {
		t.Fatalf("unexpected ui settings %+v", decoded.UI)
	}

	page := server.get("/settings", saved).Body.String()
	if !strings.Contains(page, `value="BYOK" selected`) {
		t.Fatalf("expected BYOK to be selected on reload")
	}
}

func TestIntelligenceRendersBriefMarkdown(t *testing.T) {
	server := newTestServer(t, testServerOptions{})

	server.postForm("/intelligence/brief", url.Values{"content": {"**Focus** on <script>alert(1)</script> shipping"}})

	body := server.get("/intelligence").Body.String()
	if !strings.Contains(body, "<strong>Focus</strong>") {
		t.Fatalf("expected rendered markdown in page")
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Fatalf("expected raw html in the brief to be dropped")
	}
}

func TestRedirectTarget(t *testing.T) {
	testCases := []struct {
		requested string
		want      string
	}{
		{requested: "/", want: "/"},
		{requested: "/tasks", want: "/tasks"},
		{requested: "", want: "/backlog"},
		{requested: "https://example.com", want: "/backlog"},
		{requested: "//example.com", want: "/backlog"},
		{requested: "/tasks?error=x", want: "/backlog"},
	}
	for _, testCase := range testCases {
		if got := redirectTarget(testCase.requested, "/backlog"); got != testCase.want {
			t.Fatalf("redirectTarget(%q) = %q, want %q", testCase.requested, got, testCase.want)
		}
	}
}
