package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/controlroom/internal/assistant"
	"github.com/MarcoPoloResearchLab/controlroom/internal/command"
	"github.com/MarcoPoloResearchLab/controlroom/internal/database"
	"github.com/MarcoPoloResearchLab/controlroom/internal/gateway"
	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	"github.com/gin-gonic/gin"
)

var testNow = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(context.Context, string, string, string) (string, error) {
	s.calls++
	return s.reply, s.err
}

type testServer struct {
	handler   http.Handler
	planner   *planner.Service
	realtime  *RealtimeDispatcher
	completer *stubCompleter
}

type testServerOptions struct {
	disableGateway bool
	sessions       SessionValidator
}

func newTestServer(t *testing.T, options testServerOptions) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "controlroom.db"), database.Options{}, nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	service, err := planner.NewService(planner.ServiceConfig{
		Database:   db,
		Clock:      func() time.Time { return testNow },
		IDProvider: planner.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}

	realtime := NewRealtimeDispatcher()
	completer := &stubCompleter{}
	var gw *gateway.Gateway
	if !options.disableGateway {
		gw = gateway.New(gateway.Config{Completer: completer, Planner: service})
	}
	chat := assistant.New(assistant.Config{Pick: func(int) int { return 0 }})
	terminal := command.NewRouter(command.RouterConfig{
		Mutator:  service,
		Chatter:  chat,
		Executor: gw,
		Notifier: realtime,
		Clock:    func() time.Time { return testNow },
	})

	handler, err := NewHTTPHandler(Dependencies{
		Planner:           service,
		Terminal:          terminal,
		Gateway:           gw,
		Assistant:         chat,
		Sessions:          options.sessions,
		Realtime:          realtime,
		OpenAIConfigured:  !options.disableGateway,
		HeartbeatInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	return &testServer{handler: handler, planner: service, realtime: realtime, completer: completer}
}

func (s *testServer) do(request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

func (s *testServer) postJSON(path, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	return s.do(request)
}

func (s *testServer) postForm(path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	return s.do(request)
}

func (s *testServer) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	return s.do(request)
}

func newJSONRequest(path, body string) *http.Request {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	return request
}
