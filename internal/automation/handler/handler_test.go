package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azadi/internal/automation"
	"azadi/internal/automation/broadcast"
	"azadi/pkg/testutil"
)

type stubEngine struct {
	startErr error
	started  int
	health   automation.SystemHealth
	log      *broadcast.Broadcast
}

func (s *stubEngine) Start(context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started++
	return nil
}

func (s *stubEngine) Health() automation.SystemHealth { return s.health }

func (s *stubEngine) Log() *broadcast.Broadcast { return s.log }

func newRouter(engine Engine) http.Handler {
	h := New(engine, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/automation", h.Register)
	return r
}

func TestRun(t *testing.T) {
	engine := &stubEngine{log: broadcast.New()}
	router := newRouter(engine)

	rec := testutil.DoRequest(router, testutil.WithAdmin(httptest.NewRequest(http.MethodPost, "/automation/run", nil), "admin"))

	testutil.AssertStatus(t, rec, http.StatusAccepted)
	assert.Equal(t, 1, engine.started)
}

func TestRunWhileRunningConflicts(t *testing.T) {
	router := newRouter(&stubEngine{log: broadcast.New(), startErr: automation.ErrAlreadyRunning})

	rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodPost, "/automation/run", nil))

	testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")
	assert.Contains(t, rec.Body.String(), "already in progress")
}

func TestHealth(t *testing.T) {
	router := newRouter(&stubEngine{log: broadcast.New(), health: automation.SystemHealth{
		DatabaseStatus: automation.DatabaseWarning,
		BrokenLinks:    2,
		StorageUsage:   12.5,
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/automation/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"databaseStatus":"warning","brokenLinks":2,"missingTranslations":0,"storageUsage":12.5}`, rec.Body.String())
}

func TestLogsNewestFirst(t *testing.T) {
	log := broadcast.New()
	log.Append(automation.TaskSystem, broadcast.StatusRunning, "first")
	log.Append(automation.TaskSystem, broadcast.StatusSuccess, "second")
	router := newRouter(&stubEngine{log: log})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/automation/logs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []broadcast.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Message)
}

func TestStreamSendsSnapshotThenUpdates(t *testing.T) {
	log := broadcast.New()
	log.Append(automation.TaskSystem, broadcast.StatusRunning, "before connect")
	srv := httptest.NewServer(newRouter(&stubEngine{log: log}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/automation/logs/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	first := nextEvent(t, reader)
	require.Len(t, first, 1)
	assert.Equal(t, "before connect", first[0].Message)

	log.Append(automation.TaskStorage, broadcast.StatusSuccess, "after connect")
	second := nextEvent(t, reader)
	require.Len(t, second, 2)
	assert.Equal(t, "after connect", second[0].Message)
}

func nextEvent(t *testing.T, r *bufio.Reader) []broadcast.Entry {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		data, ok := strings.CutPrefix(strings.TrimRight(line, "\n"), "data: ")
		if !ok {
			continue
		}
		var entries []broadcast.Entry
		require.NoError(t, json.Unmarshal([]byte(data), &entries))
		return entries
	}
}
