package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"azadi/internal/content/models"
	"azadi/internal/content/service"
	"azadi/internal/content/settings"
	"azadi/internal/content/store"
	"azadi/internal/docstore"
	"azadi/pkg/platform/retry"
	"azadi/pkg/testutil"
)

var errOffline = errors.New("offline")

// offlineClient fails every read while down is set.
type offlineClient struct {
	*docstore.MemoryClient
	down atomic.Bool
}

func (c *offlineClient) Fetch(ctx context.Context, path string) (docstore.Value, error) {
	if c.down.Load() {
		return docstore.Value{}, &docstore.TransportError{Op: docstore.OpFetch, Path: path, Err: errOffline}
	}
	return c.MemoryClient.Fetch(ctx, path)
}

type HandlerSuite struct {
	suite.Suite
	client *offlineClient
	repos  *store.Repositories
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.client = &offlineClient{MemoryClient: docstore.NewMemoryClient()}
	s.repos = store.NewRepositories(s.client,
		store.WithLogger(logger),
		store.WithRetry(retry.Config{MaxRetries: 0, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiplier: 1}),
	)
	now := func() time.Time { return time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC) }
	donations := service.NewDonationService(s.repos.Donations, service.WithClock(now), service.WithLogger(logger))
	dashboard := service.NewDashboardService(service.DashboardSources{
		Donations: s.repos.Donations,
		Expenses:  s.repos.Expenses,
		Leaders:   s.repos.Leaders,
		Members:   s.repos.Members,
		Events:    s.repos.Events,
	}, now)
	cfg := settings.New(s.client, models.AppSettings{
		ContactPhone:  "01700000000",
		AdminUser:     "admin",
		AdminPassHash: "stored-hash",
		SocialLinks:   models.SocialLinks{models.SocialFacebook: "https://facebook.com/azadi", models.SocialYouTube: ""},
	}, settings.WithLogger(logger))

	h := New(s.repos, cfg, donations, dashboard, logger)
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterPublic(r)
		r.Route("/admin", h.RegisterAdmin)
	})
	s.router = r
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](s *HandlerSuite, rec *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *HandlerSuite) saveLeaders(leaders ...models.Leader) {
	for _, l := range leaders {
		s.Require().NoError(s.repos.Leaders.Save(context.Background(), l))
	}
}

func (s *HandlerSuite) TestPublicLeadersAreOrdered() {
	s.saveLeaders(
		models.Leader{ID: "b", Name: models.LocalizedText{EN: "Second"}, Order: 2},
		models.Leader{ID: "a", Name: models.LocalizedText{EN: "First"}, Order: 1},
	)

	rec := s.do(http.MethodGet, "/api/leaders", nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Empty(rec.Header().Get(HeaderDegraded))
	got := decodeBody[[]models.Leader](s, rec)
	s.Require().Len(got, 2)
	s.Equal("a", got[0].ID)
	s.Equal("b", got[1].ID)
}

func (s *HandlerSuite) TestDegradedReadServesSeedWithHeader() {
	s.client.down.Store(true)

	rec := s.do(http.MethodGet, "/api/events", nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("events", rec.Header().Get(HeaderDegraded))
	s.Len(decodeBody[[]models.Event](s, rec), len(store.SeedEvents()))
}

func (s *HandlerSuite) TestCreateAssignsIDAndAppendsOrder() {
	s.saveLeaders(models.Leader{ID: "a", Order: 4})

	rec := s.do(http.MethodPost, "/api/admin/leaders", models.Leader{Name: models.LocalizedText{EN: "New"}})

	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[models.Leader](s, rec)
	s.NotEmpty(created.ID)
	s.Equal(5, created.Order)

	stored, err := s.repos.Leaders.Get(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Equal("New", stored.Name.EN)
}

func (s *HandlerSuite) TestSaveRejectsMismatchedID() {
	rec := s.do(http.MethodPut, "/api/admin/expenses/e1", models.Expense{ID: "other", Title: "Rent", Date: "2024-03-01"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSaveValidatesRecord() {
	rec := s.do(http.MethodPut, "/api/admin/gallery/g1", models.GalleryItem{Category: "events"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "ImageURL")
}

func (s *HandlerSuite) TestSaveRejectsReservedCharactersInID() {
	rec := s.do(http.MethodPut, "/api/admin/expenses/a$b", models.Expense{Title: "Rent", Date: "2024-03-01"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSaveAndDeleteExpense() {
	rec := s.do(http.MethodPut, "/api/admin/expenses/e1", models.Expense{Title: "Rent", Amount: 300, Date: "2024-03-01"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/admin/expenses/e1", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(int64(300), decodeBody[models.Expense](s, rec).Amount)

	rec = s.do(http.MethodDelete, "/api/admin/expenses/e1", nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/expenses/e1", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestDonationsCannotBeWrittenDirectly() {
	rec := s.do(http.MethodPost, "/api/admin/donations", models.Donation{Amount: 10})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestUnknownCollection() {
	rec := s.do(http.MethodGet, "/api/admin/volunteers", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestReorderLeaders() {
	s.saveLeaders(models.Leader{ID: "a", Order: 1}, models.Leader{ID: "b", Order: 2})

	rec := s.do(http.MethodPost, "/api/admin/leaders/reorder", reorderRequest{IDs: []string{"b", "a"}})
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())

	got, err := store.ListOrdered(context.Background(), s.repos.Leaders)
	s.Require().NoError(err)
	s.Equal("b", got[0].ID)
	s.Equal(1, got[0].Order)

	rec = s.do(http.MethodPost, "/api/admin/leaders/reorder", reorderRequest{IDs: []string{"a"}})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/events/reorder", reorderRequest{IDs: []string{"a"}})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestDonationLifecycle() {
	rec := s.do(http.MethodPost, "/api/donations", service.SubmitDonation{
		DonorName: "Rahim", Mobile: "01711111111", Amount: 500, Method: models.MethodBkash, TrxID: "TX1",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	d := decodeBody[models.Donation](s, rec)
	s.Equal(models.DonationPending, d.Status)

	rec = s.do(http.MethodGet, "/api/admin/donations?status=pending", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decodeBody[[]models.Donation](s, rec), 1)

	rec = s.do(http.MethodPatch, "/api/admin/donations/"+d.ID+"/status", reviewRequest{Status: models.DonationApproved})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPatch, "/api/admin/donations/"+d.ID+"/status", reviewRequest{Status: models.DonationRejected})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/donations/summary", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	summary := decodeBody[service.DonationSummary](s, rec)
	s.Equal(int64(500), summary.MonthTotal)
	s.Require().Len(summary.Recent, 1)
	s.Equal("Rahim", summary.Recent[0].DonorName)
}

func (s *HandlerSuite) TestReviewRejectsPendingStatus() {
	rec := s.do(http.MethodPatch, "/api/admin/donations/x/status", reviewRequest{Status: models.DonationPending})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestListDonationsRejectsUnknownStatus() {
	rec := s.do(http.MethodGet, "/api/admin/donations?status=lost", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestPublicSettingsHideEmptyLinks() {
	rec := s.do(http.MethodGet, "/api/settings/public", nil)

	s.Require().Equal(http.StatusOK, rec.Code)
	got := decodeBody[models.PublicSettings](s, rec)
	s.Equal("01700000000", got.ContactPhone)
	s.Equal(models.SocialLinks{models.SocialFacebook: "https://facebook.com/azadi"}, got.SocialLinks)
	s.NotContains(rec.Body.String(), "adminPassHash")
}

func (s *HandlerSuite) TestUpdateSettingsKeepsPasswordHash() {
	phone := "01800000000"
	rec := s.do(http.MethodPut, "/api/admin/settings", map[string]any{
		"contactPhone":  phone,
		"adminPassHash": "attacker",
		"socialLinks":   map[string]string{models.SocialYouTube: "https://youtube.com/azadi", models.SocialFacebook: ""},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.NotContains(rec.Body.String(), "adminPassHash")

	rec = s.do(http.MethodGet, "/api/admin/settings", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	got := decodeBody[adminSettings](s, rec)
	s.Equal(phone, got.ContactPhone)
	s.Equal("admin", got.AdminUser)
	s.Equal(models.SocialLinks{models.SocialYouTube: "https://youtube.com/azadi", models.SocialFacebook: ""}, got.SocialLinks)

	raw, err := s.client.MemoryClient.Fetch(context.Background(), models.SettingsPath)
	s.Require().NoError(err)
	var stored models.AppSettings
	s.Require().NoError(json.Unmarshal(raw.Raw(), &stored))
	s.Equal("stored-hash", stored.AdminPassHash)
	s.Require().Contains(stored.SocialLinks, models.SocialFacebook)
	s.Empty(stored.SocialLinks[models.SocialFacebook])

	rec = s.do(http.MethodGet, "/api/settings/public", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(models.SocialLinks{models.SocialYouTube: "https://youtube.com/azadi"}, decodeBody[models.PublicSettings](s, rec).SocialLinks)
}

func (s *HandlerSuite) TestUpdateSettingsRefusedWhileDegraded() {
	s.client.down.Store(true)
	rec := s.do(http.MethodPut, "/api/admin/settings", map[string]any{"contactPhone": "1"})
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *HandlerSuite) TestDashboardReportsDegradedCollections() {
	s.client.down.Store(true)

	rec := s.do(http.MethodGet, "/api/admin/dashboard", nil)

	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get(HeaderDegraded))
	s.Contains(decodeBody[service.Dashboard](s, rec).Degraded, "events")
}

func TestSubmitDonationDatesByRequestTime(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := store.NewRepositories(docstore.NewMemoryClient(), store.WithLogger(logger))
	donations := service.NewDonationService(repos.Donations)
	h := New(repos, settings.New(docstore.NewMemoryClient(), models.AppSettings{}), donations,
		service.NewDashboardService(service.DashboardSources{}, nil), logger)
	r := chi.NewRouter()
	h.RegisterPublic(r)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/donations", service.SubmitDonation{
		IsAnonymous: true, Mobile: "01711111111", Amount: 100, Method: models.MethodCash,
	})
	rec := testutil.DoRequest(r, testutil.WithRequestTime(req, time.Date(2023, time.December, 31, 23, 0, 0, 0, time.UTC)))

	testutil.AssertStatus(t, rec, http.StatusCreated)
	d := testutil.UnmarshalResponse[models.Donation](t, rec)
	assert.Equal(t, "2023-12-31", d.Date)
}
