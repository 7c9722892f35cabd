// Package handler exposes the content collections, settings and donation
// workflow over JSON.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"azadi/internal/content/models"
	"azadi/internal/content/service"
	"azadi/internal/content/store"
	"azadi/internal/docstore"
	dErrors "azadi/pkg/domain-errors"
	"azadi/pkg/platform/httputil"
	"azadi/pkg/requestcontext"
)

// HeaderDegraded names collections served from seed data because the store
// could not be reached.
const HeaderDegraded = "X-Degraded-Collections"

type DonationService interface {
	Submit(ctx context.Context, in service.SubmitDonation) (models.Donation, error)
	List(ctx context.Context, status models.DonationStatus) ([]models.Donation, error)
	Review(ctx context.Context, id string, status models.DonationStatus) (models.Donation, error)
	Summary(ctx context.Context) (service.DonationSummary, error)
}

type SettingsService interface {
	Get(ctx context.Context) (models.AppSettings, error)
	Update(ctx context.Context, settings models.AppSettings) error
}

type DashboardService interface {
	Summary(ctx context.Context) (service.Dashboard, error)
}

type Handler struct {
	repos     *store.Repositories
	resources map[models.Collection]resource
	settings  SettingsService
	donations DonationService
	dashboard DashboardService
	validate  *validator.Validate
	logger    *slog.Logger
}

func New(
	repos *store.Repositories,
	settings SettingsService,
	donations DonationService,
	dashboard DashboardService,
	logger *slog.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &Handler{
		repos: repos,
		resources: map[models.Collection]resource{
			models.CollectionLeaders: &collectionResource[models.Leader, *models.Leader]{
				coll: repos.Leaders, validate: v,
				sort:     store.SortByOrder[models.Leader],
				onCreate: appendOrder[models.Leader](repos.Leaders),
			},
			models.CollectionMembers: &collectionResource[models.Member, *models.Member]{
				coll: repos.Members, validate: v,
				sort:     store.SortByOrder[models.Member],
				onCreate: appendOrder[models.Member](repos.Members),
			},
			models.CollectionEvents:    &collectionResource[models.Event, *models.Event]{coll: repos.Events, validate: v},
			models.CollectionGallery:   &collectionResource[models.GalleryItem, *models.GalleryItem]{coll: repos.Gallery, validate: v},
			models.CollectionExpenses:  &collectionResource[models.Expense, *models.Expense]{coll: repos.Expenses, validate: v},
			models.CollectionDonations: &collectionResource[models.Donation, *models.Donation]{coll: repos.Donations, validate: v, readOnly: true},
		},
		settings:  settings,
		donations: donations,
		dashboard: dashboard,
		validate:  v,
		logger:    logger,
	}
}

// RegisterPublic mounts the visitor routes. submit wraps the donation form.
func (h *Handler) RegisterPublic(r chi.Router, submit ...func(http.Handler) http.Handler) {
	for _, c := range []models.Collection{models.CollectionLeaders, models.CollectionMembers, models.CollectionEvents, models.CollectionGallery} {
		r.Get("/"+string(c), h.handlePublicList(c))
	}
	r.Get("/settings/public", h.handlePublicSettings)
	r.With(submit...).Post("/donations", h.handleSubmitDonation)
	r.Get("/donations/summary", h.handleDonationSummary)
}

// RegisterAdmin mounts the routes behind admin authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/settings", h.handleGetSettings)
	r.Put("/settings", h.handleUpdateSettings)
	r.Get("/donations", h.handleListDonations)
	r.Patch("/donations/{id}/status", h.handleReviewDonation)
	r.Post("/{collection}/reorder", h.handleReorder)
	r.Get("/{collection}", h.handleList)
	r.Post("/{collection}", h.handleCreate)
	r.Get("/{collection}/{id}", h.handleGet)
	r.Put("/{collection}/{id}", h.handleSave)
	r.Delete("/{collection}/{id}", h.handleDelete)
}

func (h *Handler) resource(w http.ResponseWriter, r *http.Request) (resource, bool) {
	name := models.Collection(chi.URLParam(r, "collection"))
	res, ok := h.resources[name]
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown collection %q", name)))
		return nil, false
	}
	return res, true
}

func (h *Handler) handlePublicList(name models.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.resources[name].list(r.Context())
		h.writeRead(w, r, items, err)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	items, err := res.list(r.Context())
	h.writeRead(w, r, items, err)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	rec, err := res.get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	res, ok := h.writableResource(w, r)
	if !ok {
		return
	}
	rec, err := res.create(r.Context(), r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	res, ok := h.writableResource(w, r)
	if !ok {
		return
	}
	rec, err := res.save(r.Context(), chi.URLParam(r, "id"), r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	if err := res.remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writableResource(w http.ResponseWriter, r *http.Request) (resource, bool) {
	res, ok := h.resource(w, r)
	if !ok {
		return nil, false
	}
	if !res.writable() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "records in this collection cannot be written directly"))
		return nil, false
	}
	return res, true
}

type reorderRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

func (h *Handler) handleReorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req reorderRequest
	if !h.decode(w, r, &req) {
		return
	}

	var err error
	switch models.Collection(chi.URLParam(r, "collection")) {
	case models.CollectionLeaders:
		err = store.Reorder[models.Leader](ctx, h.repos.Leaders, req.IDs)
	case models.CollectionMembers:
		err = store.Reorder[models.Member](ctx, h.repos.Members, req.IDs)
	default:
		err = dErrors.New(dErrors.CodeNotFound, "only leaders and members can be reordered")
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmitDonation(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitDonation
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.donations.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleDonationSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.donations.Summary(r.Context())
	h.writeRead(w, r, summary, err)
}

func (h *Handler) handleListDonations(w http.ResponseWriter, r *http.Request) {
	status := models.DonationStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.DonationPending, models.DonationApproved, models.DonationRejected:
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "status must be pending, approved or rejected"))
		return
	}
	items, err := h.donations.List(r.Context(), status)
	h.writeRead(w, r, items, err)
}

type reviewRequest struct {
	Status models.DonationStatus `json:"status" validate:"required,oneof=approved rejected"`
}

func (h *Handler) handleReviewDonation(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.donations.Review(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.dashboard.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(dash.Degraded) > 0 {
		w.Header().Set(HeaderDegraded, strings.Join(dash.Degraded, ","))
	}
	httputil.WriteJSON(w, http.StatusOK, dash)
}

// decode reads and validates a request body, writing the error response
// itself when it fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		httputil.WriteError(w, err)
		return false
	}
	if err := h.validate.StructCtx(r.Context(), dst); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, validationMessage(err)))
		return false
	}
	return true
}

// writeRead answers a read. Degraded reads still return their seed data
// with the collection named in HeaderDegraded.
func (h *Handler) writeRead(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		var de *store.DegradedError
		if !errors.As(err, &de) {
			h.writeError(w, r, err)
			return
		}
		w.Header().Set(HeaderDegraded, de.Collection)
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, docstore.ErrInvalidPath) || errors.Is(err, store.ErrMissingID) {
		err = dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid record id")
	}
	switch code := dErrors.CodeOf(err); code {
	case dErrors.CodeInternal, dErrors.CodeUnavailable:
		ctx := r.Context()
		h.logger.ErrorContext(ctx, "content request failed",
			"code", string(code),
			"error", err,
			"admin", requestcontext.AdminUser(ctx),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}
