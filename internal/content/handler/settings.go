package handler

import (
	"errors"
	"maps"
	"net/http"

	"azadi/internal/content/models"
	"azadi/internal/content/store"
	dErrors "azadi/pkg/domain-errors"
	"azadi/pkg/platform/httputil"
	"azadi/pkg/requestcontext"
)

// adminSettings is the settings view for administrators. The password hash
// is never read from or written to the client.
type adminSettings struct {
	ContactPhone string             `json:"contactPhone"`
	AdminUser    string             `json:"adminUser"`
	SocialLinks  models.SocialLinks `json:"socialLinks"`
}

type settingsUpdate struct {
	ContactPhone *string           `json:"contactPhone" validate:"omitempty,max=32"`
	AdminUser    *string           `json:"adminUser" validate:"omitempty,min=3,max=64"`
	SocialLinks  map[string]string `json:"socialLinks" validate:"omitempty,dive,keys,required,endkeys,omitempty,url"`
}

func viewSettings(s models.AppSettings) adminSettings {
	links := s.SocialLinks
	if links == nil {
		links = models.SocialLinks{}
	}
	return adminSettings{ContactPhone: s.ContactPhone, AdminUser: s.AdminUser, SocialLinks: links}
}

func (h *Handler) handlePublicSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	h.writeRead(w, r, s.Public(), err)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	h.writeRead(w, r, viewSettings(s), err)
}

// handleUpdateSettings applies the provided fields over the stored document.
// An empty social link value clears that link.
func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req settingsUpdate
	if !h.decode(w, r, &req) {
		return
	}

	current, err := h.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrDegraded) {
			err = dErrors.Wrap(err, dErrors.CodeUnavailable, "settings are unavailable, try again later")
		}
		h.writeError(w, r, err)
		return
	}

	next := current.Clone()
	if req.ContactPhone != nil {
		next.ContactPhone = *req.ContactPhone
	}
	if req.AdminUser != nil {
		next.AdminUser = *req.AdminUser
	}
	if req.SocialLinks != nil && next.SocialLinks == nil {
		next.SocialLinks = models.SocialLinks{}
	}
	// Cleared links are stored as "" so the per-platform default does not
	// come back on the next merge.
	maps.Copy(next.SocialLinks, req.SocialLinks)

	if err := h.settings.Update(ctx, next); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.InfoContext(ctx, "settings updated", "admin", requestcontext.AdminUser(ctx))
	httputil.WriteJSON(w, http.StatusOK, viewSettings(next))
}
