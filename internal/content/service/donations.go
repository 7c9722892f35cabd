package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"azadi/internal/content/models"
	"azadi/internal/content/store"
	dErrors "azadi/pkg/domain-errors"
	"azadi/pkg/platform/sentinel"
	"azadi/pkg/requestcontext"
)

const recentDonationsLimit = 10

type DonationService struct {
	store    DonationStore
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
	validate *validator.Validate
}

type DonationOption func(*DonationService)

func WithClock(now func() time.Time) DonationOption {
	return func(s *DonationService) {
		s.now = now
	}
}

func WithIDGenerator(fn func() string) DonationOption {
	return func(s *DonationService) {
		s.newID = fn
	}
}

func WithLogger(logger *slog.Logger) DonationOption {
	return func(s *DonationService) {
		s.logger = logger
	}
}

func NewDonationService(donations DonationStore, opts ...DonationOption) *DonationService {
	s := &DonationService{
		store:    donations,
		newID:    NewID,
		logger:   slog.Default(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitDonation is a public donation form.
type SubmitDonation struct {
	DonorName   string               `json:"donorName" validate:"required_if=IsAnonymous false,max=120"`
	Mobile      string               `json:"mobile" validate:"required,min=6,max=20"`
	Amount      int64                `json:"amount" validate:"gte=0"`
	Method      models.PaymentMethod `json:"method" validate:"required,oneof=Bkash Nagad Cash"`
	TrxID       string               `json:"trxId" validate:"max=64"`
	Note        string               `json:"note" validate:"max=500"`
	IsAnonymous bool                 `json:"isAnonymous"`
}

// Submit records a new pending donation.
func (s *DonationService) Submit(ctx context.Context, in SubmitDonation) (models.Donation, error) {
	in.DonorName = strings.TrimSpace(in.DonorName)
	in.TrxID = strings.TrimSpace(in.TrxID)
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return models.Donation{}, dErrors.Wrap(err, dErrors.CodeValidation, validationMessage(err))
	}
	if in.Method.RequiresReference() && in.TrxID == "" {
		return models.Donation{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("transaction id is required for %s", in.Method))
	}

	d := models.Donation{
		ID:          s.newID(),
		DonorName:   in.DonorName,
		Mobile:      in.Mobile,
		Amount:      in.Amount,
		Method:      in.Method,
		TrxID:       in.TrxID,
		Note:        in.Note,
		IsAnonymous: in.IsAnonymous,
		Date:        s.clock(ctx).Format(dateLayout),
		Status:      models.DonationPending,
	}
	if err := s.store.Save(ctx, d); err != nil {
		return models.Donation{}, fmt.Errorf("save donation: %w", err)
	}
	s.logger.InfoContext(ctx, "donation submitted",
		"donation_id", d.ID,
		"amount", d.Amount,
		"method", string(d.Method),
	)
	return d, nil
}

// List returns donations newest first, optionally filtered by status. A
// degraded read is returned with its error.
func (s *DonationService) List(ctx context.Context, status models.DonationStatus) ([]models.Donation, error) {
	all, err := s.store.List(ctx)
	out := all[:0:0]
	for _, d := range all {
		if status == "" || d.Status == status {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Donation) int {
		if c := cmp.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, err
}

// Review approves or rejects a pending donation. Each donation is reviewed
// exactly once; only the status field is written.
func (s *DonationService) Review(ctx context.Context, id string, status models.DonationStatus) (models.Donation, error) {
	if !status.IsFinal() {
		return models.Donation{}, dErrors.New(dErrors.CodeValidation, "status must be approved or rejected")
	}

	all, err := s.store.List(ctx)
	if err != nil {
		return models.Donation{}, err
	}
	idx := slices.IndexFunc(all, func(d models.Donation) bool { return d.ID == id })
	if idx < 0 {
		return models.Donation{}, fmt.Errorf("donation %q: %w", id, sentinel.ErrNotFound)
	}
	d := all[idx]
	if !d.CanTransitionTo(status) {
		return models.Donation{}, fmt.Errorf("donation %q is already %s: %w", id, d.Status, sentinel.ErrInvalidState)
	}

	if err := s.store.Patch(ctx, id, map[string]any{"status": status}); err != nil {
		return models.Donation{}, fmt.Errorf("update donation status: %w", err)
	}
	d.Status = status
	s.logger.InfoContext(ctx, "donation reviewed", "donation_id", id, "status", string(status))
	return d, nil
}

func (s *DonationService) Delete(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	return nil
}

// PublicDonation is an approved donation as shown to visitors.
type PublicDonation struct {
	DonorName string               `json:"donorName"`
	Amount    int64                `json:"amount"`
	Method    models.PaymentMethod `json:"method"`
	Date      string               `json:"date"`
}

type DonationSummary struct {
	MonthTotal int64            `json:"monthTotal"`
	YearTotal  int64            `json:"yearTotal"`
	Recent     []PublicDonation `json:"recent"`
}

const anonymousDonor = "Anonymous"

// Summary totals approved donations for the current month and year and
// lists the most recent ones with donor details redacted.
func (s *DonationService) Summary(ctx context.Context) (DonationSummary, error) {
	approved, err := s.List(ctx, models.DonationApproved)
	if err != nil && !errors.Is(err, store.ErrDegraded) {
		return DonationSummary{}, err
	}

	now := s.clock(ctx)
	summary := DonationSummary{Recent: []PublicDonation{}}
	for _, d := range approved {
		if t, ok := parseDate(d.Date); ok && t.Year() == now.Year() {
			summary.YearTotal += d.Amount
			if t.Month() == now.Month() {
				summary.MonthTotal += d.Amount
			}
		}
		if len(summary.Recent) < recentDonationsLimit {
			name := d.DonorName
			if d.IsAnonymous || name == "" {
				name = anonymousDonor
			}
			summary.Recent = append(summary.Recent, PublicDonation{
				DonorName: name,
				Amount:    d.Amount,
				Method:    d.Method,
				Date:      d.Date,
			})
		}
	}
	return summary, err
}

// clock prefers an injected clock, then the request-scoped time.
func (s *DonationService) clock(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now()
	}
	return requestcontext.Now(ctx)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid donation"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}
