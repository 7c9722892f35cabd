package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"azadi/internal/content/models"
	"azadi/internal/content/store"
	"azadi/pkg/requestcontext"
)

type DashboardSources struct {
	Donations Lister[models.Donation]
	Expenses  Lister[models.Expense]
	Leaders   Lister[models.Leader]
	Members   Lister[models.Member]
	Events    Lister[models.Event]
}

type Dashboard struct {
	ApprovedTotal int64 `json:"approvedTotal"`
	PendingCount  int   `json:"pendingCount"`
	MonthTotal    int64 `json:"monthTotal"`
	YearTotal     int64 `json:"yearTotal"`
	PeopleCount   int   `json:"peopleCount"`
	EventCount    int   `json:"eventCount"`
	ExpenseTotal  int64 `json:"expenseTotal"`
	Balance       int64 `json:"balance"`
	// Degraded lists collections that were served from seed data.
	Degraded []string `json:"degraded,omitempty"`
}

type DashboardService struct {
	src DashboardSources
	now func() time.Time
}

// NewDashboardService builds the service. A nil now uses the request time.
func NewDashboardService(src DashboardSources, now func() time.Time) *DashboardService {
	return &DashboardService{src: src, now: now}
}

func (s *DashboardService) clock(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now()
	}
	return requestcontext.Now(ctx)
}

// Summary reads the collections concurrently. Degraded reads still count,
// using seed data, and are named in the result; any other failure aborts.
func (s *DashboardService) Summary(ctx context.Context) (Dashboard, error) {
	var (
		dash     Dashboard
		mu       sync.Mutex
		degraded []string
	)
	track := func(name models.Collection, err error) error {
		if err == nil {
			return nil
		}
		if errors.Is(err, store.ErrDegraded) {
			mu.Lock()
			degraded = append(degraded, string(name))
			mu.Unlock()
			return nil
		}
		return err
	}

	var (
		donations []models.Donation
		expenses  []models.Expense
		leaders   []models.Leader
		members   []models.Member
		events    []models.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		donations, err = s.src.Donations.List(gctx)
		return track(models.CollectionDonations, err)
	})
	g.Go(func() (err error) {
		expenses, err = s.src.Expenses.List(gctx)
		return track(models.CollectionExpenses, err)
	})
	g.Go(func() (err error) {
		leaders, err = s.src.Leaders.List(gctx)
		return track(models.CollectionLeaders, err)
	})
	g.Go(func() (err error) {
		members, err = s.src.Members.List(gctx)
		return track(models.CollectionMembers, err)
	})
	g.Go(func() (err error) {
		events, err = s.src.Events.List(gctx)
		return track(models.CollectionEvents, err)
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	now := s.clock(ctx)
	for _, d := range donations {
		switch d.Status {
		case models.DonationPending:
			dash.PendingCount++
		case models.DonationApproved:
			dash.ApprovedTotal += d.Amount
			if t, ok := parseDate(d.Date); ok && t.Year() == now.Year() {
				dash.YearTotal += d.Amount
				if t.Month() == now.Month() {
					dash.MonthTotal += d.Amount
				}
			}
		}
	}
	for _, e := range expenses {
		dash.ExpenseTotal += e.Amount
	}
	dash.PeopleCount = len(leaders) + len(members)
	dash.EventCount = len(events)
	dash.Balance = dash.ApprovedTotal - dash.ExpenseTotal
	dash.Degraded = degraded
	return dash, nil
}
