package automation

//go:generate mockgen -source=engine.go -destination=mocks/mocks.go -package=mocks Translator,ImageProber

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"azadi/internal/automation/broadcast"
	"azadi/internal/automation/mocks"
	"azadi/internal/content/models"
	"azadi/internal/content/settings"
	"azadi/internal/content/store"
	"azadi/internal/docstore"
)

// switchableClient fails every read while down is set.
type switchableClient struct {
	*docstore.MemoryClient
	down atomic.Bool
	puts atomic.Int64
}

func (c *switchableClient) Fetch(ctx context.Context, path string) (docstore.Value, error) {
	if c.down.Load() {
		return docstore.Value{}, &docstore.TransportError{Op: docstore.OpFetch, Path: path, Err: errors.New("connection refused")}
	}
	return c.MemoryClient.Fetch(ctx, path)
}

func (c *switchableClient) Put(ctx context.Context, path string, v any) error {
	c.puts.Add(1)
	return c.MemoryClient.Put(ctx, path, v)
}

type EngineSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	client     *switchableClient
	repos      *store.Repositories
	log        *broadcast.Broadcast
	translator *mocks.MockTranslator
	prober     *mocks.MockImageProber
	engine     *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = &switchableClient{MemoryClient: docstore.NewMemoryClient()}
	s.repos = store.NewRepositories(s.client)
	s.log = broadcast.New()
	s.translator = mocks.NewMockTranslator(s.ctrl)
	s.prober = mocks.NewMockImageProber(s.ctrl)

	engine, err := New(
		SourcesFrom(s.repos, settings.New(s.client, models.AppSettings{ContactPhone: "01700000000"})),
		s.log,
		WithTranslator(s.translator),
		WithProber(s.prober),
		WithConfig(Config{ProbeConcurrency: 2, ProbeTimeout: time.Second}),
	)
	s.Require().NoError(err)
	s.engine = engine
}

func (s *EngineSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *EngineSuite) allImagesLoad() {
	s.prober.EXPECT().Probe(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (s *EngineSuite) messages() []string {
	var out []string
	for _, e := range s.log.Snapshot() {
		out = append(out, e.Task+"/"+string(e.Status)+": "+e.Message)
	}
	return out
}

func (s *EngineSuite) TestNewRequiresSources() {
	_, err := New(Sources{}, s.log)
	s.Error(err)

	_, err = New(SourcesFrom(s.repos, settings.New(s.client, models.AppSettings{})), nil)
	s.ErrorContains(err, "log broadcast is required")
}

func (s *EngineSuite) TestBackfillFillsMissingLocale() {
	ctx := context.Background()
	s.Require().NoError(s.repos.Leaders.Save(ctx, models.Leader{
		ID:          "l1",
		Name:        models.LocalizedText{EN: "Karim"},
		Designation: models.LocalizedText{EN: "President", BN: "সভাপতি"},
		Order:       1,
	}))
	s.allImagesLoad()
	s.translator.EXPECT().Translate(gomock.Any(), "Karim", models.LocaleBN).Return("করিম").Times(1)

	report, err := s.engine.RunAll(ctx)
	s.Require().NoError(err)
	s.Equal(1, report.ProfilesFixed)
	s.Equal(0, report.MissingTranslations)

	leader, err := s.repos.Leaders.Get(ctx, "l1")
	s.Require().NoError(err)
	s.Equal("করিম", leader.Name.BN)
	s.Equal("Karim", leader.Name.EN)
	s.Equal("সভাপতি", leader.Designation.BN)
	s.Contains(s.messages(), "Data Integrity/success: Auto-translated/Fixed 1 profiles.")

	s.Run("second run changes nothing", func() {
		puts := s.client.puts.Load()
		report, err := s.engine.RunAll(ctx)
		s.Require().NoError(err)
		s.Equal(0, report.ProfilesFixed)
		s.Equal(puts, s.client.puts.Load())
		s.Equal("Data Integrity/success: All data fields appear consistent.", s.findMessage("Data Integrity"))
	})
}

func (s *EngineSuite) TestBackfillBothDirections() {
	ctx := context.Background()
	s.Require().NoError(s.repos.Leaders.Save(ctx, models.Leader{
		ID:          "l2",
		Name:        models.LocalizedText{BN: "রহিম"},
		Designation: models.LocalizedText{},
		Bio:         &models.LocalizedText{EN: "Teacher"},
	}))
	s.allImagesLoad()
	s.translator.EXPECT().Translate(gomock.Any(), "রহিম", models.LocaleEN).Return("Rahim")
	s.translator.EXPECT().Translate(gomock.Any(), "Teacher", models.LocaleBN).Return("শিক্ষক")

	_, err := s.engine.RunAll(ctx)
	s.Require().NoError(err)

	leader, err := s.repos.Leaders.Get(ctx, "l2")
	s.Require().NoError(err)
	s.Equal("Rahim", leader.Name.EN)
	s.True(leader.Designation.IsEmpty())
	s.Require().NotNil(leader.Bio)
	s.Equal("শিক্ষক", leader.Bio.BN)
}

func (s *EngineSuite) TestBackfillDiscardsUntranslatedResults() {
	ctx := context.Background()
	s.Require().NoError(s.repos.Leaders.Save(ctx, models.Leader{ID: "l1", Name: models.LocalizedText{EN: "Karim"}}))
	s.allImagesLoad()
	s.translator.EXPECT().Translate(gomock.Any(), "Karim", models.LocaleBN).Return("Karim")
	puts := s.client.puts.Load()

	report, err := s.engine.RunAll(ctx)
	s.Require().NoError(err)
	s.Equal(0, report.ProfilesFixed)
	s.Equal(1, report.MissingTranslations)
	s.Equal(puts, s.client.puts.Load())
}

func (s *EngineSuite) TestBrokenImagesAreReported() {
	ctx := context.Background()
	s.Require().NoError(s.repos.Members.Save(ctx, models.Member{
		ID:    "m1",
		Name:  models.LocalizedText{EN: "Rahim", BN: "রহিম"},
		Image: "https://example.invalid/rahim.png",
	}))
	s.Require().NoError(s.repos.Members.Save(ctx, models.Member{ID: "m2", Name: models.LocalizedText{EN: "No Photo"}}))
	s.prober.EXPECT().Probe(gomock.Any(), "https://example.invalid/rahim.png").Return(errors.New("404"))
	s.prober.EXPECT().Probe(gomock.Any(), gomock.Not("https://example.invalid/rahim.png")).Return(nil).AnyTimes()

	report, err := s.engine.RunAll(ctx)
	s.Require().NoError(err)
	s.Equal(1, report.BrokenLinks)
	// m2's name has no Bengali side
	s.Equal(1, report.MissingTranslations)

	msgs := s.messages()
	s.Contains(msgs, "Image Scan/warning: Broken image detected in Member: Rahim")
	s.Contains(msgs, "Image Scan/error: Found 1 broken images.")
	s.Equal("System/success: Automated maintenance completed successfully.", msgs[0])

	health := s.engine.Health()
	s.Equal(DatabaseHealthy, health.DatabaseStatus)
	s.Equal(1, health.BrokenLinks)
	s.False(health.LastScan.IsZero())
}

func (s *EngineSuite) TestProbePanicCountsAsBroken() {
	s.prober.EXPECT().Probe(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, string) error {
		panic("prober bug")
	}).AnyTimes()

	report, err := s.engine.RunAll(context.Background())
	s.Require().NoError(err)
	// seeded event and three gallery items
	s.Equal(4, report.BrokenLinks)
}

func (s *EngineSuite) TestDegradedReadsNeverWrite() {
	ctx := context.Background()
	s.Require().NoError(s.repos.Leaders.Save(ctx, models.Leader{ID: "l1", Name: models.LocalizedText{EN: "Karim"}}))
	s.client.down.Store(true)
	puts := s.client.puts.Load()

	report, err := s.engine.RunAll(ctx)
	s.Require().Error(err)
	s.ErrorIs(err, store.ErrDegraded)
	s.Equal(puts, s.client.puts.Load())
	s.Contains(report.Degraded, "leaders")
	s.Contains(report.Degraded, "app_settings")
	s.True(strings.HasPrefix(s.messages()[0], "System/error: Automation failed: "))
	s.False(s.engine.Running())

	s.Equal(DatabaseError, s.engine.Health().DatabaseStatus)
}

func (s *EngineSuite) TestConcurrentStartIsRejected() {
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	s.prober.EXPECT().Probe(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, string) error {
		once.Do(func() { close(entered) })
		<-release
		return nil
	}).AnyTimes()

	s.Require().NoError(s.engine.Start(context.Background()))
	<-entered
	s.True(s.engine.Running())

	_, err := s.engine.RunAll(context.Background())
	s.ErrorIs(err, ErrAlreadyRunning)
	s.ErrorIs(s.engine.Start(context.Background()), ErrAlreadyRunning)

	close(release)
	s.Eventually(func() bool { return !s.engine.Running() }, 2*time.Second, 5*time.Millisecond)
}

func (s *EngineSuite) TestRunSurvivesCallerCancellation() {
	s.allImagesLoad()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.engine.RunAll(ctx)
	s.NoError(err)
}

func (s *EngineSuite) TestHealthBeforeAnyScan() {
	h := s.engine.Health()
	s.Equal(DatabaseHealthy, h.DatabaseStatus)
	s.Zero(h.BrokenLinks)
	s.Zero(h.MissingTranslations)
	s.True(h.LastScan.IsZero())
	s.Greater(h.StorageUsage, 0.0)
}

func (s *EngineSuite) TestStorageWarningAboveThreshold() {
	engine, err := New(
		SourcesFrom(s.repos, settings.New(s.client, models.AppSettings{})),
		s.log,
		WithTranslator(s.translator),
		WithProber(s.prober),
		WithConfig(Config{QuotaBytes: 100, WarnPercent: 80}),
	)
	s.Require().NoError(err)
	s.allImagesLoad()

	report, err := engine.RunAll(context.Background())
	s.Require().NoError(err)
	s.Greater(report.StorageUsage, 80.0)
	s.Contains(s.findMessage("Storage"), "Recommend clearing old logs.")
}

// findMessage returns the newest entry for task.
func (s *EngineSuite) findMessage(task string) string {
	for _, e := range s.log.Snapshot() {
		if e.Task == task {
			return e.Task + "/" + string(e.Status) + ": " + e.Message
		}
	}
	return ""
}
