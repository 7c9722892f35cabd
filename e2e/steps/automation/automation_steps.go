package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers maintenance run steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &automationSteps{tc: tc}

	ctx.Step(`^I start a maintenance run$`, steps.start)
	ctx.Step(`^the last scan should be recorded within (\d+) seconds$`, steps.waitForScan)
}

type automationSteps struct {
	tc TestContext
}

func (s *automationSteps) start(_ context.Context) error {
	return s.tc.POST("/api/admin/automation/run", nil)
}

func (s *automationSteps) waitForScan(_ context.Context, seconds int) error {
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	for time.Now().Before(deadline) {
		if err := s.tc.GET("/api/admin/automation/health"); err != nil {
			return err
		}
		if _, err := s.tc.GetResponseField("lastScan"); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("no scan recorded after %ds", seconds)
}
