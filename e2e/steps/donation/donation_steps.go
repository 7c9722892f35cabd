package donation

import (
	"context"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PATCH(path string, body any) error
	Saved(key string) string
}

// RegisterSteps registers donation lifecycle steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &donationSteps{tc: tc}

	ctx.Step(`^a visitor donates (\d+) by "([^"]*)" with reference "([^"]*)"$`, steps.submit)
	ctx.Step(`^I (approve|reject) the donation "([^"]*)"$`, steps.review)
}

type donationSteps struct {
	tc TestContext
}

func (s *donationSteps) submit(_ context.Context, amount int, method, ref string) error {
	return s.tc.POST("/api/donations", map[string]any{
		"donorName": "E2E Donor",
		"mobile":    "01700000000",
		"amount":    amount,
		"method":    method,
		"trxId":     ref,
	})
}

func (s *donationSteps) review(_ context.Context, action, key string) error {
	status := "approved"
	if action == "reject" {
		status = "rejected"
	}
	return s.tc.PATCH("/api/admin/donations/"+s.tc.Saved(key)+"/status", map[string]string{"status": status})
}
