package e2e

import (
	"github.com/cucumber/godog"

	"azadi/e2e/steps/admin"
	"azadi/e2e/steps/automation"
	"azadi/e2e/steps/common"
	"azadi/e2e/steps/donation"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	admin.RegisterSteps(ctx, tc)
	donation.RegisterSteps(ctx, tc)
	automation.RegisterSteps(ctx, tc)
}
