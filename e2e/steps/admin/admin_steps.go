package admin

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PUT(path string, body any) error
	GetResponseField(field string) (any, error)
	SetAccessToken(token string)
	LastStatus() int
	LastBody() string
}

// RegisterSteps registers admin session and content management steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.login)
	ctx.Step(`^I am logged in as admin$`, steps.loginDefault)
	ctx.Step(`^I use the bearer token "([^"]*)"$`, steps.useToken)
	ctx.Step(`^I save a leader "([^"]*)" with id "([^"]*)" and order (\d+)$`, steps.saveLeader)
	ctx.Step(`^I set the contact phone to "([^"]*)"$`, steps.setContactPhone)
}

type adminSteps struct {
	tc TestContext
}

func (s *adminSteps) login(_ context.Context, username, password string) error {
	return s.tc.POST("/api/admin/login", map[string]string{"username": username, "password": password})
}

func (s *adminSteps) loginDefault(ctx context.Context) error {
	if err := s.login(ctx, "admin", "admin123"); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("login failed with %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	s.tc.SetAccessToken(fmt.Sprint(token))
	return nil
}

func (s *adminSteps) useToken(_ context.Context, token string) error {
	s.tc.SetAccessToken(token)
	return nil
}

func (s *adminSteps) saveLeader(_ context.Context, name, id string, order int) error {
	return s.tc.PUT("/api/admin/leaders/"+id, map[string]any{
		"name":        map[string]string{"en": name, "bn": ""},
		"designation": map[string]string{"en": "Member", "bn": ""},
		"order":       order,
	})
}

func (s *adminSteps) setContactPhone(_ context.Context, phone string) error {
	return s.tc.PUT("/api/admin/settings", map[string]string{"contactPhone": phone})
}
