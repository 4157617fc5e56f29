// Package checks drives a check through the API and the provider webhook.
package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
)

// TestContext is the slice of the scenario context these steps need.
type TestContext interface {
	GET(path string) error
	POST(path string, body any) error
	PUT(path string, body any) error
	PostWebhook(body any, token string) error
	ProviderToken() string
	LastStatus() int
	LastBody() []byte
	ResponseField(path string) (any, error)
	Save(name, value string)
	Saved(name string) (string, bool)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &checkSteps{tc: tc}

	ctx.Step(`^a new "([^"]*)" check for a "([^"]*)" matter$`, steps.newCheck)
	ctx.Step(`^I select the tasks "([^"]*)"$`, steps.selectTasks)
	ctx.Step(`^I submit the check$`, steps.submit)
	ctx.Step(`^I submit the check confirming the soft policy$`, steps.submitConfirmed)
	ctx.Step(`^I fetch the check summary$`, steps.summary)
	ctx.Step(`^I fetch the check$`, steps.fetch)

	ctx.Step(`^the provider reports delivery "([^"]*)" with status "([^"]*)"$`, steps.providerStatus)
	ctx.Step(`^the provider reports delivery "([^"]*)" with task "([^"]*)" as "([^"]*)"$`, steps.providerOutcome)
	ctx.Step(`^the provider reports delivery "([^"]*)" with task "([^"]*)" as "([^"]*)" and data:$`, steps.providerOutcomeWithData)
	ctx.Step(`^the provider reports delivery "([^"]*)" without a token$`, steps.providerWithoutToken)
	ctx.Step(`^the summary should have a "([^"]*)" warning "([^"]*)"$`, steps.summaryHasWarning)
}

type checkSteps struct {
	tc TestContext
}

func (s *checkSteps) checkID() (string, error) {
	checkID, ok := s.tc.Saved("check_id")
	if !ok {
		return "", fmt.Errorf("no check created in this scenario")
	}
	return checkID, nil
}

func (s *checkSteps) newCheck(ctx context.Context, checkType, category string) error {
	err := s.tc.POST("/checks", map[string]any{
		"matter_id":       uuid.NewString(),
		"matter_category": category,
		"check_type":      checkType,
	})
	if err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("create check: status %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	checkID, err := s.tc.ResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("check_id", fmt.Sprint(checkID))
	return nil
}

func (s *checkSteps) selectTasks(ctx context.Context, tasks string) error {
	checkID, err := s.checkID()
	if err != nil {
		return err
	}
	return s.tc.PUT("/checks/"+checkID+"/tasks", map[string]any{"tasks": splitList(tasks)})
}

func (s *checkSteps) submit(ctx context.Context) error {
	checkID, err := s.checkID()
	if err != nil {
		return err
	}
	return s.tc.POST("/checks/"+checkID+"/submit", nil)
}

func (s *checkSteps) submitConfirmed(ctx context.Context) error {
	checkID, err := s.checkID()
	if err != nil {
		return err
	}
	return s.tc.POST("/checks/"+checkID+"/submit", map[string]any{"confirm_soft_policy": true})
}

func (s *checkSteps) summary(ctx context.Context) error {
	checkID, err := s.checkID()
	if err != nil {
		return err
	}
	return s.tc.GET("/checks/" + checkID + "/summary")
}

func (s *checkSteps) fetch(ctx context.Context) error {
	checkID, err := s.checkID()
	if err != nil {
		return err
	}
	return s.tc.GET("/checks/" + checkID)
}

func (s *checkSteps) deliver(deliveryID string, fields map[string]any, token string) error {
	checkID, err := s.checkID()
	if err != nil {
		return err
	}
	body := map[string]any{"delivery_id": deliveryID, "check_id": checkID}
	for k, v := range fields {
		body[k] = v
	}
	return s.tc.PostWebhook(body, token)
}

func (s *checkSteps) providerStatus(ctx context.Context, deliveryID, status string) error {
	return s.deliver(deliveryID, map[string]any{"status": status}, s.tc.ProviderToken())
}

func (s *checkSteps) providerOutcome(ctx context.Context, deliveryID, task, result string) error {
	return s.providerOutcomeWithData(ctx, deliveryID, task, result, nil)
}

// providerOutcomeWithData reads a two-column key/value table into the
// outcome's data object.
func (s *checkSteps) providerOutcomeWithData(ctx context.Context, deliveryID, task, result string, table *godog.Table) error {
	outcome := map[string]any{"task_type": task, "result": result}
	if table != nil {
		data := map[string]any{}
		for _, row := range table.Rows {
			if len(row.Cells) != 2 {
				return fmt.Errorf("data rows need a key and a value")
			}
			data[row.Cells[0].Value] = row.Cells[1].Value
		}
		outcome["data"] = data
	}
	return s.deliver(deliveryID, map[string]any{"outcomes": []any{outcome}}, s.tc.ProviderToken())
}

func (s *checkSteps) providerWithoutToken(ctx context.Context, deliveryID string) error {
	return s.deliver(deliveryID, map[string]any{"status": "processing"}, "")
}

func (s *checkSteps) summaryHasWarning(ctx context.Context, severity, message string) error {
	value, err := s.tc.ResponseField("warnings")
	if err != nil {
		return err
	}
	warnings, _ := value.([]any)
	for _, w := range warnings {
		warning, _ := w.(map[string]any)
		if warning["severity"] == severity && warning["message"] == message {
			return nil
		}
	}
	return fmt.Errorf("no %s warning %q in %s", severity, message, s.tc.LastBody())
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
