package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/mailwarden/internal/model"
	"github.com/ppiankov/mailwarden/internal/proxy"
)

// Decision strings used in scenario expectations.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Run evaluates all cases in a scenario against the given validator.
// Cases are independent; each one is a standalone request.
func Run(s *Scenario, v *proxy.Validator) *RunResult {
	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		vr := v.ProcessRequest(model.ActionRequest{
			UserPrompt:     c.Prompt,
			ProposedAction: c.Action,
			ActionParams:   model.Params(c.Params),
			EmailContent:   c.EmailContent,
		}, c.Response)

		actual := DecisionReject
		if vr.Approved {
			actual = DecisionApprove
		}
		expected := strings.ToLower(strings.TrimSpace(c.Expect))

		cr := CaseResult{
			Index:    i + 1,
			Prompt:   c.Prompt,
			Action:   c.Action,
			Expected: expected,
			Actual:   actual,
			Reason:   vr.Reason,
		}

		if actual == expected {
			cr.Passed = true
			result.Passed++
		} else {
			result.Failed++
		}

		result.Cases = append(result.Cases, cr)
	}

	return result
}

// LoadAndRun loads a scenario YAML file, builds a validator from the
// given config path, and runs all cases.
func LoadAndRun(path, configPath string) (*RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	cfg, err := proxy.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	v, err := proxy.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}

	result := Run(&s, v)
	result.File = path

	return result, nil
}
