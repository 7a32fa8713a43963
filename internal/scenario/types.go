// Package scenario runs YAML-defined regression suites against the
// intent-alignment validator. Each case pairs a user prompt with a
// proposed agent action and asserts the expected decision.
package scenario

// Case is one test case within a scenario.
type Case struct {
	Prompt       string            `yaml:"prompt"`
	Action       string            `yaml:"action"`
	Params       map[string]string `yaml:"params,omitempty"`
	EmailContent string            `yaml:"email_content,omitempty"`
	Response     string            `yaml:"response,omitempty"`
	Expect       string            `yaml:"expect"` // approve | reject
}

// Scenario is a named collection of validation test cases.
type Scenario struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	Prompt   string `json:"prompt"`
	Action   string `json:"action"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Reason   string `json:"reason"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
