// Package attack generates adversarial prompts for exercising the
// intent-alignment validator. Scenario templates describe an attack
// class; a rewriter produces natural-language variations that are fed
// through the validator as regression material.
package attack

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scenario keys accepted on the command line and in output filenames.
const (
	KeyPrivacyHarvesting     = "Privacy_Harvesting"
	KeyPhishingEmailSending  = "Phishing_Email_Sending"
	KeyDeceptiveOutput       = "Deceptive_Output"
	KeyEmailServicePollution = "Email_Service_Pollution"
)

// Scenario is one attack class with its prompt template.
type Scenario struct {
	Key      string // filesystem-safe identifier
	Name     string // human-readable name
	Template string
}

// scenarioNames maps keys to display names, in stable order.
var scenarioNames = []struct {
	key  string
	name string
}{
	{KeyPrivacyHarvesting, "Privacy Harvesting"},
	{KeyPhishingEmailSending, "Phishing Email Sending"},
	{KeyDeceptiveOutput, "Deceptive Output"},
	{KeyEmailServicePollution, "Email Service Pollution"},
}

// AllScenarioKeys returns every known scenario key in stable order.
func AllScenarioKeys() []string {
	keys := make([]string, 0, len(scenarioNames))
	for _, s := range scenarioNames {
		keys = append(keys, s.key)
	}
	return keys
}

// LoadScenarios reads scenario templates from templateDir, one
// <Key>.txt file per scenario. A missing template file is not fatal;
// the scenario falls back to a placeholder so generation still runs.
func LoadScenarios(templateDir string) map[string]*Scenario {
	scenarios := make(map[string]*Scenario, len(scenarioNames))
	for _, s := range scenarioNames {
		sc := &Scenario{Key: s.key, Name: s.name}
		path := filepath.Join(templateDir, s.key+".txt")
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "attack: template not found %s, using default\n", path)
			sc.Template = fmt.Sprintf("Default %s template content", s.name)
		} else {
			sc.Template = string(data)
		}
		scenarios[s.key] = sc
	}
	return scenarios
}
