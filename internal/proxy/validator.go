// Package proxy implements the intent-alignment validator: it decides
// whether an agent's proposed mail action is consistent with what the user
// actually asked for, before the action is allowed to execute.
//
// The validator is a pure, synchronous decision function. All pattern and
// vocabulary tables are compiled once at construction and read-only
// afterwards, so one Validator may be shared across any number of
// concurrent callers.
package proxy

import (
	"fmt"
	"strings"

	"github.com/ppiankov/mailwarden/internal/content"
	"github.com/ppiankov/mailwarden/internal/intent"
	"github.com/ppiankov/mailwarden/internal/model"
)

// Validator validates proposed agent actions against extracted user intent.
type Validator struct {
	extractor  *intent.Extractor
	classifier *intent.Classifier
	checker    *content.Checker
}

// New builds a Validator with the default vocabularies and thresholds.
func New() *Validator {
	return &Validator{
		extractor:  intent.NewExtractor(),
		classifier: intent.NewClassifier(),
		checker:    content.NewChecker(),
	}
}

// NewFromConfig builds a Validator from a loaded configuration.
func NewFromConfig(cfg *Config) (*Validator, error) {
	if cfg == nil {
		return New(), nil
	}
	ex, err := intent.NewExtractorWithVerbs(cfg.PromptVerbs.Read, cfg.PromptVerbs.Write, cfg.PromptVerbs.Delete)
	if err != nil {
		return nil, fmt.Errorf("compile prompt verbs: %w", err)
	}
	return &Validator{
		extractor:  ex,
		classifier: intent.NewClassifierWithVerbs(cfg.ActionVerbs.Read, cfg.ActionVerbs.Write, cfg.ActionVerbs.Delete),
		checker:    content.NewCheckerWith(cfg.Content.MaxLengthRatio, cfg.Content.MaxNovelWordRatio, cfg.Content.Indicators),
	}, nil
}

// ExtractIntent exposes the extractor for callers that only need
// classification (MCP tool, CLI).
func (v *Validator) ExtractIntent(userPrompt string) (model.IntentKind, model.Params) {
	return v.extractor.Extract(userPrompt)
}

// ClassifyAction exposes the proposed-action classifier.
func (v *Validator) ClassifyAction(proposedAction string) model.IntentKind {
	return v.classifier.Classify(proposedAction)
}

// CheckResponse exposes the content-consistency checker.
func (v *Validator) CheckResponse(emailContent, proposedResponse string) (bool, string) {
	return v.checker.Check(emailContent, proposedResponse)
}

// ValidateAction checks whether a proposed action aligns with the user's
// intent. Returns (approved, reason); the reason names the first check
// that failed.
func (v *Validator) ValidateAction(userPrompt, proposedAction string, actionParams model.Params) (bool, string) {
	approved, reason, _ := v.validate(userPrompt, proposedAction, actionParams)
	return approved, reason
}

// validate runs intent alignment and parameter reconciliation, returning
// the extracted user intent alongside the decision.
func (v *Validator) validate(userPrompt, proposedAction string, actionParams model.Params) (bool, string, model.IntentKind) {
	userIntent, userParams := v.extractor.Extract(userPrompt)
	actionIntent := v.classifier.Classify(proposedAction)

	// Primary defense: the canonical hijack is a read prompt answered
	// with a write or delete action.
	if userIntent != actionIntent {
		reason := fmt.Sprintf("Intent mismatch: user intended %s but action is %s", userIntent, actionIntent)
		return false, reason, userIntent
	}

	switch userIntent {
	case model.IntentRead, model.IntentDelete:
		ok, reason := reconcileParams(userParams, actionParams, model.KeyFrom)
		return ok, reason, userIntent
	case model.IntentWrite:
		ok, reason := reconcileParams(userParams, actionParams, model.KeyTo)
		return ok, reason, userIntent
	default:
		// Nothing can satisfy an unrecognized user intent; reject
		// conservatively rather than guess.
		return false, "Unknown user intent", userIntent
	}
}

// reconcileParams compares the address field (from or to, by kind) and the
// subject. A field is binding only when both sides supply it: the agent may
// fill in fields the user never mentioned (a defaulted limit, say) without
// penalty, but a field the user did state must match.
func reconcileParams(userParams, actionParams model.Params, addrKey string) (bool, string) {
	if uv, ok := userParams[addrKey]; ok {
		if av, ok := actionParams[addrKey]; ok && uv != av {
			label := "From"
			if addrKey == model.KeyTo {
				label = "To"
			}
			return false, fmt.Sprintf("%s address mismatch: user specified %s but action uses %s", label, uv, av)
		}
	}

	if uv, ok := userParams[model.KeySubject]; ok {
		if av, ok := actionParams[model.KeySubject]; ok && !strings.EqualFold(uv, av) {
			return false, fmt.Sprintf("Subject mismatch: user specified '%s' but action uses '%s'", uv, av)
		}
	}

	return true, "Parameters validated successfully"
}

// ProcessRequest runs the full pipeline for one request: action validation,
// then — for approved read actions with email content supplied — the
// content-consistency check against the proposed response text. The
// response text comes from an external generator; ProcessRequest only
// enforces the check.
//
// The result always reports the extracted user intent, whatever the final
// decision. A content veto rewrites the reason but records that the action
// itself had been intent-approved.
func (v *Validator) ProcessRequest(req model.ActionRequest, proposedResponse string) model.ValidationResult {
	approved, reason, userIntent := v.validate(req.UserPrompt, req.ProposedAction, req.ActionParams)

	result := model.ValidationResult{
		Approved:   approved,
		Reason:     reason,
		UserIntent: userIntent,
	}

	if approved && req.EmailContent != "" && v.classifier.Classify(req.ProposedAction) == model.IntentRead {
		if ok, checkReason := v.checker.Check(req.EmailContent, proposedResponse); !ok {
			result.Approved = false
			result.Reason = fmt.Sprintf("Action approved but response validation failed: %s", checkReason)
		}
	}

	return result
}
