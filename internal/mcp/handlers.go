package mcp

import (
	"context"
	"fmt"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/mailwarden/internal/audit"
	"github.com/ppiankov/mailwarden/internal/history"
	"github.com/ppiankov/mailwarden/internal/model"
)

// --- Input/Output types ---

// ValidateInput defines parameters for the mailwarden_validate tool.
type ValidateInput struct {
	UserPrompt       string            `json:"user_prompt" jsonschema:"the user's natural-language request"`
	ProposedAction   string            `json:"proposed_action" jsonschema:"the action the agent wants to perform (e.g. read_email, send_email)"`
	ActionParams     map[string]string `json:"action_params,omitempty" jsonschema:"action parameters (from, to, subject)"`
	EmailContent     string            `json:"email_content,omitempty" jsonschema:"source email content for response consistency checking"`
	ProposedResponse string            `json:"proposed_response,omitempty" jsonschema:"the agent's proposed response text"`
	RequestID        string            `json:"request_id,omitempty" jsonschema:"caller-supplied identifier for audit correlation"`
}

// ValidateOutput contains the validation decision.
type ValidateOutput struct {
	Approved   bool   `json:"action_approved"`
	Reason     string `json:"validation_reason"`
	UserIntent string `json:"user_intent"`
}

// ExtractIntentInput defines parameters for the mailwarden_extract_intent tool.
type ExtractIntentInput struct {
	Prompt string `json:"prompt" jsonschema:"the user's natural-language request"`
}

// ExtractIntentOutput contains the extracted intent and parameters.
type ExtractIntentOutput struct {
	Intent string            `json:"intent"`
	Params map[string]string `json:"params,omitempty"`
}

// CheckContentInput defines parameters for the mailwarden_check_content tool.
type CheckContentInput struct {
	EmailContent string `json:"email_content" jsonschema:"the source email content"`
	Response     string `json:"response" jsonschema:"the agent's proposed response text"`
}

// CheckContentOutput contains the content consistency verdict.
type CheckContentOutput struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// --- Handlers ---

func (s *Server) handleValidate(ctx context.Context, req *mcpsdk.CallToolRequest, input ValidateInput) (*mcpsdk.CallToolResult, ValidateOutput, error) {
	vr := s.validator.ProcessRequest(model.ActionRequest{
		UserPrompt:     input.UserPrompt,
		ProposedAction: input.ProposedAction,
		ActionParams:   model.Params(input.ActionParams),
		EmailContent:   input.EmailContent,
	}, input.ProposedResponse)

	s.recordDecision(ctx, input, vr)

	out := ValidateOutput{
		Approved:   vr.Approved,
		Reason:     vr.Reason,
		UserIntent: string(vr.UserIntent),
	}
	if !vr.Approved {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleExtractIntent(ctx context.Context, req *mcpsdk.CallToolRequest, input ExtractIntentInput) (*mcpsdk.CallToolResult, ExtractIntentOutput, error) {
	kind, params := s.validator.ExtractIntent(input.Prompt)
	return nil, ExtractIntentOutput{
		Intent: string(kind),
		Params: params,
	}, nil
}

func (s *Server) handleCheckContent(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckContentInput) (*mcpsdk.CallToolResult, CheckContentOutput, error) {
	valid, reason := s.validator.CheckResponse(input.EmailContent, input.Response)
	out := CheckContentOutput{Valid: valid, Reason: reason}
	if !valid {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

// recordDecision writes one validation decision to the audit log and
// history store. Recording failures never block the decision.
func (s *Server) recordDecision(ctx context.Context, input ValidateInput, vr model.ValidationResult) {
	requestID := input.RequestID
	if requestID == "" {
		requestID = "mcp"
	}

	if s.auditLog != nil {
		err := s.auditLog.Record(audit.Entry{
			RequestID:  requestID,
			UserPrompt: input.UserPrompt,
			Action:     input.ProposedAction,
			UserIntent: string(vr.UserIntent),
			Approved:   vr.Approved,
			Reason:     vr.Reason,
			ConfigHash: s.configHash,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "mcp: audit record: %v\n", err)
		}
	}

	if s.store != nil {
		err := s.store.Record(ctx, &history.Decision{
			UserPrompt: input.UserPrompt,
			Action:     input.ProposedAction,
			UserIntent: string(vr.UserIntent),
			Approved:   vr.Approved,
			Reason:     vr.Reason,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "mcp: history record: %v\n", err)
		}
	}
}
