// Package agents exposes the agent lifecycle surface: registration,
// status updates, and reads from the contract, plus a local status
// mirror for immediate UI feedback while a transaction confirms.
package agents

import (
	"github.com/bitgenius/backend/internal/validation"
)

// Agent mirrors the on-chain agent tuple.
type Agent struct {
	AgentID          int64  `json:"agent_id"`
	Owner            string `json:"owner"`
	Name             string `json:"name"`
	AgentType        string `json:"agent_type"`
	Strategy         string `json:"strategy"`
	Status           string `json:"status"`
	TriggerCondition string `json:"trigger_condition"`
	PrivacyEnabled   bool   `json:"privacy_enabled"`
	Allocation       int64  `json:"allocation"`
	CreatedAt        int64  `json:"created_at"`
	LastActive       int64  `json:"last_active"`
}

// Template is a reusable agent preset defined by the contract.
type Template struct {
	TemplateID      string `json:"template_id"`
	Description     string `json:"description"`
	DefaultStrategy string `json:"default_strategy"`
}

// CreateAgentRequest carries everything register-agent needs.
type CreateAgentRequest struct {
	Name             string `json:"name"`
	AgentType        string `json:"agent_type"`
	Strategy         string `json:"strategy"`
	TriggerCondition string `json:"trigger_condition"`
	PrivacyEnabled   bool   `json:"privacy_enabled"`
	Allocation       int64  `json:"allocation"`
	Sender           string `json:"sender"`
}

// Validate rejects a malformed request before any chain call.
func (r *CreateAgentRequest) Validate() error {
	errs := validation.Validate(
		validation.BoundedString("name", r.Name, validation.MaxNameLength),
		validation.BoundedString("agent_type", r.AgentType, validation.MaxAgentTypeLength),
		validation.BoundedString("strategy", r.Strategy, validation.MaxStrategyLength),
		validation.BoundedString("trigger_condition", r.TriggerCondition, validation.MaxTriggerLength),
		validation.Positive("allocation", r.Allocation),
		validation.Required("sender", r.Sender),
		validation.ValidPrincipal("sender", r.Sender),
	)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// agentFromTuple maps a decoded contract tuple into an Agent. Missing
// or mistyped members fall back to zero values rather than failing the
// read; the contract is the source of truth for shape.
func agentFromTuple(m map[string]any) Agent {
	a := Agent{
		Owner:            str(m["owner"]),
		Name:             str(m["name"]),
		AgentType:        str(m["agent_type"]),
		Strategy:         str(m["strategy"]),
		Status:           str(m["status"]),
		TriggerCondition: str(m["trigger_condition"]),
		Allocation:       i64(m["allocation"]),
		CreatedAt:        i64(m["created_at"]),
		LastActive:       i64(m["last_active"]),
	}
	a.AgentID = i64(m["agent_id"])
	if b, ok := m["privacy_enabled"].(bool); ok {
		a.PrivacyEnabled = b
	}
	return a
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func i64(v any) int64 {
	n, _ := v.(int64)
	return n
}

func templateFromTuple(m map[string]any) Template {
	return Template{
		TemplateID:      str(m["template_id"]),
		Description:     str(m["description"]),
		DefaultStrategy: str(m["default_strategy"]),
	}
}
