package chaincall

import (
	"github.com/bitgenius/backend/internal/status"
	"github.com/bitgenius/backend/internal/validation"
)

// Contract function names exposed by the bitgenius-agent contract.
const (
	FnRegisterAgent       = "register-agent"
	FnUpdateAgentStatus   = "update-agent-status"
	FnLogAgentAction      = "log-agent-action"
	FnGetAgentByID        = "get-agent-by-id"
	FnGetAgentStatus      = "get-agent-status"
	FnGetAgentCount       = "get-agent-count"
	FnGetAgentPerformance = "get-agent-performance"
	FnGetAgentTemplate    = "get-agent-template"
	FnGetAllTemplates     = "get-all-templates"
	FnGetLog              = "get-log"
	FnGetMostRecentLog    = "get-most-recent-log"
)

// CallDescriptor is a typed, ordered representation of one contract
// invocation. The argument order is part of the contract ABI and must not
// be rearranged.
type CallDescriptor struct {
	ContractAddress string  `json:"contract_address"`
	ContractName    string  `json:"contract_name"`
	Function        string  `json:"function_name"`
	Args            []Value `json:"function_args"`
	Sender          string  `json:"sender_address,omitempty"`
}

// Builder constructs call descriptors bound to one deployed contract.
type Builder struct {
	contractAddress string
	contractName    string
}

// NewBuilder creates a builder for the given contract identity.
func NewBuilder(contractAddress, contractName string) *Builder {
	return &Builder{contractAddress: contractAddress, contractName: contractName}
}

func (b *Builder) descriptor(fn string, sender string, args ...Value) *CallDescriptor {
	return &CallDescriptor{
		ContractAddress: b.contractAddress,
		ContractName:    b.contractName,
		Function:        fn,
		Args:            args,
		Sender:          sender,
	}
}

// RegisterAgentParams carries the validated inputs for agent registration.
type RegisterAgentParams struct {
	Name             string
	AgentType        string
	Strategy         string
	TriggerCondition string
	PrivacyEnabled   bool
	Allocation       int64
	Sender           string
}

// BuildRegisterAgentCall validates params and produces the register-agent
// call. Field order: name, agent_type, strategy, trigger_condition,
// privacy_enabled, allocation. Validation fails fast, before any network
// call is attempted.
func (b *Builder) BuildRegisterAgentCall(p RegisterAgentParams) (*CallDescriptor, error) {
	errs := validation.Validate(
		validation.BoundedString("name", p.Name, validation.MaxNameLength),
		validation.BoundedString("agent_type", p.AgentType, validation.MaxAgentTypeLength),
		validation.BoundedString("strategy", p.Strategy, validation.MaxStrategyLength),
		validation.BoundedString("trigger_condition", p.TriggerCondition, validation.MaxTriggerLength),
		validation.Positive("allocation", p.Allocation),
		validation.Required("sender", p.Sender),
	)
	if len(errs) > 0 {
		return nil, errs
	}

	return b.descriptor(FnRegisterAgent, p.Sender,
		StringASCII(p.Name),
		StringASCII(p.AgentType),
		StringASCII(p.Strategy),
		StringASCII(p.TriggerCondition),
		Bool(p.PrivacyEnabled),
		Uint(uint64(p.Allocation)),
	), nil
}

// BuildUpdateStatusCall produces the update-agent-status call. newStatus
// must already be canonical; normalization is the status package's single
// responsibility and is not repeated here.
func (b *Builder) BuildUpdateStatusCall(agentID int64, newStatus, sender string) (*CallDescriptor, error) {
	errs := validation.Validate(
		validation.Positive("agent_id", agentID),
		validation.Required("sender", sender),
	)
	if len(errs) > 0 {
		return nil, errs
	}
	if !status.IsCanonical(newStatus) {
		return nil, &validation.ValidationError{Field: "status", Message: "must be a canonical status (online, idle, stopped)"}
	}

	return b.descriptor(FnUpdateAgentStatus, sender,
		Uint(uint64(agentID)),
		StringASCII(newStatus),
	), nil
}

// LogActionParams carries the inputs for logging an agent action on chain.
// Optional fields are pointers so an absent fee encodes as an absent
// optional, not a present zero.
type LogActionParams struct {
	AgentID       int64
	Action        string
	Status        string
	Details       string
	TransactionID *string
	Amount        *int64
	Fee           *int64
	Sender        string
}

// BuildLogActionCall produces the log-agent-action call. Field order:
// agent_id, action, status, transaction_id, amount, fee, details.
func (b *Builder) BuildLogActionCall(p LogActionParams) (*CallDescriptor, error) {
	errs := validation.Validate(
		validation.Positive("agent_id", p.AgentID),
		validation.Required("action", p.Action),
		validation.Required("status", p.Status),
		validation.BoundedString("details", p.Details, validation.MaxDetailsLength),
		validation.NonNegative("amount", p.Amount),
		validation.NonNegative("fee", p.Fee),
		validation.Required("sender", p.Sender),
	)
	if len(errs) > 0 {
		return nil, errs
	}

	txArg := None()
	if p.TransactionID != nil {
		txArg = Some(Buff(*p.TransactionID))
	}
	amountArg := None()
	if p.Amount != nil {
		amountArg = Some(Uint(uint64(*p.Amount)))
	}
	feeArg := None()
	if p.Fee != nil {
		feeArg = Some(Uint(uint64(*p.Fee)))
	}

	return b.descriptor(FnLogAgentAction, p.Sender,
		Uint(uint64(p.AgentID)),
		StringASCII(p.Action),
		StringASCII(p.Status),
		txArg,
		amountArg,
		feeArg,
		StringASCII(p.Details),
	), nil
}

// Read-only call builders. These take no sender; the gateway evaluates them
// without a transaction.

// BuildGetAgentByIDCall produces the get-agent-by-id read call.
func (b *Builder) BuildGetAgentByIDCall(agentID int64) *CallDescriptor {
	return b.descriptor(FnGetAgentByID, "", Uint(uint64(agentID)))
}

// BuildGetAgentStatusCall produces the get-agent-status read call.
func (b *Builder) BuildGetAgentStatusCall(agentID int64) *CallDescriptor {
	return b.descriptor(FnGetAgentStatus, "", Uint(uint64(agentID)))
}

// BuildGetAgentCountCall produces the get-agent-count read call.
func (b *Builder) BuildGetAgentCountCall() *CallDescriptor {
	return b.descriptor(FnGetAgentCount, "")
}

// BuildGetAgentPerformanceCall produces the get-agent-performance read call
// for a period expressed in days.
func (b *Builder) BuildGetAgentPerformanceCall(agentID, periodDays int64) *CallDescriptor {
	return b.descriptor(FnGetAgentPerformance, "", Uint(uint64(agentID)), Uint(uint64(periodDays)))
}

// BuildGetTemplateCall produces the get-agent-template read call.
func (b *Builder) BuildGetTemplateCall(templateID string) *CallDescriptor {
	return b.descriptor(FnGetAgentTemplate, "", StringASCII(templateID))
}

// BuildGetAllTemplatesCall produces the get-all-templates read call.
func (b *Builder) BuildGetAllTemplatesCall() *CallDescriptor {
	return b.descriptor(FnGetAllTemplates, "")
}

// BuildGetLogCall produces the get-log read call for an exact timestamp,
// or get-most-recent-log when timestamp is nil.
func (b *Builder) BuildGetLogCall(agentID int64, timestamp *int64) *CallDescriptor {
	if timestamp == nil {
		return b.descriptor(FnGetMostRecentLog, "", Uint(uint64(agentID)))
	}
	return b.descriptor(FnGetLog, "", Uint(uint64(agentID)), Uint(uint64(*timestamp)))
}
