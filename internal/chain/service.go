package chain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bitgenius/backend/internal/chaincall"
	"github.com/bitgenius/backend/internal/traces"
)

// ErrAgentNotFound is returned when a read call resolves to an absent agent.
var ErrAgentNotFound = errors.New("chain: agent not found")

// maxOwnerScan bounds the per-request agent scan when resolving agents by
// owner. The contract has no owner index, so ownership is resolved by
// walking agent ids.
const maxOwnerScan = 50

// Service combines the gateway transport with the call builder into the
// typed read/write surface the handlers consume.
type Service struct {
	client  *Client
	builder *chaincall.Builder
}

// NewService creates a chain service for one deployed contract.
func NewService(client *Client, builder *chaincall.Builder) *Service {
	return &Service{client: client, builder: builder}
}

// Builder exposes the underlying call builder for write-path handlers.
func (s *Service) Builder() *chaincall.Builder {
	return s.builder
}

// BuildTransaction forwards a prepared call descriptor to the gateway's
// transaction builder.
func (s *Service) BuildTransaction(ctx context.Context, desc *chaincall.CallDescriptor) (json.RawMessage, error) {
	ctx, span := traces.StartSpan(ctx, "chain.BuildTransaction",
		traces.ContractFunction(desc.Function))
	defer span.End()

	return s.client.BuildTransaction(ctx, desc)
}

func (s *Service) read(ctx context.Context, desc *chaincall.CallDescriptor) (any, error) {
	ctx, span := traces.StartSpan(ctx, "chain.read",
		traces.ContractFunction(desc.Function))
	defer span.End()

	value, err := s.client.Call(ctx, desc)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return chaincall.Decode(*value), nil
}

// Ping answers whether the gateway can serve a read. The health registry
// wraps it in an UpstreamChecker.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.GetAgentCount(ctx)
	return err
}

// GetAgentCount returns the total number of registered agents.
func (s *Service) GetAgentCount(ctx context.Context) (int64, error) {
	decoded, err := s.read(ctx, s.builder.BuildGetAgentCountCall())
	if err != nil {
		return 0, err
	}
	if n, ok := decoded.(int64); ok {
		return n, nil
	}
	return 0, nil
}

// GetAgentStatus returns the raw on-chain status for an agent. Callers
// normalize it before exposing it.
func (s *Service) GetAgentStatus(ctx context.Context, agentID int64) (string, error) {
	decoded, err := s.read(ctx, s.builder.BuildGetAgentStatusCall(agentID))
	if err != nil {
		return "", err
	}
	if raw, ok := decoded.(string); ok && raw != "" {
		return raw, nil
	}
	return "unknown", nil
}

// GetAgentByID returns the decoded agent tuple, or ErrAgentNotFound when
// the id resolves to an absent optional.
func (s *Service) GetAgentByID(ctx context.Context, agentID int64) (map[string]any, error) {
	ctx, span := traces.StartSpan(ctx, "chain.GetAgentByID",
		traces.AgentID(agentID))
	defer span.End()

	decoded, err := s.read(ctx, s.builder.BuildGetAgentByIDCall(agentID))
	if err != nil {
		return nil, err
	}
	agent, ok := decoded.(map[string]any)
	if !ok || agent == nil {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

// GetAgentsByOwner walks agent ids and returns the agents owned by the
// given principal. The scan is bounded; the contract has no owner index.
func (s *Service) GetAgentsByOwner(ctx context.Context, owner string) ([]map[string]any, error) {
	ctx, span := traces.StartSpan(ctx, "chain.GetAgentsByOwner",
		traces.Principal(owner))
	defer span.End()

	count, err := s.GetAgentCount(ctx)
	if err != nil {
		return nil, err
	}
	if count > maxOwnerScan {
		count = maxOwnerScan
	}

	agents := make([]map[string]any, 0)
	for id := int64(1); id <= count; id++ {
		agent, err := s.GetAgentByID(ctx, id)
		if errors.Is(err, ErrAgentNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if agentOwner, _ := agent["owner"].(string); agentOwner == owner {
			if _, present := agent["agent_id"]; !present {
				agent["agent_id"] = id
			}
			agents = append(agents, agent)
		}
	}
	return agents, nil
}

// GetAgentPerformance returns the decoded performance tuple for the agent
// over a period expressed in days.
func (s *Service) GetAgentPerformance(ctx context.Context, agentID, periodDays int64) (map[string]any, error) {
	decoded, err := s.read(ctx, s.builder.BuildGetAgentPerformanceCall(agentID, periodDays))
	if err != nil {
		return nil, err
	}
	m, _ := decoded.(map[string]any)
	return m, nil
}

// GetTemplates lists template ids and fetches each template tuple.
func (s *Service) GetTemplates(ctx context.Context) ([]map[string]any, error) {
	decoded, err := s.read(ctx, s.builder.BuildGetAllTemplatesCall())
	if err != nil {
		return nil, err
	}
	ids, _ := decoded.([]any)

	templates := make([]map[string]any, 0, len(ids))
	for _, raw := range ids {
		id, ok := raw.(string)
		if !ok {
			continue
		}
		tplDecoded, err := s.read(ctx, s.builder.BuildGetTemplateCall(id))
		if err != nil {
			return nil, err
		}
		tpl, ok := tplDecoded.(map[string]any)
		if !ok {
			continue
		}
		tpl["template_id"] = id
		templates = append(templates, tpl)
	}
	return templates, nil
}

// GetMostRecentLog returns the latest on-chain log tuple for an agent, or
// nil when the contract holds none.
func (s *Service) GetMostRecentLog(ctx context.Context, agentID int64) (map[string]any, error) {
	decoded, err := s.read(ctx, s.builder.BuildGetLogCall(agentID, nil))
	if err != nil {
		return nil, err
	}
	m, _ := decoded.(map[string]any)
	return m, nil
}
