// Package health aggregates readiness checks for the portal's dependencies.
package health

import "context"

// StorePinger checks Redis availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks LLM provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// Status is the aggregated health outcome.
type Status string

const (
	// Healthy means every checked component answered.
	Healthy Status = "ok"
	// Degraded means at least one component failed its check.
	Degraded Status = "degraded"
)

// Report holds the aggregate status and the per-component outcomes.
type Report struct {
	Status Status
	Checks map[string]string
}

const (
	checkOK    = "ok"
	checkError = "error"
)

// Service runs the component checks.
type Service struct {
	store    StorePinger
	provider ProviderChecker
}

// New creates a health service. provider can be nil when no API key is set.
func New(store StorePinger, provider ProviderChecker) *Service {
	return &Service{store: store, provider: provider}
}

// Check pings every component and aggregates the outcome.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]string{
		"store": outcome(s.store.Ping(ctx)),
	}
	if s.provider != nil {
		checks["llm"] = outcome(s.provider.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == checkError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func outcome(err error) string {
	if err != nil {
		return checkError
	}
	return checkOK
}
