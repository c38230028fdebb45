package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Rows   int
}

// Service coordinates health checks.
type Service struct {
	dataset DatasetCounter
}

// New creates a Service.
func New(dataset DatasetCounter) *Service {
	return &Service{dataset: dataset}
}

// Check reports whether the listings snapshot is loaded and non-empty.
func (s *Service) Check(_ context.Context) Report {
	checks := make(map[string]CheckResult)
	rows := 0

	if s.dataset != nil {
		rows = s.dataset.Rows()
	}
	if rows > 0 {
		checks["dataset"] = CheckOK
	} else {
		checks["dataset"] = CheckError
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Rows: rows}
}
