package health

import (
	"context"
	"sort"
	"time"
)

const defaultTimeout = 2 * time.Second

// Checker probes one dependency.
type Checker func(ctx context.Context) error

// Report is the /health payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Service runs dependency checks. A service without checks is always healthy.
type Service struct {
	checks  map[string]Checker
	Timeout time.Duration
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: make(map[string]Checker), Timeout: defaultTimeout}
}

// Register adds a named check. Nil checkers are ignored.
func (s *Service) Register(name string, check Checker) {
	if check == nil {
		return
	}
	s.checks[name] = check
}

// Names lists the registered checks in order.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status runs every check with a shared timeout.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true}
	if len(s.checks) == 0 {
		return report
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report.Checks = make(map[string]string, len(s.checks))
	for _, name := range s.Names() {
		if err := s.checks[name](ctx); err != nil {
			report.OK = false
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}
