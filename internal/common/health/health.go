package health

import (
	"context"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Probes serves the liveness, readiness and startup endpoints of a service.
type Probes struct {
	checks  map[string]Check
	started atomic.Bool
	timeout time.Duration
}

func NewProbes(checks map[string]Check) *Probes {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &Probes{checks: checks, timeout: 2 * time.Second}
}

// MarkStarted flips the startup probe to healthy.
func (p *Probes) MarkStarted() { p.started.Store(true) }

func (p *Probes) Register(r fiber.Router) {
	r.Get("/health/live", p.Liveness)
	r.Get("/health/ready", p.Readiness)
	r.Get("/health/startup", p.Startup)
}

// Liveness answers as long as the process serves requests.
func (p *Probes) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// Readiness runs every check; any failure makes the service unready.
func (p *Probes) Readiness(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	names := make([]string, 0, len(p.checks))
	for name := range p.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := fiber.Map{}
	for _, name := range names {
		if err := p.checks[name](ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unready",
			"checks": failed,
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func (p *Probes) Startup(c fiber.Ctx) error {
	if !p.started.Load() {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "starting"})
	}
	return c.JSON(fiber.Map{"status": "started"})
}
