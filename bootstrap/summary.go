package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/lecturly/component"
)

// ClientInfo describes an outbound dependency for the summary.
type ClientInfo struct {
	Name   string
	Target string
	Type   string
}

// Summary renders the startup overview: infrastructure, clients, routes
// and live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	clients         []ClientInfo
	out             io.Writer
}

// NewSummary creates a summary printing to out, or stdout when out is nil.
func NewSummary(serviceName, version string, out io.Writer) *Summary {
	if out == nil {
		out = os.Stdout
	}
	return &Summary{serviceName: serviceName, version: version, out: out}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackClient records an outbound client.
func (s *Summary) TrackClient(name, target, clientType string) {
	s.clients = append(s.clients, ClientInfo{Name: name, Target: target, Type: clientType})
}

// Display writes the summary, collecting infrastructure, routes and health
// from registry.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	var (
		infra  []component.Description
		routes []component.Route
	)
	if registry != nil {
		for _, c := range registry.All() {
			if d, ok := c.(component.Describable); ok {
				desc := d.Describe()
				if desc.Name == "" {
					desc.Name = c.Name()
				}
				infra = append(infra, desc)
			}
			if rp, ok := c.(component.RouteProvider); ok {
				routes = append(routes, rp.Routes()...)
			}
		}
	}

	if len(infra) > 0 {
		b.WriteString("\nInfrastructure\n")
		for i, inf := range infra {
			fmt.Fprintf(&b, "   %s %s [%s]: %s\n", branch(i, len(infra)), inf.Name, inf.Type, inf.Details)
		}
	}

	if len(s.clients) > 0 {
		b.WriteString("\nClients\n")
		for i, c := range s.clients {
			fmt.Fprintf(&b, "   %s %s -> %s (%s)\n", branch(i, len(s.clients)), c.Name, c.Target, c.Type)
		}
	}

	if len(routes) > 0 {
		fmt.Fprintf(&b, "\nRoutes (%d)\n", len(routes))
		for i, r := range routes {
			handler := r.Handler
			if r.System {
				handler += " (system)"
			}
			fmt.Fprintf(&b, "   %s %-7s %s -> %s\n", branch(i, len(routes)), r.Method, r.Path, handler)
		}
	}

	if registry != nil {
		if results := registry.HealthAll(ctx); len(results) > 0 {
			b.WriteString("\nHealth\n")
			for i, h := range results {
				msg := ""
				if h.Message != "" {
					msg = " - " + h.Message
				}
				fmt.Fprintf(&b, "   %s %s: %s%s\n", branch(i, len(results)), h.Name, h.Status, msg)
			}
		}
	}

	b.WriteString("\n")
	_, _ = io.WriteString(s.out, b.String())
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
