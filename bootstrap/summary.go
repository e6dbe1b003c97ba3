package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/whisper-srt/component"
)

// InfrastructureInfo is one infrastructure line of the summary.
type InfrastructureInfo struct {
	Name    string
	Type    string // "server", "worker", "redis", "kafka", "storage"...
	Details string
	Port    int
}

// Summary collects what the application started with and prints it once
// startup completes.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	out             io.Writer

	infrastructure []InfrastructureInfo
	routes         []component.Route
	settings       [][2]string
}

// NewSummary creates a summary that prints to stdout.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		out:         os.Stdout,
	}
}

// SetOutput redirects the summary.
func (s *Summary) SetOutput(w io.Writer) { s.out = w }

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) { s.startupDuration = d }

// AddSetting records a key/value line such as the active provider or the
// auth mode. Settings print in insertion order.
func (s *Summary) AddSetting(key, value string) {
	s.settings = append(s.settings, [2]string{key, value})
}

// collect pulls descriptions and routes from registered components.
func (s *Summary) collect(registry *component.Registry) {
	s.infrastructure = s.infrastructure[:0]
	s.routes = s.routes[:0]
	for _, c := range registry.All() {
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			name := desc.Name
			if name == "" {
				name = c.Name()
			}
			s.infrastructure = append(s.infrastructure, InfrastructureInfo{
				Name:    name,
				Type:    desc.Type,
				Details: desc.Details,
				Port:    desc.Port,
			})
		}
		if rp, ok := c.(component.RouteProvider); ok {
			s.routes = append(s.routes, rp.Routes()...)
		}
	}
}

// Display prints the summary including live health from the registry.
// A nil registry prints only the header and settings.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	var health []component.Health
	if registry != nil {
		s.collect(registry)
		health = registry.HealthAll(ctx)
	}

	w := s.out
	fmt.Fprintf(w, "\n🚀 %s v%s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.infrastructure) > 0 {
		fmt.Fprintf(w, "\n📊 Infrastructure\n")
		for i, inf := range s.infrastructure {
			details := inf.Details
			if inf.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, inf.Port)
			}
			fmt.Fprintf(w, "   %s [%s] %s: %s\n", treePrefix(i, len(s.infrastructure)), inf.Type, inf.Name, details)
		}
	}

	if len(s.settings) > 0 {
		fmt.Fprintf(w, "\n⚙️  Settings\n")
		for i, kv := range s.settings {
			fmt.Fprintf(w, "   %s %s: %s\n", treePrefix(i, len(s.settings)), kv[0], kv[1])
		}
	}

	if len(s.routes) > 0 {
		fmt.Fprintf(w, "\n🌐 Routes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", treePrefix(i, len(s.routes)), r.Method, r.Path, r.Handler)
		}
	}

	if len(health) > 0 {
		healthy := 0
		fmt.Fprintf(w, "\n🏥 Health Check\n")
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = " (" + h.Message + ")"
			}
			fmt.Fprintf(w, "   %s %s %s: %s%s\n", treePrefix(i, len(health)), healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
			if h.OK() {
				healthy++
			}
		}
		if healthy == len(health) {
			fmt.Fprintf(w, "\n✅ All components healthy (%d/%d)\n", healthy, len(health))
		} else {
			fmt.Fprintf(w, "\n⚠️  Some components have issues (%d/%d healthy)\n", healthy, len(health))
		}
	} else if registry != nil {
		fmt.Fprintf(w, "   └── No components registered\n")
	}

	fmt.Fprintln(w)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
