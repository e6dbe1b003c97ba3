package component

import "context"

// Component is a piece of infrastructure with a lifecycle: the HTTP server,
// the worker pool, the redis client, the kafka producer and so on.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// HealthStatus is the coarse state reported by a health check.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's answer to a health check.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// OK reports whether the component is fully healthy.
func (h Health) OK() bool { return h.Status == StatusHealthy }

// Describable components contribute a line to the startup summary.
type Describable interface {
	Describe() Description
}

// Description is a component's line in the startup summary. Name falls back
// to the component name and Port is zero when nothing listens.
type Description struct {
	Name    string
	Type    string
	Details string
	Port    int
}

// RouteProvider is implemented by components that serve HTTP routes.
type RouteProvider interface {
	Routes() []Route
}

// Route is a registered HTTP route.
type Route struct {
	Method  string
	Path    string
	Handler string
}
