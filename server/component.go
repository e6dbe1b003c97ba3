package server

import (
	"cmp"
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/whisper-srt/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*ServerComponent)(nil)
	_ component.Describable   = (*ServerComponent)(nil)
	_ component.RouteProvider = (*ServerComponent)(nil)
)

// Paths added by RegisterDefaultEndpoints. They are listed after the API.
var systemPaths = map[string]bool{
	"/health":  true,
	"/livez":   true,
	"/readyz":  true,
	"/info":    true,
	"/version": true,
	"/metrics": true,
}

// ServerComponent registers a Server with the component registry.
type ServerComponent struct {
	server *Server
}

func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s}
}

func (sc *ServerComponent) Name() string { return componentName }

func (sc *ServerComponent) Start(ctx context.Context) error { return sc.server.Start(ctx) }

func (sc *ServerComponent) Stop(ctx context.Context) error { return sc.server.Stop(ctx) }

// Health is unhealthy until the listener is bound.
func (sc *ServerComponent) Health(context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	if !sc.server.bound() {
		h.Status = component.StatusUnhealthy
		h.Message = "listener not bound"
	}
	return h
}

func (sc *ServerComponent) Describe() component.Description {
	cfg := sc.server.config
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s:%d h2c", cfg.Host, cfg.Port),
		Port:    cfg.Port,
	}
}

// Routes lists the API routes by path, then the system routes.
func (sc *ServerComponent) Routes() []component.Route {
	infos := sc.server.engine.Routes()
	slices.SortFunc(infos, func(a, b gin.RouteInfo) int {
		if sa, sb := systemPaths[a.Path], systemPaths[b.Path]; sa != sb {
			if sa {
				return 1
			}
			return -1
		}
		return cmp.Or(strings.Compare(a.Path, b.Path), strings.Compare(a.Method, b.Method))
	})

	routes := make([]component.Route, len(infos))
	for i, r := range infos {
		routes[i] = component.Route{Method: r.Method, Path: r.Path, Handler: formatHandlerName(r.Handler)}
	}
	return routes
}

// formatHandlerName turns gin's handler symbol into a short label.
// Methods keep their receiver ("Handler.SubmitTask"); closures are named
// after the function that built them ("health").
func formatHandlerName(symbol string) string {
	name := path.Base(strings.TrimSuffix(symbol, "-fm"))
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] == strings.ToLower(parts[0]) {
		parts = parts[1:]
	}
	if strings.HasPrefix(parts[len(parts)-1], "func") {
		for len(parts) > 1 && strings.HasPrefix(parts[len(parts)-1], "func") {
			parts = parts[:len(parts)-1]
		}
		return strings.ToLower(parts[len(parts)-1])
	}
	return strings.Join(parts, ".")
}
