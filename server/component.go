package server

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/lecturly/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component adapts a Server to the component lifecycle.
type Component struct {
	server  *Server
	started atomic.Bool
}

// NewComponent returns a lifecycle component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the component name used for registration.
func (sc *Component) Name() string { return componentName }

// Start starts the underlying HTTP server.
func (sc *Component) Start(ctx context.Context) error {
	if err := sc.server.Start(ctx); err != nil {
		return err
	}
	sc.started.Store(true)
	return nil
}

// Stop gracefully shuts down the underlying HTTP server.
func (sc *Component) Stop(ctx context.Context) error {
	sc.started.Store(false)
	return sc.server.Stop(ctx)
}

// Health reports whether the server is listening.
func (sc *Component) Health(context.Context) component.Health {
	if !sc.started.Load() {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

// Describe returns summary info for the startup display.
func (sc *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: sc.server.Addr(),
		Port:    sc.server.config.Port,
	}
}

// Routes returns all registered HTTP routes.
func (sc *Component) Routes() []component.Route {
	return sc.server.Routes()
}
