package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-handoff-server/handoff"
	"github.com/jrsteele09/go-handoff-server/internal/config"
	"github.com/rs/zerolog/log"
)

// HandoffService is the orchestrator the HTTP layer drives.
type HandoffService interface {
	Start(ctx context.Context, clientBinding *string) (*handoff.AuthorizationStart, error)
	Callback(ctx context.Context, code, state string) (*handoff.CallbackResult, error)
	Complete(ctx context.Context, handoffID string, clientBinding *string) (json.RawMessage, error)
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	handoffs HandoffService
}

func New(config config.Config, handoffs HandoffService) (*Server, error) {
	if handoffs == nil {
		return nil, fmt.Errorf("[Server New] handoff service is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		handoffs: handoffs,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Info().Msgf("[%-19s] %s", color+paddedMethod+ResetColor, path)
}
