// Package server wires the planning service onto the MCP transport. This is
// the composition root: no business logic, only tool registration.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/supperclub/concierge/planner"
)

// Version is set at build time via ldflags.
var Version = "dev"

type Config struct {
	Transport string `envconfig:"TRANSPORT" split_words:"true" default:"stdio"`
	HTTPAddr  string `envconfig:"HTTP_ADDR" split_words:"true" default:":8000"`
	HTTPPath  string `envconfig:"HTTP_PATH" split_words:"true" default:"/mcp"`
}

// New creates the MCP server with every planning tool registered against the
// service.
func New(svc *planner.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"supperclub-concierge",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	t := &toolSet{svc: svc}
	s.AddTool(t.extractConstraintsDefinition(), t.handleExtractConstraints)
	s.AddTool(t.proposeItineraryDefinition(), t.handleProposeItinerary)
	s.AddTool(t.detectConsensusDefinition(), t.handleDetectConsensus)
	s.AddTool(t.dispatchBookingDefinition(), t.handleDispatchBooking)
	s.AddTool(t.finalizeReservationDefinition(), t.handleFinalizeReservation)
	s.AddTool(t.buildCalendarDefinition(), t.handleBuildCalendar)
	s.AddTool(t.getPlanStateDefinition(), t.handleGetPlanState)
	s.AddTool(t.resetPlanDefinition(), t.handleResetPlan)
	s.AddTool(t.bookRestaurantDefinition(), t.handleBookRestaurant)
	s.AddTool(t.estimateRideshareDefinition(), t.handleEstimateRideshare)

	return s
}

// Run serves over stdio by default, or streamable HTTP when configured.
func Run(s *server.MCPServer, cfg Config) error {
	if cfg.Transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s,
			server.WithEndpointPath(cfg.HTTPPath),
		)
		return httpServer.Start(cfg.HTTPAddr)
	}
	return server.ServeStdio(s)
}

const serverInstructions = `Coordinates a group dinner plan end to end:
extract constraints from chat text, propose two itinerary options, watch the
group converge, dispatch the booking, finalize the reservation, and produce a
calendar event. Operations that change a plan should not run concurrently for
the same plan id.`
