package server

// Route path constants
const (
	RouteHandoffStart    = "/tasklight/notion/oauth/start"
	RouteHandoffCallback = "/tasklight/notion/oauth/callback"
	RouteHandoffComplete = "/tasklight/notion/oauth/complete"

	RouteHealth = "/healthz"
)
