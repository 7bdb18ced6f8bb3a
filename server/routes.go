package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// The browser leg: start and callback are navigated to, not fetched.
	s.RegisterRouteHandler("GET "+RouteHandoffStart, ChainMiddleware(s.StartHandler(), s.HTMLMiddleWare(s.NoStoreMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteHandoffCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare(s.NoStoreMiddleware)...))

	// The app leg
	s.RegisterRouteHandler("POST "+RouteHandoffComplete, ChainMiddleware(s.CompleteHandler(), s.APIMiddleware(s.CorsMiddleware, s.NoStoreMiddleware)...))
	s.RegisterRouteHandler("OPTIONS "+RouteHandoffComplete, ChainMiddleware(s.PreflightHandler(), s.APIMiddleware(s.CorsMiddleware)...))
}
