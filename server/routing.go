package server

import "net/http"

// setupRoutes configures all HTTP handlers
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/relay-signature", s.corsMiddleware(s.HandleRelaySignature)) // Gasless placement relay (POST)
	s.mux.HandleFunc("/api/grid", s.corsMiddleware(s.HandleGrid))                      // Full grid snapshot (GET)
	s.mux.HandleFunc("/api/cooldown/", s.corsMiddleware(s.HandleCooldown))             // Per-address cooldown and stats (GET /api/cooldown/{address})
	s.mux.HandleFunc("/api/expansion", s.corsMiddleware(s.HandleExpansion))            // Grid expansion threshold (GET)
	s.mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	s.mux.HandleFunc("/ws", s.corsMiddleware(s.HandleWebSocket)) // Confirmed-pixel push feed
}

// corsMiddleware adds CORS headers to HTTP responses using configured
// allowed origins. Uses the same origin validation as WebSocket upgrades.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if s.devMode {
			w.Header().Set("Access-Control-Allow-Methods", "*")
			w.Header().Set("Access-Control-Allow-Headers", "*")
		} else {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// originAllowed validates an Origin header against the configured list.
func (s *Server) originAllowed(origin string) bool {
	if s.devMode {
		return true
	}
	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// checkOrigin validates WebSocket upgrade origins. Requests without an
// Origin header (non-browser clients) are allowed.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return s.originAllowed(origin)
}
