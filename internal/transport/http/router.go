package httptransport

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"wager-engine/internal/auth"
	"wager-engine/internal/betfeed"
	"wager-engine/internal/config"
	"wager-engine/internal/engine"
	"wager-engine/internal/mcpserver"
	"wager-engine/internal/ratelimit"
	"wager-engine/internal/slip"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Engine  *engine.Engine
	Store   Pinger
	Feed    *betfeed.Hub
	Slips   *slip.Book
	Tokens  *auth.Tokens
	Limiter ratelimit.Limiter
}

func NewRouter(cfg config.ServerConfig, d Deps) *chi.Mux {
	if d.Feed == nil {
		d.Feed = betfeed.NewHub(0, 0)
	}
	if d.Slips == nil {
		d.Slips = slip.NewBook()
	}
	mcpSrv := mcpserver.New(d.Engine, d.Tokens, cfg.AdminAPIKey)
	bets := NewBetHandlers(d.Engine, d.Feed)
	slips := NewSlipHandlers(d.Engine, d.Slips)
	admin := NewAdminHandlers(d.Engine, d.Store, d.Tokens)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", admin.Health())
	r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())

		r.Group(func(r chi.Router) {
			r.Use(PlayerAuthMiddleware(d.Tokens))
			r.Use(RateLimitMiddleware(d.Limiter))

			r.Get("/slip", slips.Get())
			r.Delete("/slip", slips.Clear())
			r.Post("/slip/entries", slips.Add())
			r.Delete("/slip/entries/{proposal_id}", slips.Remove())
			r.Post("/slip/submit", slips.Submit())

			r.Post("/bets", bets.Submit())
			r.Get("/bets/{bet_id}", bets.Get())
			r.Post("/bets/{bet_id}/play", bets.Play())
			r.Post("/bets/{bet_id}/reveal", bets.Reveal())
			r.Post("/bets/{bet_id}/cashout", bets.CashOut())
			r.Get("/bets/{bet_id}/fairness", bets.Fairness())
			r.Get("/bets/{bet_id}/events", bets.Events())
			r.Get("/ws", bets.Feed())
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Post("/players/token", admin.IssueToken())
			r.Get("/bets", admin.Bets())
			r.Post("/bets/{bet_id}/confirm", admin.Confirm())

			r.Route("/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
