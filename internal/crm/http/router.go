package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/agentictinkering/brokerd/internal/crm/authz"
	"github.com/agentictinkering/brokerd/internal/crm/domain"
	"github.com/agentictinkering/brokerd/internal/crm/store"
	"github.com/agentictinkering/brokerd/pkg/httpx"
	"github.com/agentictinkering/brokerd/pkg/rcsdk"
	"github.com/agentictinkering/brokerd/pkg/slogx"

	_ "github.com/agentictinkering/brokerd/api/crm" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RingCentralConfig carries the provider settings the telephony handlers need.
type RingCentralConfig struct {
	ServerURL    string // provider REST base URL
	ClientID     string
	ClientSecret string
	RedirectURI  string
	FromNumber   string // outbound caller id for calls and SMS
	Origin       string // this service's own base URL, for internal refresh calls
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store      store.Store
	authorizer *authz.Authorizer
	guard      *rcsdk.Guard
	rc         RingCentralConfig
}

func NewRouter(
	st store.Store,
	authorizer *authz.Authorizer,
	guard *rcsdk.Guard,
	rc RingCentralConfig,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		authorizer:   authorizer,
		guard:        guard,
		rc:           rc,
	}

	// Every request flows through request-id logging and the page-navigation
	// authorization gate before reaching route handlers.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.authorizer.Middleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerTelephonyAuth()
	r.registerTelephony()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Brokerd Telephony & Authorization API
//	@version		0.1.0
//	@description	Telephony integration service for a multi-tenant insurance CRM: RingCentral OAuth
//	@description	token lifecycle with rate-limit backoff, outbound calls and SMS, and role/permission
//	@description	based route authorization.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// rcClient builds the per-request RingCentral client. The guard is shared
// across all requests; everything else is request state.
func (r *Router) rcClient(req *http.Request) *rcsdk.Client {
	origin := r.rc.Origin
	if origin == "" {
		scheme := "http"
		if req.TLS != nil {
			scheme = "https"
		}
		origin = scheme + "://" + req.Host
	}
	return rcsdk.NewClient(rcsdk.SnapshotCookies(req), origin, r.rc.ServerURL, r.guard)
}

func (r *Router) registerTelephonyAuth() {
	h := &AuthHandler{
		ServerURL:    r.rc.ServerURL,
		ClientID:     r.rc.ClientID,
		ClientSecret: r.rc.ClientSecret,
		RedirectURI:  r.rc.RedirectURI,
		Guard:        r.guard,
	}

	// The strict per-IP budget covers the interactive actions. Refresh calls
	// originate from this service's own token clients on behalf of many
	// users and share a source address, so they are limited per user.
	interactive := httpx.Chain(h, httpx.RateLimitByIP(httpx.AuthLimit))
	refresh := httpx.Chain(h, httpx.RateLimitByUser(httpx.DefaultAPILimit))

	r.Mux.Handle("GET /api/ringcentral/auth", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("action") == "refresh" {
			refresh.ServeHTTP(w, req)
			return
		}
		interactive.ServeHTTP(w, req)
	}))
}

func (r *Router) registerTelephony() {
	call := &CallHandler{FromNumber: r.rc.FromNumber, Clients: r.rcClient}
	sms := &SMSHandler{FromNumber: r.rc.FromNumber, Clients: r.rcClient}
	numbers := &PhoneNumbersHandler{Clients: r.rcClient}

	view := authz.Options{
		RequiredPermissions: []domain.Permission{domain.PermCommunicationsView},
		RequireOrganization: true,
	}
	create := authz.Options{
		RequiredPermissions: []domain.Permission{domain.PermCommunicationsCreate},
		RequireOrganization: true,
	}

	r.Mux.Handle("POST /api/ringcentral/call",
		httpx.Chain(r.authorizer.WithAuth(call.HandlePlace, create),
			httpx.RateLimitByUser(httpx.TelephonyLimit),
		),
	)
	r.Mux.Handle("GET /api/ringcentral/call-status",
		httpx.Chain(r.authorizer.WithAuth(call.HandleStatus, view),
			httpx.RateLimitByUser(httpx.TelephonyLimit),
		),
	)
	r.Mux.Handle("DELETE /api/ringcentral/end-call",
		httpx.Chain(r.authorizer.WithAuth(call.HandleEnd, create),
			httpx.RateLimitByUser(httpx.TelephonyLimit),
		),
	)
	r.Mux.Handle("POST /api/ringcentral/sms",
		httpx.Chain(r.authorizer.WithAuth(sms.HandleSend, create),
			httpx.RateLimitByUser(httpx.TelephonyLimit),
		),
	)
	r.Mux.Handle("GET /api/ringcentral/phone-numbers",
		httpx.Chain(r.authorizer.WithAuth(numbers.HandleList, view),
			httpx.RateLimitByUser(httpx.DefaultAPILimit),
		),
	)
}

func (r *Router) registerSystem() {
	livez := LivezHandler(r.startTime, r.buildVersion)

	r.Mux.Handle("GET /livez",
		httpx.Chain(livez, httpx.RateLimitByIP(httpx.PublicLimit)),
	)
	// /api/health is the public alias probed by the frontend.
	r.Mux.Handle("GET /api/health",
		httpx.Chain(livez, httpx.RateLimitByIP(httpx.PublicLimit)),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
