package routes

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/anomaly/labs-api/internal/common"
	"github.com/anomaly/labs-api/internal/db"
)

// Deps are the collaborators the handlers borrow per request: a scoped
// database session provider and an observability event emitter.
type Deps struct {
	AppName  string
	Sessions db.SessionProvider
	Events   common.Emitter
}

type handlers struct {
	deps   Deps
	prefix string
}

// Register wires the root placeholder and the ext diagnostic routes into the
// provided API. Call NormalizeOperationIDs after all routes are added.
func Register(api huma.API, deps Deps) {
	h := &handlers{deps: deps, prefix: apiPrefix(api)}

	huma.Get(api, "/", h.root,
		withHandlerName(h.root),
		func(o *huma.Operation) {
			o.Summary = "Placeholder for the root endpoint"
		},
	)

	registerExt(api, h)
}

// MessageData is the fixed key-value record shared by the diagnostic routes.
type MessageData struct {
	Message string `json:"message" doc:"Fixed status message" example:"ok"`
}

// MessageOutput is the response wrapper for the diagnostic routes.
type MessageOutput struct {
	Body MessageData
}

// RootData is the payload of the root placeholder endpoint.
type RootData struct {
	Message  string `json:"message" doc:"Welcome message" example:"Welcome to the labs-api API"`
	RootPath string `json:"root_path" doc:"Mount prefix the application is served under, empty when unmounted"`
}

// RootOutput is the response wrapper for the root endpoint.
type RootOutput struct {
	Body RootData
}

func (h *handlers) root(_ context.Context, _ *struct{}) (*RootOutput, error) {
	return &RootOutput{Body: RootData{
		Message:  fmt.Sprintf("Welcome to the %s API", h.deps.AppName),
		RootPath: h.prefix,
	}}, nil
}

func registerExt(api huma.API, h *handlers) {
	huma.Get(api, "/echo", h.echo,
		withHandlerName(h.echo),
		withExtTag("Echo back a response to say hello"),
	)
	huma.Get(api, "/healthcheck", h.healthcheck,
		withHandlerName(h.healthcheck),
		withExtTag("Check the health of the server"),
	)
	huma.Get(api, "/log", h.log,
		withHandlerName(h.log),
		withExtTag("Log a message"),
	)
}

// echo merely validates that the server is up and running.
func (h *handlers) echo(_ context.Context, _ *struct{}) (*MessageOutput, error) {
	return &MessageOutput{Body: MessageData{Message: "Hello, world!"}}, nil
}

// healthcheck reports ok if a database session can be acquired. No query is
// issued; entering the session scope is the check. Acquisition failures are
// left for the framework's default error translation.
func (h *handlers) healthcheck(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	err := h.deps.Sessions.WithSession(ctx, func(_ context.Context, _ *sql.Conn) error {
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageData{Message: "ok"}}, nil
}

// log emits one observability event with a fixed payload.
func (h *handlers) log(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	h.deps.Events.Emit(ctx, "follow", map[string]string{"from": "userA", "to": "userB"})
	return &MessageOutput{Body: MessageData{Message: "ok"}}, nil
}

func withExtTag(summary string) func(o *huma.Operation) {
	return func(o *huma.Operation) {
		o.Tags = append(o.Tags, "ext")
		o.Summary = summary
	}
}

// apiPrefix resolves the mount prefix from the OpenAPI server entries.
func apiPrefix(api huma.API) string {
	for _, s := range api.OpenAPI().Servers {
		if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return ""
}
