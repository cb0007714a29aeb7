package auth

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/tollgate/internal/accounts"
	"github.com/JaimeStill/tollgate/pkg/handlers"
	"github.com/JaimeStill/tollgate/pkg/openapi"
	"github.com/JaimeStill/tollgate/pkg/reqctx"
	"github.com/JaimeStill/tollgate/pkg/routes"
	"github.com/JaimeStill/tollgate/pkg/service"
)

// Handler serves the /auth endpoints.
type Handler struct {
	login   service.Service[LoginCommand, Tokens]
	signUp  service.Service[accounts.CreateCommand, Tokens]
	refresh service.Service[RefreshCommand, Tokens]
	current service.Service[string, accounts.Profile]
	remove  service.Service[string, accounts.Deleted]
	logger  *slog.Logger
}

func NewHandler(sys *System, logger *slog.Logger) *Handler {
	logger = logger.With("handler", "auth")
	return &Handler{
		login:   service.Logged("auth.login", logger, service.Func[LoginCommand, Tokens](sys.Login)),
		signUp:  service.Logged("auth.sign_up", logger, service.Func[accounts.CreateCommand, Tokens](sys.SignUp)),
		refresh: service.Logged("auth.refresh", logger, service.Func[RefreshCommand, Tokens](sys.Refresh)),
		current: service.Func[string, accounts.Profile](sys.CurrentAccount),
		remove:  service.Logged("auth.delete_account", logger, service.Func[string, accounts.Deleted](sys.DeleteAccount)),
		logger:  logger,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/auth",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/login", Handler: h.Login, Public: true, Doc: &openapi.Operation{
				Summary: "Exchange credentials for tokens", Tags: []string{"auth"},
				RequestBody: openapi.JSONBody("Credentials"),
				Responses:   openapi.Responses(http.StatusOK, "Tokens", "BadRequest", "NotFound"),
			}},
			{Method: "POST", Pattern: "/sign-up", Handler: h.SignUp, Public: true, Doc: &openapi.Operation{
				Summary: "Create an account", Tags: []string{"auth"},
				RequestBody: openapi.JSONBody("Credentials"),
				Responses:   openapi.Responses(http.StatusCreated, "Tokens", "BadRequest", "Conflict"),
			}},
			{Method: "POST", Pattern: "/refresh", Handler: h.Refresh, Public: true, Doc: &openapi.Operation{
				Summary: "Rotate the token pair", Tags: []string{"auth"},
				RequestBody: openapi.JSONBody("RefreshRequest"),
				Responses:   openapi.Responses(http.StatusOK, "Tokens", "BadRequest", "Unauthorized"),
			}},
			{Method: "GET", Pattern: "/me", Handler: h.Me, Doc: &openapi.Operation{
				Summary: "Current account", Tags: []string{"auth"},
				Responses: openapi.Responses(http.StatusOK, "Account", "Unauthorized", "NotFound"),
			}},
			{Method: "DELETE", Pattern: "/me", Handler: h.DeleteMe, Doc: &openapi.Operation{
				Summary: "Delete the current account", Tags: []string{"auth"},
				Responses: openapi.Responses(http.StatusOK, "Deleted", "Unauthorized", "NotFound"),
			}},
		},
	}
}

// Schemas lists the component schemas referenced by Routes.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Credentials": {
			Type:     "object",
			Required: []string{"email", "password"},
			Properties: map[string]*openapi.Schema{
				"email":    {Type: "string", Format: "email"},
				"password": {Type: "string"},
			},
		},
		"RefreshRequest": {
			Type:       "object",
			Required:   []string{"refreshToken"},
			Properties: map[string]*openapi.Schema{"refreshToken": {Type: "string"}},
		},
		"Tokens": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"accessToken":  {Type: "string"},
				"refreshToken": {Type: "string"},
				"expiresIn":    {Type: "integer"},
			},
		},
		"Account": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":    {Type: "string", Format: "uuid"},
				"email": {Type: "string", Format: "email"},
			},
		},
		"Deleted": {
			Type:       "object",
			Properties: map[string]*openapi.Schema{"deleted": {Type: "integer"}},
		},
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var cmd LoginCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, r, h.logger, err)
		return
	}
	handlers.Respond(w, r, h.logger, http.StatusOK, h.login.Execute(r.Context(), cmd))
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var cmd accounts.CreateCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, r, h.logger, err)
		return
	}
	handlers.Respond(w, r, h.logger, http.StatusCreated, h.signUp.Execute(r.Context(), cmd))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var cmd RefreshCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, r, h.logger, err)
		return
	}
	handlers.Respond(w, r, h.logger, http.StatusOK, h.refresh.Execute(r.Context(), cmd))
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.current.Execute(r.Context(), reqctx.AccountID(r.Context())))
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.remove.Execute(r.Context(), reqctx.AccountID(r.Context())))
}
