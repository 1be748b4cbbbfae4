// Package api exposes the secure file read endpoint over HTTP.
//
// Denied and missing outcomes render as the same generic not-found response
// so clients cannot probe for record existence.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/cloudconstruct/securefile/pkg/securefile"
)

// Handler serves secure file requests.
type Handler struct {
	gateway *securefile.Gateway
	issuer  *securefile.SignedURLIssuer
	auth    *jwtauth.JWTAuth
}

// NewHandler creates a handler. auth may be nil, in which case every request
// is treated as anonymous. issuer may be nil to disable the signed-URL
// endpoint.
func NewHandler(gateway *securefile.Gateway, issuer *securefile.SignedURLIssuer, auth *jwtauth.JWTAuth) *Handler {
	return &Handler{
		gateway: gateway,
		issuer:  issuer,
		auth:    auth,
	}
}

// Routes returns the router for secure file endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	if h.auth != nil {
		r.Use(jwtauth.Verifier(h.auth))
	}
	r.Get("/{contentID}", h.GetSecureFile)
	r.Get("/{contentID}/signed-url", h.GetSignedURL)
	return r
}

// SignedURLResponse is the payload of the signed-URL endpoint.
type SignedURLResponse struct {
	URL string `json:"url"`
}

// GetSecureFile streams a field's file to an authorized caller.
func (h *Handler) GetSecureFile(w http.ResponseWriter, r *http.Request) {
	contentID, err := uuid.Parse(chi.URLParam(r, "contentID"))
	if err != nil {
		h.notFound(w, r)
		return
	}
	fieldName := r.URL.Query().Get("fieldName")
	if fieldName == "" {
		h.notFound(w, r)
		return
	}

	identity := h.identityFromRequest(r)

	file, err := h.gateway.Serve(r.Context(), contentID, fieldName, identity)
	if err != nil {
		h.renderError(w, r, contentID, fieldName, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(file.Bytes)
}

// GetSignedURL resolves access and issues a time-boxed direct link for a
// remote-backed field. Fields without signing enabled yield the same generic
// not-found response.
func (h *Handler) GetSignedURL(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		h.notFound(w, r)
		return
	}

	contentID, err := uuid.Parse(chi.URLParam(r, "contentID"))
	if err != nil {
		h.notFound(w, r)
		return
	}
	fieldName := r.URL.Query().Get("fieldName")
	if fieldName == "" {
		h.notFound(w, r)
		return
	}

	identity := h.identityFromRequest(r)

	field, _, err := h.gateway.ResolveField(r.Context(), contentID, fieldName, identity)
	if err != nil {
		h.renderError(w, r, contentID, fieldName, err)
		return
	}

	url, err := h.issuer.Issue(r.Context(), field)
	if err != nil {
		slog.Error("signed URL issuance failed", "content_id", contentID, "field", fieldName, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if url == "" {
		h.notFound(w, r)
		return
	}

	render.JSON(w, r, SignedURLResponse{URL: url})
}

// identityFromRequest builds the requester identity from the verified JWT,
// if any. Missing or invalid tokens mean anonymous.
func (h *Handler) identityFromRequest(r *http.Request) *securefile.Identity {
	if h.auth == nil {
		return nil
	}

	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return nil
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil
	}

	identity := &securefile.Identity{ID: id}
	if username, ok := claims["username"].(string); ok {
		identity.Username = username
	}
	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, v := range raw {
			if role, ok := v.(string); ok {
				identity.Roles = append(identity.Roles, role)
			}
		}
	}
	return identity
}

// renderError maps gateway outcomes to responses. Denied and not-found are
// indistinguishable to the client.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, contentID uuid.UUID, fieldName string, err error) {
	switch {
	case errors.Is(err, securefile.ErrContentNotFound),
		errors.Is(err, securefile.ErrObjectNotFound):
		h.notFound(w, r)
	case errors.Is(err, securefile.ErrAccessDenied):
		slog.Info("secure file access denied", "content_id", contentID, "field", fieldName)
		h.notFound(w, r)
	case errors.Is(err, securefile.ErrFieldNotFound):
		// A request for an undeclared field is a configuration error worth
		// surfacing in the logs, but the client still sees the generic
		// response.
		slog.Error("secure file field not configured", "content_id", contentID, "field", fieldName)
		h.notFound(w, r)
	default:
		slog.Error("secure file request failed", "content_id", contentID, "field", fieldName, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}
