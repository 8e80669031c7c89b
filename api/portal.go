/*
portal.go - Client self-service portal authentication and views

PURPOSE:
  Lets a client check their own installments, credit state and payment
  history. Authentication is by DNI: the portal is a read-only
  convenience, not an operator surface, so a signed short-lived token
  keyed on the client ID is enough.

TOKEN TRANSPORT:
  The token is issued on login and carried either in the portal cookie
  or as a Bearer token. It holds only the client ID (subject) and an
  expiry; nothing else is trusted from it.

SEE ALSO:
  - handlers.go: Operator endpoints
  - server.go: Mounts the portal routes behind the middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vicred/credit-engine/ledger"
)

// portalCookie is the cookie carrying the portal token.
const portalCookie = "portal_token"

type portalClientKey struct{}

// =============================================================================
// PORTAL AUTH
// =============================================================================

// PortalAuth issues and verifies portal tokens.
type PortalAuth struct {
	Secret []byte
	TTL    time.Duration
}

func NewPortalAuth(secret []byte, ttl time.Duration) *PortalAuth {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PortalAuth{Secret: secret, TTL: ttl}
}

// IssueToken signs a token whose subject is the client ID.
func (a *PortalAuth) IssueToken(clientID string, now time.Time) (string, time.Time, error) {
	expires := now.Add(a.TTL)
	claims := jwt.RegisteredClaims{
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	return token, expires, err
}

// VerifyToken returns the client ID the token was issued for.
func (a *PortalAuth) VerifyToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.Secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}

// Middleware rejects requests without a valid portal token and stashes
// the authenticated client ID in the request context.
func (a *PortalAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if cookie, err := r.Cookie(portalCookie); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing portal token", nil)
			return
		}

		clientID, err := a.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid portal token", err)
			return
		}

		ctx := context.WithValue(r.Context(), portalClientKey{}, clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// portalClientID extracts the authenticated client ID set by Middleware.
func portalClientID(r *http.Request) string {
	id, _ := r.Context().Value(portalClientKey{}).(string)
	return id
}

// =============================================================================
// PORTAL HANDLERS
// =============================================================================

// PortalLogin authenticates a client by DNI and issues a token, both in
// the response body and as a cookie.
func (h *Handler) PortalLogin(auth *PortalAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PortalLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if req.DNI == "" {
			writeError(w, http.StatusBadRequest, "dni is required", nil)
			return
		}

		client, err := h.Store.GetClientByDNI(r.Context(), req.DNI)
		if err != nil {
			// Same response for unknown DNI as for any lookup failure:
			// the portal must not leak which DNIs exist.
			writeError(w, http.StatusUnauthorized, "Login failed", nil)
			return
		}

		token, expires, err := auth.IssueToken(client.ID, time.Now().UTC())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     portalCookie,
			Value:    token,
			Path:     "/",
			Expires:  expires,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		h.Log.Info().Str("client_id", client.ID).Msg("portal login")
		writeJSON(w, http.StatusOK, PortalLoginResponse{
			Token:    token,
			ClientID: client.ID,
			Name:     client.Name,
			Expires:  expires,
		})
	}
}

// PortalMe returns the authenticated client's own account view: credit
// state, installments and payment history.
func (h *Handler) PortalMe(w http.ResponseWriter, r *http.Request) {
	clientID := portalClientID(r)
	ctx := r.Context()

	client, err := h.Store.GetClient(ctx, clientID)
	if err != nil {
		writeDomainError(w, "Failed to get client", err)
		return
	}
	state, err := h.creditState(r, clientID)
	if err != nil {
		writeDomainError(w, "Failed to compute credit state", err)
		return
	}
	installments, err := h.Store.InstallmentsByClient(ctx, clientID)
	if err != nil {
		writeDomainError(w, "Failed to list installments", err)
		return
	}

	// Payment history filtered down to this client.
	all, err := h.Store.ListPayments(ctx, 0)
	if err != nil {
		writeDomainError(w, "Failed to list payments", err)
		return
	}
	var own []ledger.Payment
	for _, p := range all {
		if p.ClientID == clientID {
			own = append(own, p)
		}
	}

	writeJSON(w, http.StatusOK, PortalMeResponse{
		Client:       toClientDTO(*client, h.limitFor(r, clientID)),
		Credit:       toCreditStateDTO(state),
		Installments: toInstallmentDTOs(installments),
		Payments:     toPaymentDTOs(own),
	})
}
