package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

type ctxKey int

const subjectKey ctxKey = iota

// bearerProtocol is the websocket subprotocol that carries a token as the
// following Sec-WebSocket-Protocol entry.
const bearerProtocol = "bearer"

// AuthMiddleware checks the bearer token and stores its subject in the request context.
// Websocket upgrades may pass the token as a token query parameter or through the
// bearer subprotocol, since browsers cannot set headers on them.
// An empty secret disables authentication.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(secret) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return tok
	}
	if !websocket.IsWebSocketUpgrade(r) {
		return ""
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	protocols := websocket.Subprotocols(r)
	for i, p := range protocols {
		if p == bearerProtocol && i+1 < len(protocols) {
			return protocols[i+1]
		}
	}
	return ""
}

// Subject returns the authenticated token subject, if any.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey).(string)
	return s
}
