package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const sessionKey contextKey = "session"

// Role distinguishes counselor users from platform administrators. Admin is
// the superuser role: it may act on any pending response regardless of
// assignment.
type Role string

const (
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

// SessionClaims are the custom JWT claims carried by a bearer session token.
type SessionClaims struct {
	UserID      string `json:"uid"`
	CounselorID string `json:"cid,omitempty"`
	OrgID       string `json:"org,omitempty"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the resolved caller identity attached to the request context.
type Session struct {
	UserID      string
	CounselorID string
	OrgID       string
	Role        Role
}

// IsAdmin reports whether the session belongs to a platform administrator.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// SessionAuth enforces an HMAC-signed JWT and resolves it to a Session.
func SessionAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "session auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := SessionClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			role := Role(claims.Role)
			if role != RoleCounselor && role != RoleAdmin {
				http.Error(w, "unknown role", http.StatusForbidden)
				return
			}

			session := Session{
				UserID:      claims.UserID,
				CounselorID: claims.CounselorID,
				OrgID:       claims.OrgID,
				Role:        role,
			}
			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects non-admin sessions with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok || !session.IsAdmin() {
			http.Error(w, "admin role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromContext returns the resolved session if present.
func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionKey).(Session)
	return session, ok
}

// WithSession stores a session in context. Exposed for handler tests.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}
