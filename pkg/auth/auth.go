// Package auth provides OpenID Connect bearer-token verification and
// request-scoped actor identity used by audit triggers and QA review.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/factotum/pkg/handlers"
	"github.com/JaimeStill/factotum/pkg/lifecycle"
)

var (
	// ErrUnauthorized indicates a missing or invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotReady indicates the identity provider has not been discovered yet.
	ErrNotReady = errors.New("identity provider not ready")
)

// System verifies request identity and exposes it through the request context.
type System interface {
	// Start registers a startup hook that discovers the OIDC provider.
	Start(lc *lifecycle.Coordinator) error
	// Middleware resolves the actor for each request.
	Middleware() func(http.Handler) http.Handler
}

type oidcAuth struct {
	cfg      *Config
	logger   *slog.Logger
	mu       sync.RWMutex
	verifier *oidc.IDTokenVerifier
}

// New creates an auth system. Provider discovery is deferred to Start.
func New(cfg *Config, logger *slog.Logger) System {
	return &oidcAuth{
		cfg:    cfg,
		logger: logger.With("system", "auth"),
	}
}

func (a *oidcAuth) Start(lc *lifecycle.Coordinator) error {
	if !a.cfg.Enabled {
		a.logger.Info("auth disabled, trusting actor header", "header", a.cfg.ActorHeader)
		return nil
	}

	lc.OnStartup("auth", func() error {
		provider, err := oidc.NewProvider(lc.Context(), a.cfg.Issuer)
		if err != nil {
			a.logger.Error("oidc provider discovery failed", "issuer", a.cfg.Issuer, "error", err)
			return fmt.Errorf("discover %s: %w", a.cfg.Issuer, err)
		}

		a.mu.Lock()
		a.verifier = provider.Verifier(&oidc.Config{ClientID: a.cfg.ClientID})
		a.mu.Unlock()

		a.logger.Info("oidc provider ready", "issuer", a.cfg.Issuer)
		return nil
	})

	return nil
}

func (a *oidcAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.cfg.Enabled {
				if actor := strings.TrimSpace(r.Header.Get(a.cfg.ActorHeader)); actor != "" {
					r = r.WithContext(WithActor(r.Context(), actor))
				}
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := bearerToken(r)
			if !ok {
				handlers.RespondError(w, a.logger, http.StatusUnauthorized, ErrUnauthorized)
				return
			}

			a.mu.RLock()
			verifier := a.verifier
			a.mu.RUnlock()

			if verifier == nil {
				handlers.RespondError(w, a.logger, http.StatusServiceUnavailable, ErrNotReady)
				return
			}

			token, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				handlers.RespondError(w, a.logger, http.StatusUnauthorized, fmt.Errorf("%w: %w", ErrUnauthorized, err))
				return
			}

			var claims map[string]any
			if err := token.Claims(&claims); err != nil {
				handlers.RespondError(w, a.logger, http.StatusUnauthorized, fmt.Errorf("%w: %w", ErrUnauthorized, err))
				return
			}

			actor := ActorFromClaims(claims, a.cfg.ActorClaim)
			if actor == "" {
				actor = token.Subject
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// ActorFromClaims returns the string value of claim, or "" when absent or not a string.
func ActorFromClaims(claims map[string]any, claim string) string {
	v, ok := claims[claim].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
