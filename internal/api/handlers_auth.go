// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/firelinehq/fireline/internal/auth"
	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/metrics"
	"github.com/firelinehq/fireline/internal/store"
)

// loginLimiter throttles login attempts per username, on top of the
// per-IP httprate limit on the route. Limiting by username blocks
// distributed credential stuffing that rotates source addresses.
type loginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// allow reports whether another attempt for username is permitted.
// Each username gets 10 attempts burst, refilling one per 30 seconds.
func (l *loginLimiter) allow(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := strings.ToLower(username)
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(30*time.Second), 10)
		l.limiters[key] = limiter
	}
	return limiter.Allow()
}

var loginAttempts = newLoginLimiter()

// loginResponse is the payload returned on successful authentication.
type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      interface{} `json:"user"`
}

// Login authenticates a user by username and password and returns an
// HS256 JWT, both in the response body and as an HTTP-only cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if !loginAttempts.allow(req.Username) {
		metrics.AuthAttempts.WithLabelValues("throttled").Inc()
		rw.TooManyRequests("Too many login attempts, try again later")
		return
	}

	user, err := h.store.Users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a bcrypt comparison so missing and present usernames
			// take the same time to reject.
			auth.CheckPassword("$2a$12$C6UzMDM.H6dfI/f/IKcEeO7kC3gCv8i1zN0eUnVRpG7rrsiYSbhhm", req.Password)
			metrics.AuthAttempts.WithLabelValues("invalid_credentials").Inc()
			rw.Unauthorized("Invalid username or password")
			return
		}
		rw.DatabaseError(err)
		return
	}

	if !user.Active {
		metrics.AuthAttempts.WithLabelValues("inactive_user").Inc()
		rw.Unauthorized("Invalid username or password")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		metrics.AuthAttempts.WithLabelValues("invalid_credentials").Inc()
		logging.Ctx(r.Context()).Warn().
			Str("username", sanitizeLogValue(req.Username)).
			Msg("Login failed: wrong password")
		rw.Unauthorized("Invalid username or password")
		return
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Token generation failed")
		rw.InternalError("Could not generate session token")
		return
	}

	expiresAt := time.Now().Add(h.config.Security.SessionTimeout)

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   !h.config.IsDevelopment(),
	})

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	logging.Ctx(r.Context()).Info().
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("User logged in")

	rw.Success(loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// Logout clears the session cookie. JWTs are not tracked server side, so
// this only removes the browser credential.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	NewResponseWriter(w, r).Success(map[string]string{"status": "logged_out"})
}

// Me returns the profile of the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return
	}

	user, err := h.store.Users.Get(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("User no longer exists")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(user)
}
