// Package webhook taps Telegram Bot API webhook requests for bots that do
// not use a framework adapter. The middleware tracks the raw update body
// and hands the request, unchanged, to the next handler.
package webhook

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/flemzord/dashgram/pkg/dashgram"
)

// SecretTokenHeader carries the secret_token registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const defaultMaxBodyBytes = 1 << 20 // 1 MiB

// Config configures the webhook tap.
type Config struct {
	// SecretToken, when set, must match the SecretTokenHeader of every
	// request. Mismatching requests are rejected with 401 and not tracked.
	SecretToken string

	// MaxBodyBytes bounds the body read for tracking. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Middleware returns a chi-compatible middleware tracking every update
// posted to the wrapped handler.
func Middleware(t dashgram.Tracker, cfg Config) func(http.Handler) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.SecretToken != "" {
				token := r.Header.Get(SecretTokenHeader)
				if subtle.ConstantTimeCompare([]byte(cfg.SecretToken), []byte(token)) != 1 {
					t.Logger().Warn("webhook: invalid secret token", "remote_addr", r.RemoteAddr)
					http.Error(w, "invalid secret token", http.StatusUnauthorized)
					return
				}
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, cfg.MaxBodyBytes+1))
			if err != nil {
				http.Error(w, "failed to read body", http.StatusBadRequest)
				return
			}
			r.Body = readCloser{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}

			if int64(len(body)) > cfg.MaxBodyBytes {
				t.Logger().Warn("webhook: body too large, update not tracked", "limit", cfg.MaxBodyBytes)
			} else {
				dashgram.Observe(r.Context(), t, json.RawMessage(body))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// readCloser replays the buffered prefix of a body before the rest of it.
type readCloser struct {
	io.Reader
	io.Closer
}

// Acknowledge is a terminal handler answering {"ok":true}, for taps that
// do not forward updates anywhere.
func Acknowledge() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}
