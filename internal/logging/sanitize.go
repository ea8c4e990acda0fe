package logging

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

const redacted = "[REDACTED]"

var (
	// processNonce keys fingerprints so they only correlate within one run.
	processNonce = newNonce()

	secretKeyParts = []string{"password", "passphrase", "secret", "token", "cookie", "armored", "private", "envelope"}

	fingerprintKeys = map[string]struct{}{
		"username_hashed": {},
		"sender_hashed":   {},
		"receiver_hashed": {},
		"event_id":        {},
	}
)

// SanitizingHandler rewrites attributes before they reach the next handler:
// values under secret-looking keys are redacted, identifiers are replaced
// by a per-process fingerprint.
type SanitizingHandler struct {
	next slog.Handler
}

func NewSanitizingHandler(next slog.Handler) *SanitizingHandler {
	return &SanitizingHandler{next: next}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		clean = append(clean, sanitizeAttr(a))
	}
	return &SanitizingHandler{next: h.next.WithAttrs(clean)}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	key := strings.ToLower(strings.TrimSpace(a.Key))

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]any, 0, len(group))
		for _, g := range group {
			clean = append(clean, sanitizeAttr(g))
		}
		return slog.Group(a.Key, clean...)
	}

	for _, part := range secretKeyParts {
		if strings.Contains(key, part) {
			return slog.String(a.Key, redacted)
		}
	}
	if _, ok := fingerprintKeys[key]; ok {
		return slog.String(a.Key+"_fp", Fingerprint(a.Value.Resolve().String()))
	}
	return a
}

// Fingerprint maps an identifier to a short stable token for correlating
// log lines without recording the identifier itself.
func Fingerprint(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v + "|" + processNonce))
	return "fp_" + hex.EncodeToString(sum[:6])
}

func newNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("nonce-%p", &b)
	}
	return hex.EncodeToString(b)
}
