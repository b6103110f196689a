package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
)

var userIDPattern = regexp.MustCompile(`^-?[a-zA-Z0-9_]{1,64}$`)

// ValidateUserID accepts chat ids: alphanumeric or underscore, optional leading minus for group chats.
func ValidateUserID(user string) error {
	if user == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if !userIDPattern.MatchString(user) {
		return fmt.Errorf("invalid user ID format (alphanumeric, underscore only, max 64 chars)")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateHours clamps the cleanup age parameter
func ValidateHours(hours, def int) int {
	if hours <= 0 {
		return def
	}
	if hours > 24*365 {
		return 24 * 365
	}
	return hours
}

// RequireValidUser rejects malformed {user} route params.
func RequireValidUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ValidateUserID(chi.URLParam(r, "user")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}
