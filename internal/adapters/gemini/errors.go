package gemini

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/okian/tokscope/internal/adapters/fetch"
)

// Sentinel kinds for analysis calls.
var (
	ErrNotConfigured = errors.New("gemini API key is not configured")
	ErrNoText        = errors.New("no text in Gemini response")
)

// IsAccessDenied reports whether err means the video or the model refused
// access: a 401/403 from the CDN or the API, or a permission message.
func IsAccessDenied(err error) bool {
	if err == nil {
		return false
	}
	if fetch.IsAccessDenied(err) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "access") || strings.Contains(msg, "permission")
}
