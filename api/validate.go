package api

import (
	"net/http"
	"regexp"
	"strings"
)

// allowedMimeTypes is the image allow-list. Anything else is rejected before
// the model sees a byte.
var allowedMimeTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// base64Charset is deliberately restrictive: standard alphabet, padding, and
// whitespace. Data URLs, URL-safe variants, and anything else fail fast.
var base64Charset = regexp.MustCompile(`^[A-Za-z0-9+/=\s]+$`)

// bearerToken extracts the token from "Authorization: Bearer <token>",
// case-insensitive on the scheme. Empty string means no usable credential.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// stripWhitespace removes the whitespace the charset admits, returning the
// canonical base64 text measured against the size ceiling.
func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			return -1
		}
		return r
	}, s)
}

// validateImagePayload checks mime type, charset, and the size ceiling, in
// that order, returning the stripped base64 text. The first failure wins.
func validateImagePayload(base64Image, mimeType string, maxChars int) (stripped string, msg string, code int) {
	if !allowedMimeTypes[mimeType] {
		return "", "mimeType inválido. Envie PNG/JPG/WEBP.", http.StatusBadRequest
	}
	if !base64Charset.MatchString(base64Image) {
		return "", "base64Image inválido.", http.StatusBadRequest
	}
	stripped = stripWhitespace(base64Image)
	if stripped == "" {
		return "", "base64Image inválido.", http.StatusBadRequest
	}
	if len(stripped) > maxChars {
		return "", "Imagem muito grande para análise. Envie um print menor.", http.StatusRequestEntityTooLarge
	}
	return stripped, "", 0
}
