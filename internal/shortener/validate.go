package shortener

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sundayezeilo/tinylink/codegen"
)

// MaxURLLength bounds the accepted target URL in bytes.
const MaxURLLength = 2048

// ValidateURL checks that raw is an absolute http or https URL with a host and
// returns its canonical form: scheme and host lower-cased, an empty path
// rendered as "/". Failures wrap ErrInvalidURL.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidURL)
	}
	if len(raw) > MaxURLLength {
		return "", fmt.Errorf("%w: url too long (max %d characters)", ErrInvalidURL, MaxURLLength)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: malformed url", ErrInvalidURL)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: url scheme must be http or https", ErrInvalidURL)
	}
	if u.Opaque != "" {
		return "", fmt.Errorf("%w: url must be absolute (scheme://host)", ErrInvalidURL)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: url must include a host", ErrInvalidURL)
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.RawPath == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// ValidateCustomCode accepts 6 to 8 characters of [A-Za-z0-9]. Codes are
// case-sensitive. Failures wrap ErrInvalidCode.
func ValidateCustomCode(code string) error {
	if len(code) < codegen.MinLength || len(code) > codegen.MaxLength {
		return fmt.Errorf("%w: code must be %d-%d characters", ErrInvalidCode, codegen.MinLength, codegen.MaxLength)
	}
	for i := 0; i < len(code); i++ {
		if !isCodeChar(code[i]) {
			return fmt.Errorf("%w: code may only contain letters and digits", ErrInvalidCode)
		}
	}
	return nil
}

func isCodeChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	default:
		return false
	}
}
