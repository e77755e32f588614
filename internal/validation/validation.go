// Package validation provides input validation helpers for the BitGenius API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20 // 1MB

// Field length bounds enforced before any chain call is attempted.
const (
	MaxNameLength      = 50
	MaxAgentTypeLength = 20
	MaxStrategyLength  = 100
	MaxTriggerLength   = 100
	MaxDetailsLength   = 500
)

// principalRegex validates Stacks principal addresses (standard principals,
// mainnet and testnet prefixes, c32 alphabet).
var principalRegex = regexp.MustCompile(`^S[TPMN][0-9A-HJKMNP-TV-Z]{38,40}$`)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidPrincipal checks if a string is a valid Stacks principal address.
// Contract principals (address.contract-name) are accepted too.
func IsValidPrincipal(addr string) bool {
	if base, _, ok := strings.Cut(addr, "."); ok {
		return principalRegex.MatchString(base)
	}
	return principalRegex.MatchString(addr)
}

// SanitizeString removes dangerous characters and limits length
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	s = strings.ReplaceAll(s, "\x00", "")
	return s
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Validate runs validators in order and collects every failure.
func Validate(validators ...func() *ValidationError) ValidationErrors {
	var errs ValidationErrors
	for _, v := range validators {
		if err := v(); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

// Required checks if a field is non-empty
func Required(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// MaxLength checks if a field exceeds max length
func MaxLength(field, value string, max int) func() *ValidationError {
	return func() *ValidationError {
		if len(value) > max {
			return &ValidationError{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}

// BoundedString checks required presence and a 1..max length window.
func BoundedString(field, value string, max int) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
		if len(value) > max {
			return &ValidationError{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}

// ValidPrincipal checks if a field is a valid Stacks principal address.
func ValidPrincipal(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil // Use Required for required fields
		}
		if !IsValidPrincipal(value) {
			return &ValidationError{Field: field, Message: "must be a valid Stacks principal address"}
		}
		return nil
	}
}

// Positive checks that an integer field is greater than zero.
func Positive(field string, value int64) func() *ValidationError {
	return func() *ValidationError {
		if value <= 0 {
			return &ValidationError{Field: field, Message: "must be greater than zero"}
		}
		return nil
	}
}

// NonNegative checks that an optional integer field, when present, is >= 0.
func NonNegative(field string, value *int64) func() *ValidationError {
	return func() *ValidationError {
		if value != nil && *value < 0 {
			return &ValidationError{Field: field, Message: "must not be negative"}
		}
		return nil
	}
}

// PrincipalParamMiddleware validates the :principal URL parameter on routes
// that use it, rejecting malformed addresses before any handler runs.
func PrincipalParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := c.Param("principal")
		if addr != "" && !IsValidPrincipal(addr) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_principal",
				"message": "principal must be a valid Stacks address",
			})
			return
		}
		c.Next()
	}
}
