package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidateID checks that a path parameter looks like a record ID
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if !uuidPattern.MatchString(id) {
		return fmt.Errorf("invalid id format")
	}
	return nil
}

// ValidateContractName rejects names that would break display or storage
func ValidateContractName(name string) error {
	if name == "" {
		return nil // optional, service applies a default
	}
	if len(name) > 255 {
		return fmt.Errorf("contract name too long (max 255 characters)")
	}
	if strings.ContainsAny(name, "\x00\n\r") {
		return fmt.Errorf("contract name contains control characters")
	}
	return nil
}

// ClampLimit bounds list sizes from query parameters
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
