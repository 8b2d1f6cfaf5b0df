package security

import "github.com/google/uuid"

// GenerateToken creates an opaque session token
func GenerateToken() string {
	return uuid.New().String()
}
