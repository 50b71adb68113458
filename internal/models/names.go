package models

import "fmt"

// FallbackName labels a user whose display name is unknown.
func FallbackName(id int64) string {
	return fmt.Sprintf("ID %d", id)
}
