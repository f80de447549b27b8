package api

import (
	"net/http"
	"strconv"

	"github.com/ernie/courtside/internal/domain"
)

// parseSlot validates a slot identifier from a request
func parseSlot(s string) (domain.SlotID, bool) {
	switch domain.SlotID(s) {
	case domain.SlotA:
		return domain.SlotA, true
	case domain.SlotB:
		return domain.SlotB, true
	default:
		return "", false
	}
}

// parseLimit parses and validates a limit parameter with default and max values
func parseLimit(r *http.Request, defaultLimit, maxLimit int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxLimit {
			return parsed
		}
	}
	return defaultLimit
}
