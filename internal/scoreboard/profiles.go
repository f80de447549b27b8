package scoreboard

import (
	"strings"

	"github.com/ernie/courtside/internal/domain"
)

// The saved-name registry is a most-recently-used list capped at
// domain.SavedNamesCap, deduplicated case-insensitively by label. It lives
// inside the match document and persists with it.

// upsertProfile inserts label into the registry or moves the matching
// existing profile to the front. Returns the resulting front profile.
func upsertProfile(d *domain.MatchDocument, label string) domain.PlayerProfile {
	for i, p := range d.SavedNames {
		if strings.EqualFold(p.Label, label) {
			// Merge to the front, keeping the stored id and color
			d.SavedNames = append(d.SavedNames[:i], d.SavedNames[i+1:]...)
			d.SavedNames = append([]domain.PlayerProfile{p}, d.SavedNames...)
			return p
		}
	}

	p := domain.PlayerProfile{
		ID:    newID(),
		Label: label,
		Color: domain.ProfilePalette[len(d.SavedNames)%len(domain.ProfilePalette)],
	}
	d.SavedNames = append([]domain.PlayerProfile{p}, d.SavedNames...)
	if len(d.SavedNames) > domain.SavedNamesCap {
		d.SavedNames = d.SavedNames[:domain.SavedNamesCap]
	}
	return p
}

// findProfile returns the registry entry with the given id, or nil
func findProfile(d *domain.MatchDocument, id string) *domain.PlayerProfile {
	for i := range d.SavedNames {
		if d.SavedNames[i].ID == id {
			return &d.SavedNames[i]
		}
	}
	return nil
}

// promoteProfile moves the profile with the given id to the front of the
// registry, preserving MRU order on apply
func promoteProfile(d *domain.MatchDocument, id string) {
	for i, p := range d.SavedNames {
		if p.ID == id {
			if i > 0 {
				d.SavedNames = append(d.SavedNames[:i], d.SavedNames[i+1:]...)
				d.SavedNames = append([]domain.PlayerProfile{p}, d.SavedNames...)
			}
			return
		}
	}
}
