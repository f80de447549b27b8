package scoreboard

import "github.com/ernie/courtside/internal/domain"

// Doubles service rotation: each team has an ordered pair of teammates and a
// currently-serving-teammate pointer. The pointer advances only when the team
// wins a point while it already held serve; winning the first point after a
// side-out keeps whichever teammate held the pointer last.

// rotateOnScore updates the scoring team's on-serve teammate pointer.
// prevServer is the serving slot before the rally was played.
func rotateOnScore(d *domain.MatchDocument, scorer, prevServer domain.SlotID) {
	slot := d.Slot(scorer)
	if slot == nil || len(slot.Teammates) == 0 {
		return
	}
	if d.TeammateServer == nil {
		d.TeammateServer = make(map[domain.SlotID]string)
	}

	current := d.TeammateServer[scorer]
	if current == "" {
		// First point for this team: designate its first teammate
		d.TeammateServer[scorer] = slot.Teammates[0].ID
		return
	}

	if prevServer != scorer || len(slot.Teammates) < 2 {
		return
	}

	// Retained serve: advance to the next teammate in rotation
	idx := 0
	for i, tm := range slot.Teammates {
		if tm.ID == current {
			idx = i
			break
		}
	}
	d.TeammateServer[scorer] = slot.Teammates[(idx+1)%len(slot.Teammates)].ID
}

// swapTeammateOrder exchanges the first two teammates of a slot and repoints
// the team's on-serve pointer at the new first teammate
func swapTeammateOrder(d *domain.MatchDocument, id domain.SlotID) {
	slot := d.Slot(id)
	if slot == nil || len(slot.Teammates) < 2 {
		return
	}
	slot.Teammates[0], slot.Teammates[1] = slot.Teammates[1], slot.Teammates[0]
	if d.TeammateServer == nil {
		d.TeammateServer = make(map[domain.SlotID]string)
	}
	d.TeammateServer[id] = slot.Teammates[0].ID
}
