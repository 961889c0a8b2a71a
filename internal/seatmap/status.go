package seatmap

// Status is the derived, view-only state of one seat. Exactly one status
// holds per seat at any instant.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusSelected   Status = "selected"
	StatusLockedByMe Status = "locked-by-me"
	StatusLocked     Status = "locked"
	StatusBooked     Status = "booked"
)

// DeriveStatus computes a seat's status from the three independent
// signals. Priority is fixed: booked beats everything (the one hard
// local invariant - a committed booking can never render as claimable,
// whatever stale lock state says), then the local selection, then the
// server's lock set.
func DeriveStatus(seat int, userID string, selected []int, locked map[int]string, booked map[int]struct{}) Status {
	if _, ok := booked[seat]; ok {
		return StatusBooked
	}
	for _, s := range selected {
		if s == seat {
			return StatusSelected
		}
	}
	if holder, ok := locked[seat]; ok {
		if holder == userID {
			return StatusLockedByMe
		}
		return StatusLocked
	}
	return StatusAvailable
}

// SeatView is one cell of the rendered grid.
type SeatView struct {
	Index  int    `json:"index"`
	Status Status `json:"status"`
}

// Clickable reports whether the view should accept a click for this
// status. Locked-by-others and booked seats are disabled.
func (s Status) Clickable() bool {
	return s == StatusAvailable || s == StatusSelected || s == StatusLockedByMe
}
