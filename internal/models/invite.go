package models

import "time"

// PendingInvite is an invitation recorded on an existing user's account,
// awaiting accept or decline.
type PendingInvite struct {
	ID        int64
	UserID    int64
	LeagueID  int64
	InviterID *int64
	Role      Role
	Grants    EditGrants
	CreatedAt time.Time

	LeagueName  string // Populated via JOIN
	InviterName string // Populated via JOIN
}
