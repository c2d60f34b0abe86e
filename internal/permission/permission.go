// Package permission decides who may change what inside a league.
package permission

import "f1fantasy/internal/models"

// Gate reports whether the holder of m may change field f of league l.
// The owner and the league's designated commissioner may edit every field;
// any other commissioner-role member needs the per-field grant. A nil
// membership means the user is not in the league.
func Gate(l *models.League, m *models.Membership, f models.Field) bool {
	if l == nil || m == nil || m.LeagueID != l.ID || !f.Valid() {
		return false
	}
	if l.IsOwner(m.UserID) {
		return true
	}
	if m.Role != models.RoleCommissioner {
		return false
	}
	if l.CommissionerID == m.UserID {
		return true
	}
	return m.Grants.Get(f)
}

// Editable returns the fields m may change, in form order.
func Editable(l *models.League, m *models.Membership) []models.Field {
	var fields []models.Field
	for _, f := range models.Fields {
		if Gate(l, m, f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// CanEditAny reports whether m may change at least one league field.
func CanEditAny(l *models.League, m *models.Membership) bool {
	return len(Editable(l, m)) > 0
}

// CanManage reports whether m may invite, remove and re-role members.
func CanManage(l *models.League, m *models.Membership) bool {
	if l == nil || m == nil || m.LeagueID != l.ID {
		return false
	}
	return l.IsOwner(m.UserID) || m.Role == models.RoleCommissioner
}

// IsOwner reports whether m belongs to the league owner.
func IsOwner(l *models.League, m *models.Membership) bool {
	return l != nil && m != nil && m.LeagueID == l.ID && l.IsOwner(m.UserID)
}

// CanView reports whether a user may see the league page. Private leagues
// are visible to members and administrators only.
func CanView(l *models.League, m *models.Membership, isAdmin bool) bool {
	return l != nil && (l.IsPublic || isAdmin || (m != nil && m.LeagueID == l.ID))
}
