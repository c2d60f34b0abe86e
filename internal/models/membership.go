package models

import "time"

// Role is a member's role inside one league. Ownership is not a role; it
// comes from League.OwnerID.
type Role string

const (
	RoleMember       Role = "member"
	RoleCommissioner Role = "commissioner"
)

func (r Role) Valid() bool {
	return r == RoleMember || r == RoleCommissioner
}

// Field identifies one editable league setting
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldIsPublic    Field = "is_public"
	FieldMaxTeams    Field = "max_teams"
	FieldDraftType   Field = "draft_type"
	FieldPointSystem Field = "point_system"
)

// Fields lists every editable league field in form order
var Fields = []Field{FieldName, FieldDescription, FieldIsPublic, FieldMaxTeams, FieldDraftType, FieldPointSystem}

func (f Field) Valid() bool {
	switch f {
	case FieldName, FieldDescription, FieldIsPublic, FieldMaxTeams, FieldDraftType, FieldPointSystem:
		return true
	}
	return false
}

func (f Field) Label() string {
	switch f {
	case FieldName:
		return "Name"
	case FieldDescription:
		return "Description"
	case FieldIsPublic:
		return "Public"
	case FieldMaxTeams:
		return "Max Teams"
	case FieldDraftType:
		return "Draft Type"
	case FieldPointSystem:
		return "Scoring System"
	}
	return string(f)
}

// EditGrants holds one permission bit per editable league field
type EditGrants struct {
	Name        bool `json:"can_edit_name"`
	Description bool `json:"can_edit_description"`
	IsPublic    bool `json:"can_edit_is_public"`
	MaxTeams    bool `json:"can_edit_max_teams"`
	DraftType   bool `json:"can_edit_draft_type"`
	PointSystem bool `json:"can_edit_point_system"`
}

// AllGrants returns grants with every field editable
func AllGrants() EditGrants {
	return EditGrants{true, true, true, true, true, true}
}

// Get returns the grant for f. Unknown fields are never granted.
func (g EditGrants) Get(f Field) bool {
	switch f {
	case FieldName:
		return g.Name
	case FieldDescription:
		return g.Description
	case FieldIsPublic:
		return g.IsPublic
	case FieldMaxTeams:
		return g.MaxTeams
	case FieldDraftType:
		return g.DraftType
	case FieldPointSystem:
		return g.PointSystem
	}
	return false
}

// Set updates the grant for f. Unknown fields are ignored.
func (g *EditGrants) Set(f Field, v bool) {
	switch f {
	case FieldName:
		g.Name = v
	case FieldDescription:
		g.Description = v
	case FieldIsPublic:
		g.IsPublic = v
	case FieldMaxTeams:
		g.MaxTeams = v
	case FieldDraftType:
		g.DraftType = v
	case FieldPointSystem:
		g.PointSystem = v
	}
}

// Any reports whether at least one field is granted
func (g EditGrants) Any() bool {
	return g != EditGrants{}
}

// Membership links one user to one league
type Membership struct {
	LeagueID int64
	UserID   int64
	Role     Role
	Grants   EditGrants
	JoinedAt time.Time
}

// Member is a membership joined with the user it belongs to
type Member struct {
	Membership
	Username string
	Name     string
}
