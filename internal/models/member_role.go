package models

// MemberRole is shared by trip and group memberships.
type MemberRole string

const (
	MemberRoleCreator MemberRole = "CREATOR"
	MemberRoleAdmin   MemberRole = "ADMIN"
	MemberRoleMember  MemberRole = "MEMBER"
)

func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleCreator, MemberRoleAdmin, MemberRoleMember:
		return true
	}
	return false
}

// IsAdmin is true for ADMIN and CREATOR.
func (r MemberRole) IsAdmin() bool {
	return r == MemberRoleAdmin || r == MemberRoleCreator
}
