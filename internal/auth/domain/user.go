package domain

// Role is a user's platform role. Matching is exact equality, there is no
// hierarchy between roles.
type Role string

const (
	RoleParticipant     Role = "participant"
	RoleProtocolCreator Role = "protocol_creator"
	RolePartner         Role = "partner"
	RoleAdmin           Role = "admin"
)

// User is the identity record held while authenticated.
type User struct {
	ID         string
	Email      string
	Role       Role
	MFAEnabled bool
}
