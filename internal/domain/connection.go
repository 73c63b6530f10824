package domain

// Role is the registered function of a connection. A connection starts
// unregistered and transitions exactly once, on its first registration message.
type Role string

const (
	RoleUnset   Role = ""
	RoleControl Role = "control"
	RoleDisplay Role = "display"
)
