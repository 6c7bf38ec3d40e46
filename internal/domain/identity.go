package domain

import "fmt"

// Role is the closed set of actor roles. Dispatch on roles happens through
// this enum and the access policy tables, never through string comparison at
// call sites.
type Role string

const (
	RoleSubmitter Role = "submitter"
	RoleVerifier  Role = "verifier"
	RoleIssuer    Role = "issuer"
)

// ParseRole validates an externally supplied role string. The portal's
// registration form historically sent "user" for submitters.
func ParseRole(s string) (Role, error) {
	switch s {
	case "submitter", "user":
		return RoleSubmitter, nil
	case "verifier":
		return RoleVerifier, nil
	case "issuer":
		return RoleIssuer, nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Identity is the authenticated actor. It is produced by the authentication
// collaborator on login and treated as opaque by the engine, which trusts the
// role it carries.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  Role
}
