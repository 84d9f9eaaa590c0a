package auth

import "strconv"

// UserIdentity exposes a registry User as the Identity a token is minted for.
type UserIdentity struct {
	user User
}

// NewIdentityFromUser snapshots user into an Identity. It returns nil for a
// nil user so callers can pass a lookup result straight through.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: *user}
}

// ID is the decimal registry id.
func (u UserIdentity) ID() string { return strconv.Itoa(u.user.ID) }

// Email doubles as the token subject.
func (u UserIdentity) Email() string { return u.user.Email }

func (u UserIdentity) Role() Role { return u.user.Role }
