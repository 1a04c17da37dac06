package model

// Identity is the resolved owner of a cart for the current request: either
// an authenticated user or a guest session. Exactly one of the two fields is
// set. It is computed per request and never persisted.
type Identity struct {
	UserID     uint
	SessionKey string
}

// AuthenticatedIdentity returns an identity for a logged-in user.
func AuthenticatedIdentity(userID uint) Identity {
	return Identity{UserID: userID}
}

// GuestIdentity returns an identity for a guest session key.
func GuestIdentity(sessionKey string) Identity {
	return Identity{SessionKey: sessionKey}
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != 0
}

func (i Identity) IsGuest() bool {
	return !i.IsAuthenticated()
}
