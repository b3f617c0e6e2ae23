package session

import "github.com/google/uuid"

// IdentityUUID parses the identity's ID as a UUID.
func IdentityUUID(identity Identity) (uuid.UUID, error) {
	if identity == nil {
		return uuid.Nil, ErrAccountNotFound
	}
	return uuid.Parse(identity.ID())
}

// HasIdentityUUID reports whether IdentityUUID will succeed.
func HasIdentityUUID(identity Identity) bool {
	_, err := IdentityUUID(identity)
	return err == nil
}
