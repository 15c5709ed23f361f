package auth

// Identity is the signed-in user. A nil *Identity means anonymous.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// IDOf returns the identity's id, or nil when anonymous.
func IDOf(identity *Identity) *string {
	if identity == nil || identity.ID == "" {
		return nil
	}
	id := identity.ID
	return &id
}

func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}
