package shared

// Actor is the authenticated user an operation is attributed to
type Actor struct {
	ID    string `json:"id" bson:"id"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}

// IsZero reports whether the actor is unset
func (a Actor) IsZero() bool {
	return a.ID == ""
}
