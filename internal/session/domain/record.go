package domain

// Record is the durable session state for one principal. Exactly one record exists
// per principal at a time; a new login overwrites the previous one. The JSON field
// names are the wire contract with the key-value store and must not change.
type Record struct {
	// PrincipalID is the owning principal's id. Derived from the store key, not serialized.
	PrincipalID string `json:"-"`
	// RefreshToken is the signed refresh token issued at login. It is never rotated
	// during the record's lifetime.
	RefreshToken string `json:"refreshToken"`
	// Revoked marks the session as logged out. The transition to true is one-way;
	// only a fresh login (a brand-new record) clears it.
	Revoked bool `json:"revoked"`
}
