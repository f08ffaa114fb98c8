package model

import "time"

// Repository is a stored repository record. Name and Owner are the provider's
// repository and account names; the pair is not unique.
type Repository struct {
	ID        int64
	Name      string
	Owner     string
	CreatedAt time.Time
}
