package entity

import "time"

// SystemActor is the label stamped into audit metadata for changes made by the
// service itself rather than a named operator.
const SystemActor = "system"

// Base carries the identity and audit metadata shared by every persisted entity.
// Version starts at 1 on creation and is incremented by 1 on every update; the
// domain layer maintains these fields, storage only persists them.
type Base struct {
	ID         int64     `json:"id"`
	Version    int       `json:"version"`
	CreatedBy  string    `json:"-"`
	CreatedAt  time.Time `json:"-"`
	ModifiedBy string    `json:"-"`
	ModifiedAt time.Time `json:"-"`
}

// StampNew initializes the audit block for a freshly created entity.
func (b *Base) StampNew(actor string, now time.Time) {
	b.Version = 1
	b.CreatedBy = actor
	b.CreatedAt = now
	b.ModifiedBy = actor
	b.ModifiedAt = now
}

// Touch records a mutation: bumps the version and refreshes the modifier stamp.
func (b *Base) Touch(actor string, now time.Time) {
	b.Version++
	b.ModifiedBy = actor
	b.ModifiedAt = now
}

// IsNew reports whether the entity has been persisted yet.
func (b *Base) IsNew() bool {
	return b.ID == 0
}
