// Package models defines the domain types shared by the client, the wire
// protocol and the server: ledger entries, queued mutations and sync results.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the closed set of transaction domains.
type Category string

const (
	CategoryJudol  Category = "judol"
	CategoryCrypto Category = "crypto"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryJudol, CategoryCrypto}

func (c Category) Valid() bool {
	switch c {
	case CategoryJudol, CategoryCrypto:
		return true
	}
	return false
}

// SyncState is local-only bookkeeping; it never goes over the wire.
type SyncState string

const (
	SyncStatePending SyncState = "pending"
	SyncStateSynced  SyncState = "synced"
)

// Entry is one recorded deposit (loss) or withdrawal (win).
type Entry struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	Category   Category        `json:"category" validate:"category"`
	Label      string          `json:"label" validate:"required,max=100"`
	Amount     decimal.Decimal `json:"amount" validate:"gt=0"`
	OccurredOn Date            `json:"occurred_on" validate:"required"`
	Note       *string         `json:"note,omitempty" validate:"omitempty,max=500"`
	IsCredit   bool            `json:"is_credit"`
	RecordedAt time.Time       `json:"recorded_at"`

	// ClientRef is the idempotency key for creates: the temp id the entry
	// was captured under. Stored by the server, never shown.
	ClientRef string `json:"client_ref,omitempty"`

	SyncState SyncState `json:"-"`
}

// Clone returns a deep copy (Note is a pointer).
func (e Entry) Clone() Entry {
	if e.Note != nil {
		n := *e.Note
		e.Note = &n
	}
	return e
}

// SameBusinessFields reports whether a and b describe the same transaction,
// ignoring identity and local bookkeeping.
func (e Entry) SameBusinessFields(o Entry) bool {
	if e.Category != o.Category || e.Label != o.Label || e.IsCredit != o.IsCredit {
		return false
	}
	if !e.Amount.Equal(o.Amount) || !e.OccurredOn.Equal(o.OccurredOn) {
		return false
	}
	switch {
	case e.Note == nil && o.Note == nil:
		return true
	case e.Note == nil || o.Note == nil:
		return false
	default:
		return *e.Note == *o.Note
	}
}

// EntryPatch carries a partial update. Nil fields are left untouched.
type EntryPatch struct {
	Category   *Category
	Label      *string
	Amount     *decimal.Decimal
	OccurredOn *Date
	Note       **string
	IsCredit   *bool
}

// Apply returns a copy of e with the patch applied.
func (p EntryPatch) Apply(e Entry) Entry {
	out := e.Clone()
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Label != nil {
		out.Label = *p.Label
	}
	if p.Amount != nil {
		out.Amount = *p.Amount
	}
	if p.OccurredOn != nil {
		out.OccurredOn = *p.OccurredOn
	}
	if p.Note != nil {
		if *p.Note == nil {
			out.Note = nil
		} else {
			n := **p.Note
			out.Note = &n
		}
	}
	if p.IsCredit != nil {
		out.IsCredit = *p.IsCredit
	}
	return out
}

// IsEmpty reports whether the patch changes nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Category == nil && p.Label == nil && p.Amount == nil &&
		p.OccurredOn == nil && p.Note == nil && p.IsCredit == nil
}
