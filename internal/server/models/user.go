// Package models defines server-side rows that never travel to the client.
// Ledger entries use the shared internal/models.Entry.
package models

import "time"

type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
