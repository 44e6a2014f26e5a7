package rpc

import "github.com/dmitrijs2005/losskeeper/internal/models"

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type ListEntriesRequest struct{}

type ListEntriesResponse struct {
	Entries []models.Entry `json:"entries"`
}

type GetEntryRequest struct {
	ID string `json:"id"`
}

type GetEntryResponse struct {
	Entry models.Entry `json:"entry"`
}

// CreateEntryRequest carries the new entry. Entry.ClientRef, when set,
// makes the call idempotent per owner.
type CreateEntryRequest struct {
	Entry models.Entry `json:"entry"`
}

type CreateEntryResponse struct {
	Entry models.Entry `json:"entry"`
}

type UpdateEntryRequest struct {
	Entry models.Entry `json:"entry"`
}

type UpdateEntryResponse struct {
	Entry models.Entry `json:"entry"`
}

type DeleteEntryRequest struct {
	ID string `json:"id"`
}

type DeleteEntryResponse struct{}
