package model

import "time"

// RoleNetworkReader marks accounts provisioned for readers registered on any
// node of the network.
const RoleNetworkReader = "network_reader"

// Metadata keys attached to accounts created from node events.
const (
	MetaRemoteSite = "newspack_remote_site"
	MetaRemoteID   = "newspack_remote_id"
)

// Account is a user record in the account directory. Email and Login are
// unique across the directory.
type Account struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
