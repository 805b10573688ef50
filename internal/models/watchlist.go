package models

import "time"

// User is the only identity in the system: a unique username.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchlistEntry expresses "this user wants daily coverage of this symbol"
type WatchlistEntry struct {
	UserID   int       `json:"user_id"`
	Symbol   string    `json:"symbol"`
	Exchange string    `json:"exchange"`
	AddedAt  time.Time `json:"added_at"`
}

// WatchedSymbol is a (symbol, exchange) pair deduplicated across all watchlists
type WatchedSymbol struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
}
