package ports

import "context"

// WalletUpdate represents a single currency change for a user.
type WalletUpdate struct {
	UserID   string
	Amount   int64
	Metadata map[string]interface{}
}

// EconomyPort defines the interface for crediting game points.
type EconomyPort interface {
	// GetBalance retrieves the current points balance for a user.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// UpdateBalances applies multiple wallet changes.
	// This is used at the end of a game to credit final scores.
	UpdateBalances(ctx context.Context, updates []WalletUpdate) error
}
