package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"dutchblitz/internal/config"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a joinable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcMatchState, RpcGetMatchState)
}

// matchLister is the subset of runtime.NakamaModule quick match needs.
type matchLister interface {
	MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error)
	MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return quickMatch(ctx, logger, nk, config.GetGameConfig().MaxPlayers)
}

// quickMatch prefers a match that is waiting for players, then any match in
// play with a free seat, and creates a new match when neither exists.
func quickMatch(ctx context.Context, logger runtime.Logger, nk matchLister, maxPlayers int) (string, error) {
	limit := 10
	authoritative := true
	minSize := 1
	maxSize := maxPlayers - 1

	queries := []string{
		fmt.Sprintf("+label.game:dutchblitz +label.%s:>=1 +label.status:waiting", MatchLabelKey_OpenSeats),
		fmt.Sprintf("+label.game:dutchblitz +label.%s:>=1", MatchLabelKey_OpenSeats),
	}
	for _, query := range queries {
		matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
		if err != nil {
			logger.Error("MatchList error: %v", err)
			return "", err
		}
		if len(matches) > 0 {
			resp := QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false}
			b, _ := json.Marshal(resp)
			return string(b), nil
		}
	}

	// Seat assignment happens in MatchJoin (server-authoritative).
	matchID, err := nk.MatchCreate(ctx, MatchNameBlitz, map[string]interface{}{})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}
