package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/heroiclabs/nakama-common/runtime"
)

type matchStateRequest struct {
	MatchID string `json:"match_id"`
}

// RpcGetMatchState returns the current snapshot of a running match.
//
// Payload: {"match_id": "..."}
// Returns: the OpState JSON document of that match.
func RpcGetMatchState(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req matchStateRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.MatchID == "" {
		logger.Warn("RpcGetMatchState [User:%s]: Invalid payload %q", userId, payload)
		return "", runtime.NewError("match_id is required", 3) // INVALID_ARGUMENT
	}

	data, err := nk.MatchSignal(ctx, req.MatchID, signalSnapshot)
	if err != nil {
		logger.Error("RpcGetMatchState [User:%s]: Failed to signal match %s: %v", userId, req.MatchID, err)
		return "", err
	}
	if data == "" {
		return "", errors.New("match returned no state")
	}
	return data, nil
}
