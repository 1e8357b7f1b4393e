package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a joinable match.
	RpcQuickMatch = "quick_match"
	// RpcMatchState returns the current snapshot of a match by id.
	RpcMatchState = "match_state"

	// MatchNameBlitz is the authoritative match handler name registered with Nakama.
	MatchNameBlitz = "dutchblitz_match"

	// signalSnapshot asks a running match for its snapshot via MatchSignal.
	signalSnapshot = "snapshot"
)

// Op codes for client messages and server events. Payloads are JSON.
const (
	// Client -> Server
	OpMove            int64 = 1
	OpPickup          int64 = 2
	OpPlace           int64 = 3
	OpCancel          int64 = 4
	OpCycle           int64 = 5
	OpDrawFromReserve int64 = 6
	OpRestart         int64 = 7
	OpForceRestart    int64 = 8
	OpIntent          int64 = 9 // kind taken from the payload's "type", legacy kinds included

	// Server -> Client events
	OpState         int64 = 100
	OpPlayerJoined  int64 = 101
	OpPlayerLeft    int64 = 102
	OpGameStarted   int64 = 103
	OpPlaceResult   int64 = 104 // sent privately
	OpPileCompleted int64 = 105
	OpGameWon       int64 = 106
	OpGameRestarted int64 = 107
	OpError         int64 = 110 // sent privately
)
