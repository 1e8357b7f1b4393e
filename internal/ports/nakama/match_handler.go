package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"dutchblitz/internal/app"
	"dutchblitz/internal/bot"
	"dutchblitz/internal/config"
	"dutchblitz/internal/domain"
	"dutchblitz/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	MatchLabelKey_OpenSeats = "open" // Key for the open seats in the match label

	gameConfigPath    = "data/game_config.yaml"
	botIdentitiesPath = "data/bot_identities.json"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Tick      int64                       `json:"tick"`
	TickRate  int                         `json:"tick_rate"`
	Presences map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	App       *app.Service                `json:"-"`
	Game      *domain.Session             `json:"-"`
	Economy   ports.EconomyPort           `json:"-"` // Interface to Nakama wallet
	Balances  map[string]int64            `json:"balances"`

	Bots                 config.Bots           `json:"bots"`
	Agents               map[string]*bot.Agent `json:"-"` // Active bot agents
	BotNextTick          map[string]int64      `json:"-"` // Tick at which each bot acts next
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`
	rng                  *rand.Rand
}

// humanCount counts seated players that are not bots.
func (ms *MatchState) humanCount() int {
	n := 0
	for id := range ms.Game.Players {
		if !bot.IsBot(id) {
			n++
		}
	}
	return n
}

// statePayload is the OpState broadcast: the full session plus match extras.
type statePayload struct {
	app.Snapshot
	Tick     int64            `json:"tick"`
	Balances map[string]int64 `json:"balances,omitempty"`
}

// PlaceResult answers the acting player after a place-style intent.
type PlaceResult struct {
	Success    bool   `json:"success"`
	CardID     string `json:"cardId,omitempty"`
	Target     string `json:"target,omitempty"`
	TargetKind string `json:"targetKind,omitempty"`
	ScoreDelta int    `json:"scoreDelta"`
	Won        bool   `json:"won"`
	Reason     string `json:"reason,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

// ErrorEvent is sent privately when an intent is rejected.
type ErrorEvent struct {
	Intent  string `json:"intent"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return newMatchHandler(), nil
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load game config, using defaults: %v", err)
	}
	cfg := *config.GetGameConfig()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if err := cfg.ApplyEnv(env); err != nil {
			logger.Warn("MatchInit: Ignoring invalid runtime env: %v", err)
			cfg = *config.GetGameConfig()
		}
	}

	if err := bot.LoadIdentities(botIdentitiesPath); err != nil {
		logger.Debug("MatchInit: No bot identities loaded, using generated ids: %v", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	svc := app.NewService(rng, cfg.Tuning())
	state := &MatchState{
		TickRate:    cfg.TickRate,
		Presences:   make(map[string]runtime.Presence),
		App:         svc,
		Game:        svc.NewSession(),
		Economy:     NewNakamaEconomyAdapter(nk, cfg.PointsCurrency),
		Balances:    make(map[string]int64),
		Bots:        cfg.Bots,
		Agents:      make(map[string]*bot.Agent),
		BotNextTick: make(map[string]int64),
		rng:         rand.New(rand.NewSource(rng.Int63())),
	}

	label, err := encodeLabel(domain.ComputeLabel(state.Game))
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, cfg.TickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if _, seated := matchState.Game.Players[presence.GetUserId()]; seated {
		return state, false, "Already joined"
	}
	if domain.OpenSeats(matchState.Game.Seats) <= 0 {
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		events, err := matchState.App.Join(matchState.Game, userID)
		if err != nil {
			logger.Warn("MatchJoin: User %s could not be seated: %v", userID, err)
			mh.sendError(matchState, dispatcher, logger, userID, "join", err)
			continue
		}
		mh.loadBalance(ctx, matchState, logger, userID)
		for _, ev := range events {
			mh.broadcastEvent(ctx, matchState, dispatcher, logger, ev)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)
		delete(matchState.Balances, userID)

		events, err := matchState.App.Leave(matchState.Game, userID)
		if err != nil {
			logger.Debug("MatchLeave: User %s had no seat: %v", userID, err)
			continue
		}
		for _, ev := range events {
			mh.broadcastEvent(ctx, matchState, dispatcher, logger, ev)
		}
	}

	if matchState.humanCount() == 0 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	// Messages arrive in receive order; each is applied and broadcast before the next.
	for _, msg := range messages {
		mh.handleIntent(ctx, matchState, dispatcher, logger, msg)
	}

	// AI Logic
	if matchState.Bots.Enabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Seat a bot when a lone human has waited long enough.
	if state.Game.Status == domain.StatusWaiting && state.humanCount() == 1 {
		if state.LastSinglePlayerTick == 0 {
			state.LastSinglePlayerTick = state.Tick
			logger.Debug("processBots: Single player detected, starting auto-fill timer.")
		}
		if state.Tick-state.LastSinglePlayerTick >= int64(state.Bots.AutoFillDelaySeconds*state.TickRate) {
			mh.addBot(ctx, state, dispatcher, logger)
			state.LastSinglePlayerTick = 0
		}
	} else {
		state.LastSinglePlayerTick = 0
	}

	// 2. Let each bot act on its own schedule.
	if state.Game.Status != domain.StatusPlaying {
		return
	}
	ids := make([]string, 0, len(state.Agents))
	for id := range state.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if state.Tick < state.BotNextTick[id] {
			continue
		}
		state.BotNextTick[id] = state.Tick + int64(state.Bots.MinDelayTicks+state.rng.Intn(state.Bots.MaxDelayTicks-state.Bots.MinDelayTicks+1))

		in, ok := state.Agents[id].Next(state.Game)
		if !ok {
			continue
		}
		before := state.Game.Status
		events, err := state.App.Apply(state.Game, in)
		if err != nil {
			logger.Debug("processBots: Bot %s intent %s rejected: %v", id, in.Kind, err)
			continue
		}
		for _, ev := range events {
			mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
		}
		if state.Game.Status != before {
			mh.updateLabel(state, dispatcher, logger)
		}
		mh.broadcastMatchState(state, dispatcher, logger)
	}
}

func (mh *matchHandler) addBot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for i := 0; i < len(state.Game.Seats); i++ {
		identity := bot.GetBotIdentity(i)
		if _, seated := state.Game.Players[identity.UserID]; seated {
			continue
		}
		events, err := state.App.Join(state.Game, identity.UserID)
		if err != nil {
			logger.Warn("processBots: Could not seat bot %s: %v", identity.UserID, err)
			return
		}
		state.Agents[identity.UserID] = bot.NewAgent(identity.UserID, state.App.Tuning(), rand.New(rand.NewSource(state.rng.Int63())))
		state.BotNextTick[identity.UserID] = state.Tick + int64(state.Bots.MaxDelayTicks)
		logger.Info("processBots: Added bot %s (%s)", identity.DisplayName, identity.UserID)

		for _, ev := range events {
			mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
		}
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastMatchState(state, dispatcher, logger)
		return
	}
}

func (mh *matchHandler) handleIntent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	in, err := decodeIntent(msg.GetOpCode(), msg.GetData())
	if err != nil {
		logger.Warn("handleIntent: Invalid message from %s (opcode %d): %v", senderID, msg.GetOpCode(), err)
		mh.sendError(state, dispatcher, logger, senderID, fmt.Sprintf("opcode_%d", msg.GetOpCode()), err)
		return
	}
	in.PlayerID = senderID

	before := state.Game.Status
	events, err := state.App.Apply(state.Game, in)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"user":   senderID,
			"intent": string(in.Kind),
			"kind":   app.Kind(err),
		}).Warn("handleIntent: Rejected: %v", err)
		if isPlace(in.Kind) {
			mh.sendPlaceResult(state, dispatcher, logger, senderID, PlaceResult{
				Success: false,
				Reason:  err.Error(),
				Kind:    app.Kind(err),
			})
		}
		mh.sendError(state, dispatcher, logger, senderID, string(in.Kind), err)
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
	if state.Game.Status != before {
		mh.updateLabel(state, dispatcher, logger)
	}
	mh.broadcastMatchState(state, dispatcher, logger)
}

// decodeIntent maps an opcode and JSON payload to an intent. Empty payloads
// are allowed for intents without arguments.
func decodeIntent(opCode int64, data []byte) (app.Intent, error) {
	var in app.Intent
	if len(data) > 0 {
		if err := json.Unmarshal(data, &in); err != nil {
			return app.Intent{}, fmt.Errorf("%w: %v", app.ErrMalformedIntent, err)
		}
	}

	kinds := map[int64]app.IntentKind{
		OpMove:            app.IntentMove,
		OpPickup:          app.IntentPickup,
		OpPlace:           app.IntentPlace,
		OpCancel:          app.IntentCancel,
		OpCycle:           app.IntentCycle,
		OpDrawFromReserve: app.IntentDrawFromReserve,
		OpRestart:         app.IntentRestart,
		OpForceRestart:    app.IntentForceRestart,
	}
	if kind, ok := kinds[opCode]; ok {
		in.Kind = kind
		return in, nil
	}
	if opCode == OpIntent {
		if in.Kind == "" {
			return app.Intent{}, fmt.Errorf("%w: missing type", app.ErrMalformedIntent)
		}
		return in, nil
	}
	return app.Intent{}, fmt.Errorf("%w: unknown opcode %d", app.ErrMalformedIntent, opCode)
}

func isPlace(kind app.IntentKind) bool {
	return kind == app.IntentPlace || kind == app.IntentDrop || kind == app.IntentPlacePost
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	var payload []byte
	var err error

	switch ev.Kind {
	case app.EventPlayerJoined:
		opCode = OpPlayerJoined
	case app.EventPlayerLeft:
		opCode = OpPlayerLeft
	case app.EventGameStarted:
		opCode = OpGameStarted
	case app.EventCardPlaced:
		p := ev.Payload.(app.CardPlacedPayload)
		result := PlaceResult{
			Success:    true,
			CardID:     p.CardID,
			Target:     p.Target,
			ScoreDelta: p.ScoreDelta,
			Won:        state.Game.Status == domain.StatusFinished && state.Game.Winner == p.PlayerID,
		}
		if t, perr := domain.ParseTarget(p.Target); perr == nil {
			result.TargetKind = t.Kind.String()
		}
		mh.sendPlaceResult(state, dispatcher, logger, p.PlayerID, result)
		return
	case app.EventPileCompleted:
		opCode = OpPileCompleted
	case app.EventGameRestarted:
		opCode = OpGameRestarted
	case app.EventGameWon:
		opCode = OpGameWon
		p := ev.Payload.(app.GameWonPayload)
		payload, err = encodeGameWon(p)
		mh.settle(ctx, state, logger, p)
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	if payload == nil && err == nil {
		payload, err = json.Marshal(ev.Payload)
	}
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Targeted events never fall back to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, payload, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

// settle credits positive final scores to the players' wallets.
func (mh *matchHandler) settle(ctx context.Context, state *MatchState, logger runtime.Logger, won app.GameWonPayload) {
	if state.Economy == nil {
		return
	}
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	updates := make([]ports.WalletUpdate, 0, len(won.Scores))
	for userID, score := range won.Scores {
		// Skip bots
		if score <= 0 || bot.IsBot(userID) {
			continue
		}
		updates = append(updates, ports.WalletUpdate{
			UserID: userID,
			Amount: int64(score),
			Metadata: map[string]interface{}{
				"match_id": matchID,
				"reason":   "blitz_settlement",
				"winner":   won.Winner,
			},
		})
	}
	if err := state.Economy.UpdateBalances(ctx, updates); err != nil {
		logger.Error("Failed to update balances: %v", err)
		return
	}
	for _, u := range updates {
		if _, ok := state.Balances[u.UserID]; ok {
			state.Balances[u.UserID] += u.Amount
		}
	}
}

func (mh *matchHandler) loadBalance(ctx context.Context, state *MatchState, logger runtime.Logger, userID string) {
	if state.Economy == nil {
		return
	}
	balance, err := state.Economy.GetBalance(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load balance for %s: %v", userID, err)
		return
	}
	state.Balances[userID] = balance
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	bytes, err := encodeState(state)
	if err != nil {
		logger.Error("Failed to marshal match state: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpState, bytes, nil, nil, true); err != nil {
		logger.Error("Failed to broadcast match state: %v", err)
	}
}

func encodeState(state *MatchState) ([]byte, error) {
	return json.Marshal(statePayload{
		Snapshot: app.BuildSnapshot(state.Game),
		Tick:     state.Tick,
		Balances: state.Balances,
	})
}

func (mh *matchHandler) sendPlaceResult(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, result PlaceResult) {
	bytes, err := json.Marshal(result)
	if err != nil {
		logger.Error("Failed to marshal PlaceResult: %v", err)
		return
	}
	mh.sendTo(state, dispatcher, logger, userID, OpPlaceResult, bytes)
}

// sendError sends an ErrorEvent to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID, intent string, cause error) {
	bytes, err := json.Marshal(ErrorEvent{Intent: intent, Kind: app.Kind(cause), Message: cause.Error()})
	if err != nil {
		logger.Error("Failed to marshal ErrorEvent: %v", err)
		return
	}
	mh.sendTo(state, dispatcher, logger, userID, OpError, bytes)
}

func (mh *matchHandler) sendTo(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64, data []byte) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send opcode %d to %s: Presence not found", opCode, userID)
		return
	}
	if err := dispatcher.BroadcastMessage(opCode, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send opcode %d to %s: %v", opCode, userID, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := encodeLabel(domain.ComputeLabel(state.Game))
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

// encodeLabel renders the label as JSON through structpb so Nakama's label
// index sees plain numbers and strings.
func encodeLabel(l domain.LabelPayload) (string, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		MatchLabelKey_OpenSeats: l.Open,
		"game":                  l.Game,
		"status":                l.Status,
		"players":               l.Players,
	})
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeGameWon(p app.GameWonPayload) ([]byte, error) {
	scores := make(map[string]interface{}, len(p.Scores))
	for id, score := range p.Scores {
		scores[id] = score
	}
	s, err := structpb.NewStruct(map[string]interface{}{
		"winner": p.Winner,
		"scores": scores,
	})
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

// MatchSignal answers snapshot requests from the match_state RPC.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok || data != signalSnapshot {
		return state, ""
	}
	bytes, err := encodeState(matchState)
	if err != nil {
		logger.Error("MatchSignal: Failed to marshal state: %v", err)
		return state, ""
	}
	return state, string(bytes)
}
