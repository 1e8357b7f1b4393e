package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"dutchblitz/internal/app"
	"dutchblitz/internal/bot"
	"dutchblitz/internal/domain"
	"dutchblitz/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// mockWallet implements walletModule for testing.
type mockWallet struct {
	accounts map[string]*api.Account
	wallets  map[string]map[string]int64
	metadata map[string]map[string]interface{}
}

func (m *mockWallet) AccountGetId(ctx context.Context, userID string) (*api.Account, error) {
	if acc, ok := m.accounts[userID]; ok {
		return acc, nil
	}
	return nil, errors.New("account not found")
}

func (m *mockWallet) WalletUpdate(ctx context.Context, userID string, changeset map[string]int64, metadata map[string]interface{}, updateLedger bool) (map[string]int64, map[string]int64, error) {
	if m.wallets == nil {
		m.wallets = make(map[string]map[string]int64)
		m.metadata = make(map[string]map[string]interface{})
	}
	if _, ok := m.wallets[userID]; !ok {
		m.wallets[userID] = make(map[string]int64)
	}
	prev := make(map[string]int64)
	for k, v := range m.wallets[userID] {
		prev[k] = v
	}
	for k, v := range changeset {
		m.wallets[userID][k] += v
	}
	m.metadata[userID] = metadata
	return prev, m.wallets[userID], nil
}

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode     int64
	data       []byte
	recipients []string // user ids; nil means broadcast
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages []sentMessage
	labels   []string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	msg := sentMessage{opCode: opCode, data: append([]byte(nil), data...)}
	for _, p := range presences {
		msg.recipients = append(msg.recipients, p.GetUserId())
	}
	md.messages = append(md.messages, msg)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labels = append(md.labels, label)
	return nil
}

// byOpCode returns the recorded messages with the given opcode.
func (md *mockDispatcher) byOpCode(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.messages {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

type mockEconomy struct {
	balances map[string]int64
	calls    map[string]int
	updates  []ports.WalletUpdate
}

func (me *mockEconomy) GetBalance(ctx context.Context, userID string) (int64, error) {
	if me.calls == nil {
		me.calls = make(map[string]int)
	}
	me.calls[userID]++
	if balance, ok := me.balances[userID]; ok {
		return balance, nil
	}
	return 0, errors.New("balance not found")
}

func (me *mockEconomy) UpdateBalances(ctx context.Context, updates []ports.WalletUpdate) error {
	me.updates = append(me.updates, updates...)
	return nil
}

// mockPresence overrides the presence fields the handler reads.
type mockPresence struct {
	runtime.Presence
	userID string
}

func (p mockPresence) GetUserId() string    { return p.userID }
func (p mockPresence) GetSessionId() string { return "session-" + p.userID }

// mockMatchData is an inbound client message.
type mockMatchData struct {
	runtime.MatchData
	userID string
	opCode int64
	data   []byte
}

func (m mockMatchData) GetUserId() string { return m.userID }
func (m mockMatchData) GetOpCode() int64  { return m.opCode }
func (m mockMatchData) GetData() []byte   { return m.data }

func newTestMatch(t *testing.T) (*matchHandler, *MatchState, *mockDispatcher, *mockEconomy) {
	t.Helper()
	handler := newMatchHandler()
	raw, tickRate, label := handler.MatchInit(context.Background(), noopLogger{}, nil, nil, nil)
	state, ok := raw.(*MatchState)
	if !ok {
		t.Fatalf("MatchInit returned %T", raw)
	}
	if tickRate <= 0 || label == "" {
		t.Fatalf("MatchInit tick rate %d, label %q", tickRate, label)
	}
	economy := &mockEconomy{balances: map[string]int64{"user-1": 120, "user-2": 40}}
	state.Economy = economy
	state.Bots.Enabled = false
	return handler, state, &mockDispatcher{}, economy
}

func joinUsers(t *testing.T, handler *matchHandler, state *MatchState, dispatcher *mockDispatcher, ids ...string) {
	t.Helper()
	presences := make([]runtime.Presence, 0, len(ids))
	for _, id := range ids {
		presences = append(presences, mockPresence{userID: id})
	}
	if got := handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, state.Tick, state, presences); got != state {
		t.Fatalf("MatchJoin returned %v", got)
	}
}

func send(handler *matchHandler, state *MatchState, dispatcher *mockDispatcher, userID string, opCode int64, payload string) {
	state.Tick++
	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, state.Tick, state,
		[]runtime.MatchData{mockMatchData{userID: userID, opCode: opCode, data: []byte(payload)}})
}

func lastState(t *testing.T, dispatcher *mockDispatcher) map[string]interface{} {
	t.Helper()
	states := dispatcher.byOpCode(OpState)
	if len(states) == 0 {
		t.Fatalf("Expected a state broadcast")
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(states[len(states)-1].data, &decoded); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	return decoded
}

func TestDecodeIntent(t *testing.T) {
	tests := []struct {
		name    string
		opCode  int64
		data    string
		want    app.Intent
		wantErr bool
	}{
		{
			name:   "MoveWithCoordinates",
			opCode: OpMove,
			data:   `{"x":1.5,"y":-2}`,
			want:   app.Intent{Kind: app.IntentMove, X: 1.5, Y: -2},
		},
		{
			name:   "CycleWithoutPayload",
			opCode: OpCycle,
			want:   app.Intent{Kind: app.IntentCycle},
		},
		{
			name:   "OpcodeWinsOverType",
			opCode: OpPickup,
			data:   `{"type":"place","cardId":"alice_green_1"}`,
			want:   app.Intent{Kind: app.IntentPickup, CardID: "alice_green_1"},
		},
		{
			name:   "GenericIntent",
			opCode: OpIntent,
			data:   `{"type":"place","pileId":"foundation_2"}`,
			want:   app.Intent{Kind: app.IntentPlace, PileID: "foundation_2"},
		},
		{
			name:    "GenericIntentWithoutType",
			opCode:  OpIntent,
			data:    `{"pileId":"foundation_2"}`,
			wantErr: true,
		},
		{
			name:    "BadJSON",
			opCode:  OpPlace,
			data:    `{"pileId":`,
			wantErr: true,
		},
		{
			name:    "UnknownOpcode",
			opCode:  OpState,
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := decodeIntent(test.opCode, []byte(test.data))
			if test.wantErr {
				if !errors.Is(err, app.ErrMalformedIntent) {
					t.Fatalf("decodeIntent() error = %v, want malformed intent", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeIntent() error = %v", err)
			}
			if got.Kind != test.want.Kind || got.X != test.want.X || got.Y != test.want.Y ||
				got.CardID != test.want.CardID || got.PileID != test.want.PileID {
				t.Fatalf("decodeIntent() = %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestEncodeLabel(t *testing.T) {
	label, err := encodeLabel(domain.LabelPayload{Open: 6, Game: "dutchblitz", Status: "waiting", Players: 2})
	if err != nil {
		t.Fatalf("Failed to encode label: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(label), &decoded); err != nil {
		t.Fatalf("Label is not JSON: %v", err)
	}
	if decoded[MatchLabelKey_OpenSeats] != 6.0 || decoded["players"] != 2.0 {
		t.Errorf("Unexpected label numbers: %s", label)
	}
	if decoded["game"] != "dutchblitz" || decoded["status"] != "waiting" {
		t.Errorf("Unexpected label strings: %s", label)
	}
}

func TestMatchJoin_StartsGameAndBroadcasts(t *testing.T) {
	handler, state, dispatcher, economy := newTestMatch(t)
	joinUsers(t, handler, state, dispatcher, "user-1", "user-2")

	if state.Game.Status != domain.StatusPlaying {
		t.Fatalf("Expected playing, got %s", state.Game.Status)
	}
	if got := len(dispatcher.byOpCode(OpPlayerJoined)); got != 2 {
		t.Fatalf("Expected 2 player_joined events, got %d", got)
	}
	if got := len(dispatcher.byOpCode(OpGameStarted)); got != 1 {
		t.Fatalf("Expected 1 game_started event, got %d", got)
	}
	if len(dispatcher.labels) == 0 || !strings.Contains(dispatcher.labels[len(dispatcher.labels)-1], `"playing"`) {
		t.Fatalf("Expected label update to playing, got %v", dispatcher.labels)
	}
	if economy.calls["user-1"] != 1 || state.Balances["user-1"] != 120 {
		t.Fatalf("Expected balance lookup for user-1, calls %d balance %d", economy.calls["user-1"], state.Balances["user-1"])
	}

	decoded := lastState(t, dispatcher)
	if decoded["status"] != "playing" {
		t.Errorf("Expected state status playing, got %v", decoded["status"])
	}
	if players, _ := decoded["players"].([]interface{}); len(players) != 2 {
		t.Errorf("Expected 2 players in state, got %v", decoded["players"])
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	handler, state, dispatcher, _ := newTestMatch(t)
	joinUsers(t, handler, state, dispatcher, "user-1")

	_, ok, reason := handler.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, dispatcher, 0, state, mockPresence{userID: "user-1"}, nil)
	if ok || reason != "Already joined" {
		t.Fatalf("Expected rejoin rejection, got %t %q", ok, reason)
	}

	for i := range state.Game.Seats {
		if state.Game.Seats[i] == "" {
			state.Game.Seats[i] = fmt.Sprintf("filler-%d", i)
		}
	}
	_, ok, reason = handler.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, dispatcher, 0, state, mockPresence{userID: "user-9"}, nil)
	if ok || reason != "Match full" {
		t.Fatalf("Expected full rejection, got %t %q", ok, reason)
	}
}

func TestMatchLoop_RejectedPlaceSendsPrivateResult(t *testing.T) {
	handler, state, dispatcher, _ := newTestMatch(t)
	joinUsers(t, handler, state, dispatcher, "user-1", "user-2")
	before := len(dispatcher.byOpCode(OpState))

	send(handler, state, dispatcher, "user-1", OpPlace, `{"pileId":"foundation_0"}`)

	results := dispatcher.byOpCode(OpPlaceResult)
	if len(results) != 1 || len(results[0].recipients) != 1 || results[0].recipients[0] != "user-1" {
		t.Fatalf("Expected one private place result, got %+v", results)
	}
	var result PlaceResult
	if err := json.Unmarshal(results[0].data, &result); err != nil {
		t.Fatalf("Failed to decode place result: %v", err)
	}
	if result.Success || result.Kind == "" || result.Kind == "Internal" {
		t.Fatalf("Unexpected place result: %+v", result)
	}

	errs := dispatcher.byOpCode(OpError)
	if len(errs) != 1 || errs[0].recipients[0] != "user-1" {
		t.Fatalf("Expected one private error, got %+v", errs)
	}
	var errEvent ErrorEvent
	if err := json.Unmarshal(errs[0].data, &errEvent); err != nil {
		t.Fatalf("Failed to decode error event: %v", err)
	}
	if errEvent.Intent != "place" || errEvent.Kind != result.Kind {
		t.Fatalf("Unexpected error event: %+v", errEvent)
	}
	if got := len(dispatcher.byOpCode(OpState)); got != before {
		t.Fatalf("Rejected intent must not broadcast state, got %d new", got-before)
	}
}

func TestMatchLoop_MalformedMessage(t *testing.T) {
	handler, state, dispatcher, _ := newTestMatch(t)
	joinUsers(t, handler, state, dispatcher, "user-1", "user-2")

	send(handler, state, dispatcher, "user-1", 99, `{}`)

	errs := dispatcher.byOpCode(OpError)
	if len(errs) != 1 {
		t.Fatalf("Expected one error, got %d", len(errs))
	}
	var errEvent ErrorEvent
	if err := json.Unmarshal(errs[0].data, &errEvent); err != nil {
		t.Fatalf("Failed to decode error event: %v", err)
	}
	if errEvent.Kind != "MalformedIntent" || errEvent.Intent != "opcode_99" {
		t.Fatalf("Unexpected error event: %+v", errEvent)
	}
}

func TestMatchLoop_PlaceOnFoundation(t *testing.T) {
	handler, state, dispatcher, _ := newTestMatch(t)
	joinUsers(t, handler, state, dispatcher, "user-1", "user-2")

	// Put a one on top of user-1's blitz pile.
	p := state.Game.Players["user-1"]
	var one *domain.Card
	for i, c := range p.Reserve {
		if c.Value == 1 {
			one = c
			p.Reserve = append(p.Reserve[:i], p.Reserve[i+1:]...)
			break
		}
	}
	if one == nil {
		t.Fatalf("No one in reserve")
	}
	one.FaceUp = true
	p.Blitz = append(p.Blitz, one)

	pile := state.Game.Foundations[0]
	send(handler, state, dispatcher, "user-1", OpPickup, fmt.Sprintf(`{"cardId":%q}`, one.ID))
	send(handler, state, dispatcher, "user-1", OpMove, fmt.Sprintf(`{"x":%v,"y":%v}`, pile.Position.X, pile.Position.Y))
	send(handler, state, dispatcher, "user-1", OpPlace, `{"pileId":"foundation_0"}`)

	if errs := dispatcher.byOpCode(OpError); len(errs) != 0 {
		t.Fatalf("Unexpected errors: %s", errs[0].data)
	}
	results := dispatcher.byOpCode(OpPlaceResult)
	if len(results) != 1 || results[0].recipients[0] != "user-1" {
		t.Fatalf("Expected one private place result, got %+v", results)
	}
	var result PlaceResult
	if err := json.Unmarshal(results[0].data, &result); err != nil {
		t.Fatalf("Failed to decode place result: %v", err)
	}
	want := PlaceResult{Success: true, CardID: one.ID, Target: "foundation_0", TargetKind: "foundation", ScoreDelta: 1}
	if result != want {
		t.Fatalf("PlaceResult = %+v, want %+v", result, want)
	}
	if p.Score != 1 {
		t.Fatalf("Expected score 1, got %d", p.Score)
	}
}

func TestMatchLeave_TerminatesWithoutHumans(t *testing.T) {
	handler, state, dispatcher, _ := newTestMatch(t)
	joinUsers(t, handler, state, dispatcher, "user-1", "user-2")

	leave := func(id string) interface{} {
		return handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, state.Tick, state, []runtime.Presence{mockPresence{userID: id}})
	}
	if got := leave("user-2"); got != state {
		t.Fatalf("Expected match to continue with one human")
	}
	if got := len(dispatcher.byOpCode(OpPlayerLeft)); got != 1 {
		t.Fatalf("Expected player_left broadcast, got %d", got)
	}
	if _, ok := state.Balances["user-2"]; ok {
		t.Fatalf("Expected balance of departed user to be dropped")
	}
	if got := leave("user-1"); got != nil {
		t.Fatalf("Expected termination when no humans remain")
	}
}

func TestProcessBots_AutoFillsSoloHuman(t *testing.T) {
	handler, state, dispatcher, economy := newTestMatch(t)
	state.Bots.Enabled = true
	state.Bots.AutoFillDelaySeconds = 1
	state.Bots.MinDelayTicks = 1
	state.Bots.MaxDelayTicks = 1
	state.TickRate = 10

	joinUsers(t, handler, state, dispatcher, "user-1")
	for i := 0; i < state.TickRate; i++ {
		send(handler, state, dispatcher, "user-1", OpMove, `{"x":0,"y":0}`)
		if len(state.Agents) != 0 {
			t.Fatalf("Bot added too early at tick %d", state.Tick)
		}
	}
	send(handler, state, dispatcher, "user-1", OpMove, `{"x":0,"y":0}`)

	if len(state.Agents) != 1 {
		t.Fatalf("Expected 1 bot, got %d", len(state.Agents))
	}
	botID := bot.GetBotIdentity(0).UserID
	if _, ok := state.Game.Players[botID]; !ok {
		t.Fatalf("Expected %s to be seated", botID)
	}
	if state.Game.Status != domain.StatusPlaying {
		t.Fatalf("Expected game to start, got %s", state.Game.Status)
	}
	if state.LastSinglePlayerTick != 0 {
		t.Fatalf("Expected auto-fill timer reset, got %d", state.LastSinglePlayerTick)
	}
	if economy.calls[botID] != 0 {
		t.Fatalf("Bots must not hit the wallet")
	}

	// The bot keeps playing on its own schedule.
	before := len(dispatcher.byOpCode(OpState))
	for i := 0; i < 20; i++ {
		state.Tick++
		handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, state.Tick, state, nil)
	}
	if got := len(dispatcher.byOpCode(OpState)); got <= before {
		t.Fatalf("Expected bot intents to broadcast state")
	}
}

func TestSettle_CreditsPositiveHumanScores(t *testing.T) {
	handler, state, _, economy := newTestMatch(t)
	state.Balances["user-1"] = 100
	botID := bot.GetBotIdentity(0).UserID

	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_MATCH_ID, "match-1")
	handler.settle(ctx, state, noopLogger{}, app.GameWonPayload{
		Winner: "user-1",
		Scores: map[string]int{"user-1": 12, "user-2": -4, botID: 9},
	})

	if len(economy.updates) != 1 {
		t.Fatalf("Expected 1 wallet update, got %+v", economy.updates)
	}
	u := economy.updates[0]
	if u.UserID != "user-1" || u.Amount != 12 {
		t.Fatalf("Unexpected update: %+v", u)
	}
	if u.Metadata["match_id"] != "match-1" || u.Metadata["reason"] != "blitz_settlement" || u.Metadata["winner"] != "user-1" {
		t.Fatalf("Unexpected metadata: %+v", u.Metadata)
	}
	if state.Balances["user-1"] != 112 {
		t.Fatalf("Expected cached balance 112, got %d", state.Balances["user-1"])
	}
}

func TestEncodeGameWon(t *testing.T) {
	payload, err := encodeGameWon(app.GameWonPayload{Winner: "user-1", Scores: map[string]int{"user-1": 3, "user-2": -20}})
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	var decoded app.GameWonPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded.Winner != "user-1" || decoded.Scores["user-1"] != 3 || decoded.Scores["user-2"] != -20 {
		t.Fatalf("Unexpected payload: %s", payload)
	}
}

func TestMatchSignal_Snapshot(t *testing.T) {
	handler, state, dispatcher, _ := newTestMatch(t)
	joinUsers(t, handler, state, dispatcher, "user-1")

	_, data := handler.MatchSignal(context.Background(), noopLogger{}, nil, nil, dispatcher, 0, state, signalSnapshot)
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(data), &decoded); err != nil {
		t.Fatalf("Signal returned invalid JSON %q: %v", data, err)
	}
	if decoded["status"] != "waiting" {
		t.Fatalf("Expected waiting status, got %v", decoded["status"])
	}

	if _, data := handler.MatchSignal(context.Background(), noopLogger{}, nil, nil, dispatcher, 0, state, "other"); data != "" {
		t.Fatalf("Expected empty reply for unknown signal, got %q", data)
	}
}

// fakeMatchLister answers MatchList queries from a fixed table.
type fakeMatchLister struct {
	results map[string][]*api.Match
	queries []string
	created int
}

func (f *fakeMatchLister) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	f.queries = append(f.queries, query)
	return f.results[query], nil
}

func (f *fakeMatchLister) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	if module != MatchNameBlitz {
		return "", fmt.Errorf("unexpected module %s", module)
	}
	f.created++
	return "new-match", nil
}

func TestQuickMatch(t *testing.T) {
	waiting := "+label.game:dutchblitz +label.open:>=1 +label.status:waiting"
	anyOpen := "+label.game:dutchblitz +label.open:>=1"

	tests := []struct {
		name    string
		results map[string][]*api.Match
		want    QuickMatchResponse
		created int
	}{
		{
			name:    "PrefersWaiting",
			results: map[string][]*api.Match{waiting: {{MatchId: "lobby"}}, anyOpen: {{MatchId: "running"}}},
			want:    QuickMatchResponse{MatchID: "lobby"},
		},
		{
			name:    "FallsBackToRunning",
			results: map[string][]*api.Match{anyOpen: {{MatchId: "running"}}},
			want:    QuickMatchResponse{MatchID: "running"},
		},
		{
			name:    "CreatesNew",
			results: map[string][]*api.Match{},
			want:    QuickMatchResponse{MatchID: "new-match", IsNew: true},
			created: 1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			nk := &fakeMatchLister{results: test.results}
			out, err := quickMatch(context.Background(), noopLogger{}, nk, 8)
			if err != nil {
				t.Fatalf("quickMatch() error = %v", err)
			}
			var got QuickMatchResponse
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("Invalid response %q: %v", out, err)
			}
			if got != test.want || nk.created != test.created {
				t.Fatalf("quickMatch() = %+v (created %d), want %+v (created %d)", got, nk.created, test.want, test.created)
			}
		})
	}
}

func TestNakamaEconomyAdapter(t *testing.T) {
	nk := &mockWallet{accounts: map[string]*api.Account{
		"user-1": {Wallet: `{"blitz_points": 70, "gold": 3}`},
		"user-2": {},
		"user-3": {Wallet: `not json`},
	}}
	adapter := NewNakamaEconomyAdapter(nk, "blitz_points")
	ctx := context.Background()

	if got, err := adapter.GetBalance(ctx, "user-1"); err != nil || got != 70 {
		t.Fatalf("GetBalance(user-1) = %d, %v", got, err)
	}
	if got, err := adapter.GetBalance(ctx, "user-2"); err != nil || got != 0 {
		t.Fatalf("GetBalance(user-2) = %d, %v", got, err)
	}
	if _, err := adapter.GetBalance(ctx, "user-3"); err == nil {
		t.Fatalf("Expected wallet decode error")
	}
	if _, err := adapter.GetBalance(ctx, "missing"); err == nil {
		t.Fatalf("Expected account lookup error")
	}

	err := adapter.UpdateBalances(ctx, []ports.WalletUpdate{
		{UserID: "user-1", Amount: 5, Metadata: map[string]interface{}{"reason": "blitz_settlement"}},
		{UserID: "user-2", Amount: 0},
	})
	if err != nil {
		t.Fatalf("UpdateBalances() error = %v", err)
	}
	if nk.wallets["user-1"]["blitz_points"] != 5 {
		t.Fatalf("Expected credit of 5, got %v", nk.wallets["user-1"])
	}
	if _, ok := nk.wallets["user-2"]; ok {
		t.Fatalf("Zero updates must be skipped")
	}
	if nk.metadata["user-1"]["reason"] != "blitz_settlement" {
		t.Fatalf("Metadata not forwarded: %v", nk.metadata["user-1"])
	}
}
