package app

// IntentKind names a player intent as it arrives from a transport.
type IntentKind string

const (
	IntentMove            IntentKind = "move"
	IntentPickup          IntentKind = "pickup"
	IntentPlace           IntentKind = "place"
	IntentCancel          IntentKind = "cancel"
	IntentCycle           IntentKind = "cycle"
	IntentDrawFromReserve IntentKind = "drawFromReserve"
	IntentRestart         IntentKind = "restart"
	// IntentForceRestart bypasses the finished-game guard for development.
	IntentForceRestart IntentKind = "forceRestart"

	// Legacy split of place and drawFromReserve.
	IntentDrop      IntentKind = "drop"
	IntentPlacePost IntentKind = "placePost"
	IntentDrawWood  IntentKind = "drawWood"
)
