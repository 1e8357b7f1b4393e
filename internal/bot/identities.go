package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// userIDPrefix marks generated bot ids. Bots never hold a Nakama presence.
const userIDPrefix = "bot-"

type BotIdentity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

var (
	botIdentities []BotIdentity
	botIDMap      map[string]bool
	loadOnce      sync.Once
	loadErr       error
)

// LoadIdentities loads the bot profiles from the given path.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}

		var identities []BotIdentity
		if err := json.Unmarshal(data, &identities); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}

		botIDMap = make(map[string]bool, len(identities))
		for _, identity := range identities {
			if identity.UserID != "" {
				botIdentities = append(botIdentities, identity)
				botIDMap[identity.UserID] = true
			}
		}
	})
	return loadErr
}

// IsBot reports whether userID belongs to a bot.
func IsBot(userID string) bool {
	return strings.HasPrefix(userID, userIDPrefix) || botIDMap[userID]
}

// GetBotIdentity returns an identity for a bot by index (mod pool size).
func GetBotIdentity(index int) BotIdentity {
	if len(botIdentities) == 0 {
		return BotIdentity{
			UserID:      fmt.Sprintf("%s%d", userIDPrefix, index),
			DisplayName: fmt.Sprintf("AI Player %d", index),
		}
	}
	return botIdentities[index%len(botIdentities)]
}
