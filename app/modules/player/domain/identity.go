package playerdomain

import (
	"fmt"
	"strings"
)

const botUniqueIDPrefix = "BOT_"

// NormalizeBotName canonicalizes a bot display name for unique-id
// synthesis: trimmed, whitespace collapsed to underscores, uppercased,
// stripped of anything outside [A-Z0-9_-].
func NormalizeBotName(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	joined := strings.ToUpper(strings.Join(fields, "_"))

	var b strings.Builder
	b.Grow(len(joined))
	for _, r := range joined {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BotUniqueID builds the server-scoped stand-in unique id for a bot.
// Two same-named bots on one server collide; that is accepted best-effort
// behavior, not a bug to fix here.
func BotUniqueID(serverID int64, name string) string {
	normalized := NormalizeBotName(name)
	if normalized == "" {
		return ""
	}
	return fmt.Sprintf("%s%d_%s", botUniqueIDPrefix, serverID, normalized)
}

// LegacyBotUniqueID builds the un-scoped form older deployments wrote.
// Lookups try the scoped id first and fall back to this one.
func LegacyBotUniqueID(name string) string {
	normalized := NormalizeBotName(name)
	if normalized == "" {
		return ""
	}
	return botUniqueIDPrefix + normalized
}

// IsBotUniqueID reports whether a unique id was synthesized for a bot.
func IsBotUniqueID(uniqueID string) bool {
	return strings.HasPrefix(uniqueID, botUniqueIDPrefix)
}
