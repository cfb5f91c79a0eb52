package leaderboard

type BadgeEntry struct {
	Key   string
	Badge string
}

// BadgeTable maps "challenge/ctf" puzzle keys to the badge shown on the board.
type BadgeTable struct {
	byKey map[string]string
}

func NewBadgeTable(entries []BadgeEntry) BadgeTable {
	byKey := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.Key == "" || entry.Badge == "" {
			continue
		}
		if _, exists := byKey[entry.Key]; exists {
			continue
		}
		byKey[entry.Key] = entry.Badge
	}
	return BadgeTable{byKey: byKey}
}

func (t BadgeTable) Lookup(key string) (string, bool) {
	badge, ok := t.byKey[key]
	return badge, ok
}

func DefaultBadges() BadgeTable {
	return NewBadgeTable([]BadgeEntry{
		{Key: "cryptography-challenge/caesar-cipher", Badge: "🔴"},
		{Key: "cryptography-challenge/hidden-message", Badge: "⚪️"},
		{Key: "cryptography-challenge/qr-cyberchef", Badge: "🔵"},
		{Key: "cryptography-challenge/secret-number", Badge: "🟡"},
		{Key: "web-basics-challenge/console-secret", Badge: "🟣"},
		{Key: "web-basics-challenge/cookie-clue", Badge: "🟢"},
		{Key: "web-basics-challenge/element-inspector", Badge: "⚫️"},
		{Key: "web-basics-challenge/robot-rules", Badge: "🟠"},
	})
}
