package window

import "strings"

// Entry maps a lowercase substring of a window title or process name to a
// display name.
type Entry struct {
	Pattern string `mapstructure:"pattern" json:"pattern"`
	Name    string `mapstructure:"name" json:"name"`
}

// builtin is searched in order; earlier entries win.
var builtin = []Entry{
	{"valorant", "Valorant"},
	{"csgo", "CS:GO"},
	{"cs2", "Counter-Strike 2"},
	{"overwatch", "Overwatch"},
	{"leagueoflegends", "League of Legends"},
	{"league of legends", "League of Legends"},
	{"riotclientux", "League of Legends"},
	{"dota2", "Dota 2"},
	{"minecraft", "Minecraft"},
	{"fortnite", "Fortnite"},
	{"r5apex", "Apex Legends"},
	{"apex", "Apex Legends"},
	{"rocketleague", "Rocket League"},
	{"gta5", "GTA V"},
	{"gtav", "GTA V"},
	{"elden ring", "Elden Ring"},
	{"eldenring", "Elden Ring"},
	{"arc raiders", "Arc Raiders"},
	{"arcraiders", "Arc Raiders"},
	{"steam", "Steam Game"},
	{"lutris", "Game"},
}

// Table is an immutable ordered list of entries. The zero value matches
// nothing.
type Table struct {
	entries []Entry
}

// NewTable returns the built-in table with extra placed in front of it, so
// user-configured patterns take precedence. Patterns are lowercased; entries
// with an empty pattern or name are dropped.
func NewTable(extra []Entry) Table {
	entries := make([]Entry, 0, len(extra)+len(builtin))
	for _, e := range append(append([]Entry(nil), extra...), builtin...) {
		p := strings.ToLower(strings.TrimSpace(e.Pattern))
		n := strings.TrimSpace(e.Name)
		if p == "" || n == "" {
			continue
		}
		entries = append(entries, Entry{Pattern: p, Name: n})
	}
	return Table{entries: entries}
}

// Lookup returns the name of the first entry whose pattern is a substring
// of s. s is compared case-insensitively.
func (t Table) Lookup(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	s = strings.ToLower(s)
	for _, e := range t.entries {
		if strings.Contains(s, e.Pattern) {
			return e.Name, true
		}
	}
	return "", false
}

// Entries returns a copy of the table contents in match order.
func (t Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len returns the number of entries.
func (t Table) Len() int { return len(t.entries) }
