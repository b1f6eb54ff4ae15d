package content

import (
	"slices"
	"time"
)

// FactTTL is how long a generated fact stays fresh.
const FactTTL = 24 * time.Hour

// Fact is a generated fact of the day.
type Fact struct {
	Fact        string    `json:"fact"`
	Explanation string    `json:"explanation"`
	CreatedAt   time.Time `json:"created_at"`
}

// Cache holds one session's generated content. The zero value is empty
// and ready to use. Fields are exported so sessions can be snapshotted.
type Cache struct {
	SuggestionKey   string          `json:"suggestion_key,omitempty"`
	Suggestions     []string        `json:"suggestions,omitempty"`
	Facts           map[string]Fact `json:"facts,omitempty"`
	SettingsApplied bool            `json:"settings_applied"`
}

// NeedSuggestions reports whether suggestions for key must be regenerated.
func (c *Cache) NeedSuggestions(key string) bool {
	return c.SuggestionKey != key || len(c.Suggestions) == 0 || c.SettingsApplied
}

// StoreSuggestions caches questions under key.
func (c *Cache) StoreSuggestions(key string, questions []string) {
	c.SuggestionKey = key
	c.Suggestions = slices.Clone(questions)
}

// FactFresh returns the cached fact for key if it is younger than FactTTL.
func (c *Cache) FactFresh(key string, now time.Time) (Fact, bool) {
	f, ok := c.Facts[key]
	if !ok || now.Sub(f.CreatedAt) >= FactTTL {
		return Fact{}, false
	}
	return f, true
}

// NeedFact reports whether the fact for key must be regenerated.
func (c *Cache) NeedFact(key string, now time.Time) bool {
	_, fresh := c.FactFresh(key, now)
	return !fresh || c.SettingsApplied
}

// StoreFact caches f under key.
func (c *Cache) StoreFact(key string, f Fact) {
	if c.Facts == nil {
		c.Facts = make(map[string]Fact)
	}
	c.Facts[key] = f
}

// ClearSuggestions drops cached suggestions and forces regeneration.
func (c *Cache) ClearSuggestions() {
	c.Suggestions = nil
	c.SuggestionKey = ""
	c.SettingsApplied = true
}

// ClearFacts drops every cached fact and forces regeneration.
func (c *Cache) ClearFacts() {
	c.Facts = nil
	c.SettingsApplied = true
}
