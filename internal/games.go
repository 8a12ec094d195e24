package internal

import (
	"fmt"
	"sort"
	"strings"
)

// Game is a selectable display theme
type Game struct {
	ID     string `mapstructure:"id" yaml:"id" json:"id"`
	Label  string `mapstructure:"label" yaml:"label" json:"label"`
	Accent string `mapstructure:"accent" yaml:"accent" json:"accent"` // hex colour, e.g. "#7aa2f7"
}

// DefaultGameID is selected when nothing has been persisted
const DefaultGameID = "general"

// DefaultGames is the built-in catalog
var DefaultGames = []Game{
	{ID: "general", Label: "Any game", Accent: "#7aa2f7"},
	{ID: "hollow-knight", Label: "Hollow Knight", Accent: "#a9b1d6"},
	{ID: "elden-ring", Label: "Elden Ring", Accent: "#e0af68"},
	{ID: "stardew-valley", Label: "Stardew Valley", Accent: "#9ece6a"},
	{ID: "zelda-totk", Label: "Zelda: Tears of the Kingdom", Accent: "#73daca"},
}

// GameCatalog resolves game ids to themes
type GameCatalog struct {
	games map[string]Game
}

// NewGameCatalog builds a catalog from the defaults plus extra entries.
// Extras with an existing id replace the default theme.
func NewGameCatalog(extra ...Game) *GameCatalog {
	c := &GameCatalog{games: make(map[string]Game, len(DefaultGames)+len(extra))}
	for _, g := range DefaultGames {
		c.games[g.ID] = g
	}
	for _, g := range extra {
		g.ID = strings.TrimSpace(g.ID)
		if g.ID == "" {
			continue
		}
		if g.Label == "" {
			g.Label = g.ID
		}
		if g.Accent == "" {
			g.Accent = c.games[DefaultGameID].Accent
		}
		c.games[g.ID] = g
	}
	return c
}

// Lookup returns the game with id
func (c *GameCatalog) Lookup(id string) (Game, bool) {
	g, ok := c.games[id]
	return g, ok
}

// Games lists the catalog sorted by id, default first
func (c *GameCatalog) Games() []Game {
	out := make([]Game, 0, len(c.games))
	for _, g := range c.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == DefaultGameID || out[j].ID == DefaultGameID {
			return out[i].ID == DefaultGameID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GameStore persists the selected game id
type GameStore struct {
	kv      KeyValueStore
	catalog *GameCatalog
}

// NewGameStore creates a GameStore validating ids against catalog
func NewGameStore(kv KeyValueStore, catalog *GameCatalog) *GameStore {
	return &GameStore{kv: kv, catalog: catalog}
}

// Load returns the persisted game, falling back to the default for missing or
// unknown ids
func (s *GameStore) Load() Game {
	value, ok, err := s.kv.Get(KeyGame)
	if err != nil {
		LogDebug("Failed to read game selection: %v", err)
	}
	if ok {
		if g, found := s.catalog.Lookup(value); found {
			return g
		}
	}
	g, _ := s.catalog.Lookup(DefaultGameID)
	return g
}

// Save persists the selection of id
func (s *GameStore) Save(id string) (Game, error) {
	g, ok := s.catalog.Lookup(id)
	if !ok {
		return Game{}, fmt.Errorf("unknown game %q", id)
	}
	if err := s.kv.Set(KeyGame, id); err != nil {
		LogDebug("Failed to persist game selection: %v", err)
	}
	return g, nil
}
