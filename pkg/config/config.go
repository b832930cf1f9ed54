// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Costs describes what an action charges when it executes: action points
// deducted immediately and a cooldown in turns armed on the ship.
type Costs struct {
	ActionPoints int `json:"actionPoints"`
	Cooldown     int `json:"cooldown"`
}

// ShipBalancing contains the tuning values for one ship class. Ability
// fields are interpreted per class: range/radius for area abilities,
// range/damage for torpedoes, distance for engine boosts.
type ShipBalancing struct {
	InitialHealth int   `json:"initialHealth"`
	ShootDamage   int   `json:"shootDamage"`
	ShootRange    int   `json:"shootRange"`
	ShootCosts    Costs `json:"shootCosts"`
	MovementCosts Costs `json:"movementCosts"`
	MovementSpeed int   `json:"movementSpeed"`
	AbilityCosts  Costs `json:"abilityCosts"`
	VisionRange   int   `json:"visionRange"`

	AbilityRange    int `json:"abilityRange,omitempty"`
	AbilityRadius   int `json:"abilityRadius,omitempty"`
	AbilityDamage   int `json:"abilityDamage,omitempty"`
	AbilityDistance int `json:"abilityDistance,omitempty"`
}

// GameConfig contains configuration for a match
type GameConfig struct {
	BoardSize        int      `json:"boardSize"`
	TeamASize        int      `json:"teamASize"`
	TeamBSize        int      `json:"teamBSize"`
	TurnActionPoints int      `json:"turnActionPoints"`
	ShipSetTeamA     []string `json:"shipSetTeamA"`
	ShipSetTeamB     []string `json:"shipSetTeamB"`

	Carrier    ShipBalancing `json:"carrier"`
	Battleship ShipBalancing `json:"battleship"`
	Cruiser    ShipBalancing `json:"cruiser"`
	Submarine  ShipBalancing `json:"submarine"`
	Destroyer  ShipBalancing `json:"destroyer"`

	Network NetworkConfig `json:"network"`
}

// NetworkConfig contains network-related configuration
type NetworkConfig struct {
	ServerPort    int    `json:"serverPort"`
	ServerAddress string `json:"serverAddress"`
	MaxClients    int    `json:"maxClients"`
}

// BalancingFor returns the balancing block for the named ship class.
// Class names match entity.ShipClass.String().
func (c *GameConfig) BalancingFor(class string) (*ShipBalancing, error) {
	switch class {
	case "Carrier":
		return &c.Carrier, nil
	case "Battleship":
		return &c.Battleship, nil
	case "Cruiser":
		return &c.Cruiser, nil
	case "Submarine":
		return &c.Submarine, nil
	case "Destroyer":
		return &c.Destroyer, nil
	}
	return nil, fmt.Errorf("unknown ship class: %s", class)
}

// LoadConfig loads a configuration from a file
func LoadConfig(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *GameConfig, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidateGameConfig checks a configuration for values the engine cannot
// run with.
func ValidateGameConfig(c *GameConfig) error {
	if c.BoardSize <= 0 {
		return fmt.Errorf("board size must be positive, got %d", c.BoardSize)
	}
	if c.TeamASize <= 0 || c.TeamBSize <= 0 {
		return fmt.Errorf("team sizes must be positive, got %d and %d", c.TeamASize, c.TeamBSize)
	}
	if c.TurnActionPoints <= 0 {
		return fmt.Errorf("turn action points must be positive, got %d", c.TurnActionPoints)
	}
	if len(c.ShipSetTeamA) == 0 || len(c.ShipSetTeamB) == 0 {
		return fmt.Errorf("both team ship sets must be non-empty")
	}
	for _, set := range [][]string{c.ShipSetTeamA, c.ShipSetTeamB} {
		for _, class := range set {
			if _, err := c.BalancingFor(class); err != nil {
				return err
			}
		}
	}
	return nil
}

// DefaultConfig returns a default game configuration
func DefaultConfig() *GameConfig {
	defaultShipSet := []string{
		"Carrier",
		"Battleship", "Battleship",
		"Cruiser", "Cruiser", "Cruiser",
		"Submarine", "Submarine", "Submarine", "Submarine",
		"Destroyer", "Destroyer",
	}

	return &GameConfig{
		BoardSize:        128,
		TeamASize:        2,
		TeamBSize:        2,
		TurnActionPoints: 40,
		ShipSetTeamA:     defaultShipSet,
		ShipSetTeamB:     defaultShipSet,
		Carrier: ShipBalancing{
			InitialHealth: 300,
			ShootDamage:   10,
			ShootRange:    6,
			ShootCosts:    Costs{ActionPoints: 2},
			MovementCosts: Costs{ActionPoints: 1},
			MovementSpeed: 1,
			AbilityCosts:  Costs{ActionPoints: 5, Cooldown: 2},
			VisionRange:   8,
			AbilityRange:  32,
			AbilityRadius: 8,
		},
		Battleship: ShipBalancing{
			InitialHealth: 200,
			ShootDamage:   10,
			ShootRange:    10,
			ShootCosts:    Costs{ActionPoints: 2},
			MovementCosts: Costs{ActionPoints: 1},
			MovementSpeed: 1,
			AbilityCosts:  Costs{ActionPoints: 5, Cooldown: 2},
			VisionRange:   12,
			AbilityRange:  32,
			AbilityRadius: 16,
			AbilityDamage: 34,
		},
		Cruiser: ShipBalancing{
			InitialHealth:   100,
			ShootDamage:     10,
			ShootRange:      8,
			ShootCosts:      Costs{ActionPoints: 2},
			MovementCosts:   Costs{ActionPoints: 1},
			MovementSpeed:   2,
			AbilityCosts:    Costs{ActionPoints: 5, Cooldown: 2},
			VisionRange:     10,
			AbilityDistance: 8,
		},
		Submarine: ShipBalancing{
			InitialHealth: 100,
			ShootDamage:   10,
			ShootRange:    16,
			ShootCosts:    Costs{ActionPoints: 5, Cooldown: 2},
			MovementCosts: Costs{ActionPoints: 1},
			MovementSpeed: 1,
			AbilityCosts:  Costs{ActionPoints: 8, Cooldown: 2},
			VisionRange:   32,
			AbilityRange:  32,
			AbilityDamage: 50,
		},
		Destroyer: ShipBalancing{
			InitialHealth: 100,
			ShootDamage:   10,
			ShootRange:    12,
			ShootCosts:    Costs{ActionPoints: 1},
			MovementCosts: Costs{ActionPoints: 2},
			MovementSpeed: 1,
			AbilityCosts:  Costs{ActionPoints: 5, Cooldown: 2},
			VisionRange:   24,
			AbilityRange:  20,
			AbilityRadius: 6,
			AbilityDamage: 34,
		},
		Network: NetworkConfig{
			ServerPort:    4566,
			ServerAddress: "localhost:4566",
			MaxClients:    32,
		},
	}
}
