// pkg/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BoardSize != 128 {
		t.Errorf("Expected BoardSize 128, got %d", cfg.BoardSize)
	}
	if cfg.TeamASize != 2 || cfg.TeamBSize != 2 {
		t.Errorf("Expected team sizes 2/2, got %d/%d", cfg.TeamASize, cfg.TeamBSize)
	}
	if len(cfg.ShipSetTeamA) != 12 {
		t.Errorf("Expected 12 ships in default set, got %d", len(cfg.ShipSetTeamA))
	}
	if err := ValidateGameConfig(cfg); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

func TestDefaultBalancing(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		class         string
		initialHealth int
		shootRange    int
		visionRange   int
	}{
		{"Carrier", 300, 6, 8},
		{"Battleship", 200, 10, 12},
		{"Cruiser", 100, 8, 10},
		{"Submarine", 100, 16, 32},
		{"Destroyer", 100, 12, 24},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			b, err := cfg.BalancingFor(tt.class)
			if err != nil {
				t.Fatalf("BalancingFor(%s) failed: %v", tt.class, err)
			}
			if b.InitialHealth != tt.initialHealth {
				t.Errorf("InitialHealth = %d, want %d", b.InitialHealth, tt.initialHealth)
			}
			if b.ShootRange != tt.shootRange {
				t.Errorf("ShootRange = %d, want %d", b.ShootRange, tt.shootRange)
			}
			if b.VisionRange != tt.visionRange {
				t.Errorf("VisionRange = %d, want %d", b.VisionRange, tt.visionRange)
			}
		})
	}

	if _, err := cfg.BalancingFor("Galleon"); err == nil {
		t.Error("Expected error for unknown ship class")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	original := DefaultConfig()
	original.BoardSize = 64
	original.Submarine.AbilityDamage = 75

	if err := SaveConfig(original, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.BoardSize != 64 {
		t.Errorf("Expected BoardSize 64, got %d", loaded.BoardSize)
	}
	if loaded.Submarine.AbilityDamage != 75 {
		t.Errorf("Expected Submarine AbilityDamage 75, got %d", loaded.Submarine.AbilityDamage)
	}
	// Fields absent from the file keep their defaults.
	if loaded.Carrier.InitialHealth != 300 {
		t.Errorf("Expected Carrier InitialHealth 300, got %d", loaded.Carrier.InitialHealth)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(path, []byte(`{"boardSize": 32}`), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.BoardSize != 32 {
		t.Errorf("Expected BoardSize 32, got %d", loaded.BoardSize)
	}
	if loaded.TurnActionPoints != 40 {
		t.Errorf("Expected default TurnActionPoints 40, got %d", loaded.TurnActionPoints)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for malformed file")
	}

	path = filepath.Join(t.TempDir(), "invalid.json")
	if err := os.WriteFile(path, []byte(`{"boardSize": -1}`), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for invalid board size")
	}
}

func TestValidateGameConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GameConfig)
		wantErr bool
	}{
		{"valid default", func(c *GameConfig) {}, false},
		{"zero board size", func(c *GameConfig) { c.BoardSize = 0 }, true},
		{"negative team size", func(c *GameConfig) { c.TeamBSize = -1 }, true},
		{"zero action points", func(c *GameConfig) { c.TurnActionPoints = 0 }, true},
		{"empty ship set", func(c *GameConfig) { c.ShipSetTeamA = nil }, true},
		{"unknown class in set", func(c *GameConfig) { c.ShipSetTeamB = []string{"Galleon"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := ValidateGameConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGameConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
