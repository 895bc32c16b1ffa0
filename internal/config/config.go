package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/Versifine/rollcall/internal/camera"
	"github.com/Versifine/rollcall/internal/control"
	"github.com/Versifine/rollcall/internal/limb"
	"github.com/Versifine/rollcall/internal/locomotion"
	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/Versifine/rollcall/internal/physics"
	"github.com/Versifine/rollcall/internal/portal"
)

// EnvPrefix is prepended to every env tag below.
const EnvPrefix = "ROLLCALL_"

//go:embed schema.json
var schemaJSON string

type Config struct {
	Logging    LoggingConfig     `yaml:"logging"`
	Session    SessionConfig     `yaml:"session"`
	Physics    physics.Config    `yaml:"physics"`
	Locomotion locomotion.Config `yaml:"locomotion"`
	Limb       limb.Config       `yaml:"limb"`
	Switcher   control.Config    `yaml:"switcher"`
	Camera     camera.Config     `yaml:"camera"`
	Portals    []portal.Gate     `yaml:"portals"`
	Agents     []AgentConfig     `yaml:"agents"`
	Host       HostConfig        `yaml:"host"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	File   string `yaml:"file" env:"LOG_FILE"`
}

type SessionConfig struct {
	FixedStep     float64 `yaml:"fixed_step" env:"FIXED_STEP"`
	MaxFixedSteps int     `yaml:"max_fixed_steps" env:"MAX_FIXED_STEPS"`
	// AgentCount is used for ring placement when Agents is empty.
	AgentCount int     `yaml:"agent_count" env:"AGENT_COUNT"`
	RingRadius float64 `yaml:"ring_radius"`
	SpawnY     float64 `yaml:"spawn_y"`
	Arena      Arena   `yaml:"arena"`
}

// Arena is the flat ground the built-in world is made of.
type Arena struct {
	HalfExtent int `yaml:"half_extent"`
	FloorY     int `yaml:"floor_y"`
}

type AgentConfig struct {
	ID    string     `yaml:"id"`
	Spawn mathx.Pose `yaml:"spawn"`
}

type HostConfig struct {
	// Mode is "viewer", "console" or "headless".
	Mode   string `yaml:"mode" env:"HOST_MODE"`
	Title  string `yaml:"title"`
	Width  int    `yaml:"width" env:"HOST_WIDTH"`
	Height int    `yaml:"height" env:"HOST_HEIGHT"`
	// TickRate drives the console and headless hosts, in frames per second.
	TickRate float64 `yaml:"tick_rate" env:"HOST_TICK_RATE"`
	// Frames bounds a headless run; zero runs until interrupted.
	Frames int `yaml:"frames" env:"HOST_FRAMES"`
}

func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Session: SessionConfig{
			FixedStep:     0.02,
			MaxFixedSteps: 8,
			AgentCount:    3,
			RingRadius:    4,
			SpawnY:        1,
			Arena:         Arena{HalfExtent: 24, FloorY: -1},
		},
		Physics:    physics.DefaultConfig(),
		Locomotion: locomotion.DefaultConfig(),
		Limb:       limb.DefaultConfig(),
		Switcher:   control.DefaultConfig(),
		Camera:     camera.DefaultConfig(),
		Host: HostConfig{
			Mode:     "viewer",
			Title:    "rollcall",
			Width:    960,
			Height:   640,
			TickRate: 60,
		},
	}
}

// Load builds the config from defaults, the YAML file at path, and
// ROLLCALL_* environment variables, in that order, then validates it.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv overlays ROLLCALL_* variables onto cfg. Unset variables leave
// fields alone.
func ParseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

var schema = jsonschema.MustCompileString("rollcall.schema.json", schemaJSON)

// Validate checks cfg against the embedded JSON schema plus the
// cross-field rules a schema cannot express.
func Validate(cfg *Config) error {
	doc, err := toJSONValue(cfg)
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var problems []string
	if cfg.Camera.MinDistance > cfg.Camera.MaxDistance {
		problems = append(problems, "camera.min_distance exceeds camera.max_distance")
	}
	if cfg.Camera.CloseMinDistance > cfg.Camera.CloseMaxDistance {
		problems = append(problems, "camera.close_min_distance exceeds camera.close_max_distance")
	}
	seen := make(map[string]bool, len(cfg.Agents))
	for _, a := range cfg.Agents {
		if seen[a.ID] {
			problems = append(problems, fmt.Sprintf("duplicate agent id %q", a.ID))
		}
		seen[a.ID] = true
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// toJSONValue turns cfg into the generic form the validator walks, keyed
// by the YAML field names.
func toJSONValue(cfg *Config) (any, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	js, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encode config json: %w", err)
	}
	var doc any
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, fmt.Errorf("decode config json: %w", err)
	}
	return doc, nil
}
