package locomotion

import (
	"github.com/Versifine/rollcall/internal/physics"
	"github.com/go-gl/mathgl/mgl64"
)

// AirbornePitch tilts the facing pose while the agent is off the ground.
const AirbornePitch = 270.0

type Config struct {
	Speed       float64 `yaml:"speed"`
	JumpImpulse float64 `yaml:"jump_impulse"`
	// UnlockDelay is how long a newly controlled or teleported agent
	// ignores movement input.
	UnlockDelay   float64 `yaml:"unlock_delay"`
	FallThreshold float64 `yaml:"fall_threshold"`

	GroundProbeOffset mgl64.Vec3    `yaml:"ground_probe_offset"`
	GroundProbeRadius float64       `yaml:"ground_probe_radius"`
	GroundMask        physics.Layer `yaml:"-"`

	SplashOffset mgl64.Vec3 `yaml:"splash_offset"`
	// SplashLifetime is how long a landing splash stays active. Zero or
	// less leaves it on until control is released.
	SplashLifetime float64 `yaml:"splash_lifetime"`

	MoveEpsilon     float64 `yaml:"move_epsilon"`
	VelocityEpsilon float64 `yaml:"velocity_epsilon"`

	EmberLead mgl64.Vec3 `yaml:"ember_lead"`
	EmberIdle mgl64.Vec3 `yaml:"ember_idle"`
	EmberRate float64    `yaml:"ember_rate"`

	RollMultiplier float64 `yaml:"roll_multiplier"`
}

func DefaultConfig() Config {
	return Config{
		Speed:             5,
		JumpImpulse:       6,
		UnlockDelay:       2.5,
		FallThreshold:     -20,
		GroundProbeOffset: mgl64.Vec3{0, -0.5, 0},
		GroundProbeRadius: 0.15,
		GroundMask:        physics.LayerGround,
		SplashOffset:      mgl64.Vec3{0, -0.45, 0},
		SplashLifetime:    1.0,
		MoveEpsilon:       0.01,
		VelocityEpsilon:   0.05,
		EmberLead:         mgl64.Vec3{0, 0.2, 0.8},
		EmberIdle:         mgl64.Vec3{0, -0.4, 0},
		EmberRate:         6,
		RollMultiplier:    60,
	}
}
