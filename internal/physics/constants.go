package physics

const (
	DefaultGravity       = 9.81
	DefaultBodyRadius    = 0.5
	DefaultBodyMass      = 1.0
	DefaultLinearDamping = 0.0

	CollisionAxisTolerance = 1e-9

	bodyPushMaxPerBody = 0.08
	bodyPushMaxPerStep = 0.12
	bodyPushStrength   = 0.7
)

// Layer is a collision filter bit set.
type Layer uint32

const (
	LayerGround Layer = 1 << iota
	LayerAgent
	LayerTrigger

	LayerAll Layer = ^Layer(0)
)

func (l Layer) Has(other Layer) bool {
	return l&other != 0
}
