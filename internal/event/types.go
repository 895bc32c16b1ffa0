package event

import "github.com/go-gl/mathgl/mgl64"

const (
	EventControlSwitched = "control.switched"
	EventUnlocked        = "agent.unlocked"
	EventLocked          = "agent.locked"
	EventJumped          = "agent.jumped"
	EventLanded          = "agent.landed"
	EventRespawned       = "agent.respawned"
	EventTeleported      = "agent.teleported"
	EventCloseView       = "camera.close_view"
)

type ControlSwitchedEvent struct {
	From string
	To   string
}

// AgentEvent carries the agent id and where it was when the event fired.
type AgentEvent struct {
	AgentID  string
	Position mgl64.Vec3
}

type CloseViewEvent struct {
	Enabled bool
}
