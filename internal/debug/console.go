// Package debug is a raw-mode terminal host for a session: it turns single
// key presses into input bindings and prints a one-line status each tick.
package debug

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Versifine/rollcall/internal/input"
	"github.com/Versifine/rollcall/internal/sim"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/term"
)

const (
	defaultTickInterval = 50 * time.Millisecond
	defaultMovePulse    = 180 * time.Millisecond
	pointerStep         = 20.0
	zoomStep            = 100.0
	pendingCommands     = 8
)

// Session is the part of sim.Session the console drives. All calls happen
// on the tick goroutine.
type Session interface {
	Frame(dt float64)
	View() sim.View
	TeleportActive(position mgl64.Vec3) bool
}

type Console struct {
	session      Session
	state        *input.State
	tickInterval time.Duration
	movePulse    time.Duration
	width        float64
	height       float64
	out          io.Writer
	now          func() time.Time

	// pending holds commands that touch the session; the tick loop runs them.
	pending chan func()

	outMu sync.Mutex

	mu            sync.Mutex
	forward       float64
	strafe        float64
	forwardUntil  time.Time
	strafeUntil   time.Time
	pointer       mgl64.Vec2
	primary       bool
	secondary     bool
	commandMode   bool
	commandBuf    []rune
	statusWidth   int
	lastView      sim.View
	lastViewValid bool
}

// NewConsole drives session through state. width and height are the virtual
// screen the arrow-key pointer moves across.
func NewConsole(session Session, state *input.State, width, height float64) *Console {
	c := &Console{
		session:      session,
		state:        state,
		tickInterval: defaultTickInterval,
		movePulse:    defaultMovePulse,
		width:        width,
		height:       height,
		out:          os.Stdout,
		now:          time.Now,
		pending:      make(chan func(), pendingCommands),
		pointer:      mgl64.Vec2{width/2, height/2},
	}
	if state != nil {
		state.SetAxis2(input.Pointer, c.pointer)
	}
	return c
}

// SetTickInterval changes the frame period; it must be called before Start.
func (c *Console) SetTickInterval(d time.Duration) {
	if d > 0 {
		c.tickInterval = d
	}
}

func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("console is nil")
	}
	if c.session == nil {
		return fmt.Errorf("console session is nil")
	}
	if c.state == nil {
		return fmt.Errorf("console input state is nil")
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		c.printf("\r\n")
	}()

	c.printf("[debug] console started (W/A/S/D pulse, Space jump, Tab switch, +/- zoom, C close view, :help)\r\n")

	go c.tickLoop(ctx)

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		}
		if b == 3 { // Ctrl-C is not delivered as a signal in raw mode
			return nil
		}
		c.handleKey(reader, b)
	}
}

func (c *Console) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	last := c.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := c.now()
			c.tick(now.Sub(last).Seconds())
			last = now
		}
	}
}

// tick runs queued commands, publishes the held movement and advances the
// session by dt.
func (c *Console) tick(dt float64) {
	c.runPending()
	c.state.SetAxis2(input.Move, c.moveAxis())
	c.session.Frame(dt)

	view := c.session.View()
	c.mu.Lock()
	c.lastView = view
	c.lastViewValid = true
	c.mu.Unlock()
	c.renderStatusLine()
}

func (c *Console) runPending() {
	for {
		select {
		case fn := <-c.pending:
			fn()
		default:
			return
		}
	}
}

func (c *Console) enqueue(fn func()) {
	select {
	case c.pending <- fn:
	default:
		slog.Warn("Debug command dropped, queue full")
	}
}

func (c *Console) handleKey(reader *bufio.Reader, b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	switch b {
	case ':':
		c.enterCommandMode()
		return
	case 'w', 'W':
		c.pulseForward(1)
	case 's', 'S':
		c.pulseForward(-1)
	case 'a', 'A':
		c.pulseStrafe(-1)
	case 'd', 'D':
		c.pulseStrafe(1)
	case ' ':
		c.state.Press(input.Jump)
	case '\t':
		c.state.Press(input.SwitchControl)
	case '+', '=':
		c.state.AddAxis1(input.Zoom, zoomStep)
	case '-', '_':
		c.state.AddAxis1(input.Zoom, -zoomStep)
	case 'c', 'C':
		c.state.Press(input.ToggleCloseView)
	case '1':
		c.toggleHold(input.PrimaryTarget, &c.primary)
	case '2':
		c.toggleHold(input.SecondaryTarget, &c.secondary)
	case 'x', 'X':
		c.clearInput()
	case 27: // ESC + arrow sequence
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return
		}
		arrow, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch arrow {
		case 'D': // left
			c.movePointer(-pointerStep, 0)
		case 'C': // right
			c.movePointer(pointerStep, 0)
		case 'A': // up
			c.movePointer(0, -pointerStep)
		case 'B': // down
			c.movePointer(0, pointerStep)
		}
	}
	c.renderStatusLine()
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	c.printf("\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		c.printf("\r\n")
		if cmd != "" {
			c.executeCommand(cmd)
		}
		return
	case 27: // ESC cancel command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		c.printf("\r\n[debug] command cancelled\r\n")
		return
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		c.printf("\r:%s \r:%s", buf, buf)
		return
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		c.printf("\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state", "snap":
		c.enqueue(func() {
			summary := strings.ReplaceAll(c.session.View().Summary(), "\n", "\r\n")
			c.printf("\r\n%s", summary)
		})
	case "tp":
		if len(parts) != 4 {
			c.printf("[debug] usage: :tp <x> <y> <z>\r\n")
			return
		}
		x, err1 := strconv.ParseFloat(parts[1], 64)
		y, err2 := strconv.ParseFloat(parts[2], 64)
		z, err3 := strconv.ParseFloat(parts[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			c.printf("[debug] invalid tp args\r\n")
			return
		}
		target := mgl64.Vec3{x, y, z}
		c.enqueue(func() {
			if !c.session.TeleportActive(target) {
				c.printf("\r\n[debug] no active agent\r\n")
				return
			}
			c.printf("\r\n[debug] teleported to (%.3f, %.3f, %.3f)\r\n", x, y, z)
		})
	case "pointer":
		if len(parts) != 3 {
			c.printf("[debug] usage: :pointer <px> <py>\r\n")
			return
		}
		px, err1 := strconv.ParseFloat(parts[1], 64)
		py, err2 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil {
			c.printf("[debug] invalid pointer args\r\n")
			return
		}
		c.setPointer(mgl64.Vec2{px, py})
	default:
		c.printf("[debug] unknown command: %s\r\n", parts[0])
	}
}

func (c *Console) printHelp() {
	c.printf("[debug] keys:\r\n")
	c.printf("  W/S/A/D: pulse movement (~180ms)\r\n")
	c.printf("  Space: jump\r\n")
	c.printf("  Tab: switch controlled agent\r\n")
	c.printf("  +/-: zoom in/out\r\n")
	c.printf("  C: toggle close view\r\n")
	c.printf("  1/2: toggle primary/secondary target hold\r\n")
	c.printf("  Arrows: move pointer\r\n")
	c.printf("  X: clear all input\r\n")
	c.printf("  : enter command mode\r\n")
	c.printf("[debug] commands:\r\n")
	c.printf("  :tp <x> <y> <z>\r\n")
	c.printf("  :pointer <px> <py>\r\n")
	c.printf("  :state\r\n")
	c.printf("  :snap\r\n")
	c.printf("  :help\r\n")
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode || !c.lastViewValid {
		c.mu.Unlock()
		return
	}
	view := c.lastView
	move := c.moveAxisLocked()
	primary, secondary := c.primary, c.secondary
	pointer := c.pointer
	width := c.statusWidth
	c.mu.Unlock()

	line := fmt.Sprintf("[MOVE:%+.0f,%+.0f L:%s R:%s PTR:%.0f,%.0f | %s",
		move.X(), move.Y(), boolLabel(primary), boolLabel(secondary), pointer.X(), pointer.Y(), view.Active)
	for _, a := range view.Agents {
		if a.ID != view.Active {
			continue
		}
		line += fmt.Sprintf(" %s X:%.2f Y:%.2f Z:%.2f ground:%t", a.State, a.Position.X(), a.Position.Y(), a.Position.Z(), a.Grounded)
	}
	line += fmt.Sprintf(" | cam:%.1f close:%t]", view.Camera.Distance, view.Camera.CloseView)

	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	c.printf("\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func boolLabel(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (c *Console) pulseForward(dir float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forward = dir
	c.forwardUntil = c.now().Add(c.movePulse)
}

func (c *Console) pulseStrafe(dir float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strafe = dir
	c.strafeUntil = c.now().Add(c.movePulse)
}

// moveAxis returns the Move binding value after expiring finished pulses.
func (c *Console) moveAxis() mgl64.Vec2 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyMovementPulseLocked(c.now())
	return c.moveAxisLocked()
}

func (c *Console) moveAxisLocked() mgl64.Vec2 {
	return mgl64.Vec2{c.strafe, c.forward}
}

func (c *Console) applyMovementPulseLocked(now time.Time) {
	if !c.forwardUntil.IsZero() && !now.Before(c.forwardUntil) {
		c.forward = 0
		c.forwardUntil = time.Time{}
	}
	if !c.strafeUntil.IsZero() && !now.Before(c.strafeUntil) {
		c.strafe = 0
		c.strafeUntil = time.Time{}
	}
}

func (c *Console) toggleHold(b input.Binding, held *bool) {
	c.mu.Lock()
	*held = !*held
	v := *held
	c.mu.Unlock()
	c.state.SetHold(b, v)
	slog.Debug("Debug hold toggled", "binding", b, "held", v)
}

func (c *Console) movePointer(dx, dy float64) {
	c.mu.Lock()
	p := mgl64.Vec2{c.pointer.X()+dx, c.pointer.Y()+dy}
	c.mu.Unlock()
	c.setPointer(p)
}

func (c *Console) setPointer(p mgl64.Vec2) {
	p[0] = mgl64.Clamp(p.X(), 0, c.width)
	p[1] = mgl64.Clamp(p.Y(), 0, c.height)
	c.mu.Lock()
	c.pointer = p
	c.mu.Unlock()
	c.state.SetAxis2(input.Pointer, p)
}

func (c *Console) clearInput() {
	c.mu.Lock()
	c.forward, c.strafe = 0, 0
	c.forwardUntil = time.Time{}
	c.strafeUntil = time.Time{}
	c.primary, c.secondary = false, false
	c.mu.Unlock()
	c.state.SetAxis2(input.Move, mgl64.Vec2{})
	c.state.SetHold(input.PrimaryTarget, false)
	c.state.SetHold(input.SecondaryTarget, false)
}
