package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RunHeadless drives s from a wall-clock ticker at tickRate frames per
// second until ctx is done or frames frames have run (zero means no limit).
func RunHeadless(ctx context.Context, s *Session, tickRate float64, frames int) error {
	if tickRate <= 0 {
		return fmt.Errorf("headless tick rate must be positive, got %v", tickRate)
	}
	interval := time.Duration(float64(time.Second) / tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	nextReport := last.Add(time.Second)
	for n := 0; frames <= 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Frame(now.Sub(last).Seconds())
			last = now
			if !now.Before(nextReport) {
				v := s.View()
				slog.Info("Session tick", "frame", v.Frame, "active", v.Active, "fixed_steps", v.FixedSteps, "teleports", v.Teleports)
				nextReport = now.Add(time.Second)
			}
		}
	}
	slog.Debug("Headless run finished", "frames", frames)
	return nil
}
