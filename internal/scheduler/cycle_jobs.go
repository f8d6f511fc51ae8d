package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantpilot/advisor/internal/cycle"
)

// CycleRunner is the subset of the cycle controller the jobs trigger.
type CycleRunner interface {
	RunTactical(ctx context.Context) (*cycle.Run, error)
	RunStrategic(ctx context.Context) (*cycle.Run, error)
}

// TacticalCycleJob fires the daily decision cycle after market close.
type TacticalCycleJob struct {
	log    zerolog.Logger
	runner CycleRunner
}

// NewTacticalCycleJob creates the daily cycle job.
func NewTacticalCycleJob(runner CycleRunner, log zerolog.Logger) *TacticalCycleJob {
	return &TacticalCycleJob{
		log:    log.With().Str("job", "tactical_cycle").Logger(),
		runner: runner,
	}
}

// Name returns the job name.
func (j *TacticalCycleJob) Name() string {
	return "tactical_cycle"
}

// Run triggers one tactical cycle. An in-flight cycle is a skip, not an
// error: the next scheduled fire will try again.
func (j *TacticalCycleJob) Run() error {
	run, err := j.runner.RunTactical(context.Background())
	if errors.Is(err, cycle.ErrCycleInFlight) {
		j.log.Warn().Msg("Skipping: another cycle is running")
		return nil
	}
	if err != nil {
		return err
	}
	j.log.Info().
		Int("orders", run.OrdersApplied).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Msg("Tactical cycle finished")
	return nil
}

// StrategicCycleJob fires the weekly research cycle on the weekend.
type StrategicCycleJob struct {
	log    zerolog.Logger
	runner CycleRunner
}

// NewStrategicCycleJob creates the weekly cycle job.
func NewStrategicCycleJob(runner CycleRunner, log zerolog.Logger) *StrategicCycleJob {
	return &StrategicCycleJob{
		log:    log.With().Str("job", "strategic_cycle").Logger(),
		runner: runner,
	}
}

// Name returns the job name.
func (j *StrategicCycleJob) Name() string {
	return "strategic_cycle"
}

// Run triggers one strategic cycle.
func (j *StrategicCycleJob) Run() error {
	start := time.Now()
	run, err := j.runner.RunStrategic(context.Background())
	if errors.Is(err, cycle.ErrCycleInFlight) {
		j.log.Warn().Msg("Skipping: another cycle is running")
		return nil
	}
	if err != nil {
		return err
	}
	j.log.Info().
		Str("state", string(run.State)).
		Dur("elapsed", time.Since(start)).
		Msg("Strategic cycle finished")
	return nil
}
