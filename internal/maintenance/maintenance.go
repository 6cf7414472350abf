// Package maintenance runs an optional background checkpoint on a cron
// schedule. tinySQL has no equivalent (its durability story is WAL
// replay, not periodic catalog flush); this package exists purely to
// supplement spec §5's durability barrier with a scheduled trigger,
// grounded on github.com/robfig/cron/v3's AddFunc/Start/Stop lifecycle.
package maintenance

import (
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Checkpointer is the minimal capability the scheduler needs; satisfied
// by *tinyrel.Engine.
type Checkpointer interface {
	Checkpoint() error
}

// Scheduler periodically calls Checkpoint on a cron schedule. The
// engine is single-threaded and cooperative (spec §5); callers running
// this alongside live traffic are responsible for not overlapping a
// checkpoint with a statement dispatch on the same Engine.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Entry
}

// New constructs a stopped Scheduler that will call db.Checkpoint() on
// the given cron spec (standard 5-field, or a descriptor such as
// "@every 30s").
func New(db Checkpointer, spec string) (*Scheduler, error) {
	c := cron.New()
	log := logrus.WithField("component", "maintenance")
	_, err := c.AddFunc(spec, func() {
		if err := db.Checkpoint(); err != nil {
			log.WithError(err).Warn("scheduled checkpoint failed")
		} else {
			log.Debug("scheduled checkpoint complete")
		}
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c, log: log}, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for any in-flight checkpoint to
// finish.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }
