// Package scheduler runs periodic background maintenance: idle editor
// sessions are dropped and old contact requests are pruned.
package scheduler

import (
	"database/sql"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/editor"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

// Status holds the result of the last maintenance run.
type Status struct {
	LastRun         time.Time
	NextRun         time.Time
	SessionsReaped  int
	InquiriesPruned int64
	IntervalHours   int
	RetentionDays   int
}

// Scheduler runs maintenance tasks in the background.
type Scheduler struct {
	db      *sql.DB
	editors *editor.Registry
	idle    time.Duration
	stop    chan struct{}
	done    chan struct{}

	mu     sync.RWMutex
	status Status
}

// New creates a Scheduler. Editor sessions in editors that stay inactive for
// longer than idle are reaped; a nil registry skips reaping.
func New(db *sql.DB, editors *editor.Registry, idle time.Duration) *Scheduler {
	return &Scheduler{
		db:      db,
		editors: editors,
		idle:    idle,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start runs a first pass immediately, then repeats at the configured
// interval until Stop.
func (s *Scheduler) Start() {
	go s.run()
	log.Info("scheduler: started")
}

// Stop signals the scheduler to shut down and waits for it to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// Status returns the result of the last maintenance run.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Scheduler) run() {
	defer close(s.done)

	s.runMaintenance()

	for {
		// The interval is re-read each round so settings changes apply
		// without a restart.
		ticker := time.NewTicker(s.getInterval())

		select {
		case <-ticker.C:
			ticker.Stop()
			s.runMaintenance()
		case <-s.stop:
			ticker.Stop()
			return
		}
	}
}

func (s *Scheduler) getInterval() time.Duration {
	return time.Duration(models.GetMaintenanceIntervalHours(s.db)) * time.Hour
}

func (s *Scheduler) getRetention() time.Duration {
	return time.Duration(models.GetMaintenanceRetentionDays(s.db)) * 24 * time.Hour
}

func (s *Scheduler) runMaintenance() {
	log.Debug("scheduler: running maintenance")

	reaped := s.reapEditors()
	pruned := s.pruneInquiries()

	now := time.Now()
	s.mu.Lock()
	s.status = Status{
		LastRun:         now,
		NextRun:         now.Add(s.getInterval()),
		SessionsReaped:  reaped,
		InquiriesPruned: pruned,
		IntervalHours:   models.GetMaintenanceIntervalHours(s.db),
		RetentionDays:   models.GetMaintenanceRetentionDays(s.db),
	}
	s.mu.Unlock()
}

// reapEditors drops closed and idle editor sessions.
func (s *Scheduler) reapEditors() int {
	if s.editors == nil || s.idle <= 0 {
		return 0
	}
	n := s.editors.Reap(s.idle)
	if n > 0 {
		log.Infof("scheduler: reaped %d idle editor session(s)", n)
	}
	return n
}

// pruneInquiries removes contact requests older than the retention period.
func (s *Scheduler) pruneInquiries() int64 {
	cutoff := time.Now().Add(-s.getRetention())
	deleted, err := models.DeleteInquiriesBefore(s.db, cutoff)
	if err != nil {
		log.Errorf("scheduler: prune inquiries: %v", err)
		return 0
	}
	if deleted > 0 {
		log.Infof("scheduler: pruned %d old inquiry(ies)", deleted)
	}
	return deleted
}
