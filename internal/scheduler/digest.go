// Package scheduler runs the optional periodic catalog digest: on each
// tick every owner is mailed their current catalog, as if NotifyAll had
// been triggered by hand.
package scheduler

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookcatalog/internal/config"
	"github.com/mrlokans/bookcatalog/internal/notify"
	"github.com/mrlokans/bookcatalog/internal/tasks"
)

// DigestScheduler enqueues per-owner digest deliveries on a cron schedule.
type DigestScheduler struct {
	notifier   *notify.Service
	taskClient *tasks.Client
	config     config.Digest

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewDigestScheduler creates a new scheduler instance.
func NewDigestScheduler(notifier *notify.Service, taskClient *tasks.Client, cfg config.Digest) *DigestScheduler {
	return &DigestScheduler{
		notifier:   notifier,
		taskClient: taskClient,
		config:     cfg,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if the digest is enabled.
func (s *DigestScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Digest scheduler: disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.runDigest); err != nil {
		return fmt.Errorf("invalid digest schedule '%s': %w", s.config.Schedule, err)
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Digest scheduler: running on schedule '%s'", s.config.Schedule)

	return nil
}

// Stop halts the scheduler, waiting for a running tick to finish.
func (s *DigestScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	log.Printf("Digest scheduler: stopped")
}

// runDigest builds one digest per owner and hands them to the queue.
func (s *DigestScheduler) runDigest() {
	digests, err := s.notifier.AllDigests()
	if err != nil {
		if errors.Is(err, notify.ErrEmptyStore) {
			log.Printf("Digest scheduler: catalog is empty, nothing to send")
			return
		}
		log.Printf("Digest scheduler: failed to build digests: %v", err)
		return
	}

	for _, digest := range digests {
		if _, err := s.taskClient.Add(tasks.SendDigestTask{Digest: digest}).Save(); err != nil {
			log.Printf("Digest scheduler: failed to enqueue digest for %s: %v", digest.Recipient, err)
		}
	}

	log.Printf("Digest scheduler: enqueued %d digest(s)", len(digests))
}
