package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookcatalog/internal/mailer"
	"github.com/mrlokans/bookcatalog/internal/notify"
)

// SendDigestTask delivers one owner's catalog digest by mail. The
// request handlers enqueue one task per owner, so a failed delivery to
// one owner never blocks the others.
type SendDigestTask struct {
	Digest notify.Digest `json:"digest"`
}

// Config returns the queue configuration for digest delivery tasks.
func (t SendDigestTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "send_digest",
		MaxAttempts: 1, // delivery failures are reported, not retried
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SendDigestProcessor creates a processor function for SendDigestTask.
func SendDigestProcessor(sender mailer.Sender) backlite.QueueProcessor[SendDigestTask] {
	return func(ctx context.Context, task SendDigestTask) error {
		if sender == nil {
			return fmt.Errorf("mail sender not configured")
		}

		if err := sender.Send(ctx, task.Digest); err != nil {
			return fmt.Errorf("deliver digest to %s: %w", task.Digest.Recipient, err)
		}

		log.Printf("[TASK] Delivered digest to %s (%d entries)",
			task.Digest.Recipient, len(task.Digest.Entries))
		return nil
	}
}

// NewSendDigestQueue creates a backlite queue for digest delivery tasks.
func NewSendDigestQueue(sender mailer.Sender) backlite.Queue {
	return backlite.NewQueue(SendDigestProcessor(sender))
}
