package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/notify"
	"github.com/mrlokans/bookcatalog/internal/tasks"
)

// NotifyController handles the two bulk-notification entry points. The
// request validates and groups synchronously, then hands delivery to
// the task queue so a slow SMTP server never stalls the response.
type NotifyController struct {
	notifier   *notify.Service
	taskClient *tasks.Client
	renderer   *renderer
}

// NewNotifyController creates a new notification controller.
func NewNotifyController(notifier *notify.Service, taskClient *tasks.Client, r *renderer) *NotifyController {
	return &NotifyController{
		notifier:   notifier,
		taskClient: taskClient,
		renderer:   r,
	}
}

// ISBNListPage renders the ISBN selection form.
func (nc *NotifyController) ISBNListPage(c *gin.Context) {
	nc.renderer.render(c, http.StatusOK, "isbn_list.html", gin.H{
		"Title":     "Mail Selected ISBNs",
		"Slots":     notify.MaxSelectedISBNs,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// NotifySelected handles the ISBN selection form: up to four ISBNs,
// blanks skipped. Any unknown ISBN aborts the whole operation and the
// response names it.
func (nc *NotifyController) NotifySelected(c *gin.Context) {
	isbns := make([]string, 0, notify.MaxSelectedISBNs)
	for i := 1; i <= notify.MaxSelectedISBNs; i++ {
		isbns = append(isbns, c.PostForm(fmt.Sprintf("isbn%d", i)))
	}

	digests, err := nc.notifier.SelectedDigests(isbns)
	if err != nil {
		var unknown *notify.UnknownISBNError
		switch {
		case errors.As(err, &unknown):
			nc.renderError(c, http.StatusNotFound, fmt.Sprintf("No record found for the ISBN %s", unknown.ISBN))
		case errors.Is(err, notify.ErrNoSelection):
			nc.renderError(c, http.StatusBadRequest, "Entries non existent in database")
		default:
			respondInternalError(c, err, "build selected digests")
		}
		return
	}

	nc.enqueue(c, digests)
}

// NotifyAll mails every owner their catalog.
func (nc *NotifyController) NotifyAll(c *gin.Context) {
	digests, err := nc.notifier.AllDigests()
	if err != nil {
		if errors.Is(err, notify.ErrEmptyStore) {
			nc.renderError(c, http.StatusNotFound, "Database is empty")
			return
		}
		respondInternalError(c, err, "build all digests")
		return
	}

	nc.enqueue(c, digests)
}

// enqueue hands one delivery task per owner to the queue and responds
// with the task ids for out-of-band status checks.
func (nc *NotifyController) enqueue(c *gin.Context, digests []notify.Digest) {
	if nc.taskClient == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "notification delivery is unavailable"})
		return
	}

	recipients := make([]string, 0, len(digests))
	taskIDs := make([]string, 0, len(digests))

	for _, digest := range digests {
		ids, err := nc.taskClient.Add(tasks.SendDigestTask{Digest: digest}).Save()
		if err != nil {
			respondInternalError(c, err, "enqueue digest for "+digest.Recipient)
			return
		}
		recipients = append(recipients, digest.Recipient)
		taskIDs = append(taskIDs, ids...)
	}

	nc.renderer.render(c, http.StatusAccepted, "success.html", gin.H{
		"Title":      "Notifications Queued",
		"Message":    fmt.Sprintf("Queued %d notification(s)", len(digests)),
		"Recipients": recipients,
		"TaskIDs":    taskIDs,
	})
}

func (nc *NotifyController) renderError(c *gin.Context, status int, message string) {
	nc.renderer.render(c, status, "notify_error.html", gin.H{
		"Title": "Notification Failed",
		"Error": message,
	})
}

// TaskStatus reports the delivery state of a queued notification.
func (nc *NotifyController) TaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}
	if nc.taskClient == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "notification delivery is unavailable"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := nc.taskClient.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
