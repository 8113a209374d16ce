package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

// Starter turns spots.submitted events into review workflow runs.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a Starter.
func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// WorkflowID is the review workflow ID for a spot. One review per spot.
func WorkflowID(spotID string) string {
	return "spot-review-" + spotID
}

// HandleSubmitted starts a review for event. Redelivered events for a spot
// that already has a review are acknowledged without starting another.
func (s *Starter) HandleSubmitted(ctx context.Context, event *domain.SpotEvent) error {
	if event.SpotID == "" {
		return errors.New("spot event without spot id")
	}

	opts := client.StartWorkflowOptions{
		ID:                    WorkflowID(event.SpotID),
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	input := ReviewInput{
		SpotID:      event.SpotID,
		Name:        event.Name,
		Lat:         event.Location.Lat,
		Lon:         event.Location.Lon,
		SubmittedBy: event.SubmittedBy,
	}

	_, err := s.client.ExecuteWorkflow(ctx, opts, SpotReviewWorkflow, input)
	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		slog.Info("spot review already started", "spot_id", event.SpotID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("start review for %s: %w", event.SpotID, err)
	}

	slog.Info("spot review started", "spot_id", event.SpotID)
	return nil
}
