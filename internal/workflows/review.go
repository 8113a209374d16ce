package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

// Activity names, as registered from *ReviewActivities.
const (
	ActivityFindDuplicateSpot = "FindDuplicateSpot"
	ActivitySetSpotStatus     = "SetSpotStatus"
	ActivityNotifySubmitter   = "NotifySubmitter"
)

// ReviewInput is the input for SpotReviewWorkflow.
type ReviewInput struct {
	SpotID      string
	Name        string
	Lat         float64
	Lon         float64
	SubmittedBy string
}

// ReviewResult is the outcome of SpotReviewWorkflow.
type ReviewResult struct {
	Status      domain.SpotStatus
	DuplicateOf string
}

// SpotReviewWorkflow rejects a submission that duplicates an approved spot
// and approves it otherwise, then tells the submitter. A failed notification
// does not fail the review.
func SpotReviewWorkflow(ctx workflow.Context, input ReviewInput) (ReviewResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting spot review", "spotID", input.SpotID)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 5,
		},
	})

	// Step 1: look for an approved spot at the same place
	var duplicateOf string
	err := workflow.ExecuteActivity(ctx, ActivityFindDuplicateSpot, input.SpotID, input.Lat, input.Lon).Get(ctx, &duplicateOf)
	if err != nil {
		return ReviewResult{}, err
	}

	result := ReviewResult{Status: domain.SpotApproved, DuplicateOf: duplicateOf}
	if duplicateOf != "" {
		result.Status = domain.SpotRejected
	}

	// Step 2: record the decision
	if err := workflow.ExecuteActivity(ctx, ActivitySetSpotStatus, input.SpotID, result.Status).Get(ctx, nil); err != nil {
		return ReviewResult{}, err
	}

	// Step 3: push to the submitter (best effort)
	if input.SubmittedBy != "" {
		title, body := reviewMessage(input.Name, result)
		notifyCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: 15 * time.Second,
			RetryPolicy: &temporal.RetryPolicy{
				MaximumAttempts: 2,
			},
		})
		if err := workflow.ExecuteActivity(notifyCtx, ActivityNotifySubmitter, input.SubmittedBy, title, body).Get(ctx, nil); err != nil {
			logger.Warn("notify submitter failed", "spotID", input.SpotID, "error", err)
		}
	}

	logger.Info("Spot reviewed", "spotID", input.SpotID, "status", result.Status)
	return result, nil
}

func reviewMessage(name string, r ReviewResult) (title, body string) {
	if r.Status == domain.SpotApproved {
		return "Spot approved", fmt.Sprintf("%s is now visible to everyone nearby.", name)
	}
	return "Spot not approved", fmt.Sprintf("%s is already listed at that location.", name)
}
