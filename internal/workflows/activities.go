package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/core/ports"
	"github.com/samirrijal/dropspots/internal/core/usecases"
)

// ReviewActivities holds the activity implementations for SpotReviewWorkflow.
type ReviewActivities struct {
	Spots    *usecases.SpotService
	Notifier ports.NotificationService
}

// FindDuplicateSpot returns the ID of an approved spot near (lat, lon) other
// than spotID, or "" when there is none.
func (a *ReviewActivities) FindDuplicateSpot(ctx context.Context, spotID string, lat, lon float64) (string, error) {
	dup, err := a.Spots.FindDuplicate(ctx, domain.GeoPoint{Lat: lat, Lon: lon}, spotID)
	if err != nil {
		return "", fmt.Errorf("find duplicate of %s: %w", spotID, err)
	}
	if dup == nil {
		return "", nil
	}
	return dup.ID, nil
}

// SetSpotStatus records a moderation decision.
func (a *ReviewActivities) SetSpotStatus(ctx context.Context, spotID string, status domain.SpotStatus) error {
	if _, err := a.Spots.Review(ctx, spotID, status); err != nil {
		return fmt.Errorf("set status of %s: %w", spotID, err)
	}
	return nil
}

// NotifySubmitter pushes a message to every device of userID.
func (a *ReviewActivities) NotifySubmitter(ctx context.Context, userID, title, body string) error {
	if a.Notifier == nil {
		activity.GetLogger(ctx).Info("push disabled, skipping", "userID", userID, "title", title)
		return nil
	}
	return a.Notifier.SendPush(ctx, userID, title, body)
}
