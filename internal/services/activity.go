package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/aethra/fleetdesk/internal/models"
)

// activityUserKey carries the acting user's id through request contexts.
type activityContextKey struct{}

// WithActor returns a context tagged with the acting user's id so mutations
// performed during the request are attributed in the activity log.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, activityContextKey{}, userID)
}

// ActorID extracts the acting user's id, empty when unauthenticated.
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(activityContextKey{}).(string)
	return id
}

// ActivityRecorder appends mutation events to the activity log table.
// Recording is best-effort from the caller's point of view: the entity
// services log failures instead of failing the mutation.
type ActivityRecorder struct {
	db *gorm.DB
}

// NewActivityRecorder builds a recorder over the given connection.
func NewActivityRecorder(db *gorm.DB) *ActivityRecorder {
	return &ActivityRecorder{db: db}
}

// Record writes one event.
func (r *ActivityRecorder) Record(ctx context.Context, entity, recordID, action string, detail map[string]any) error {
	entry := map[string]any{
		"entity":    entity,
		"record_id": recordID,
		"action":    action,
	}
	if actor := ActorID(ctx); actor != "" {
		entry["user_id"] = actor
	}
	if detail != nil {
		entry["detail"] = models.JSONB(scrub(detail))
	}
	if err := r.db.WithContext(ctx).Table("activity_logs").Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// scrub drops credential material from logged payloads.
func scrub(detail map[string]any) map[string]any {
	out := make(map[string]any, len(detail))
	for k, v := range detail {
		switch k {
		case "password", "password_hash", "token":
			continue
		}
		out[k] = v
	}
	return out
}
