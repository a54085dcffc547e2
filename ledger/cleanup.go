package ledger

import (
	"context"
	"fmt"

	"schikko/models"
	"schikko/store"
)

// ApplyCleanup deletes the data selected by policy through s. Drink requests
// go together with the people they point at.
func ApplyCleanup(ctx context.Context, s store.Store, policy models.CleanupPolicy) error {
	var steps []func(context.Context) (int64, error)
	switch policy {
	case models.CleanupNone:
	case models.CleanupFulfilled:
		steps = append(steps, func(ctx context.Context) (int64, error) {
			return s.DeleteStripesByKind(ctx, models.StripeFulfilled)
		})
	case models.CleanupLedger:
		steps = append(steps, s.DeleteAllStripes, s.DeleteAllDrinkRequests, s.DeleteAllPeople)
	case models.CleanupRules:
		steps = append(steps, s.DeleteAllRules)
	case models.CleanupAll:
		steps = append(steps, s.DeleteAllStripes, s.DeleteAllDrinkRequests, s.DeleteAllPeople, s.DeleteAllRules, s.DeleteAllLogs)
	default:
		return fmt.Errorf("unknown cleanup policy %q", policy)
	}
	for _, step := range steps {
		if _, err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}
