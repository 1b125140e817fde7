package ai

import (
	"context"
)

// ServiceClassifier maps a customer's free-text job description onto one of
// the marketplace's service types.
type ServiceClassifier interface {
	ClassifyService(ctx context.Context, description string) (string, error)
}
