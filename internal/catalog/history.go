package catalog

import (
	"context"
	"fmt"

	"channels-go/internal/database/sqlc"
)

// GetHistory returns the most recent mutating operations, ordered newest first.
func (s *CatalogService) GetHistory(ctx context.Context, limit int) ([]*sqlc.Operation, error) {
	ops, err := s.store.ListOperations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
