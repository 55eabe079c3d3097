package bigquery

import (
	"context"
	"fmt"

	"github.com/rpcosta/agency-ops/internal/store"
)

// InsertReading inserts a successful odometer reading.
func (r *Repository) InsertReading(ctx context.Context, row *store.OdometerReadingRow) error {
	inserter := r.table(odometerReadingsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertReading: inserting row: %w", err)
	}
	return nil
}
