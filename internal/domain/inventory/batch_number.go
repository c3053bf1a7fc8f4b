package inventory

import (
	"fmt"
	"time"
)

// FormatBatchNumber renders the canonical lot identifier for a receipt on
// date with the given per-product daily sequence, e.g. BATCH2503170001.
func FormatBatchNumber(date time.Time, seq int64) string {
	return fmt.Sprintf("BATCH%s%04d", date.Format("060102"), seq)
}
