package docstore

import (
	"context"

	"busroot.app/internal/logging"
)

// CollectionCounts returns the number of documents per collection.
func (c *Client) CollectionCounts(ctx context.Context) (counts map[string]int, err error) {
	rows, err := c.DB.QueryContext(ctx,
		`SELECT collection, COUNT(*) FROM documents GROUP BY collection ORDER BY collection`)
	if err != nil {
		return nil, err
	}
	defer logging.HandleDeferredError(&err, rows.Close, nil, "close count rows")

	counts = make(map[string]int)
	for rows.Next() {
		var (
			collection string
			count      int
		)
		if err := rows.Scan(&collection, &count); err != nil {
			return nil, err
		}
		counts[collection] = count
	}
	return counts, rows.Err()
}
