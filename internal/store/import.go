package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lazypower/mindgraph/internal/graph"
)

// ImportResult counts the nodes an import created and updated.
type ImportResult struct {
	Created int
	Updated int
}

// ImportGraph merges nodes into the store in one transaction. Unknown IDs are
// inserted, known IDs get their content overwritten, and their position and
// touch time too when the imported node carries them. A nil clusters slice
// leaves the stored clusters alone, anything else replaces them. On error
// nothing is written.
func (db *DB) ImportGraph(ctx context.Context, nodes []graph.Node, clusters []graph.Cluster) (ImportResult, error) {
	var res ImportResult
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, n := range nodes {
		if n.Kind == "" {
			n.Kind = graph.KindNote
		}
		tags, err := encodeTags(n.Tags)
		if err != nil {
			return res, err
		}

		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE id = ?`, n.ID).Scan(&exists); err != nil {
			return res, fmt.Errorf("look up node %s: %w", n.ID, err)
		}

		if exists == 0 {
			touched := n.LastTouchedAt
			if touched.IsZero() {
				touched = now
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO nodes (id, title, tags, kind, x, y, placed, last_touched_at, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, n.ID, n.Title, tags, string(n.Kind), n.X, n.Y, boolInt(n.Placed),
				touched.UnixMilli(), now.UnixMilli(), now.UnixMilli()); err != nil {
				return res, fmt.Errorf("insert node %s: %w", n.ID, err)
			}
			res.Created++
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE nodes SET title = ?, tags = ?, kind = ?, updated_at = ? WHERE id = ?
		`, n.Title, tags, string(n.Kind), now.UnixMilli(), n.ID); err != nil {
			return res, fmt.Errorf("update node %s: %w", n.ID, err)
		}
		if n.Placed {
			if _, err := tx.ExecContext(ctx,
				`UPDATE nodes SET x = ?, y = ?, placed = 1 WHERE id = ?`, n.X, n.Y, n.ID,
			); err != nil {
				return res, fmt.Errorf("position node %s: %w", n.ID, err)
			}
		}
		if !n.LastTouchedAt.IsZero() {
			if _, err := tx.ExecContext(ctx,
				`UPDATE nodes SET last_touched_at = ? WHERE id = ?`, n.LastTouchedAt.UnixMilli(), n.ID,
			); err != nil {
				return res, fmt.Errorf("touch node %s: %w", n.ID, err)
			}
		}
		res.Updated++
	}

	if clusters != nil {
		if err := replaceClustersTx(ctx, tx, clusters); err != nil {
			return res, err
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}
