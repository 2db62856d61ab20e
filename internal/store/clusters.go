package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lazypower/mindgraph/internal/graph"
)

// ReplaceClusters swaps the whole cluster assignment for clusters. List
// order and member order are preserved.
func (db *DB) ReplaceClusters(ctx context.Context, clusters []graph.Cluster) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace clusters: %w", err)
	}
	defer tx.Rollback()

	if err := replaceClustersTx(ctx, tx, clusters); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace clusters: %w", err)
	}
	return nil
}

func replaceClustersTx(ctx context.Context, tx *sql.Tx, clusters []graph.Cluster) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM clusters`); err != nil {
		return fmt.Errorf("clear clusters: %w", err)
	}
	for i, c := range clusters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clusters (id, theme_name, position) VALUES (?, ?, ?)`,
			c.ID, c.ThemeName, i,
		); err != nil {
			return fmt.Errorf("insert cluster %s: %w", c.ID, err)
		}
		for j, nodeID := range c.NodeIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO cluster_members (cluster_id, node_id, position) VALUES (?, ?, ?)`,
				c.ID, nodeID, j,
			); err != nil {
				return fmt.Errorf("insert member %s of %s: %w", nodeID, c.ID, err)
			}
		}
	}
	return nil
}

// ListClusters returns the stored clusters in the order they were saved.
func (db *DB) ListClusters(ctx context.Context) ([]graph.Cluster, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.theme_name, m.node_id
		FROM clusters c
		LEFT JOIN cluster_members m ON m.cluster_id = c.id
		ORDER BY c.position, m.position
	`)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	defer rows.Close()

	var clusters []graph.Cluster
	for rows.Next() {
		var id, theme string
		var nodeID sql.NullString
		if err := rows.Scan(&id, &theme, &nodeID); err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		if len(clusters) == 0 || clusters[len(clusters)-1].ID != id {
			clusters = append(clusters, graph.Cluster{ID: id, ThemeName: theme, NodeIDs: []string{}})
		}
		if nodeID.Valid {
			last := &clusters[len(clusters)-1]
			last.NodeIDs = append(last.NodeIDs, nodeID.String)
		}
	}
	return clusters, rows.Err()
}
