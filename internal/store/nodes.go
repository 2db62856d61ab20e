package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lazypower/mindgraph/internal/graph"
)

const nodeColumns = `id, title, tags, kind, x, y, placed, last_touched_at`

// CreateNode inserts a node. A zero LastTouchedAt is set to now.
func (db *DB) CreateNode(ctx context.Context, n *graph.Node) error {
	now := time.Now()
	if n.LastTouchedAt.IsZero() {
		n.LastTouchedAt = now
	}
	if n.Kind == "" {
		n.Kind = graph.KindNote
	}
	tags, err := encodeTags(n.Tags)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO nodes (id, title, tags, kind, x, y, placed, last_touched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Title, tags, string(n.Kind), n.X, n.Y, boolInt(n.Placed),
		millis(n.LastTouchedAt), now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	return nil
}

// GetNode returns a node by ID, or nil if not found.
func (db *DB) GetNode(ctx context.Context, id string) (*graph.Node, error) {
	row := db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get node: %w", err)
	}
	return n, nil
}

// ListNodes returns every node in creation order.
func (db *DB) ListNodes(ctx context.Context) ([]graph.Node, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// UpdateNode rewrites the content fields of a node. Position and touch time
// are left alone. It reports whether the node existed.
func (db *DB) UpdateNode(ctx context.Context, n *graph.Node) (bool, error) {
	tags, err := encodeTags(n.Tags)
	if err != nil {
		return false, err
	}
	result, err := db.ExecContext(ctx, `
		UPDATE nodes SET title = ?, tags = ?, kind = ?, updated_at = ?
		WHERE id = ?
	`, n.Title, tags, string(n.Kind), time.Now().UnixMilli(), n.ID)
	if err != nil {
		return false, fmt.Errorf("update node: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// TouchNode records that a node was visited at the given time.
func (db *DB) TouchNode(ctx context.Context, id string, at time.Time) (bool, error) {
	result, err := db.ExecContext(ctx, `UPDATE nodes SET last_touched_at = ? WHERE id = ?`, at.UnixMilli(), id)
	if err != nil {
		return false, fmt.Errorf("touch node: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// DeleteNode removes a node, its cluster memberships and its review card.
func (db *DB) DeleteNode(ctx context.Context, id string) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cluster_members WHERE node_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete memberships of %s: %w", id, err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete node %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// SavePositions stores layout positions and marks the nodes as placed.
// Unknown IDs are ignored.
func (db *DB) SavePositions(ctx context.Context, bodies []graph.BodyState) error {
	if len(bodies) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save positions: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE nodes SET x = ?, y = ?, placed = 1 WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare save positions: %w", err)
	}
	defer stmt.Close()

	for _, b := range bodies {
		if _, err := stmt.ExecContext(ctx, b.X, b.Y, b.ID); err != nil {
			return fmt.Errorf("save position of %s: %w", b.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save positions: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(s scanner) (*graph.Node, error) {
	var n graph.Node
	var tags, kind string
	var placed int
	var touched sql.NullInt64
	if err := s.Scan(&n.ID, &n.Title, &tags, &kind, &n.X, &n.Y, &placed, &touched); err != nil {
		return nil, err
	}
	n.Kind = graph.Kind(kind)
	n.Placed = placed != 0
	if touched.Valid {
		n.LastTouchedAt = time.UnixMilli(touched.Int64)
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", n.ID, err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return &n, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func millis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
