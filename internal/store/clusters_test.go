package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/lazypower/mindgraph/internal/graph"
)

func TestReplaceClusters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	first := []graph.Cluster{
		{ID: "work", ThemeName: "Work", NodeIDs: []string{"n3", "n1"}},
		{ID: "home", ThemeName: "Home", NodeIDs: []string{}},
		{ID: "food", ThemeName: "Food", NodeIDs: []string{"n2", "n2"}},
	}
	if err := db.ReplaceClusters(ctx, first); err != nil {
		t.Fatalf("ReplaceClusters: %v", err)
	}

	got, err := db.ListClusters(ctx)
	if err != nil {
		t.Fatalf("ListClusters: %v", err)
	}
	want := []graph.Cluster{
		{ID: "work", ThemeName: "Work", NodeIDs: []string{"n3", "n1"}},
		{ID: "home", ThemeName: "Home", NodeIDs: []string{}},
		{ID: "food", ThemeName: "Food", NodeIDs: []string{"n2"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListClusters = %+v, want %+v", got, want)
	}

	if err := db.ReplaceClusters(ctx, []graph.Cluster{{ID: "solo", NodeIDs: []string{"n9"}}}); err != nil {
		t.Fatalf("second ReplaceClusters: %v", err)
	}
	got, _ = db.ListClusters(ctx)
	if len(got) != 1 || got[0].ID != "solo" {
		t.Errorf("clusters after replace = %+v", got)
	}
	var members int
	db.QueryRow("SELECT COUNT(*) FROM cluster_members").Scan(&members)
	if members != 1 {
		t.Errorf("stale memberships left: %d rows", members)
	}
}

func TestListClustersEmpty(t *testing.T) {
	db := testDB(t)

	got, err := db.ListClusters(context.Background())
	if err != nil {
		t.Fatalf("ListClusters: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no clusters, got %+v", got)
	}
}
