package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/mindgraph/internal/engine"
	"github.com/lazypower/mindgraph/internal/graph"
)

func addNode(t *testing.T, srv http.Handler, body string) graph.Node {
	t.Helper()
	w := do(t, srv, "POST", "/api/nodes", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("add node: status = %d; body: %s", w.Code, w.Body.String())
	}
	var n graph.Node
	decodeBody(t, w, &n)
	return n
}

func TestAddAndGetNode(t *testing.T) {
	srv, _ := testServer(t)

	n := addNode(t, srv, `{"title":"  Raft   consensus ","tags":["systems"," systems "]}`)
	if n.ID == "" {
		t.Fatal("expected generated id")
	}
	if n.Title != "Raft consensus" {
		t.Errorf("title = %q", n.Title)
	}
	if len(n.Tags) != 1 || n.Kind != graph.KindNote {
		t.Errorf("tags = %v kind = %q", n.Tags, n.Kind)
	}

	w := do(t, srv, "GET", "/api/nodes/"+n.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}

	if w := do(t, srv, "GET", "/api/nodes/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing node: status = %d, want 404", w.Code)
	}
}

func TestAddNodeValidation(t *testing.T) {
	srv, _ := testServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"empty title", `{"title":"   "}`},
		{"bad kind", `{"title":"x","kind":"task"}`},
		{"unknown field", `{"title":"x","colour":"red"}`},
		{"not json", `title=x`},
		{"long title", fmt.Sprintf(`{"title":%q}`, strings.Repeat("a", 201))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, srv, "POST", "/api/nodes", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestGraphAndLinks(t *testing.T) {
	srv, _ := testServer(t)
	a := addNode(t, srv, `{"title":"Raft consensus","tags":["systems"]}`)
	b := addNode(t, srv, `{"title":"Paxos consensus","tags":["systems"]}`)
	addNode(t, srv, `{"title":"Sourdough","tags":["food"]}`)

	var snap engine.Snapshot
	decodeBody(t, do(t, srv, "GET", "/api/graph", ""), &snap)
	if len(snap.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(snap.Nodes))
	}
	if len(snap.Links) != 1 {
		t.Fatalf("links = %+v, want one", snap.Links)
	}
	l := snap.Links[0]
	if !(l.Source == a.ID && l.Target == b.ID) && !(l.Source == b.ID && l.Target == a.ID) {
		t.Errorf("link = %+v", l)
	}
	if l.Weight != 3 {
		t.Errorf("weight = %d, want 3 for shared terms consensus and systems", l.Weight)
	}

	var resp struct {
		Links []graph.Link `json:"links"`
	}
	decodeBody(t, do(t, srv, "GET", "/api/links", ""), &resp)
	if len(resp.Links) != 1 {
		t.Errorf("links = %+v", resp.Links)
	}
}

func TestUpdateNodePartial(t *testing.T) {
	srv, _ := testServer(t)
	n := addNode(t, srv, `{"title":"Raft","tags":["systems"],"kind":"commitment"}`)

	w := do(t, srv, "PATCH", "/api/nodes/"+n.ID, `{"title":"Raft log"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	var got graph.Node
	decodeBody(t, w, &got)
	if got.Title != "Raft log" || got.Kind != graph.KindCommitment || len(got.Tags) != 1 {
		t.Errorf("updated = %+v", got)
	}

	if w := do(t, srv, "PATCH", "/api/nodes/nope", `{"title":"x"}`); w.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", w.Code)
	}
	if w := do(t, srv, "PATCH", "/api/nodes/"+n.ID, `{"title":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty title: status = %d, want 400", w.Code)
	}
}

func TestDeleteNode(t *testing.T) {
	srv, eng := testServer(t)
	n := addNode(t, srv, `{"title":"gone"}`)

	if w := do(t, srv, "DELETE", "/api/nodes/"+n.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if len(eng.Nodes()) != 0 {
		t.Error("node still in session")
	}
	if w := do(t, srv, "DELETE", "/api/nodes/"+n.ID, ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", w.Code)
	}
}

func TestTouchNode(t *testing.T) {
	srv, _ := testServer(t)
	n := addNode(t, srv, `{"title":"stale"}`)

	w := do(t, srv, "POST", "/api/nodes/"+n.ID+"/touch", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got graph.Node
	decodeBody(t, w, &got)
	if got.LastTouchedAt.Before(n.LastTouchedAt) {
		t.Errorf("last touched went backwards: %v < %v", got.LastTouchedAt, n.LastTouchedAt)
	}
}

func TestSetClusters(t *testing.T) {
	srv, eng := testServer(t)
	a := addNode(t, srv, `{"title":"a"}`)

	body := fmt.Sprintf(`{"clusters":[{"id":"k","theme_name":"Knowledge","node_ids":[%q]},{"id":"h","theme_name":"Health"}]}`, a.ID)
	w := do(t, srv, "PUT", "/api/clusters", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Clusters []graph.Cluster `json:"clusters"`
		Anchors  []graph.Anchor  `json:"anchors"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Clusters) != 2 || len(resp.Anchors) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Anchors[0].X != 400 || resp.Anchors[0].Color != "hsl(0, 70%, 50%)" {
		t.Errorf("first anchor = %+v", resp.Anchors[0])
	}
	if len(eng.Clusters()) != 2 {
		t.Error("engine clusters not replaced")
	}

	for _, bad := range []string{
		`{"clusters":[{"theme_name":"no id"}]}`,
		`{"clusters":[{"id":"x"},{"id":"x"}]}`,
	} {
		if w := do(t, srv, "PUT", "/api/clusters", bad); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", bad, w.Code)
		}
	}
}

func TestTraceEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	a := addNode(t, srv, `{"title":"a","tags":["x"]}`)
	b := addNode(t, srv, `{"title":"b","tags":["x","y"]}`)
	c := addNode(t, srv, `{"title":"c","tags":["y"]}`)
	d := addNode(t, srv, `{"title":"d","tags":["z"]}`)

	var resp struct {
		Path  []string `json:"path"`
		Found bool     `json:"found"`
	}
	decodeBody(t, do(t, srv, "GET", "/api/trace?from="+a.ID+"&to="+c.ID, ""), &resp)
	if !resp.Found || len(resp.Path) != 3 || resp.Path[1] != b.ID {
		t.Errorf("trace a→c = %+v", resp)
	}

	decodeBody(t, do(t, srv, "GET", "/api/trace?from="+a.ID+"&to="+d.ID, ""), &resp)
	if resp.Found || resp.Path == nil || len(resp.Path) != 0 {
		t.Errorf("trace a→d = %+v, want empty non-null path", resp)
	}

	if w := do(t, srv, "GET", "/api/trace?from="+a.ID, ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing to: status = %d, want 400", w.Code)
	}
}

func TestSimulationEndpoints(t *testing.T) {
	srv, eng := testServer(t)
	addNode(t, srv, `{"title":"a"}`)
	addNode(t, srv, `{"title":"b"}`)

	w := do(t, srv, "POST", "/api/simulation/step", `{"ticks":5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("step: status = %d; body: %s", w.Code, w.Body.String())
	}
	if got := eng.Snapshot().Ticks; got != 5 {
		t.Errorf("ticks = %d, want 5", got)
	}
	if w := do(t, srv, "POST", "/api/simulation/step", ""); w.Code != http.StatusOK {
		t.Errorf("empty step body: status = %d", w.Code)
	}
	if w := do(t, srv, "POST", "/api/simulation/step", `{"ticks":-1}`); w.Code != http.StatusBadRequest {
		t.Errorf("negative ticks: status = %d, want 400", w.Code)
	}

	if w := do(t, srv, "POST", "/api/simulation/start", `{"fps":200}`); w.Code != http.StatusOK {
		t.Fatalf("start: status = %d", w.Code)
	}
	if w := do(t, srv, "POST", "/api/simulation/start", ""); w.Code != http.StatusConflict {
		t.Errorf("second start: status = %d, want 409", w.Code)
	}
	if w := do(t, srv, "POST", "/api/simulation/stop", ""); w.Code != http.StatusOK {
		t.Errorf("stop: status = %d", w.Code)
	}
	if eng.Running() {
		t.Error("still running after stop")
	}
}

func TestDragEndpoints(t *testing.T) {
	srv, eng := testServer(t)
	n := addNode(t, srv, `{"title":"a"}`)
	base := "/api/nodes/" + n.ID + "/drag/"

	if w := do(t, srv, "POST", base+"move", `{"x":1,"y":2}`); w.Code != http.StatusBadRequest {
		t.Errorf("move before start: status = %d, want 400", w.Code)
	}
	if w := do(t, srv, "POST", base+"start", `{"x":1}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing y: status = %d, want 400", w.Code)
	}
	if w := do(t, srv, "POST", base+"start", `{"x":1e308,"y":0}`); w.Code != http.StatusBadRequest {
		t.Errorf("far away start: status = %d, want 400", w.Code)
	}
	if w := do(t, srv, "POST", base+"start", `{"x":0,"y":0}`); w.Code != http.StatusOK {
		t.Fatalf("start: status = %d; body: %s", w.Code, w.Body.String())
	}
	if w := do(t, srv, "POST", base+"move", `{"x":120,"y":-80}`); w.Code != http.StatusOK {
		t.Fatalf("move: status = %d", w.Code)
	}
	eng.Step(10)
	got, _ := eng.Node(n.ID)
	if got.X != 120 || got.Y != -80 {
		t.Errorf("dragged node at (%v, %v), want (120, -80)", got.X, got.Y)
	}
	if w := do(t, srv, "POST", base+"end", ""); w.Code != http.StatusOK {
		t.Errorf("end: status = %d", w.Code)
	}
	if w := do(t, srv, "POST", "/api/nodes/nope/drag/start", `{"x":0,"y":0}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown node: status = %d, want 404", w.Code)
	}
}

func TestViewEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	a := addNode(t, srv, `{"title":"a","tags":["x"]}`)
	b := addNode(t, srv, `{"title":"b","tags":["x"]}`)

	body := fmt.Sprintf(`{"viewport":{"width":800,"height":600,"zoom":1},"trace_from":%q,"trace_to":%q}`, a.ID, b.ID)
	w := do(t, srv, "POST", "/api/view", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	var f graph.Frame
	decodeBody(t, w, &f)
	if len(f.Nodes) != 2 || len(f.Links) != 1 {
		t.Fatalf("frame = %+v", f)
	}
	if !f.Links[0].InPath {
		t.Error("traced link not highlighted")
	}
	for _, sn := range f.Nodes {
		if !sn.InPath {
			t.Errorf("node %s not in path", sn.ID)
		}
	}

	if w := do(t, srv, "POST", "/api/view", `{"viewport":{"width":0,"height":600}}`); w.Code != http.StatusBadRequest {
		t.Errorf("zero width: status = %d, want 400", w.Code)
	}
}

func TestReviewEndpoints(t *testing.T) {
	srv, _ := testServer(t)
	n := addNode(t, srv, `{"title":"card"}`)

	w := do(t, srv, "POST", "/api/review/"+n.ID, `{"quality":4}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	var card struct {
		Interval    int `json:"interval"`
		Repetitions int `json:"repetitions"`
	}
	decodeBody(t, w, &card)
	if card.Interval != 1 || card.Repetitions != 1 {
		t.Errorf("card = %+v", card)
	}

	if w := do(t, srv, "POST", "/api/review/"+n.ID, `{"quality":6}`); w.Code != http.StatusBadRequest {
		t.Errorf("quality 6: status = %d, want 400", w.Code)
	}
	if w := do(t, srv, "POST", "/api/review/"+n.ID, `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing quality: status = %d, want 400", w.Code)
	}
	if w := do(t, srv, "POST", "/api/review/nope", `{"quality":3}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown node: status = %d, want 404", w.Code)
	}

	var resp struct {
		Due []engine.DueReview `json:"due"`
	}
	decodeBody(t, do(t, srv, "GET", "/api/review/due", ""), &resp)
	if len(resp.Due) != 0 {
		t.Errorf("due now = %d, want 0", len(resp.Due))
	}

	later := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	decodeBody(t, do(t, srv, "GET", "/api/review/due?at="+later, ""), &resp)
	if len(resp.Due) != 1 || resp.Due[0].Node.ID != n.ID {
		t.Errorf("due later = %+v", resp.Due)
	}

	if w := do(t, srv, "GET", "/api/review/due?at=tomorrow", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad at: status = %d, want 400", w.Code)
	}
}

func TestExportImportEndpoints(t *testing.T) {
	srv, _ := testServer(t)
	addNode(t, srv, `{"title":"Raft consensus","tags":["systems"]}`)
	addNode(t, srv, `{"title":"Paxos consensus","tags":["systems"]}`)

	w := do(t, srv, "GET", "/api/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export: status = %d", w.Code)
	}
	doc := w.Body.String()
	if !strings.Contains(doc, "Raft consensus") {
		t.Fatalf("export missing node:\n%s", doc)
	}

	dst, eng := testServer(t)
	w = do(t, dst, "POST", "/api/import", doc)
	if w.Code != http.StatusOK {
		t.Fatalf("import: status = %d; body: %s", w.Code, w.Body.String())
	}
	var stats engine.ImportStats
	decodeBody(t, w, &stats)
	if stats.Created != 2 || stats.Updated != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(eng.Links()) != 1 {
		t.Errorf("links after import = %d, want 1", len(eng.Links()))
	}

	if w := do(t, dst, "POST", "/api/import", "version: 99\n"); w.Code != http.StatusBadRequest {
		t.Errorf("future version: status = %d, want 400", w.Code)
	}
	if err := eng.Close(context.Background()); err != nil {
		t.Errorf("Close: %v", err)
	}
}
