package importer_test

import (
	"testing"

	"taskboard/internal/importer"
)

func rec(data map[string]any) importer.Record {
	return importer.Record{Data: data}
}

func TestFilterTransform_Ops(t *testing.T) {
	cases := []struct {
		name string
		op   string
		val  any
		data map[string]any
		keep bool
	}{
		{"eq match", "eq", "done", map[string]any{"status": "done"}, true},
		{"eq miss", "eq", "done", map[string]any{"status": "todo"}, false},
		{"neq match", "neq", "done", map[string]any{"status": "todo"}, true},
		{"contains match", "contains", "urgent", map[string]any{"status": "urgent-fix"}, true},
		{"contains miss", "contains", "urgent", map[string]any{"status": "routine"}, false},
		{"gt match", "gt", 5.0, map[string]any{"status": 10.0}, true},
		{"gt miss", "gt", 5.0, map[string]any{"status": 3.0}, false},
		{"lt match", "lt", 5.0, map[string]any{"status": 3.0}, true},
		{"missing field dropped", "eq", "x", map[string]any{"other": "x"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ft := &importer.FilterTransform{Field: "status", Op: tc.op, Value: tc.val}
			_, keep := ft.Transform(rec(tc.data))
			if keep != tc.keep {
				t.Errorf("op %s on %v: keep = %v, want %v", tc.op, tc.data, keep, tc.keep)
			}
		})
	}
}

func TestRenameTransform(t *testing.T) {
	rt := &importer.RenameTransform{Mapping: map[string]string{"summary": "title"}}
	out, keep := rt.Transform(rec(map[string]any{"summary": "Fix bug", "other": 1}))
	if !keep {
		t.Fatal("rename should never drop records")
	}
	if out.Data["title"] != "Fix bug" {
		t.Errorf("expected renamed field, got %+v", out.Data)
	}
	if _, exists := out.Data["summary"]; exists {
		t.Error("old field name should be removed")
	}
	if out.Data["other"] != 1 {
		t.Error("unrelated fields must survive")
	}
}

func TestSelectTransform(t *testing.T) {
	st := &importer.SelectTransform{Fields: []string{"title", "status"}}
	out, _ := st.Transform(rec(map[string]any{"title": "a", "status": "todo", "noise": true}))
	if len(out.Data) != 2 {
		t.Errorf("expected 2 fields, got %+v", out.Data)
	}
	if _, exists := out.Data["noise"]; exists {
		t.Error("unselected field should be dropped")
	}
}

func TestDedupeTransform(t *testing.T) {
	dt := importer.NewDedupeTransform("title")
	if _, keep := dt.Transform(rec(map[string]any{"title": "a"})); !keep {
		t.Error("first occurrence should be kept")
	}
	if _, keep := dt.Transform(rec(map[string]any{"title": "a"})); keep {
		t.Error("duplicate should be dropped")
	}
	if _, keep := dt.Transform(rec(map[string]any{"title": "b"})); !keep {
		t.Error("distinct value should be kept")
	}
}

func TestLimitTransform(t *testing.T) {
	lt := importer.NewLimitTransform(2)
	kept := 0
	for i := 0; i < 5; i++ {
		if _, keep := lt.Transform(rec(map[string]any{"n": i})); keep {
			kept++
		}
	}
	if kept != 2 {
		t.Errorf("expected 2 kept, got %d", kept)
	}
}

func TestApplyTransformers_Chain(t *testing.T) {
	chain := []importer.Transformer{
		&importer.RenameTransform{Mapping: map[string]string{"summary": "title"}},
		&importer.FilterTransform{Field: "title", Op: "contains", Value: "bug"},
	}

	if _, keep := importer.ApplyTransformers(rec(map[string]any{"summary": "bug in parser"}), chain); !keep {
		t.Error("expected matching record kept after rename")
	}
	if _, keep := importer.ApplyTransformers(rec(map[string]any{"summary": "docs"}), chain); keep {
		t.Error("expected non-matching record dropped")
	}
}

func TestApplyBatchSort(t *testing.T) {
	records := []importer.Record{
		rec(map[string]any{"n": 3.0}),
		rec(map[string]any{"n": 1.0}),
		rec(map[string]any{"n": 2.0}),
	}
	chain := []importer.Transformer{&importer.SortTransform{Field: "n", Direction: "asc"}}

	sorted := importer.ApplyBatchSort(records, chain)
	if sorted[0].Data["n"] != 1.0 || sorted[2].Data["n"] != 3.0 {
		t.Errorf("unexpected asc order: %v %v %v", sorted[0].Data["n"], sorted[1].Data["n"], sorted[2].Data["n"])
	}
	// Input slice untouched.
	if records[0].Data["n"] != 3.0 {
		t.Error("batch sort must not mutate the input slice")
	}

	desc := importer.ApplyBatchSort(records, []importer.Transformer{
		&importer.SortTransform{Field: "n", Direction: "desc"},
	})
	if desc[0].Data["n"] != 3.0 {
		t.Errorf("unexpected desc order: %v", desc[0].Data["n"])
	}
}

func TestApplyBatchSort_NoSortTransform(t *testing.T) {
	records := []importer.Record{rec(map[string]any{"n": 2.0}), rec(map[string]any{"n": 1.0})}
	out := importer.ApplyBatchSort(records, nil)
	if out[0].Data["n"] != 2.0 {
		t.Error("records must pass through unchanged without a sort transform")
	}
}
