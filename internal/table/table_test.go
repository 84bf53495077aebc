package table_test

import (
	"fmt"
	"testing"

	"taskboard/internal/table"
)

// ─────────────────────────────────────────────────────────────
// Table engine tests
// ─────────────────────────────────────────────────────────────

type item struct {
	Name     string
	Priority int
	N        int
}

func itemColumns() []table.Column[item] {
	return []table.Column[item]{
		{ID: "name", Label: "Name", Value: func(i item) any { return i.Name }, Sortable: true, Filterable: true},
		{ID: "priority", Label: "Priority", Value: func(i item) any { return i.Priority }, Sortable: true, Filterable: false},
		{ID: "n", Label: "N", Value: func(i item) any { return i.N }, Sortable: true, Filterable: true},
	}
}

func mustTable(t *testing.T, listID string, rows []item, pageSize int, pages *table.PageStore) *table.Table[item] {
	t.Helper()
	tbl, err := table.New(listID, rows, itemColumns(), pageSize, pages)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tbl
}

func names(rows []item) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

// ── Construction ───────────────────────────────────────────

func TestNew_ConfigErrors(t *testing.T) {
	rows := []item{{Name: "a"}}

	if _, err := table.New("l", rows, itemColumns(), -1, nil); err == nil {
		t.Error("expected error for negative page size")
	}
	if _, err := table.New("l", rows, nil, 10, nil); err == nil {
		t.Error("expected error for empty column set")
	}
	dup := []table.Column[item]{
		{ID: "x", Value: func(i item) any { return i.N }},
		{ID: "x", Value: func(i item) any { return i.N }},
	}
	if _, err := table.New("l", rows, dup, 10, nil); err == nil {
		t.Error("expected error for duplicate column id")
	}
	noAccessor := []table.Column[item]{{ID: "x"}}
	if _, err := table.New("l", rows, noAccessor, 10, nil); err == nil {
		t.Error("expected error for column without accessor")
	}
}

func TestNew_DefaultPageSize(t *testing.T) {
	tbl := mustTable(t, "l", nil, 0, nil)
	if got := tbl.View().PageSize; got != table.DefaultPageSize {
		t.Errorf("expected default page size %d, got %d", table.DefaultPageSize, got)
	}
}

// ── P1: sort stability ─────────────────────────────────────

func TestSort_Stable(t *testing.T) {
	// All rows share the same sort key; relative order must survive
	// repeated sorts.
	rows := []item{
		{Name: "first", Priority: 1},
		{Name: "second", Priority: 1},
		{Name: "third", Priority: 1},
		{Name: "fourth", Priority: 1},
	}
	tbl := mustTable(t, "stable", rows, 10, nil)
	tbl.SetSort("priority", table.DirectionAsc)

	once := names(tbl.View().Rows)
	tbl.SetSort("priority", table.DirectionNone)
	tbl.SetSort("priority", table.DirectionAsc)
	twice := names(tbl.View().Rows)

	want := []string{"first", "second", "third", "fourth"}
	for i := range want {
		if once[i] != want[i] {
			t.Fatalf("single sort reordered equal keys: %v", once)
		}
		if twice[i] != want[i] {
			t.Fatalf("repeated sort reordered equal keys: %v", twice)
		}
	}
}

// ── P2: filter correctness ─────────────────────────────────

func TestFilter_EmptyMatchesAll(t *testing.T) {
	rows := []item{{Name: "alpha"}, {Name: "beta"}, {Name: "gamma"}}
	tbl := mustTable(t, "filter-empty", rows, 10, nil)
	tbl.SetGlobalFilter("")
	if got := tbl.View().FilteredCount; got != 3 {
		t.Errorf("empty filter: expected 3 rows, got %d", got)
	}
}

func TestFilter_CaseInsensitiveSubstring(t *testing.T) {
	rows := []item{{Name: "Website Redesign"}, {Name: "Backend"}, {Name: "Mobile"}}
	tbl := mustTable(t, "filter-ci", rows, 10, nil)
	tbl.SetGlobalFilter("wEbSiTe")

	v := tbl.View()
	if v.FilteredCount != 1 {
		t.Fatalf("expected 1 match, got %d", v.FilteredCount)
	}
	if v.Rows[0].Name != "Website Redesign" {
		t.Errorf("expected the matching row, got %q", v.Rows[0].Name)
	}
	if v.TotalCount != 3 {
		t.Errorf("total count must stay 3, got %d", v.TotalCount)
	}
}

func TestFilter_SkipsNonFilterableColumns(t *testing.T) {
	// Priority is not filterable, so its value must not match.
	rows := []item{{Name: "alpha", Priority: 7}, {Name: "beta", Priority: 1}}
	tbl := mustTable(t, "filter-skip", rows, 10, nil)
	tbl.SetGlobalFilter("7")
	if got := tbl.View().FilteredCount; got != 0 {
		t.Errorf("non-filterable column matched: got %d rows", got)
	}
}

// ── P3: pagination bounds ──────────────────────────────────

func TestPageCount_Bounds(t *testing.T) {
	cases := []struct {
		rows, pageSize, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{3, 1, 3},
	}
	for _, tc := range cases {
		rows := make([]item, tc.rows)
		for i := range rows {
			rows[i] = item{Name: fmt.Sprintf("row-%d", i)}
		}
		tbl := mustTable(t, fmt.Sprintf("bounds-%d-%d", tc.rows, tc.pageSize), rows, tc.pageSize, nil)
		if got := tbl.View().PageCount; got != tc.want {
			t.Errorf("rows=%d pageSize=%d: expected pageCount %d, got %d",
				tc.rows, tc.pageSize, tc.want, got)
		}
	}
}

func TestPageSlice_Length(t *testing.T) {
	rows := make([]item, 25)
	for i := range rows {
		rows[i] = item{Name: fmt.Sprintf("row-%02d", i)}
	}
	tbl := mustTable(t, "slice-len", rows, 10, nil)

	tbl.SetPageIndex(0)
	if got := len(tbl.View().Rows); got != 10 {
		t.Errorf("page 0: expected 10 rows, got %d", got)
	}
	tbl.SetPageIndex(2)
	if got := len(tbl.View().Rows); got != 5 {
		t.Errorf("page 2: expected 5 rows, got %d", got)
	}
}

// ── P4: navigation guards ──────────────────────────────────

func TestNavigation_Guards(t *testing.T) {
	rows := make([]item, 25)
	for i := range rows {
		rows[i] = item{Name: fmt.Sprintf("row-%d", i)}
	}
	tbl := mustTable(t, "guards", rows, 10, nil)

	tbl.PreviousPage()
	if got := tbl.View().PageIndex; got != 0 {
		t.Errorf("PreviousPage at 0: expected 0, got %d", got)
	}

	tbl.LastPage()
	if got := tbl.View().PageIndex; got != 2 {
		t.Fatalf("LastPage: expected 2, got %d", got)
	}
	tbl.NextPage()
	if got := tbl.View().PageIndex; got != 2 {
		t.Errorf("NextPage at last: expected 2, got %d", got)
	}

	tbl.FirstPage()
	v := tbl.View()
	if v.PageIndex != 0 || v.CanPreviousPage || !v.CanNextPage {
		t.Errorf("FirstPage: unexpected state %+v", v)
	}
}

func TestNavigation_CanFlags(t *testing.T) {
	rows := make([]item, 25)
	for i := range rows {
		rows[i] = item{Name: fmt.Sprintf("row-%d", i)}
	}
	tbl := mustTable(t, "flags", rows, 10, nil)

	tbl.SetPageIndex(1)
	v := tbl.View()
	if !v.CanPreviousPage || !v.CanNextPage {
		t.Errorf("middle page: both flags should be true, got prev=%v next=%v",
			v.CanPreviousPage, v.CanNextPage)
	}
	tbl.NextPage()
	v = tbl.View()
	if !v.CanPreviousPage || v.CanNextPage {
		t.Errorf("last page: expected prev=true next=false, got prev=%v next=%v",
			v.CanPreviousPage, v.CanNextPage)
	}
}

// ── P5: pipeline order ─────────────────────────────────────

func TestPipeline_FilterSortPaginate(t *testing.T) {
	rows := []item{{N: 3}, {N: 1}, {N: 2}}
	tbl := mustTable(t, "pipeline", rows, 2, nil)
	tbl.SetGlobalFilter("")
	tbl.SetSort("n", table.DirectionAsc)

	v := tbl.View()
	if v.PageCount != 2 {
		t.Fatalf("expected pageCount 2, got %d", v.PageCount)
	}
	if len(v.Rows) != 2 || v.Rows[0].N != 1 || v.Rows[1].N != 2 {
		t.Errorf("page 0: expected [1 2], got %v", v.Rows)
	}

	tbl.SetPageIndex(1)
	v = tbl.View()
	if len(v.Rows) != 1 || v.Rows[0].N != 3 {
		t.Errorf("page 1: expected [3], got %v", v.Rows)
	}
}

func TestToggleSort_Cycles(t *testing.T) {
	rows := []item{{N: 3}, {N: 1}, {N: 2}}
	tbl := mustTable(t, "toggle", rows, 10, nil)

	tbl.ToggleSort("n") // none → asc
	if v := tbl.View(); v.Rows[0].N != 1 {
		t.Errorf("asc: expected first row N=1, got %d", v.Rows[0].N)
	}
	tbl.ToggleSort("n") // asc → desc
	if v := tbl.View(); v.Rows[0].N != 3 {
		t.Errorf("desc: expected first row N=3, got %d", v.Rows[0].N)
	}
	tbl.ToggleSort("n") // desc → none, original order restored
	if v := tbl.View(); v.Rows[0].N != 3 || v.Rows[1].N != 1 {
		t.Errorf("none: expected original order [3 1 2], got %v", v.Rows)
	}

	// Sorting a different column replaces the single-column sort.
	tbl.ToggleSort("n")
	tbl.ToggleSort("name")
	if col, dir := tbl.Sort(); col != "name" || dir != table.DirectionAsc {
		t.Errorf("expected sort (name, asc), got (%s, %s)", col, dir)
	}

	// Unknown and unsortable columns are no-ops.
	tbl.ToggleSort("bogus")
	if col, _ := tbl.Sort(); col != "name" {
		t.Errorf("unknown column changed sort to %q", col)
	}
}

// ── P6: cross-instance page persistence ────────────────────

func TestPageStore_PersistsAcrossInstances(t *testing.T) {
	pages := table.NewPageStore()
	rows := make([]item, 30)
	for i := range rows {
		rows[i] = item{Name: fmt.Sprintf("p-%d", i)}
	}

	first := mustTable(t, "projects", rows, 10, pages)
	first.SetPageIndex(2)

	// A fresh table for the same identity resumes at page 2.
	second := mustTable(t, "projects", rows, 10, pages)
	if got := second.View().PageIndex; got != 2 {
		t.Errorf("same identity: expected page 2, got %d", got)
	}

	// A different identity starts at 0.
	other := mustTable(t, "tasks/7", rows, 10, pages)
	if got := other.View().PageIndex; got != 0 {
		t.Errorf("different identity: expected page 0, got %d", got)
	}
}

// ── No-auto-reset policy + clamp-on-render boundary ────────

func TestFilter_DoesNotResetPageIndex(t *testing.T) {
	pages := table.NewPageStore()
	rows := make([]item, 30)
	for i := range rows {
		rows[i] = item{Name: fmt.Sprintf("row-%02d", i)}
	}
	tbl := mustTable(t, "no-reset", rows, 10, pages)
	tbl.SetPageIndex(2)

	// Filtering must not, by itself, move the stored index.
	tbl.SetGlobalFilter("row")
	if got := pages.Get("no-reset"); got != 2 {
		t.Errorf("filter change moved stored index to %d", got)
	}
}

func TestFilter_ShrinksPastStoredPage(t *testing.T) {
	pages := table.NewPageStore()
	rows := make([]item, 30)
	for i := range rows {
		rows[i] = item{Name: fmt.Sprintf("row-%02d", i)}
	}
	tbl := mustTable(t, "shrink", rows, 10, pages)
	tbl.SetPageIndex(2)

	// Narrow to a single row: stored index 2 now exceeds the page count.
	tbl.SetGlobalFilter("row-07")
	v := tbl.View()
	if v.PageCount != 1 {
		t.Fatalf("expected pageCount 1, got %d", v.PageCount)
	}
	// The view clamps rather than rendering an empty page...
	if v.PageIndex != 0 || len(v.Rows) != 1 {
		t.Errorf("expected clamped page 0 with 1 row, got page %d with %d rows",
			v.PageIndex, len(v.Rows))
	}
	// ...but the stored index is untouched, so widening the filter
	// returns the user to their page.
	if got := pages.Get("shrink"); got != 2 {
		t.Errorf("clamp wrote back stored index: got %d", got)
	}
	tbl.SetGlobalFilter("")
	if got := tbl.View().PageIndex; got != 2 {
		t.Errorf("after widening: expected page 2, got %d", got)
	}
}

func TestFilter_NoMatches(t *testing.T) {
	rows := []item{{Name: "alpha"}, {Name: "beta"}}
	tbl := mustTable(t, "none", rows, 10, nil)
	tbl.SetGlobalFilter("zzz")

	v := tbl.View()
	if v.FilteredCount != 0 || len(v.Rows) != 0 {
		t.Errorf("expected empty view, got %d/%d", v.FilteredCount, len(v.Rows))
	}
	if v.PageCount != 1 {
		t.Errorf("empty set: expected pageCount 1, got %d", v.PageCount)
	}
	if v.Summary != "No results" {
		t.Errorf("expected %q, got %q", "No results", v.Summary)
	}
}

func TestSetPageIndex_ClampsNegative(t *testing.T) {
	rows := []item{{Name: "a"}}
	tbl := mustTable(t, "neg", rows, 10, nil)
	tbl.SetPageIndex(-5)
	if got := tbl.View().PageIndex; got != 0 {
		t.Errorf("negative index: expected 0, got %d", got)
	}
}

// ── Scenario: 25 rows, page size 10 ────────────────────────

func TestScenario_SummaryText(t *testing.T) {
	rows := make([]item, 25)
	for i := range rows {
		rows[i] = item{Name: fmt.Sprintf("row-%02d", i)}
	}
	tbl := mustTable(t, "scenario", rows, 10, nil)

	v := tbl.View()
	if v.PageCount != 3 {
		t.Fatalf("expected pageCount 3, got %d", v.PageCount)
	}
	if v.Summary != "Showing 1 to 10 of 25 results" {
		t.Errorf("page 0 summary: got %q", v.Summary)
	}

	tbl.SetPageIndex(2)
	v = tbl.View()
	if v.Summary != "Showing 21 to 25 of 25 results" {
		t.Errorf("page 2 summary: got %q", v.Summary)
	}
	if v.CanNextPage {
		t.Error("last page: CanNextPage should be false")
	}
}

// ── Headers + custom render ────────────────────────────────

func TestHeaders_ReflectSortState(t *testing.T) {
	rows := []item{{Name: "a"}}
	tbl := mustTable(t, "headers", rows, 10, nil)
	tbl.ToggleSort("name")

	for _, h := range tbl.View().Headers {
		want := "none"
		if h.ID == "name" {
			want = "asc"
		}
		if h.Sort != want {
			t.Errorf("header %s: expected sort %q, got %q", h.ID, want, h.Sort)
		}
	}
}

func TestCell_CustomRenderer(t *testing.T) {
	cols := []table.Column[item]{
		{ID: "name", Value: func(i item) any { return i.Name }},
		{
			ID:     "priority",
			Value:  func(i item) any { return i.Priority },
			Render: func(i item) string { return fmt.Sprintf("P%d", i.Priority) },
		},
	}
	tbl, err := table.New("cells", []item{{Name: "a", Priority: 2}}, cols, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := tbl.Cell("priority", item{Priority: 2}); got != "P2" {
		t.Errorf("custom renderer: got %q", got)
	}
	if got := tbl.Cell("name", item{Name: "a"}); got != "a" {
		t.Errorf("default renderer: got %q", got)
	}
}
