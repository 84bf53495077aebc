package table

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────
// Table — generic filter → sort → paginate pipeline
// ─────────────────────────────────────────────────────────────
//
// A Table owns the derived-view pipeline for one list of rows:
//
//	raw rows → global-filter predicate → stable sort → page window
//
// The pipeline always runs in that order over the full row set; sorting
// a page slice or paginating before filtering would change semantics.
// The page index is not owned here — it lives in a PageStore keyed by
// the list identity, so a table rebuilt for the same list (a reopened
// modal, a fresh request) resumes at the same page.

// DefaultPageSize is used when New is called with pageSize 0.
const DefaultPageSize = 10

// Direction is a column sort direction.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionAsc
	DirectionDesc
)

func (d Direction) String() string {
	switch d {
	case DirectionAsc:
		return "asc"
	case DirectionDesc:
		return "desc"
	default:
		return "none"
	}
}

// ParseDirection converts "asc"/"desc" to a Direction. Anything else is none.
func ParseDirection(s string) Direction {
	switch strings.ToLower(s) {
	case "asc":
		return DirectionAsc
	case "desc":
		return DirectionDesc
	default:
		return DirectionNone
	}
}

// Column describes one column of a Table over row type T.
// Value extracts the cell value used for filtering and sorting;
// Render, when set, overrides how the cell is displayed.
type Column[T any] struct {
	ID         string
	Label      string
	Value      func(T) any
	Render     func(T) string
	Less       func(a, b T) bool // optional ascending comparator
	Sortable   bool
	Filterable bool
}

// Header is the per-column metadata exposed to the rendering layer.
type Header struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Sortable  bool      `json:"sortable"`
	Direction Direction `json:"-"`
	Sort      string    `json:"sort"` // Direction as "asc"/"desc"/"none"
}

// View is the materialized result of the pipeline: the rows to render
// plus the pagination summary figures. It is recomputed on demand and
// never persisted.
type View[T any] struct {
	Rows            []T
	Headers         []Header
	PageIndex       int
	PageCount       int
	PageSize        int
	CanPreviousPage bool
	CanNextPage     bool
	FilteredCount   int
	TotalCount      int
	Summary         string
}

// Table composes a row snapshot, column definitions, filter/sort state,
// and an external page-index store into a derived view.
type Table[T any] struct {
	listID   string
	rows     []T
	columns  []Column[T]
	pageSize int
	pages    *PageStore

	filter   string
	sortCol  string
	sortDir  Direction
}

// New builds a Table over rows. pageSize 0 means DefaultPageSize; a
// negative page size, an empty column set, or empty/duplicate column IDs
// are configuration errors and fail fast. A nil pages store gets a
// private one (page position then lives only as long as the table).
func New[T any](listID string, rows []T, columns []Column[T], pageSize int, pages *PageStore) (*Table[T], error) {
	if pageSize < 0 {
		return nil, fmt.Errorf("table %q: page size must be positive, got %d", listID, pageSize)
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q: at least one column required", listID)
	}
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if col.ID == "" {
			return nil, fmt.Errorf("table %q: column with empty id", listID)
		}
		if seen[col.ID] {
			return nil, fmt.Errorf("table %q: duplicate column id %q", listID, col.ID)
		}
		if col.Value == nil {
			return nil, fmt.Errorf("table %q: column %q has no value accessor", listID, col.ID)
		}
		seen[col.ID] = true
	}
	if pages == nil {
		pages = NewPageStore()
	}
	return &Table[T]{
		listID:   listID,
		rows:     rows,
		columns:  columns,
		pageSize: pageSize,
		pages:    pages,
	}, nil
}

// ── Filter ─────────────────────────────────────────────────

// SetGlobalFilter sets the free-text filter. An empty string clears it.
// Changing the filter deliberately does NOT reset the page index: losing
// the user's place was judged worse than landing past the end, and the
// view clamps out-of-range pages on render instead.
func (t *Table[T]) SetGlobalFilter(q string) {
	t.filter = q
}

// GlobalFilter returns the current filter text.
func (t *Table[T]) GlobalFilter() string {
	return t.filter
}

func (t *Table[T]) matches(row T) bool {
	if t.filter == "" {
		return true
	}
	needle := strings.ToLower(t.filter)
	for _, col := range t.columns {
		if !col.Filterable {
			continue
		}
		if strings.Contains(strings.ToLower(cellString(col.Value(row))), needle) {
			return true
		}
	}
	return false
}

// ── Sort ───────────────────────────────────────────────────

// ToggleSort cycles the named column through none → asc → desc → none.
// Sorting a new column replaces the previous single-column sort. Unknown
// or unsortable column IDs are no-ops.
func (t *Table[T]) ToggleSort(columnID string) {
	col, ok := t.column(columnID)
	if !ok || !col.Sortable {
		return
	}
	if t.sortCol != columnID {
		t.sortCol = columnID
		t.sortDir = DirectionAsc
		return
	}
	switch t.sortDir {
	case DirectionAsc:
		t.sortDir = DirectionDesc
	case DirectionDesc:
		t.sortCol = ""
		t.sortDir = DirectionNone
	default:
		t.sortDir = DirectionAsc
	}
}

// SetSort sets the sort state directly (e.g. from query parameters).
// DirectionNone clears the sort. Unknown/unsortable columns are no-ops.
func (t *Table[T]) SetSort(columnID string, dir Direction) {
	if dir == DirectionNone {
		t.sortCol = ""
		t.sortDir = DirectionNone
		return
	}
	col, ok := t.column(columnID)
	if !ok || !col.Sortable {
		return
	}
	t.sortCol = columnID
	t.sortDir = dir
}

// Sort returns the active sort column ID and direction.
func (t *Table[T]) Sort() (string, Direction) {
	return t.sortCol, t.sortDir
}

func (t *Table[T]) column(id string) (Column[T], bool) {
	for _, col := range t.columns {
		if col.ID == id {
			return col, true
		}
	}
	return Column[T]{}, false
}

// ── Pagination ─────────────────────────────────────────────

// PageIndex returns the stored page index for this table's list identity.
func (t *Table[T]) PageIndex() int {
	return t.pages.Get(t.listID)
}

// SetPageIndex stores a page index. Negative input is clamped to 0; an
// index past the last page is stored as-is and clamped on render, which
// keeps the stored position meaningful if the filter widens again.
func (t *Table[T]) SetPageIndex(index int) {
	t.pages.Set(t.listID, index)
}

// NextPage advances one page. At the last page it is a no-op.
func (t *Table[T]) NextPage() {
	idx := t.effectiveIndex()
	if idx < t.pageCount()-1 {
		t.pages.Set(t.listID, idx+1)
	}
}

// PreviousPage goes back one page. At the first page it is a no-op.
func (t *Table[T]) PreviousPage() {
	idx := t.effectiveIndex()
	if idx > 0 {
		t.pages.Set(t.listID, idx-1)
	}
}

// FirstPage jumps to page 0.
func (t *Table[T]) FirstPage() {
	t.pages.Set(t.listID, 0)
}

// LastPage jumps to the last page of the current filtered set.
func (t *Table[T]) LastPage() {
	t.pages.Set(t.listID, t.pageCount()-1)
}

func (t *Table[T]) filtered() []T {
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if t.matches(row) {
			out = append(out, row)
		}
	}
	return out
}

// pageCount is max(1, ceil(filteredCount / pageSize)) — one page even
// when the filtered set is empty, so "page 1 of 1" still renders.
func (t *Table[T]) pageCount() int {
	n := len(t.filtered())
	if n == 0 {
		return 1
	}
	return (n + t.pageSize - 1) / t.pageSize
}

// effectiveIndex clamps the stored index into [0, pageCount-1] without
// writing the clamped value back.
func (t *Table[T]) effectiveIndex() int {
	idx := t.pages.Get(t.listID)
	if last := t.pageCount() - 1; idx > last {
		return last
	}
	if idx < 0 {
		return 0
	}
	return idx
}

// ── Derived view ───────────────────────────────────────────

// View runs the pipeline and returns the current page plus summary
// figures. Filtering and sorting always see the full row set; the page
// window is cut last.
func (t *Table[T]) View() View[T] {
	filtered := t.filtered()

	sorted := filtered
	if col, ok := t.column(t.sortCol); ok && t.sortDir != DirectionNone {
		sorted = make([]T, len(filtered))
		copy(sorted, filtered)
		desc := t.sortDir == DirectionDesc
		sort.SliceStable(sorted, func(i, j int) bool {
			if desc {
				return less(col, sorted[j], sorted[i])
			}
			return less(col, sorted[i], sorted[j])
		})
	}

	pageCount := 1
	if len(sorted) > 0 {
		pageCount = (len(sorted) + t.pageSize - 1) / t.pageSize
	}
	index := t.pages.Get(t.listID)
	if index > pageCount-1 {
		index = pageCount - 1
	}
	if index < 0 {
		index = 0
	}

	start := index * t.pageSize
	end := start + t.pageSize
	if start > len(sorted) {
		start = len(sorted)
	}
	if end > len(sorted) {
		end = len(sorted)
	}

	headers := make([]Header, len(t.columns))
	for i, col := range t.columns {
		dir := DirectionNone
		if col.ID == t.sortCol {
			dir = t.sortDir
		}
		headers[i] = Header{
			ID:        col.ID,
			Label:     col.Label,
			Sortable:  col.Sortable,
			Direction: dir,
			Sort:      dir.String(),
		}
	}

	return View[T]{
		Rows:            sorted[start:end],
		Headers:         headers,
		PageIndex:       index,
		PageCount:       pageCount,
		PageSize:        t.pageSize,
		CanPreviousPage: index > 0,
		CanNextPage:     index < pageCount-1,
		FilteredCount:   len(sorted),
		TotalCount:      len(t.rows),
		Summary:         summary(start, end, len(sorted)),
	}
}

// Cell renders one cell for display: the custom renderer when set,
// otherwise the stringified accessor value.
func (t *Table[T]) Cell(columnID string, row T) string {
	col, ok := t.column(columnID)
	if !ok {
		return ""
	}
	if col.Render != nil {
		return col.Render(row)
	}
	return cellString(col.Value(row))
}

// summary builds the "Showing X to Y of N results" line.
func summary(start, end, filtered int) string {
	if filtered == 0 {
		return "No results"
	}
	return fmt.Sprintf("Showing %d to %d of %d results", start+1, end, filtered)
}

// ── Value comparison ───────────────────────────────────────

// less compares two rows ascending under a column: a custom comparator
// wins, then numbers numerically, times chronologically, everything
// else as case-folded strings.
func less[T any](col Column[T], a, b T) bool {
	if col.Less != nil {
		return col.Less(a, b)
	}
	va, vb := col.Value(a), col.Value(b)

	if fa, ok := toFloat(va); ok {
		if fb, ok := toFloat(vb); ok {
			return fa < fb
		}
	}
	if ta, ok := va.(time.Time); ok {
		if tb, ok := vb.(time.Time); ok {
			return ta.Before(tb)
		}
	}
	return strings.ToLower(cellString(va)) < strings.ToLower(cellString(vb))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	if ts, ok := v.(time.Time); ok {
		return ts.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
