package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/redline/internal/host"
	"github.com/roach88/redline/internal/index"
	"github.com/roach88/redline/internal/ir"
	"github.com/roach88/redline/internal/memdoc"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(doc host.Host, opts ...Option) *Engine {
	base := []Option{
		WithLogger(quietLogger()),
		WithRunIDs(NewFixedGenerator("run-1", "run-2", "run-3")),
	}
	return New(doc, append(base, opts...)...)
}

func texts(t *testing.T, doc host.Reader) []string {
	t.Helper()
	paras, err := doc.Paragraphs(context.Background())
	require.NoError(t, err)
	out := make([]string, len(paras))
	for i, p := range paras {
		out[i] = p.Text
	}
	return out
}

func threeParagraphs() *memdoc.Document {
	return memdoc.New(memdoc.P("Intro"), memdoc.P("The rabbit ran."), memdoc.P("End"))
}

func within(find string, occ int) *ir.WithinPara {
	return &ir.WithinPara{Find: find, Occurrence: occ}
}

func TestExecute_ReplaceParagraph(t *testing.T) {
	doc := threeParagraphs()
	e := newTestEngine(doc)

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Task: "fix verb", Loc: "1.p1", Op: ir.Replace{NewText: "The rabbit hid."}},
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Intro", "The rabbit hid.", "End"}, texts(t, doc))
	assert.Empty(t, res.Errors)
	assert.Equal(t, []int{0}, res.Applied)
	assert.Equal(t, ir.BatchApplied, res.Status)
	assert.True(t, res.OK())
	assert.Equal(t, "run-1", res.RunID)
}

func TestExecute_HigherDocPosFirst(t *testing.T) {
	doc := threeParagraphs()
	e := newTestEngine(doc)

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "0.p0", Op: ir.Delete{}},
		{Loc: "2.p2", Op: ir.Append{NewText: " Done."}},
	}})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0}, res.Order)
	assert.Equal(t, []string{"The rabbit ran.", "End Done."}, texts(t, doc))
	assert.Empty(t, res.Errors)
}

func TestExecute_StaleFingerprint(t *testing.T) {
	ctx := context.Background()
	doc := threeParagraphs()
	e := newTestEngine(doc)

	snap, err := e.Snapshot(ctx)
	require.NoError(t, err)
	fp := snap.Fingerprint()

	// Someone edits paragraph 0 after the snapshot was taken.
	paras, err := doc.Paragraphs(ctx)
	require.NoError(t, err)
	require.NoError(t, doc.InsertText(ctx, host.ParagraphRange(paras[0].ID), "Introduction", host.InsertReplace))
	before := texts(t, doc)

	res, err := e.Execute(ctx, Batch{
		Fingerprint: fp,
		Actions: []ir.Action{
			{Loc: "1.p1", Op: ir.Replace{NewText: "x"}},
			{Loc: "2.p2", Op: ir.Delete{}},
		},
	})
	require.Error(t, err)
	assert.True(t, ir.IsStale(err))

	assert.Equal(t, before, texts(t, doc))
	assert.Equal(t, ir.BatchStale, res.Status)
	assert.Empty(t, res.Applied)
	for _, o := range res.Outcomes {
		assert.Equal(t, ir.OutcomeSkipped, o.Status)
	}
}

func TestExecute_FreshFingerprint(t *testing.T) {
	ctx := context.Background()
	doc := threeParagraphs()
	e := newTestEngine(doc)

	snap, err := e.Snapshot(ctx)
	require.NoError(t, err)

	res, err := e.Execute(ctx, Batch{
		Fingerprint: snap.Fingerprint(),
		Actions:     []ir.Action{{Loc: "1.p1", Op: ir.Prepend{NewText: "Then "}}},
	})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "Then The rabbit ran.", texts(t, doc)[1])
}

func TestExecute_EmptyDocumentFingerprint(t *testing.T) {
	ctx := context.Background()
	doc := memdoc.New(memdoc.P(""))
	e := newTestEngine(doc)

	res, err := e.Execute(ctx, Batch{
		Fingerprint: ir.NewSnapshot(nil).Fingerprint(),
		Actions:     []ir.Action{{Loc: "0.p0", Op: ir.Append{NewText: "Hello"}}},
	})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, []string{"Hello"}, texts(t, doc))
}

func TestExecute_InsertRow(t *testing.T) {
	doc := memdoc.New(
		memdoc.P("Title"),
		memdoc.T([]string{"h1", "h2"}, []string{"x", "y"}),
	)
	e := newTestEngine(doc)

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "5.t0.r1", Op: ir.InsertRow{RowData: [][]string{{"A", "B"}}}},
	}})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	assert.Equal(t, [][]string{{"h1", "h2"}, {"x", "y"}, {"A", "B"}}, doc.Spec().Blocks[1].Table)
}

func TestExecute_BoldTwoOccurrences(t *testing.T) {
	ctx := context.Background()
	doc := memdoc.New(memdoc.P("the cat saw the cat"))
	e := newTestEngine(doc)

	res, err := e.Execute(ctx, Batch{Actions: []ir.Action{
		{Loc: "0.p0", Op: ir.FormatBold{Within: within("cat", 0)}},
		{Loc: "0.p0", Op: ir.FormatBold{Within: within("cat", 1)}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, res.Order)
	require.Empty(t, res.Errors)

	paras, err := doc.Paragraphs(ctx)
	require.NoError(t, err)
	runs, err := doc.Runs(paras[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []memdoc.StyledRun{
		{Text: "the "},
		{Text: "cat", Style: host.StyleBold},
		{Text: " saw the "},
		{Text: "cat", Style: host.StyleBold},
	}, runs)
}

func TestExecute_ReplaceOccurrencesChangingLength(t *testing.T) {
	doc := memdoc.New(memdoc.P("cat and cat"))
	e := newTestEngine(doc)

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "0.p0", Op: ir.Replace{NewText: "kitten", Within: within("cat", 0)}},
		{Loc: "0.p0", Op: ir.Replace{NewText: "dog", Within: within("cat", 1)}},
	}})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	assert.Equal(t, []string{"kitten and dog"}, texts(t, doc))
}

func TestExecute_CellEditsAndRowDelete(t *testing.T) {
	doc := memdoc.New(
		memdoc.P("Intro"),
		memdoc.T([]string{"a", "b"}, []string{"c", "d"}, []string{"e", "f"}),
	)
	e := newTestEngine(doc)

	// Keys as the indexer names them: row 1 starts at docPos 3.
	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "3.t0.r1", Op: ir.DeleteRow{}},
		{Loc: "5.t0.r2.c0.p0", Op: ir.Replace{NewText: "E"}},
		{Loc: "4.t0.r1.c1.p0", Op: ir.Replace{NewText: "D"}},
		{Loc: "0.p0", Op: ir.Append{NewText: "!"}},
	}})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	assert.Equal(t, []int{3, 1, 2, 0}, res.Order)
	assert.Equal(t, []string{"Intro!", "a", "b", "E", "f"}, texts(t, doc))
}

func TestExecute_DeleteOnRowKeyRunsAfterCellEdits(t *testing.T) {
	doc := memdoc.New(
		memdoc.P("Intro"),
		memdoc.T([]string{"a", "b"}, []string{"c", "d"}, []string{"e", "f"}),
	)
	e := newTestEngine(doc)

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "3.t0.r1", Op: ir.Delete{}},
		{Loc: "5.t0.r2.c0.p0", Op: ir.Replace{NewText: "E"}},
	}})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	assert.Equal(t, []int{1, 0}, res.Order)
	assert.Equal(t, []string{"Intro", "a", "b", "E", "f"}, texts(t, doc))
}

func TestExecute_PartialFailureIsolation(t *testing.T) {
	doc := threeParagraphs()
	e := newTestEngine(doc)

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "9.p9", Op: ir.Replace{NewText: "x"}},
		{Loc: "0.p0", Op: ir.Append{NewText: " ok"}},
		{Loc: "bad", Op: ir.Delete{}},
		{Loc: "2.p2", Op: ir.Delete{Within: within("missing", 0)}},
	}})
	require.NoError(t, err, "per-action failures are not batch errors")

	assert.Equal(t, ir.BatchPartial, res.Status)
	assert.Equal(t, []int{1}, res.Applied)
	assert.Equal(t, []int{0, 2, 3}, res.Failed)
	assert.Equal(t, []string{"Intro ok", "The rabbit ran.", "End"}, texts(t, doc))

	assert.Equal(t, "replace: INDEX_OUT_OF_RANGE: paragraph index 9 out of range (0-2) (loc=9.p9)", res.Errors[0])
	assert.Equal(t, `delete: INVALID_FORMAT: invalid location format: "bad" (loc=bad)`, res.Errors[2])
	assert.Contains(t, res.Errors[3], "NOT_FOUND")

	assert.Equal(t, ir.ErrCodeIndexOutOfRange, res.Outcomes[0].ErrorCode)
	assert.Equal(t, ir.ErrCodeInvalidFormat, res.Outcomes[2].ErrorCode)
	assert.Equal(t, ir.ErrCodeNotFound, res.Outcomes[3].ErrorCode)
}

func TestExecute_WrongKeyKind(t *testing.T) {
	doc := memdoc.New(memdoc.P("Intro"), memdoc.T([]string{"a"}))
	e := newTestEngine(doc)

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "0.p0", Op: ir.DeleteRow{}},
		{Loc: "1.t0.r0.c0.p0", Op: ir.CreateTable{RowCount: 1, ColumnCount: 1}},
		{Loc: "1.t0.r0", Op: ir.DeleteTable{}},
	}})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, res.Failed)
	assert.Equal(t, "delete_row: INVALID_FORMAT: expected a tableRow location (loc=0.p0)", res.Errors[0])
	for i := range 3 {
		assert.Equal(t, ir.ErrCodeInvalidFormat, res.Outcomes[i].ErrorCode)
	}
}

func TestExecute_TextIntoTableUnsupported(t *testing.T) {
	doc := memdoc.New(memdoc.T([]string{"a"}))
	e := newTestEngine(doc)

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "0.t0", Op: ir.Append{NewText: "x"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, ir.ErrCodeUnsupported, res.Outcomes[0].ErrorCode)
	assert.Equal(t, []string{"a"}, texts(t, doc))
}

func TestExecute_CreateTableInCellUnsupported(t *testing.T) {
	doc := memdoc.New(memdoc.P("Intro"), memdoc.T([]string{"a"}))
	e := newTestEngine(doc)

	// 1.p1 is the flat key of the cell paragraph.
	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "1.p1", Op: ir.CreateTable{RowCount: 1, ColumnCount: 1}},
	}})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, res.Failed)
	assert.Equal(t, ir.ErrCodeUnsupported, res.Outcomes[0].ErrorCode)
	assert.Contains(t, res.Errors[0], "create_table: UNSUPPORTED")
	assert.Contains(t, res.Errors[0], "(loc=1.p1)")
	assert.Equal(t, []string{"Intro", "a"}, texts(t, doc))
}

func TestExecute_InvalidPayload(t *testing.T) {
	doc := threeParagraphs()
	e := newTestEngine(doc)

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "0.p0", Op: ir.CreateTable{RowCount: 0, ColumnCount: 2}},
		{Loc: "1.p1", Op: ir.Highlight{Within: &ir.WithinPara{Find: ""}}},
		{Loc: "", Op: ir.Delete{}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, res.Failed)
	for i := range 3 {
		assert.Equal(t, ir.ErrCodeInvalidAction, res.Outcomes[i].ErrorCode, res.Errors[i])
	}
}

func TestExecute_Tables(t *testing.T) {
	doc := memdoc.New(memdoc.P("Intro"), memdoc.T([]string{"old"}), memdoc.P("End"))
	e := newTestEngine(doc)

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "1.t0", Op: ir.DeleteTable{}},
		{Loc: "0.p0", Op: ir.CreateTable{RowCount: 2, ColumnCount: 2, Values: [][]string{{"k", "v"}}}},
	}})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	// delete_table (docPos 1) runs first, so t0 still names the old table.
	spec := doc.Spec()
	require.Len(t, spec.Blocks, 3)
	assert.Equal(t, [][]string{{"k", "v"}, {"", ""}}, spec.Blocks[1].Table)
	assert.Equal(t, "End", *spec.Blocks[2].P)
}

func TestExecute_MultiLineAppend(t *testing.T) {
	doc := threeParagraphs()
	e := newTestEngine(doc)

	_, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "0.p0", Op: ir.Append{NewText: "\nSecond line"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro", "Second line", "The rabbit ran.", "End"}, texts(t, doc))
}

func TestExecute_Highlight(t *testing.T) {
	ctx := context.Background()
	doc := memdoc.New(memdoc.P("mark me"))
	e := newTestEngine(doc, WithHighlightColor("Green"))

	_, err := e.Execute(ctx, Batch{Actions: []ir.Action{
		{Loc: "0.p0", Op: ir.Highlight{Within: within("mark", 0)}},
	}})
	require.NoError(t, err)

	paras, _ := doc.Paragraphs(ctx)
	runs, err := doc.Runs(paras[0].ID)
	require.NoError(t, err)
	assert.Equal(t, memdoc.StyledRun{Text: "mark", Style: host.StyleHighlight, Color: "Green"}, runs[0])
}

func TestExecute_CommentBeforeOperation(t *testing.T) {
	doc := threeParagraphs()
	e := newTestEngine(doc)

	_, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "1.p1", Comment: "tense", Op: ir.Replace{NewText: "runs", Within: within("ran", 0)}},
		{Loc: "2.p2", Comment: "keep", Op: ir.None{}},
	}})
	require.NoError(t, err)

	assert.Equal(t, []memdoc.Comment{
		{Anchor: "End", Text: "keep"},
		{Anchor: "ran", Text: "tense"},
	}, doc.Comments())
	assert.Equal(t, "The rabbit runs.", texts(t, doc)[1])
}

func TestExecute_SelectedAndEdits(t *testing.T) {
	doc := threeParagraphs()
	e := newTestEngine(doc)

	res, err := e.Execute(context.Background(), Batch{
		Actions: []ir.Action{
			{Loc: "0.p0", Op: ir.Replace{NewText: "Start"}},
			{Loc: "1.p1", Op: ir.Delete{}},
			{Loc: "2.p2", Op: ir.Replace{NewText: "Finish"}},
		},
		Selected: []int{0, 2},
		Edits:    map[int]string{2: "The End"},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, res.Applied)
	assert.Equal(t, []int{1}, res.Rejected)
	assert.Equal(t, ir.OutcomeRejected, res.Outcomes[1].Status)
	assert.Equal(t, -1, res.Outcomes[1].ExecOrder)
	assert.Equal(t, []string{"Start", "The rabbit ran.", "The End"}, texts(t, doc))
}

func TestExecute_InvalidSelectionAndEdits(t *testing.T) {
	actions := []ir.Action{{Loc: "0.p0", Op: ir.Delete{}}}

	tests := []struct {
		name  string
		batch Batch
	}{
		{"selected out of range", Batch{Actions: actions, Selected: []int{1}}},
		{"edit out of range", Batch{Actions: actions, Edits: map[int]string{3: "x"}}},
		{"edit without text", Batch{Actions: actions, Edits: map[int]string{0: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := threeParagraphs()
			res, err := newTestEngine(doc).Execute(context.Background(), tt.batch)
			require.Error(t, err)
			assert.Equal(t, ir.ErrCodeInvalidAction, ir.CodeOf(err))
			assert.Equal(t, ir.BatchFailed, res.Status)
			assert.Len(t, texts(t, doc), 3)
		})
	}
}

func TestExecute_Quota(t *testing.T) {
	doc := threeParagraphs()
	e := newTestEngine(doc, WithMaxActions(1))

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "0.p0", Op: ir.Delete{}},
		{Loc: "1.p1", Op: ir.Delete{}},
	}})
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
	assert.Equal(t, ir.BatchFailed, res.Status)
	assert.Len(t, texts(t, doc), 3)

	// Only selected actions count against the quota.
	res, err = e.Execute(context.Background(), Batch{
		Actions:  []ir.Action{{Loc: "0.p0", Op: ir.Delete{}}, {Loc: "1.p1", Op: ir.Delete{}}},
		Selected: []int{1},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Applied)
}

func TestExecute_TrackingScope(t *testing.T) {
	ctx := context.Background()

	t.Run("enabled for the batch and restored", func(t *testing.T) {
		doc := threeParagraphs()
		_, err := newTestEngine(doc).Execute(ctx, Batch{Actions: []ir.Action{
			{Loc: "1.p1", Op: ir.Replace{NewText: "x"}},
		}})
		require.NoError(t, err)

		mode, err := doc.TrackingMode(ctx)
		require.NoError(t, err)
		assert.Equal(t, host.TrackingOff, mode)
		assert.NotEmpty(t, doc.Revisions())
	})

	t.Run("prior mode kept when already on", func(t *testing.T) {
		doc := threeParagraphs()
		require.NoError(t, doc.SetTrackingMode(ctx, host.TrackingAll))
		_, err := newTestEngine(doc).Execute(ctx, Batch{Actions: []ir.Action{
			{Loc: "1.p1", Op: ir.Delete{}},
		}})
		require.NoError(t, err)

		mode, err := doc.TrackingMode(ctx)
		require.NoError(t, err)
		assert.Equal(t, host.TrackingAll, mode)
	})

	t.Run("restored after per-action failures", func(t *testing.T) {
		doc := threeParagraphs()
		_, err := newTestEngine(doc).Execute(ctx, Batch{Actions: []ir.Action{
			{Loc: "7.p7", Op: ir.Delete{}},
		}})
		require.NoError(t, err)

		mode, err := doc.TrackingMode(ctx)
		require.NoError(t, err)
		assert.Equal(t, host.TrackingOff, mode)
	})

	t.Run("disabled", func(t *testing.T) {
		doc := threeParagraphs()
		_, err := newTestEngine(doc, WithTracking(false)).Execute(ctx, Batch{Actions: []ir.Action{
			{Loc: "1.p1", Op: ir.Replace{NewText: "x"}},
		}})
		require.NoError(t, err)
		assert.Empty(t, doc.Revisions())
	})
}

// flakyHost wraps a memdoc document, failing chosen calls and recording
// tracking mode changes.
type flakyHost struct {
	*memdoc.Document

	mu         sync.Mutex
	failInsert int // InsertText call number (1-based) that loses the host
	inserts    int
	onInsert   func()
	modes      []host.TrackingMode
}

func (h *flakyHost) InsertText(ctx context.Context, r host.Range, text string, loc host.InsertLocation) error {
	h.mu.Lock()
	h.inserts++
	n := h.inserts
	hook := h.onInsert
	h.mu.Unlock()

	if hook != nil {
		hook()
	}
	if n == h.failInsert {
		return fmt.Errorf("flaky: %w", host.ErrHostUnavailable)
	}
	return h.Document.InsertText(ctx, r, text, loc)
}

func (h *flakyHost) SetTrackingMode(ctx context.Context, mode host.TrackingMode) error {
	h.mu.Lock()
	h.modes = append(h.modes, mode)
	h.mu.Unlock()
	return h.Document.SetTrackingMode(ctx, mode)
}

func TestExecute_HostUnavailableMidBatch(t *testing.T) {
	h := &flakyHost{Document: threeParagraphs(), failInsert: 2}
	e := newTestEngine(h)

	res, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
		{Loc: "0.p0", Op: ir.Append{NewText: "a"}},
		{Loc: "1.p1", Op: ir.Append{NewText: "b"}},
		{Loc: "2.p2", Op: ir.Append{NewText: "c"}},
	}})
	require.Error(t, err)
	assert.True(t, ir.IsHostUnavailable(err))
	assert.Equal(t, ir.BatchFailed, res.Status)

	// Order is 2, 1, 0: index 2 applied, index 1 lost the host, index 0 never ran.
	assert.Equal(t, []int{2}, res.Applied)
	assert.Equal(t, []int{1}, res.Failed)
	assert.Equal(t, ir.ErrCodeHostUnavailable, res.Outcomes[1].ErrorCode)
	assert.Equal(t, ir.OutcomeSkipped, res.Outcomes[0].Status)
	assert.Equal(t, []string{"Intro", "The rabbit ran.", "Endc"}, texts(t, h))

	assert.Equal(t, []host.TrackingMode{host.TrackingAll, host.TrackingOff}, h.modes)
}

func TestExecute_HostUnavailableBeforeStart(t *testing.T) {
	doc := threeParagraphs()
	doc.SetOffline(true)

	res, err := newTestEngine(doc).Execute(context.Background(), Batch{
		Fingerprint: "abc",
		Actions:     []ir.Action{{Loc: "0.p0", Op: ir.Delete{}}},
	})
	require.Error(t, err)
	assert.True(t, ir.IsHostUnavailable(err))
	assert.Equal(t, ir.BatchFailed, res.Status)
}

func TestExecute_IgnoresCancellationOnceStarted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := &flakyHost{Document: threeParagraphs(), onInsert: cancel}
	res, err := newTestEngine(h).Execute(ctx, Batch{Actions: []ir.Action{
		{Loc: "0.p0", Op: ir.Append{NewText: "a"}},
		{Loc: "1.p1", Op: ir.Append{NewText: "b"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.Applied)
	assert.Equal(t, []string{"Introa", "The rabbit ran.b", "End"}, texts(t, h))
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := threeParagraphs()
	_, err := newTestEngine(doc).Execute(ctx, Batch{Actions: []ir.Action{{Loc: "0.p0", Op: ir.Delete{}}}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, texts(t, doc), 3)
}

func TestExecute_Serialized(t *testing.T) {
	doc := memdoc.New(memdoc.P(""))
	e := New(doc, WithLogger(quietLogger()))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Execute(context.Background(), Batch{Actions: []ir.Action{
				{Loc: "0.p0", Op: ir.Append{NewText: fmt.Sprint(i)}},
			}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	text := texts(t, doc)[0]
	assert.Len(t, text, 8)
	for i := range 8 {
		assert.Equal(t, 1, strings.Count(text, fmt.Sprint(i)))
	}
}

type memRecorder struct {
	records []ir.BatchRecord
}

func (r *memRecorder) RecordBatch(_ context.Context, rec ir.BatchRecord) (int64, error) {
	r.records = append(r.records, rec)
	return int64(len(r.records)), nil
}

func TestExecute_Records(t *testing.T) {
	ctx := context.Background()
	doc := threeParagraphs()
	rec := &memRecorder{}
	e := newTestEngine(doc, WithRecorder(rec))

	actions := []ir.Action{
		{Loc: "1.p1", Op: ir.Replace{NewText: "x"}},
		{Loc: "8.p8", Op: ir.Delete{}},
	}
	_, err := e.Execute(ctx, Batch{Actions: actions})
	require.NoError(t, err)

	_, err = e.Execute(ctx, Batch{Actions: actions, Fingerprint: "stale"})
	require.Error(t, err)

	require.Len(t, rec.records, 2)

	first := rec.records[0]
	assert.Equal(t, "run-1", first.ID)
	assert.Equal(t, ir.MustBatchHash(actions), first.BatchHash)
	assert.Equal(t, ir.BatchPartial, first.Status)
	require.Len(t, first.Outcomes, 2)
	assert.Equal(t, ir.OutcomeApplied, first.Outcomes[0].Status)
	assert.Equal(t, 1, first.Outcomes[0].ExecOrder)
	assert.Equal(t, ir.OutcomeFailed, first.Outcomes[1].Status)
	assert.Equal(t, 0, first.Outcomes[1].ExecOrder)

	second := rec.records[1]
	assert.Equal(t, "run-2", second.ID)
	assert.Equal(t, ir.BatchStale, second.Status)
	assert.Equal(t, "stale", second.Fingerprint)
	assert.Contains(t, second.Error, "STALE_DOCUMENT")
}

func TestSnapshot_AgreesWithIndex(t *testing.T) {
	ctx := context.Background()
	doc := memdoc.New(memdoc.P("a"), memdoc.T([]string{"b"}))

	snap, err := newTestEngine(doc).Snapshot(ctx)
	require.NoError(t, err)
	built, err := index.Build(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, built.Fingerprint(), snap.Fingerprint())
}
