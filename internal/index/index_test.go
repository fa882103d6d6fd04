package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/redline/internal/host"
	"github.com/roach88/redline/internal/memdoc"
)

func TestBuild_Keys(t *testing.T) {
	doc := memdoc.New(
		memdoc.P("Intro"),
		memdoc.T([]string{"A", "B"}, []string{"C", "D\nD2"}),
		memdoc.P("Middle"),
		memdoc.T([]string{"x"}),
		memdoc.P("End"),
	)

	snap, err := Build(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"0.p0",
		"1.t0.r0.c0.p0",
		"2.t0.r0.c1.p0",
		"3.t0.r1.c0.p0",
		"4.t0.r1.c1.p0",
		"5.t0.r1.c1.p1",
		"6.p6",
		"7.t1.r0.c0.p0",
		"8.p8",
	}, snap.Keys())

	text, ok := snap.Text("5.t0.r1.c1.p1")
	require.True(t, ok)
	assert.Equal(t, "D2", text)
}

func TestBuild_AdjacentTablesAreDistinct(t *testing.T) {
	doc := memdoc.New(
		memdoc.T([]string{"a"}),
		memdoc.T([]string{"b"}),
	)

	snap, err := Build(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"0.t0.r0.c0.p0", "1.t1.r0.c0.p0"}, snap.Keys())
}

func TestBuild_Empty(t *testing.T) {
	snap, err := Build(context.Background(), memdoc.New())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
	assert.Equal(t, "", snap.Render())
}

func TestBuild_Render(t *testing.T) {
	doc := memdoc.New(memdoc.P("Intro"), memdoc.P("The rabbit ran."), memdoc.P("End"))

	snap, err := Build(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "0.p0: Intro\n1.p1: The rabbit ran.\n2.p2: End", snap.Render())
}

func TestBuild_HostUnavailable(t *testing.T) {
	doc := memdoc.New(memdoc.P("a"))
	doc.SetOffline(true)

	_, err := Build(context.Background(), doc)
	assert.ErrorIs(t, err, host.ErrHostUnavailable)
}

func TestIsEmpty(t *testing.T) {
	ctx := context.Background()

	empty, err := IsEmpty(ctx, memdoc.New())
	require.NoError(t, err)
	assert.True(t, empty)

	empty, err = IsEmpty(ctx, memdoc.New(memdoc.P("  "), memdoc.T([]string{"\t"})))
	require.NoError(t, err)
	assert.True(t, empty)

	empty, err = IsEmpty(ctx, memdoc.New(memdoc.P(""), memdoc.P("x")))
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestCurrent_EmptyDocument(t *testing.T) {
	ctx := context.Background()
	blank, err := Current(ctx, memdoc.New(memdoc.P(" ")))
	require.NoError(t, err)
	none, err := Current(ctx, memdoc.New())
	require.NoError(t, err)

	assert.Equal(t, 0, blank.Len())
	assert.Equal(t, none.Fingerprint(), blank.Fingerprint())
}

func TestFingerprint(t *testing.T) {
	ctx := context.Background()
	doc := memdoc.New(memdoc.P("Intro"), memdoc.P("Body"))

	snap, err := Build(ctx, doc)
	require.NoError(t, err)
	fp := snap.Fingerprint()
	assert.Equal(t, fp, snap.Fingerprint(), "fingerprint must be deterministic")
	assert.Len(t, fp, 64)

	again, err := Build(ctx, doc)
	require.NoError(t, err)
	assert.False(t, CheckStale(fp, again))

	paras, err := doc.Paragraphs(ctx)
	require.NoError(t, err)
	require.NoError(t, doc.InsertText(ctx, host.ParagraphRange(paras[0].ID), "!", host.InsertEnd))

	changed, err := Build(ctx, doc)
	require.NoError(t, err)
	assert.NotEqual(t, fp, changed.Fingerprint())
	assert.True(t, CheckStale(fp, changed))
}

func TestFingerprint_StructuralChange(t *testing.T) {
	ctx := context.Background()

	// Same texts, different structure.
	flat, err := Build(ctx, memdoc.New(memdoc.P("a"), memdoc.P("b")))
	require.NoError(t, err)
	cells, err := Build(ctx, memdoc.New(memdoc.T([]string{"a", "b"})))
	require.NoError(t, err)

	assert.NotEqual(t, flat.Fingerprint(), cells.Fingerprint())
}
