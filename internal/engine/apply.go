package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/redline/internal/host"
	"github.com/roach88/redline/internal/ir"
	"github.com/roach88/redline/internal/resolve"
)

// apply validates, resolves and dispatches one action. Errors are prefixed
// with the action tag.
func (e *Engine) apply(ctx context.Context, log *slog.Logger, a ir.Action) error {
	if err := e.dispatch(ctx, log, a); err != nil {
		return fmt.Errorf("%s: %w", a.Kind(), unsupportedError(a.Loc, err))
	}
	return nil
}

func (e *Engine) dispatch(ctx context.Context, log *slog.Logger, a ir.Action) error {
	if err := a.Validate(); err != nil {
		return err
	}

	if a.Comment != "" && a.Loc != "" {
		if err := e.comment(ctx, a); err != nil {
			return fmt.Errorf("comment: %w", err)
		}
	}

	switch op := a.Op.(type) {
	case ir.None:
		return nil

	case ir.Replace:
		return e.insertText(ctx, log, a, op.Within, op.NewText, host.InsertReplace)
	case ir.Append:
		return e.insertText(ctx, log, a, op.Within, op.NewText, host.InsertEnd)
	case ir.Prepend:
		return e.insertText(ctx, log, a, op.Within, op.NewText, host.InsertStart)

	case ir.Delete:
		t, err := e.resolve(ctx, log, a, op.Within)
		if err != nil {
			return err
		}
		return e.host.Delete(ctx, t.Range)

	case ir.Highlight:
		return e.setStyle(ctx, log, a, op.Within, host.StyleHighlight)
	case ir.FormatBold:
		return e.setStyle(ctx, log, a, op.Within, host.StyleBold)
	case ir.FormatItalic:
		return e.setStyle(ctx, log, a, op.Within, host.StyleItalic)
	case ir.Strikethrough:
		return e.setStyle(ctx, log, a, op.Within, host.StyleStrikethrough)

	case ir.DeleteRow:
		t, err := e.resolveKind(ctx, log, a, ir.KeyTableRow)
		if err != nil {
			return err
		}
		return e.host.DeleteRow(ctx, t.Range.Row)

	case ir.InsertRow:
		t, err := e.resolveKind(ctx, log, a, ir.KeyTableRow)
		if err != nil {
			return err
		}
		return e.host.InsertRowsAfter(ctx, t.Range.Row, op.RowData)

	case ir.CreateTable:
		t, err := e.resolveKind(ctx, log, a, ir.KeyParagraph)
		if err != nil {
			return err
		}
		_, err = e.host.InsertTableAfter(ctx, t.Range.Paragraph, op.RowCount, op.ColumnCount, op.Values)
		return err

	case ir.DeleteTable:
		t, err := e.resolveKind(ctx, log, a, ir.KeyTable)
		if err != nil {
			return err
		}
		return e.host.DeleteTable(ctx, t.Range.Table)
	}

	return ir.NewInvalidAction(fmt.Sprintf("unhandled action %T", a.Op), nil)
}

// comment resolves the action's target on its own and attaches the comment.
func (e *Engine) comment(ctx context.Context, a ir.Action) error {
	t, err := resolve.Resolve(ctx, e.host, a.Loc, a.Within())
	if err != nil {
		return err
	}
	return e.host.InsertComment(ctx, t.Range, a.Comment)
}

func (e *Engine) resolve(ctx context.Context, log *slog.Logger, a ir.Action, within *ir.WithinPara) (resolve.Target, error) {
	t, err := resolve.Resolve(ctx, e.host, a.Loc, within)
	if err != nil {
		return resolve.Target{}, err
	}
	log.Debug("resolved",
		"action", a.Kind(),
		"loc", a.Loc,
		"range", t.Range.Kind,
	)
	return t, nil
}

// resolveKind resolves a location that must use one specific grammar.
func (e *Engine) resolveKind(ctx context.Context, log *slog.Logger, a ir.Action, want ir.KeyKind) (resolve.Target, error) {
	t, err := e.resolve(ctx, log, a, nil)
	if err != nil {
		return resolve.Target{}, err
	}
	if t.Key.Kind != want {
		return resolve.Target{}, ir.NewWrongKind(a.Loc, want)
	}
	return t, nil
}

func (e *Engine) insertText(ctx context.Context, log *slog.Logger, a ir.Action, within *ir.WithinPara, text string, at host.InsertLocation) error {
	t, err := e.resolve(ctx, log, a, within)
	if err != nil {
		return err
	}
	if k := t.Range.Kind; k != host.RangeParagraph && k != host.RangeSpan {
		return ir.NewUnsupported(a.Loc, fmt.Sprintf("cannot insert text into a %s", k))
	}
	return e.host.InsertText(ctx, t.Range, text, at)
}

func (e *Engine) setStyle(ctx context.Context, log *slog.Logger, a ir.Action, within *ir.WithinPara, style host.Style) error {
	t, err := e.resolve(ctx, log, a, within)
	if err != nil {
		return err
	}
	color := ""
	if style == host.StyleHighlight {
		color = e.highlightColor
	}
	return e.host.SetStyle(ctx, t.Range, style, color)
}
