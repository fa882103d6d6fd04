package engine

import (
	"errors"

	"github.com/roach88/redline/internal/host"
	"github.com/roach88/redline/internal/ir"
)

func asIRError(err error) (*ir.Error, bool) {
	var e *ir.Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// hostError converts a host transport failure into a HOST_UNAVAILABLE
// error. Other errors pass through unchanged.
func hostError(err error) error {
	if errors.Is(err, host.ErrHostUnavailable) && ir.CodeOf(err) == "" {
		return ir.NewHostUnavailable(err)
	}
	return err
}

// unsupportedError converts a host refusal into an UNSUPPORTED error
// against loc. Other errors pass through unchanged.
func unsupportedError(loc string, err error) error {
	if !errors.Is(err, host.ErrUnsupported) || ir.CodeOf(err) != "" {
		return err
	}
	e := ir.NewUnsupported(loc, err.Error())
	e.Err = err
	return e
}
