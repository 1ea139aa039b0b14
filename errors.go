package glyphart

import (
	"errors"
	"fmt"
)

// ErrNoContent is returned by Exporter.Document when there is nothing to export.
// Pipeline.Export treats it as a no-op.
var ErrNoContent = errors.New("glyphart: nothing rendered to export")

// ErrSuperseded is returned by Pipeline.Convert when a newer conversion was
// started before this one finished.
var ErrSuperseded = errors.New("glyphart: conversion superseded by a newer one")

// InvalidImageError reports a source image that cannot be turned into a grid.
type InvalidImageError struct {
	Reason string
	Err    error
}

func (e *InvalidImageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid image: %s: %v", e.Reason, e.Err)
	}
	return "invalid image: " + e.Reason
}

func (e *InvalidImageError) Unwrap() error {
	return e.Err
}

// EmptyPaletteError is returned when a palette has no glyphs.
type EmptyPaletteError struct{}

func (e *EmptyPaletteError) Error() string {
	return "palette must contain at least one glyph"
}

// IsInvalidImage checks if an error is an InvalidImageError
func IsInvalidImage(err error) bool {
	var imgErr *InvalidImageError
	return errors.As(err, &imgErr)
}

// IsEmptyPalette checks if an error is an EmptyPaletteError
func IsEmptyPalette(err error) bool {
	var palErr *EmptyPaletteError
	return errors.As(err, &palErr)
}
