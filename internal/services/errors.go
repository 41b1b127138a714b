package services

import (
	"retailpulse/internal/analytics"
	apierrors "retailpulse/internal/errors"
)

// Service errors. They carry their HTTP status, so handlers pass them
// straight to the error handler.
var (
	ErrNoDataset       = apierrors.ErrNoDataset
	ErrAnalysisRunning = apierrors.ErrAnalysisRunning
	ErrNoResult        = apierrors.ErrNoResult

	// ErrUnknownTable is returned for a table id with no definition.
	ErrUnknownTable = analytics.ErrUnknownTable
)
