package report

import "errors"

var (
	// ErrValidation marks structurally invalid data returned by an external capability.
	ErrValidation = errors.New("invalid inference payload")

	// ErrAssetFetch indicates a photo binary could not be retrieved.
	ErrAssetFetch = errors.New("asset fetch failed")

	// ErrPipelineAbort is a failed precondition, e.g. no notes at export time.
	ErrPipelineAbort = errors.New("pipeline aborted")

	// ErrExportInProgress rejects a second concurrent export for one session.
	ErrExportInProgress = errors.New("export already in progress")

	ErrSessionNotFound = errors.New("session not found")
)
