package importer

import "errors"

var (
	// ErrAlreadyRunning indicates another import holds the progress row.
	ErrAlreadyRunning = errors.New("an import is already in progress")

	// ErrNoPosts indicates a run was requested with nothing selected.
	ErrNoPosts = errors.New("no posts to import")
)
