package services

import "errors"

// Commit failure taxonomy. A ledger failure aborts the whole commit and the
// card is restored; a save failure happens after the swipe record already
// exists, so the location stays suppressed even though it was not saved.
var (
	ErrLedgerWrite = errors.New("swipe record write failed")
	ErrSaveWrite   = errors.New("saved location write failed")
)
