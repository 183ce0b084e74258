package pipeline

import (
	"errors"
	"fmt"

	"github.com/mvolkova/stashbot/app/database"
)

// ErrInvalidURL rejects input that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

// DuplicateError reports that the URL is already saved for this user and
// carries the existing record so callers can show it.
type DuplicateError struct {
	Existing *database.SavedContent
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("url already saved as content %d", e.Existing.ID)
}
