package content

import "fmt"

// FetchError reports a failed metadata fetch: network error, timeout, or a
// non-2xx response. The pipeline treats it as recoverable and proceeds with
// empty metadata.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
