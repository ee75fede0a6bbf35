// Package progress is the narrow view of a progress bar that directory passes
// report through. The CLI supplies a schollz/progressbar bar; library callers
// and tests that do not care pass nil.
package progress

// Reporter receives one Add call per processed item.
type Reporter interface {
	Add(n int) error
}

type nop struct{}

func (nop) Add(int) error { return nil }

// OrNop returns r, or a Reporter that discards updates when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return nop{}
	}
	return r
}
