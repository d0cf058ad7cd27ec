// Package verdict defines the terminal classification of a judged run.
//
// The ten variants here are the core's own data model (spec section 3);
// display text, queueing statuses, and the broader dispatcher-facing
// constant table belong to the top-level judge frontend, out of scope for
// this module.
package verdict

// Verdict is a single-letter classification of a judged submission.
type Verdict string

const (
	// AC: accepted, the program produced matching output within limits.
	AC Verdict = "AC"
	// PE: presentation error, output matches modulo formatting.
	PE Verdict = "PE"
	// WA: wrong answer, output diverges from the expected stream.
	WA Verdict = "WA"
	// CE: compile error, the submission failed to build.
	CE Verdict = "CE"
	// RE: runtime error, the program exited non-zero or died on a signal.
	RE Verdict = "RE"
	// TL: time limit exceeded.
	TL Verdict = "TL"
	// ML: memory limit exceeded.
	ML Verdict = "ML"
	// OL: output limit exceeded.
	OL Verdict = "OL"
	// SE: submission error, an infrastructure problem prevented judging.
	SE Verdict = "SE"
	// RF: restricted function, the program attempted a forbidden syscall.
	RF Verdict = "RF"
)

// Cell is a single-assignment verdict slot: the first call to Set wins,
// matching the "if unset then set" sticky-verdict pattern throughout the
// supervisor's event loop. Upgrade performs the documented exceptions at
// finalization (AC or RE→TL, RE→ML), bypassing stickiness deliberately.
type Cell struct {
	v  Verdict
	ok bool
}

// Set assigns v if no verdict has been set yet. Reports whether it assigned.
func (c *Cell) Set(v Verdict) bool {
	if c.ok {
		return false
	}
	c.v = v
	c.ok = true
	return true
}

// Get returns the current verdict and whether one has been set.
func (c *Cell) Get() (Verdict, bool) {
	return c.v, c.ok
}

// Upgrade forcibly replaces the current verdict, used only for the
// finalization-time rules: AC or RE→TL, and RE→ML.
func (c *Cell) Upgrade(v Verdict) {
	c.v = v
	c.ok = true
}
