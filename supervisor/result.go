package supervisor

import "judgecore/verdict"

// Result is the outcome of a single Run: the final verdict plus the raw
// resource usage and captured output a caller needs to report it.
type Result struct {
	Verdict  verdict.Verdict
	ExitCode int
	CPUTime  *float64
	MaxRSS   int64 // pages
	MaxVM    int64 // pages
	Stdout   []byte
	Stderr   []byte
}
