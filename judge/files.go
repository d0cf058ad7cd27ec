package judge

// Files is the (input, output, extra...) tuple spec.md's External
// Interfaces section names as "files": input is always the stdin
// source; output is the expected-stdout file for Judge or the
// generate-if-missing cache file for Benchmark; extra are additional
// files staged into the sandbox before the program runs.
type Files struct {
	Input  string
	Output string
	Extra  []string
}
