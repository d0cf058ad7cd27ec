package main

import "judgecore/runner"

// defaultFamilies is the compiler registry this binary wires up: which
// compiler executable produces which kind of runnable artifact. This is
// wiring, not a language-to-invocation-template lookup table — each
// entry only says how its own compiler's output is named and launched.
func defaultFamilies() map[string]runner.Family {
	binary := runner.Binary{ExecutablePath: "a.out"}
	return map[string]runner.Family{
		"gcc":     binary,
		"g++":     binary,
		"clang":   binary,
		"clang++": binary,
		"python3": runner.Script{Interpreter: []string{"python3"}},
		"python":  runner.Script{Interpreter: []string{"python3"}},
		"sh":      runner.Script{Interpreter: []string{"sh"}},
		"bash":    runner.Script{Interpreter: []string{"bash"}},
	}
}
