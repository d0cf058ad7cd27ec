// Package judge implements the external interface spec.md names Judge and
// Benchmark: compile a submission once, then run it once or repeatedly
// against one (input, expected-output) case under grace-padded limits,
// grounded on gulag's Judge class.
package judge

import (
	"context"
	"fmt"
	"os"

	"github.com/google/shlex"

	judgeerrors "judgecore/errors"
	"judgecore/label"
	"judgecore/logging"
	"judgecore/runner"
	"judgecore/supervisor"
	"judgecore/verdict"
)

// Config holds the grace factors and absolute ceilings a Judge applies on
// top of a per-submission limit triple, mirroring Judge.__init__'s
// defaults.
type Config struct {
	TimeGraceFactor float64
	RSSGraceFactor  float64
	VMGraceFactor   float64

	// TimeLimit, RSSLimit and VMLimit are optional absolute ceilings no
	// grace-padded limit may exceed, regardless of what the caller asked
	// for.
	TimeLimit *float64
	RSSLimit  *int64
	VMLimit   *int64
}

// DefaultConfig returns gulag's default grace factors (5x time, 5x rss,
// 5x vm) with no absolute ceilings.
func DefaultConfig() Config {
	return Config{TimeGraceFactor: 5.0, RSSGraceFactor: 5, VMGraceFactor: 5}
}

// Judge compiles and runs submissions against a fixed registry of
// compiler families.
type Judge struct {
	sup *supervisor.Supervisor

	base         label.Context
	compileLevel string
	runLevel     string

	families map[string]runner.Family

	cfg Config
}

// New builds a Judge. families maps a compiler's executable name (the
// first shell-split token of a cmdline) to the Family describing how its
// output is named and run — the role gulag's per-language Runner
// subclasses played, generalized to a lookup table instead of a class
// hierarchy since there is exactly one behavioral axis (Binary/Bytecode/
// Script) instead of one per language.
func New(sup *supervisor.Supervisor, base label.Context, compileLevel, runLevel string, families map[string]runner.Family, cfg Config) *Judge {
	return &Judge{
		sup:          sup,
		base:         base,
		compileLevel: compileLevel,
		runLevel:     runLevel,
		families:     families,
		cfg:          cfg,
	}
}

type runResult struct {
	verdict  verdict.Verdict
	exitCode int
	cpuTime  float64
	maxRSS   int64
	maxVM    int64
	ceOutput []byte
}

func (j *Judge) parseArgs(cmdline string) (compiler string, args []string, err error) {
	parts, err := shlex.Split(cmdline)
	if err != nil {
		return "", nil, err
	}
	if len(parts) == 0 {
		return "", nil, judgeerrors.ErrNoProcessArgs
	}
	return parts[0], parts[1:], nil
}

// limitTriple is the per-submission (time, rss, vm) ceiling before grace
// padding is applied.
type limitTriple struct {
	Time *float64
	RSS  *int64
	VM   *int64
}

func minFloat(a, b float64) float64 {
	if b < a {
		return b
	}
	return a
}

func minInt64(a, b int64) int64 {
	if b < a {
		return b
	}
	return a
}

// effectiveLimits applies grace padding to raw, then clamps to the
// judge's absolute ceilings, mirroring Judge._run's limit-adaptation
// block.
func (j *Judge) effectiveLimits(raw *limitTriple) runner.Limits {
	if raw == nil {
		return runner.Limits{TimeSeconds: j.cfg.TimeLimit, RSSPages: j.cfg.RSSLimit, VMPages: j.cfg.VMLimit}
	}

	var out runner.Limits
	if raw.Time != nil {
		t := *raw.Time * j.cfg.TimeGraceFactor
		if j.cfg.TimeLimit != nil {
			t = minFloat(t, *j.cfg.TimeLimit)
		}
		out.TimeSeconds = &t
	}
	if raw.RSS != nil {
		r := int64(float64(*raw.RSS) * j.cfg.RSSGraceFactor)
		if j.cfg.RSSLimit != nil {
			r = minInt64(r, *j.cfg.RSSLimit)
		}
		out.RSSPages = &r
	}
	if raw.VM != nil {
		v := int64(float64(*raw.VM) * j.cfg.VMGraceFactor)
		if j.cfg.VMLimit != nil {
			v = minInt64(v, *j.cfg.VMLimit)
		}
		out.VMPages = &v
	}
	return out
}

// run is the shared compile-then-execute core behind Judge and Benchmark.
func (j *Judge) run(ctx context.Context, cmdline, srcPath string, files Files, raw *limitTriple, times int, filename string) ([]runResult, error) {
	log := logging.WithPath(logging.WithOperation(logging.Default(), "judge.run"), srcPath)

	compiler, args, err := j.parseArgs(cmdline)
	if err != nil {
		log.Warn("malformed compiler command line", "cmdline", cmdline, "error", err)
		return []runResult{{verdict: verdict.SE}}, nil
	}

	fam, ok := j.families[compiler]
	if !ok {
		log.Warn("unknown compiler family", "compiler", compiler)
		return []runResult{{verdict: verdict.SE}}, nil
	}

	sess, err := runner.NewSession(j.sup, j.base, j.compileLevel, j.runLevel, srcPath, filename)
	if err != nil {
		return nil, err
	}
	defer sess.Destroy()

	code, output, err := sess.Compile(compiler, args, fam)
	if err != nil {
		log.Error("compile invocation failed", "error", err)
		return nil, err
	}
	if code != 0 {
		log.Info("compile error", "exit_code", code)
		return []runResult{{verdict: verdict.CE, exitCode: -1, ceOutput: output}}, nil
	}

	for _, f := range files.Extra {
		if err := sess.Stage(f); err != nil {
			return nil, err
		}
	}

	limits := j.effectiveLimits(raw)

	if files.Output != "" {
		if _, err := os.Stat(files.Output); os.IsNotExist(err) {
			genResult, err := j.runOnce(ctx, sess, fam, files.Input, files.Output, true, limits)
			if err != nil {
				return nil, err
			}
			if genResult.verdict != verdict.AC {
				return []runResult{genResult}, nil
			}
		}
	}

	results := make([]runResult, 0, times)
	for i := 0; i < times; i++ {
		r, err := j.runOnce(ctx, sess, fam, files.Input, files.Output, false, limits)
		if err != nil {
			return nil, err
		}
		if r.verdict != verdict.AC {
			return []runResult{r}, nil
		}
		results = append(results, r)
	}

	return results, nil
}

func (j *Judge) runOnce(ctx context.Context, sess *runner.Session, fam runner.Family, inputPath, outputPath string, generate bool, limits runner.Limits) (runResult, error) {
	log := logging.WithOperation(logging.Default(), "judge.runOnce")

	stdin, err := sess.Open(inputPath, os.O_RDONLY, 0)
	if err != nil {
		log.Error("open input failed", "path", inputPath, "error", err)
		return runResult{}, err
	}
	defer stdin.Close()

	var res *supervisor.Result
	if generate {
		out, err := sess.Open(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return runResult{}, err
		}
		defer out.Close()

		runnerRes, err := sess.Run(ctx, fam, stdin, nil, limits)
		if err != nil {
			log.Error("generation run failed", "error", err)
			return runResult{}, err
		}
		_, werr := out.Write(runnerRes.Stdout)
		if werr != nil {
			return runResult{}, werr
		}
		res = runnerRes
	} else {
		expected, err := sess.Open(outputPath, os.O_RDONLY, 0)
		if err != nil {
			return runResult{}, err
		}
		defer expected.Close()

		runnerRes, err := sess.Run(ctx, fam, stdin, expected, limits)
		if err != nil {
			log.Error("run failed", "error", err)
			return runResult{}, err
		}
		res = runnerRes
	}

	cpu := 0.0
	if res.CPUTime != nil {
		cpu = *res.CPUTime
	}
	if res.Verdict != verdict.AC {
		log.Debug("non-accepted run", "verdict", res.Verdict, "exit_code", res.ExitCode)
	}
	return runResult{
		verdict:  res.Verdict,
		exitCode: res.ExitCode,
		cpuTime:  cpu,
		maxRSS:   res.MaxRSS,
		maxVM:    res.MaxVM,
	}, nil
}

// Judge compiles srcPath against cmdline and, on success, runs it once
// with stdin from files.Input, comparing stdout against files.Output
// under the grace-padded (timeLimit, rssLimit, vmLimit) triple. A
// compile failure writes the compiler's combined output to errorFile and
// returns CE.
func (j *Judge) Judge(ctx context.Context, cmdline, srcPath string, files Files, errorFile *os.File, timeLimit float64, rssLimit, vmLimit int64, filename string) (verdict.Verdict, error) {
	raw := &limitTriple{Time: &timeLimit, RSS: &rssLimit, VM: &vmLimit}

	results, err := j.run(ctx, cmdline, srcPath, files, raw, 1, filename)
	if err != nil {
		return verdict.SE, err
	}

	r := results[0]
	if r.verdict == verdict.CE && errorFile != nil {
		if _, err := errorFile.Write(r.ceOutput); err != nil {
			return verdict.CE, err
		}
	}
	return r.verdict, nil
}

// Benchmark compiles srcPath against cmdline and runs it times times,
// generating files.Output if it does not already exist, returning the
// mean cpu time (seconds), resident set size and virtual memory size
// (pages) across the runs. No resource limits are applied beyond the
// Judge's own absolute ceilings, since a benchmark measures true usage.
func (j *Judge) Benchmark(ctx context.Context, cmdline, srcPath string, files Files, times int, filename string) (cpuTime float64, rssPages, vmPages int64, err error) {
	results, err := j.run(ctx, cmdline, srcPath, files, nil, times, filename)
	if err != nil {
		return 0, 0, 0, err
	}

	if len(results) == 0 {
		return 0, 0, 0, fmt.Errorf("judge: benchmark produced no results")
	}
	if results[0].verdict != verdict.AC {
		r := results[0]
		return 0, 0, 0, fmt.Errorf("judge: benchmark run failed with verdict %s (exit %d, cpu %f, rss %d, vm %d)",
			r.verdict, r.exitCode, r.cpuTime, r.maxRSS, r.maxVM)
	}

	var sumCPU float64
	var sumRSS, sumVM int64
	for _, r := range results {
		sumCPU += r.cpuTime
		sumRSS += r.maxRSS
		sumVM += r.maxVM
	}

	n := float64(len(results))
	return sumCPU / n, int64(float64(sumRSS) / n), int64(float64(sumVM) / n), nil
}
