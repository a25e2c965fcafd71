package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/alloc/instrument"
	"github.com/joshuapare/memkit/mem/policy"
	"github.com/joshuapare/memkit/mem/vec"
)

var (
	stressCount   int
	stressStep    int
	stressPolicy  string
	stressMetrics bool
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressCount, "count", "n", 1<<16, "Number of elements to push")
	cmd.Flags().IntVar(&stressStep, "step", 4096, "Elements reserved each time the sequence is full (1 grows one slot at a time)")
	cmd.Flags().StringVar(&stressPolicy, "policy", "continue", "Failure policy: abort or continue")
	cmd.Flags().BoolVar(&stressMetrics, "dump-metrics", false, "Print allocator metrics in Prometheus text format")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Push into a sequence until it is full or allocation fails",
		Long: `The stress command pushes 64-bit integers into a growable sequence backed
by the configured allocator. When an allocation fails the failure is handed to
the chosen policy: abort terminates the process, continue reports the rejected
element and the sequence state.

Example:
  memctl stress --count 100000
  memctl stress --alloc.limit 1MB --count 1000000
  memctl stress --alloc.backend bump --alloc.arena-size 4MB --policy abort
  memctl stress --alloc.metrics --dump-metrics --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

// StressResult is the outcome of a stress run.
type StressResult struct {
	Backend  string            `json:"backend"`
	Pushed   int               `json:"pushed"`
	Capacity int               `json:"capacity"`
	Bytes    uint64            `json:"bytes"`
	Rejected *uint64           `json:"rejected,omitempty"`
	Failure  string            `json:"failure,omitempty"`
	Cause    string            `json:"cause,omitempty"`
	Stats    *instrument.Stats `json:"stats,omitempty"`
}

func runStress() error {
	if stressCount < 0 {
		return fmt.Errorf("--count must not be negative, got %d", stressCount)
	}
	if stressStep < 1 {
		return fmt.Errorf("--step must be at least 1, got %d", stressStep)
	}
	p, err := policy.Parse(stressPolicy, slog.Default())
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	a, closeFn, err := cfg.Build(reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			slog.Warn("failed to release allocator", "err", err)
		}
	}()

	printVerbose("Backend: %s, limit: %s\n", cfg.Backend, cfg.Limit)

	res, failure := pushUntilFailure(vec.NewIn[uint64](a), p)
	res.Backend = cfg.Backend
	if ia, ok := a.(*instrument.Allocator); ok {
		st := ia.Stats()
		res.Stats = &st
	}

	if jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		printStressResult(res)
	}

	if stressMetrics {
		if err := dumpMetrics(reg); err != nil {
			return err
		}
	}

	if failure != nil && !policy.IsContinuable(failure) {
		return failure
	}
	return nil
}

// pushUntilFailure fills v with stressCount elements, reserving stressStep
// slots whenever it is full. The first failed push is handed to p.
func pushUntilFailure(v *vec.Vec[uint64], p policy.Policy) (StressResult, error) {
	defer v.Free()

	var failure error
	for i := range stressCount {
		if v.Len() == v.Cap() && stressStep > 1 {
			want := min(stressStep, stressCount-i)
			if err := v.TryReserve(want); err != nil {
				// Fall back to single-slot growth below.
				slog.Debug("bulk reservation failed", "want", want, "err", err)
			}
		}
		if err := v.Push(uint64(i)); err != nil {
			failure = p.Handle(err)
			break
		}
	}

	res := StressResult{
		Pushed:   v.Len(),
		Capacity: v.Cap(),
		Bytes:    uint64(v.Cap()) * 8,
	}
	if failure != nil {
		res.Failure = failure.Error()
		res.Cause = failureCause(failure)
		if x, ok := vec.Rejected[uint64](failure); ok {
			res.Rejected = &x
		}
	}
	return res, failure
}

func failureCause(err error) string {
	switch {
	case errors.Is(err, alloc.ErrBudget):
		return "budget exceeded"
	case errors.Is(err, alloc.ErrPointers):
		return "element type holds pointers"
	case errors.Is(err, alloc.ErrLayout):
		return "invalid layout"
	case errors.Is(err, alloc.ErrExhausted):
		return "out of memory"
	default:
		return "unknown"
	}
}

func printStressResult(res StressResult) {
	printInfo("\nStress Result (%s)\n", res.Backend)
	printInfo("%s\n", strings.Repeat("=", 40))
	printInfo("  Pushed:   %s\n", humanize.Comma(int64(res.Pushed)))
	printInfo("  Capacity: %s (%s)\n", humanize.Comma(int64(res.Capacity)), humanize.IBytes(res.Bytes))
	if res.Failure != "" {
		printInfo("\nFailure:\n")
		printInfo("  %s\n", res.Failure)
		if res.Rejected != nil {
			printInfo("  Rejected element: %d\n", *res.Rejected)
		}
		printInfo("  Cause: %s\n", res.Cause)
	}
	if res.Stats != nil {
		printInfo("\nAllocator:\n")
		printInfo("  Allocations:   %s\n", humanize.Comma(int64(res.Stats.Allocations)))
		printInfo("  Deallocations: %s\n", humanize.Comma(int64(res.Stats.Deallocations)))
		printInfo("  Grows:         %s\n", humanize.Comma(int64(res.Stats.Grows)))
		printInfo("  Failures:      %s\n", humanize.Comma(int64(res.Stats.Failures)))
	}
	printInfo("\n")
}

func dumpMetrics(g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(os.Stdout, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}
