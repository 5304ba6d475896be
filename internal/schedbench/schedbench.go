/*
Package schedbench is a small internal helper for summarizing repeated
Launch timings, used by the scheduler's own benchmarks to report a
mean and standard deviation instead of a single noisy sample.
*/
package schedbench

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Summary is the mean and standard deviation of a set of elapsed
// durations, computed by gonum/stat over their float64-seconds form.
type Summary struct {
	Mean   time.Duration
	StdDev time.Duration
	N      int
}

// Summarize reduces a set of Launch timings to a Summary. It panics if
// samples is empty.
func Summarize(samples []time.Duration) Summary {
	if len(samples) == 0 {
		panic("schedbench: Summarize called with no samples")
	}
	seconds := make([]float64, len(samples))
	for i, d := range samples {
		seconds[i] = d.Seconds()
	}
	mean := stat.Mean(seconds, nil)
	stdDev := stat.StdDev(seconds, nil)
	return Summary{
		Mean:   time.Duration(mean * float64(time.Second)),
		StdDev: time.Duration(stdDev * float64(time.Second)),
		N:      len(samples),
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d mean=%s stddev=%s", s.N, s.Mean, s.StdDev)
}

// Run invokes launch n times, collecting each call's reported elapsed
// time via a fresh xtime.Stopwatch-compatible duration, and returns
// their Summary. launch is responsible for actually calling
// Scheduler.Launch and returning the elapsed time it reports.
func Run(n int, launch func() (time.Duration, error)) (Summary, error) {
	samples := make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		d, err := launch()
		if err != nil {
			return Summary{}, err
		}
		samples = append(samples, d)
	}
	return Summarize(samples), nil
}
