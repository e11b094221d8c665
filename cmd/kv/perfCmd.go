package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/kvmsg/cmd/util"
	"github.com/ValentinKolb/kvmsg/rpc/client"
	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/messages"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for kvmsg servers",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfOps              = 1000
	perfSkip             = make([]string, 0)

	perfPercentiles = []float64{0.5, 0.95, 0.99}
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines sending requests concurrently"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Number of requests per goroutine and benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 32, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfOps = max(viper.GetInt("ops"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// benchmark is one named workload. op performs the i-th request of a goroutine.
type benchmark struct {
	name    string
	prepare func(ctx context.Context, keys []string) error
	op      func(ctx context.Context, key string, i int) error
}

// perfResult is the outcome of one benchmark
type perfResult struct {
	name     string
	skipped  bool
	timer    gometrics.Timer
	errors   gometrics.Counter
	duration time.Duration
}

func runPerf(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	value := []byte("test")
	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	fillKeys := func(ctx context.Context, keys []string) error {
		for _, k := range keys {
			if _, err := rpcStore.Set(ctx, []byte(k), value, messages.ExpireNone); err != nil {
				return err
			}
		}
		return nil
	}

	benchmarks := []benchmark{
		{name: "set", op: func(ctx context.Context, key string, _ int) error {
			_, err := rpcStore.Set(ctx, []byte(key), value, messages.ExpireNone)
			return err
		}},
		{name: "set-large", op: func(ctx context.Context, key string, _ int) error {
			_, err := rpcStore.Set(ctx, []byte(key), largeValue, messages.ExpireNone)
			return err
		}},
		{name: "get", prepare: fillKeys, op: func(ctx context.Context, key string, _ int) error {
			_, _, err := rpcStore.Get(ctx, []byte(key))
			return err
		}},
		{name: "get-missing", op: func(ctx context.Context, key string, _ int) error {
			_, _, err := rpcStore.Get(ctx, []byte(key))
			return err
		}},
		{name: "version", prepare: fillKeys, op: func(ctx context.Context, key string, _ int) error {
			_, err := rpcStore.GetVersion(ctx, []byte(key))
			return err
		}},
		{name: "cas", prepare: fillKeys, op: func(ctx context.Context, key string, _ int) error {
			// concurrent writers race on the same keys, losing the race is not an error
			_, version, err := rpcStore.Get(ctx, []byte(key))
			if err != nil {
				return err
			}
			_, _, err = rpcStore.CompareAndSet(ctx, []byte(key), value, version)
			return err
		}},
		{name: "ping", op: func(ctx context.Context, _ string, _ int) error {
			_, err := rpcStore.Ping(ctx, nil)
			return err
		}},
		{name: "mixed", prepare: fillKeys, op: func(ctx context.Context, key string, i int) error {
			var err error
			switch i % 3 {
			case 0:
				_, err = rpcStore.Set(ctx, []byte(key), value, messages.ExpireNone)
			case 1:
				_, _, err = rpcStore.Get(ctx, []byte(key))
			case 2:
				_, err = rpcStore.GetVersion(ctx, []byte(key))
			}
			return err
		}},
	}

	config := getClientConfig()

	fmt.Println("Performance testing tool for kvmsg servers")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d, Requests per thread: %d\n", perfNumThreads, perfOps)
	fmt.Println()
	fmt.Println("starting tests...")

	registry := gometrics.NewRegistry()
	results := make([]perfResult, 0, len(benchmarks))
	for _, b := range benchmarks {
		result, err := runBenchmark(ctx, registry, b)
		if err != nil {
			return fmt.Errorf("benchmark %s: %w", b.name, err)
		}
		results = append(results, result)
		printResult(result)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runBenchmark runs b on perfNumThreads goroutines and records every request in a timer
func runBenchmark(ctx context.Context, registry gometrics.Registry, b benchmark) (perfResult, error) {
	result := perfResult{name: b.name}
	if slices.Contains(perfSkip, b.name) {
		result.skipped = true
		return result, nil
	}

	keys := getKeys(b.name)
	if b.prepare != nil {
		if err := b.prepare(ctx, keys); err != nil {
			return result, err
		}
	}

	result.timer = gometrics.GetOrRegisterTimer(b.name+".latency", registry)
	result.errors = gometrics.GetOrRegisterCounter(b.name+".errors", registry)

	start := time.Now()
	var wg sync.WaitGroup
	for thread := 0; thread < perfNumThreads; thread++ {
		wg.Add(1)
		go func(thread int) {
			defer wg.Done()
			for i := 0; i < perfOps; i++ {
				key := keys[(thread*perfOps+i)%len(keys)]
				opStart := time.Now()
				err := b.op(ctx, key, i)
				result.timer.UpdateSince(opStart)
				if err != nil {
					result.errors.Inc(1)
					client.Logger.Warningf("(%s) - request failed: %v", b.name, err)
				}
			}
		}(thread)
	}
	wg.Wait()
	result.duration = time.Since(start)

	return result, nil
}

// getKeys creates the test keys of a benchmark
func getKeys(prefix string) []string {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}
	return keys
}

// opsPerSec is the throughput of a finished benchmark
func (r perfResult) opsPerSec() float64 {
	if r.duration <= 0 {
		return 0
	}
	return float64(r.timer.Count()) / r.duration.Seconds()
}

// printResult prints the result of a benchmark in a formatted way
func printResult(r perfResult) {
	if r.skipped {
		fmt.Printf("%-15sskipped\n", r.name)
		return
	}

	p := r.timer.Percentiles(perfPercentiles)
	fmt.Printf("%-15smean %-12s p50 %-12s p95 %-12s p99 %-12s %.0f ops/sec\t%d errors\n",
		r.name,
		time.Duration(r.timer.Mean()),
		time.Duration(p[0]),
		time.Duration(p[1]),
		time.Duration(p[2]),
		r.opsPerSec(),
		r.errors.Count(),
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "Skipped", "Requests", "Errors", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "OpsPerSec",
		"Endpoints", "Timeout", "Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range results {
		row := []string{r.name, strconv.FormatBool(r.skipped)}
		if r.skipped {
			row = append(row, "0", "0", "0", "0", "0", "0", "0")
		} else {
			p := r.timer.Percentiles(perfPercentiles)
			row = append(row,
				strconv.FormatInt(r.timer.Count(), 10),
				strconv.FormatInt(r.errors.Count(), 10),
				strconv.FormatFloat(r.timer.Mean(), 'f', 0, 64),
				strconv.FormatFloat(p[0], 'f', 0, 64),
				strconv.FormatFloat(p[1], 'f', 0, 64),
				strconv.FormatFloat(p[2], 'f', 0, 64),
				strconv.FormatFloat(r.opsPerSec(), 'f', 2, 64),
			)
		}
		row = append(row,
			strings.Join(config.Endpoints, ";"),
			config.Timeout.String(),
			config.Serializer,
			config.Transport,
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %v", err)
		}
	}

	return nil
}
