package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnakata/islandhop/internal/pipeline"
	"github.com/mnakata/islandhop/internal/worker"
)

var (
	concurrency  int
	batchRate    float64
	batchOutput  string
	batchTimeout time.Duration
)

// batchCmd answers a file of questions in parallel
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Answer multiple questions from a file in parallel",
	Long: `Batch processes questions concurrently:
- Read questions from the input file (one per line, # comments skipped)
- Each question runs in its own session through the worker pool
- Optionally write the full responses as JSON lines

Example:
  islandhop batch questions.txt
  islandhop batch questions.txt --concurrency 8 --output answers.jsonl
  islandhop batch questions.txt --rate 1 --llm-provider ollama`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	registerCommonFlags(batchCmd)
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().Float64Var(&batchRate, "rate", 0, "max queries per second, 0 disables throttling")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write full responses as JSON lines to this file")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyCommonFlags(cmd, cfg); err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	queries, err := readQueries(args[0])
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("no questions found in %s", args[0])
	}

	logger, err := newLogger(false)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Processing %d questions with %d workers\n",
		len(queries), cfg.Concurrency.Workers)

	p := pipeline.NewPipeline(cfg, logger)
	pool := worker.NewPool(cfg.Concurrency.Workers, cfg.Concurrency.QueueSize)
	pool.Start()

	var limiter *worker.Limiter
	if batchRate > 0 {
		limiter = worker.NewLimiter(batchRate, 1)
	}

	go func() {
		<-ctx.Done()
		if ctx.Err() == context.DeadlineExceeded {
			pool.Shutdown()
		}
	}()

	for i, q := range queries {
		if limiter != nil {
			if err := limiter.Wait(ctx, "pipeline"); err != nil {
				break
			}
		}
		pool.Submit(&worker.QueryJob{Pipe: p, Query: q, Index: i})
	}
	results := pool.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].(*worker.QueryResult).Index < results[j].(*worker.QueryResult).Index
	})

	var out *json.Encoder
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = json.NewEncoder(f)
	}

	success, failures := 0, 0
	for _, res := range results {
		qr := res.(*worker.QueryResult)
		if err := qr.GetError(); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", qr.Query, err)
			continue
		}
		success++
		fmt.Fprintf(os.Stderr, "✓ %s (accuracy %.0f%%, %s)\n",
			qr.Query, qr.Response.Accuracy*100, qr.Response.Quality.Label)
		if out != nil {
			if err := out.Encode(qr.Response); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
	}

	fmt.Fprintf(os.Stderr, "\nDone: %d answered, %d failed out of %d\n",
		success, failures, len(queries))

	snap := p.Metrics().Snapshot()
	fmt.Fprintf(os.Stderr, "Average: %s per query, %.0f%% accuracy\n",
		snap.AvgElapsed.Round(time.Millisecond), snap.AvgAccuracy*100)

	return nil
}

// readQueries loads one question per line, skipping blanks and comments
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	return queries, nil
}
