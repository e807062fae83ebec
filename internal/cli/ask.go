package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnakata/islandhop/internal/pipeline"
)

var (
	askSession string
	askJSON    bool
	askTimeout time.Duration
)

// askCmd answers a single question on the command line
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one ferry question",
	Long: `Run a single question through the pipeline and print the answer.

Example:
  islandhop ask "15:30到高松机场，还能去直岛吗？"
  islandhop ask --session trip "直岛和丰岛哪个方便？"
  islandhop ask --llm-provider none "高松到小豆岛多少钱？"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	registerCommonFlags(askCmd)
	askCmd.Flags().StringVar(&askSession, "session", "", "session ID for multi-turn context")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response as JSON")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall query timeout")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyCommonFlags(cmd, cfg); err != nil {
		return err
	}

	logger, err := newLogger(false)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg, logger)
	resp := p.ProcessQuery(ctx, args[0], askSession)

	if askJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println(resp.Answer)
	fmt.Fprintf(os.Stderr, "\n[%s] accuracy %.0f%% | quality %s | sources %d | %s\n",
		resp.Requirement.Category,
		resp.Accuracy*100,
		resp.Quality.Label,
		resp.Sources.Total,
		resp.Elapsed.Round(time.Millisecond),
	)
	return nil
}
