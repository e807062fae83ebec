package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mnakata/islandhop/internal/model"
)

var (
	cfgFile string
	verbose bool

	// Shared overrides, bound per command
	llmProvider string
	llmModel    string
	dataDir     string
	noCache     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "islandhop",
	Short: "Islandhop - ferry travel Q&A for the Seto Inland Sea",
	Long: `Islandhop answers natural-language questions about ferry connections
between Takamatsu and the Setouchi art islands (Naoshima, Teshima,
Shodoshima and others).

Every answer is grounded in structured timetable data and checked
claim by claim; when data is missing the assistant says so instead
of inventing departures, fares or operators.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("islandhop v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.islandhop/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig locates the config file and wires ISLANDHOP_* env vars
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".islandhop"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("ISLANDHOP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if file := viper.ConfigFileUsed(); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("vector.base_url"); v != "" {
		cfg.Vector.BaseURL = v
	}
	cfg.Verbose = verbose

	return cfg, nil
}

// applyCommonFlags folds the shared command flags into the config
func applyCommonFlags(cmd *cobra.Command, cfg *model.Config) error {
	if cmd.Flags().Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.Data = model.DataConfig{
			RoutesFile:    filepath.Join(dataDir, "routes.csv"),
			PortsFile:     filepath.Join(dataDir, "ports.csv"),
			CompaniesFile: filepath.Join(dataDir, "companies.csv"),
		}
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set (use --llm-provider none for fallback-only mode)")
		}
	case "ollama":
		if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
			cfg.LLM.BaseURL = base
		}
	}
	return nil
}

func registerCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama, none)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory holding routes.csv, ports.csv, companies.csv")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")
}

// newLogger builds the process logger. Serve mode logs JSON; everything
// else gets the console encoder.
func newLogger(json bool) (*zap.Logger, error) {
	var cfg zap.Config
	if json {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}
