package cmd

import (
	"fmt"
	"strings"

	"github.com/psantana5/intcheck/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "intcheck",
	Short: "Integer math liveness demo",
	Long: `intcheck runs integer math worker tasks and a monitor that checks, on a
recurring timer or on demand, that every worker is still producing correct
results.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

// overrides maps viper keys to the persistent flags that set them
var overrides = []struct {
	key, flag, usage string
	kind             string
}{
	{"workers", "workers", "number of integer math tasks", "int"},
	{"monitor.period", "period", "status check timer period, e.g. 2s", "string"},
	{"monitor.poll_interval", "poll-interval", "how often the monitor looks for check requests", "string"},
	{"worker.interval", "worker-interval", "pause between calculations (0s for a tight loop)", "string"},
	{"worker.cooperative", "cooperative", "yield between the two halves of each calculation", "bool"},
	{"worker.fault_after", "fault-after", "corrupt this calculation of worker 0 (0 disables)", "uint64"},
	{"http.listen", "listen", "address for the operator HTTP endpoint (empty disables)", "string"},
	{"log.level", "log-level", "log level: debug, info, warn, error", "string"},
	{"log.json", "log-json", "log in JSON", "bool"},
	{"log.file", "log-file", "also write logs to this file", "string"},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML)")
	flags.StringVarP(&outputFormat, "output", "o", "table", "output format: table or json")

	for _, o := range overrides {
		switch o.kind {
		case "int":
			flags.Int(o.flag, 0, o.usage)
		case "uint64":
			flags.Uint64(o.flag, 0, o.usage)
		case "bool":
			flags.Bool(o.flag, false, o.usage)
		default:
			flags.String(o.flag, "", o.usage)
		}
		viper.BindPFlag(o.key, flags.Lookup(o.flag))
	}
}

// initConfig enables INTCHECK_* environment variables
func initConfig() {
	viper.SetEnvPrefix("intcheck")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = viper.GetString("config")
	}
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then environment variables and flags.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	setString := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}

	if viper.IsSet("workers") {
		cfg.Workers = viper.GetInt("workers")
	}
	if viper.IsSet("worker.cooperative") {
		cfg.Worker.Cooperative = viper.GetBool("worker.cooperative")
	}
	if viper.IsSet("worker.fault_after") {
		cfg.Worker.FaultAfter = viper.GetUint64("worker.fault_after")
	}
	if viper.IsSet("log.json") {
		cfg.Log.JSON = viper.GetBool("log.json")
	}
	setString("monitor.period", &cfg.Monitor.Period)
	setString("monitor.poll_interval", &cfg.Monitor.PollInterval)
	setString("worker.interval", &cfg.Worker.Interval)
	setString("http.listen", &cfg.HTTP.Listen)
	setString("log.level", &cfg.Log.Level)
	setString("log.file", &cfg.Log.File)
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}
