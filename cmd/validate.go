package cmd

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/framesync/framesync/internal/trigger"
)

// knownTables are the configuration tables the engine reads.
var knownTables = map[string]bool{
	"server":    true,
	"source":    true,
	"stream":    true,
	"buffer":    true,
	"queue":     true,
	"trigger":   true,
	"recording": true,
	"bus":       true,
	"auth":      true,
	"logging":   true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// CreateValidateCmd creates the validate-config command. It parses a
// config file and reports structural problems without starting the
// engine.
func CreateValidateCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate-config [config-file]",
		Short: "Validate a configuration file",
		Long:  `Parses the given TOML configuration file and reports unknown tables, bad logging levels and out-of-range engine settings.`,
		Args:  cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			path := "config.toml"
			if len(args) == 1 {
				path = args[0]
			}

			problems := validateConfigFile(path)
			if !quiet {
				for _, p := range problems {
					fmt.Fprintln(os.Stderr, "config:", p)
				}
			}
			if len(problems) > 0 {
				fmt.Fprintf(os.Stderr, "%s: %d problem(s)\n", path, len(problems))
				os.Exit(1)
			}
			if !quiet {
				fmt.Printf("%s: ok\n", path)
			}
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress individual problem output")
	return cmd
}

func validateConfigFile(path string) []string {
	var problems []string

	data, err := os.ReadFile(path)
	if err != nil {
		return []string{err.Error()}
	}

	var config map[string]any
	if err := toml.Unmarshal(data, &config); err != nil {
		return []string{fmt.Sprintf("parse error: %v", err)}
	}

	for table := range config {
		if !knownTables[table] {
			problems = append(problems, fmt.Sprintf("unknown table %q", table))
		}
	}

	if logging, ok := config["logging"].(map[string]any); ok {
		for key, value := range logging {
			if key == "format" {
				if s, _ := value.(string); s != "text" && s != "json" {
					problems = append(problems, fmt.Sprintf("logging.format: unknown format %q", s))
				}
				continue
			}
			if s, ok := value.(string); ok && !validLogLevels[s] {
				problems = append(problems, fmt.Sprintf("logging.%s: unknown level %q", key, s))
			}
		}
	}

	if buffer, ok := config["buffer"].(map[string]any); ok {
		if v, ok := numeric(buffer["max_frames"]); ok && v <= 0 {
			problems = append(problems, "buffer.max_frames must be positive")
		}
		if v, ok := numeric(buffer["max_age_seconds"]); ok && v <= 0 {
			problems = append(problems, "buffer.max_age_seconds must be positive")
		}
	}

	if queue, ok := config["queue"].(map[string]any); ok {
		if v, ok := numeric(queue["capacity"]); ok && v <= 0 {
			problems = append(problems, "queue.capacity must be positive")
		}
	}

	if trig, ok := config["trigger"].(map[string]any); ok {
		if s, ok := trig["mode"].(string); ok {
			if s != string(trigger.ModeEdge) && s != string(trigger.ModeLevel) {
				problems = append(problems, fmt.Sprintf("trigger.mode: unknown mode %q", s))
			}
		}
	}

	if stream, ok := config["stream"].(map[string]any); ok {
		if v, ok := numeric(stream["nominal_rate"]); ok && v < 0 {
			problems = append(problems, "stream.nominal_rate must not be negative")
		}
	}

	return problems
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
