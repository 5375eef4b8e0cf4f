// Package cmd holds the auxiliary cobra subcommands attached to the
// engine CLI.
package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/framesync/framesync/internal/logging"
)

// CreateSimulateCmd creates the simulate command. It emits synthetic
// marker lines on stdout at a fixed rate, so an engine instance can be
// pointed at `framesync simulate` as its capture command during
// development.
func CreateSimulateCmd() *cobra.Command {
	var rate float64
	var count uint64
	var start uint64
	var dropEvery uint64
	var jitterMs int
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Emit synthetic marker lines",
		Long: `Writes "(frame_number, capture_time)" marker lines to stdout at the ` +
			`configured rate. Useful as a stand-in capture command when no sensor is attached.`,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{Level: "info", Format: "text"}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("main")

			if rate <= 0 {
				logger.Error("Rate must be positive", "rate", rate)
				os.Exit(1)
			}

			interval := time.Duration(float64(time.Second) / rate)
			logger.Info("Starting marker simulator",
				"rate_hz", rate, "interval", interval, "start", start)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			number := start
			var emitted uint64
			for {
				select {
				case <-sigCh:
					logger.Info("Simulator stopped", "emitted", emitted)
					return
				case <-ticker.C:
					number++
					if dropEvery > 0 && number%dropEvery == 0 {
						continue // leave a gap in the frame numbers
					}
					ts := float64(time.Now().UnixNano()) / float64(time.Second)
					if jitterMs > 0 {
						ts += (rand.Float64() - 0.5) * float64(jitterMs) / 1000.0
					}
					fmt.Printf("(%d, %.6f)\n", number, ts)
					emitted++
					if count > 0 && emitted >= count {
						logger.Info("Simulator finished", "emitted", emitted)
						return
					}
				}
			}
		},
	}

	cmd.Flags().Float64Var(&rate, "rate", 100, "Marker rate in Hz")
	cmd.Flags().Uint64Var(&count, "count", 0, "Number of markers to emit, 0 for unlimited")
	cmd.Flags().Uint64Var(&start, "start", 0, "First frame number minus one")
	cmd.Flags().Uint64Var(&dropEvery, "drop-every", 0, "Skip every Nth frame number to simulate gaps, 0 disables")
	cmd.Flags().IntVar(&jitterMs, "jitter-ms", 0, "Uniform capture-time jitter in milliseconds")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Output logs in JSON format")

	return cmd
}
