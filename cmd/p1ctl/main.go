// p1ctl inspects recorded FusionEngine logs: it generates seek index
// sidecars, dumps per-type message summaries, and runs time-alignment
// passes.
package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sisahap1/fusion-engine-client/analysis"
	"github.com/sisahap1/fusion-engine-client/internal/cliconfig"
	"github.com/sisahap1/fusion-engine-client/internal/logging"
	"github.com/sisahap1/fusion-engine-client/messages"
	"github.com/sisahap1/fusion-engine-client/parsers"
)

var (
	version = "dev"

	cfg cfgState
	log zerolog.Logger
)

type cfgState struct {
	configPath string
	logLevel   string
	logFile    string
	loaded     cliconfig.Config
}

func main() {
	root := &cobra.Command{
		Use:           "p1ctl",
		Short:         "Inspect and index recorded FusionEngine logs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := cliconfig.Load(cfg.configPath)
			if err != nil {
				return err
			}
			cfg.loaded = loaded
			if cfg.logLevel != "" {
				loaded.Log.Level = cfg.logLevel
			}
			if cfg.logFile != "" {
				loaded.Log.File = cfg.logFile
			}
			log = logging.Configure(logging.Options{
				Level:      loaded.Log.Level,
				File:       loaded.Log.File,
				MaxSizeMB:  loaded.Log.MaxSizeMB,
				MaxBackups: loaded.Log.MaxBackups,
			})
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.configPath, "config", "", "path to p1ctl.yaml")
	flags.StringVar(&cfg.logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	flags.StringVar(&cfg.logFile, "log-file", "", "rotating log file path")

	root.AddCommand(newIndexCmd(), newDumpCmd(), newAlignCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "p1ctl: %v\n", err)
		os.Exit(1)
	}
}

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <file.p1log>",
		Short: "Scan a log and persist its index sidecar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := parsers.GenerateIndexFile(path, parsers.WithLogger(log)); err != nil {
				return err
			}
			log.Info().Str("sidecar", parsers.IndexPath(path)).Msg("index generated")
			return nil
		},
	}
}

func typesFlag(flags *pflag.FlagSet, target *[]string) {
	flags.StringSliceVar(target, "types", nil,
		"message types to include (pose, gnss_info, pose_aux, event_notification, or configured aliases)")
}

func newDumpCmd() *cobra.Command {
	var typeNames []string
	var noIndex bool
	cmd := &cobra.Command{
		Use:   "dump <file.p1log>",
		Short: "Print per-type message counts and first timestamps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := cfg.loaded.ResolveTypes(typeNames)
			if err != nil {
				return err
			}
			reader, err := analysis.Open(args[0], parsers.WithLogger(log))
			if err != nil {
				return err
			}
			defer reader.Close()

			result, err := reader.Read(analysis.ReadOptions{
				MessageTypes:  types,
				GenerateIndex: !noIndex,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "t0\t%s\n", formatTime(reader.T0))
			fmt.Fprintf(w, "system_t0\t%s\n", formatTime(reader.SystemT0))
			fmt.Fprintf(w, "have_index\t%v\n", reader.Reader.HaveIndex())
			for _, t := range sortedResultTypes(result) {
				fmt.Fprintf(w, "%s\t%d messages\n", t, len(result[t].Messages))
			}
			snap := reader.Reader.Stats()
			fmt.Fprintf(w, "frames\t%d\n", snap.Frames)
			fmt.Fprintf(w, "skipped_bytes\t%d\n", snap.SkippedBytes)
			fmt.Fprintf(w, "resyncs\t%d\n", snap.Resyncs)
			return w.Flush()
		},
	}
	typesFlag(cmd.Flags(), &typeNames)
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "do not build or persist an index sidecar")
	return cmd
}

func newAlignCmd() *cobra.Command {
	var typeNames []string
	var modeName string
	cmd := &cobra.Command{
		Use:   "align <file.p1log>",
		Short: "Time-align streams and print the resulting counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := analysis.ParseTimeAlignmentMode(modeName)
			if err != nil {
				return err
			}
			types, err := cfg.loaded.ResolveTypes(typeNames)
			if err != nil {
				return err
			}
			reader, err := analysis.Open(args[0], parsers.WithLogger(log))
			if err != nil {
				return err
			}
			defer reader.Close()

			result, err := reader.Read(analysis.DefaultReadOptions())
			if err != nil {
				return err
			}
			if err := analysis.TimeAlignData(result, mode, types...); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "mode\t%s\n", mode)
			for _, t := range sortedResultTypes(result) {
				fmt.Fprintf(w, "%s\t%d messages\n", t, len(result[t].Messages))
			}
			return w.Flush()
		},
	}
	typesFlag(cmd.Flags(), &typeNames)
	cmd.Flags().StringVar(&modeName, "mode", "drop", "alignment mode (none|drop|insert)")
	return cmd
}

func sortedResultTypes(result map[messages.MessageType]*analysis.MessageData) []messages.MessageType {
	out := make([]messages.MessageType, 0, len(result))
	for t := range result {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func formatTime(v float64) string {
	if math.IsNaN(v) {
		return "unset"
	}
	return fmt.Sprintf("%.9f", v)
}
