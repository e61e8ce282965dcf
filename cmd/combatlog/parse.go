package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// parse and watch flags
var (
	yearFlag     int
	implicitFlag bool
	storageFlag  string
	formatFlag   string
	outputFlag   string
	namesFlag    string
	quietFlag    bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <combat-log> [raw-log]",
	Short: "Parse a combat log and store the snapshot",
	Long: `Parse reads the combat log and, when given, the raw companion log, then
stores the snapshot with the configured storage backend and prints a fight summary.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runParse,
}

func init() {
	addPipelineFlags(parseCmd)
}

func addPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&yearFlag, "year", 0, "year of the log timestamps (0 guesses from the clock)")
	f.BoolVar(&implicitFlag, "implicit-open", false, "open fights on hostile activity without ENCOUNTER_START")
	f.StringVarP(&storageFlag, "storage", "s", "", "storage backend: memory, sqlite or postgres")
	f.StringVarP(&formatFlag, "format", "f", "", "file format for memory storage: json, yaml or xlsx")
	f.StringVarP(&outputFlag, "output", "o", "", "output directory for memory storage")
	f.StringVar(&namesFlag, "names", "", "YAML or JSON file mapping NPC entry IDs to names")
	f.BoolVarP(&quietFlag, "quiet", "q", false, "do not print the fight summary")
}

// settingsFromFlags applies the flags the user set on top of the loaded config.
func settingsFromFlags(cmd *cobra.Command) settings {
	s := loadSettings()
	f := cmd.Flags()
	if f.Changed("year") {
		s.parser.Year = yearFlag
	}
	if f.Changed("implicit-open") {
		s.fight.ImplicitOpen = implicitFlag
	}
	if f.Changed("storage") {
		s.storage.Type = storageFlag
	}
	if f.Changed("format") {
		s.storage.Memory.Format = formatFlag
	}
	if f.Changed("output") {
		s.storage.Memory.OutputDir = outputFlag
	}
	if f.Changed("names") {
		s.parser.NamesFile = namesFlag
	}
	s.quiet = quietFlag
	return s
}

func logArgs(args []string) (primary, raw string) {
	primary = args[0]
	if len(args) > 1 {
		raw = args[1]
	}
	return primary, raw
}

func runParse(cmd *cobra.Command, args []string) error {
	a, err := newApp(configDir, logLevel, !noLogFile)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, a, settingsFromFlags(cmd))
	if err != nil {
		a.logger.Error("setup failed", "error", err)
		return err
	}
	defer p.Close()

	primary, raw := logArgs(args)
	if err := p.process(ctx, cmd.OutOrStdout(), primary, raw); err != nil {
		a.logger.Error("parse failed", "error", err)
		return err
	}
	return nil
}
