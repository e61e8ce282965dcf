package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/OCAP2/combatlog/internal/config"
	"github.com/OCAP2/combatlog/internal/lines"
	"github.com/OCAP2/combatlog/internal/merge"
	"github.com/OCAP2/combatlog/internal/parser"
	"github.com/OCAP2/combatlog/pkg/core"

	"github.com/spf13/cobra"
)

// merge flags
var (
	mergeOutFlag  string
	mergeYearFlag int
)

var mergeCmd = &cobra.Command{
	Use:   "merge <combat-log> <raw-log>",
	Short: "Write both logs as one log in timestamp order",
	Long: `Merge interleaves the combat log and the raw companion log the same way parse
does and writes the original lines in that order. Lines without a readable
timestamp are dropped.`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutFlag, "output", "o", "", "write the merged log to this file instead of stdout")
	mergeCmd.Flags().IntVar(&mergeYearFlag, "year", 0, "year of the log timestamps (0 guesses from the clock)")
}

// mergeResult counts what mergeLogs wrote and dropped.
type mergeResult struct {
	Written int
	Dropped int
}

// textSource decodes one buffer and remembers the line text of every event it
// yields, so the merged order can be written back as text.
type textSource struct {
	ctx     context.Context
	reader  *lines.Reader
	parser  *parser.Parser
	stream  core.Stream
	texts   map[*core.Event]string
	dropped *int
}

func (s *textSource) Next() (*core.Event, bool) {
	for {
		if s.ctx.Err() != nil {
			return nil, false
		}
		l, ok := s.reader.Next()
		if !ok {
			return nil, false
		}
		ev, diag := s.parser.ParseLine(l, s.stream)
		if ev == nil {
			if diag != nil {
				*s.dropped++
			}
			continue
		}
		s.texts[ev] = strings.TrimPrefix(l.Text, "\uFEFF")
		return ev, true
	}
}

// mergeLogs writes the lines of primary and raw to w in merged order.
func mergeLogs(ctx context.Context, logger *slog.Logger, w io.Writer, primary, raw []byte, year int) (mergeResult, error) {
	var res mergeResult
	p := parser.NewParser(logger, parser.WithYear(year))
	texts := make(map[*core.Event]string)

	source := func(buf []byte, stream core.Stream) *textSource {
		return &textSource{
			ctx:     ctx,
			reader:  lines.NewReader(buf),
			parser:  p,
			stream:  stream,
			texts:   texts,
			dropped: &res.Dropped,
		}
	}
	m := merge.New(source(primary, core.StreamPrimary), source(raw, core.StreamRaw))

	bw := bufio.NewWriter(w)
	for {
		ev, ok := m.Next()
		if !ok {
			break
		}
		text := texts[ev]
		delete(texts, ev)
		if _, err := bw.WriteString(text + "\n"); err != nil {
			return res, fmt.Errorf("failed to write merged line: %w", err)
		}
		res.Written++
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := bw.Flush(); err != nil {
		return res, fmt.Errorf("failed to write merged log: %w", err)
	}
	return res, nil
}

func runMerge(cmd *cobra.Command, args []string) (err error) {
	a, err := newApp(configDir, logLevel, !noLogFile)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	year := config.GetParserConfig().Year
	if cmd.Flags().Changed("year") {
		year = mergeYearFlag
	}

	primary, raw, err := readInputs(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if mergeOutFlag != "" {
		f, cerr := os.Create(mergeOutFlag)
		if cerr != nil {
			return fmt.Errorf("failed to create output file: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("failed to close output file: %w", cerr))
			}
		}()
		w = f
	}

	res, err := mergeLogs(ctx, a.logger, w, primary, raw, year)
	if err != nil {
		a.logger.Error("merge failed", "error", err)
		return err
	}
	a.logger.Info("logs merged", "written", res.Written, "dropped", res.Dropped)
	return nil
}
