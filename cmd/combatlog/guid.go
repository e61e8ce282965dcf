package main

import (
	"fmt"
	"io"

	"github.com/OCAP2/combatlog/pkg/core"

	"github.com/spf13/cobra"
)

var guidCmd = &cobra.Command{
	Use:   "guid <guid>...",
	Short: "Classify GUIDs and show their creature entry",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return describeGUIDs(cmd.OutOrStdout(), args)
	},
}

// describeGUIDs writes one line per argument. Invalid GUIDs are reported inline
// and make the command fail after all arguments are printed.
func describeGUIDs(w io.Writer, args []string) error {
	bad := 0
	for _, arg := range args {
		g, err := core.ParseGUID(arg)
		if err != nil {
			bad++
			fmt.Fprintf(w, "%s  %s\n", arg, accentStyle.Render(err.Error()))
			continue
		}
		line := fmt.Sprintf("%s  kind=%s", g, g.Kind())
		if entry, ok := g.Entry(); ok {
			line += fmt.Sprintf("  entry=%d", entry)
		}
		fmt.Fprintln(w, line)
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d guids are invalid", bad, len(args))
	}
	return nil
}
