package commands

import (
	"encoding/json"
	"fmt"

	"github.com/l3aro/flowstruct/pkg/flow"
	"github.com/spf13/cobra"
)

// StatsOutput represents the output structure for JSON
type StatsOutput struct {
	Input    string        `json:"input"`
	Language flow.Language `json:"language"`
	flow.Stats
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats [file|-]",
	Short: "Show code statistics for a snippet",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		in, err := readInput(cmd, firstArg(args), cfg.MaxInputBytes)
		if err != nil {
			return err
		}
		lang, err := resolveLanguage(cmd, in)
		if err != nil {
			return err
		}

		result := parseInput(in, lang)
		out := StatsOutput{Input: in.Name, Language: result.Language, Stats: result.Stats()}

		w := cmd.OutOrStdout()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(data))
			return nil
		}

		fmt.Fprintln(w, "Code Statistics")
		fmt.Fprintf(w, "  Language:      %s\n", out.Language)
		fmt.Fprintf(w, "  Total Lines:   %d\n", out.TotalLines)
		fmt.Fprintf(w, "  Control Flow:  %d\n", out.ControlFlowLines)
		fmt.Fprintf(w, "  Functions:     %d\n", out.FunctionLines)
		fmt.Fprintf(w, "  Loops:         %d\n", out.LoopLines)
		fmt.Fprintf(w, "  Conditionals:  %d\n", out.ConditionalLines)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringP("language", "l", "", "Force the language instead of detecting it")
	statsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}
