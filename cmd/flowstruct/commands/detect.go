package commands

import (
	"encoding/json"
	"fmt"

	"github.com/l3aro/flowstruct/pkg/flow"
	"github.com/spf13/cobra"
)

// DetectOutput represents the output structure for JSON
type DetectOutput struct {
	Input    string        `json:"input"`
	Language flow.Language `json:"language"`
	Scores   []flow.Score  `json:"scores,omitempty"`
}

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect [file|-]",
	Short: "Guess the language of a snippet",
	Long: `Scores the snippet against the signals of every supported language and
prints the winner. Ties go to the language listed first (python, javascript,
ruby, java, cpp); javascript is reported when nothing matches. The file
extension is not consulted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		in, err := readInput(cmd, firstArg(args), cfg.MaxInputBytes)
		if err != nil {
			return err
		}

		showScores, _ := cmd.Flags().GetBool("scores")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		out := DetectOutput{Input: in.Name, Language: flow.Detect(in.Code)}
		if showScores || jsonOutput {
			out.Scores = flow.Scores(in.Code)
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(data))
			return nil
		}

		fmt.Fprintln(w, out.Language)
		if showScores {
			for _, s := range out.Scores {
				fmt.Fprintf(w, "  %-12s %d\n", s.Language, s.Votes)
			}
		}
		return nil
	},
}

func init() {
	detectCmd.Flags().Bool("scores", false, "Show the vote count of every language")
	detectCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}
