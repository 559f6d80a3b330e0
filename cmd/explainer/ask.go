// cmd/explainer/ask.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"explainer/internal/common/observability"
	searchchat "explainer/internal/pipeline/search-chat"

	"github.com/spf13/cobra"
)

var (
	askLevel       string
	askInteraction string
	askSession     string
	askLocation    string
	askLanguage    string
	askSafeSearch  bool
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Run one search-chat turn and print the answer",
	Long: `
Run one turn of the pipeline from the command line.

Examples:
  explainer ask "What is photosynthesis?" --level preschool

  # Continue a conversation
  explainer ask "Why are leaves green?" --session 20240309070501042
`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askLevel, "level", "l", "high-school", "Audience level")
	askCmd.Flags().StringVarP(&askInteraction, "interaction", "i", "none", "Interaction mode: none|converse|quiz|random")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "Response id of a conversation to continue")
	askCmd.Flags().StringVar(&askLocation, "location", "", "Search region, e.g. us")
	askCmd.Flags().StringVar(&askLanguage, "language", "", "Search language, e.g. en-US")
	askCmd.Flags().BoolVar(&askSafeSearch, "safesearch", false, "Enable safe search")
	askCmd.Flags().BoolVarP(&askJSON, "json", "j", false, "Print the raw response envelope")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(observability.NewNoop())
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.chat.Execute(cmd.Context(), &searchchat.Input{
		Query:       strings.Join(args, " "),
		Level:       askLevel,
		ResponseID:  askSession,
		Interaction: askInteraction,
		SafeSearch:  searchchat.Truthy(askSafeSearch),
		Location:    askLocation,
		Language:    askLanguage,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if askJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.Status != 200 {
		return errors.New(out.Message)
	}
	fmt.Fprintln(w, out.Response)
	fmt.Fprintf(w, "\nresponse id: %s\n", out.ResponseID)
	return nil
}
