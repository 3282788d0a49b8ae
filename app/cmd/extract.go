package main

import (
	"fmt"
	"io"
	"os"

	"chatwidget/app/agent"
	"chatwidget/citation"
	"chatwidget/widget"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	extractBaseURL  string
	extractKeywords string
)

// extractCmd runs the source pipeline over a saved backend reply.
var extractCmd = &cobra.Command{
	Use:   "extract <reply-file|->",
	Short: "Print the sources the widget would show for a saved reply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			raw []byte
			err error
		)
		if args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		keywords := citation.DefaultKeywords()
		if extractKeywords != "" {
			if keywords, err = citation.LoadKeywords(extractKeywords); err != nil {
				return err
			}
		}

		reply := agent.ParseReply(raw)
		sources, extracted := widget.ReplySources(reply, citation.NewExtractor(extractBaseURL, keywords))

		out := struct {
			Text      string `json:"text"`
			Grouped   bool   `json:"grouped"`
			Extracted bool   `json:"extracted"`
			Sources   any    `json:"sources"`
		}{reply.Text, reply.Grouped, extracted, sources}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractBaseURL, "base-url", citation.DefaultBaseURL, "base URL for guessed source links")
	extractCmd.Flags().StringVar(&extractKeywords, "keywords", "", "YAML keyword table")
}
