package main

import (
	"github.com/spf13/cobra"

	"github.com/plexusml/plexus/internal/component"
)

var (
	flagText          string
	flagMessageID     string
	flagPredictInputs []string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run the pipeline in prediction mode over one message",
	Long: "Predict feeds one raw message into the pipeline's source node and prints\n" +
		"the target outputs. Trained artifacts are resolved from the store; nothing\n" +
		"is retrained.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		inputs, err := parseInputs(flagPredictInputs)
		if err != nil {
			return err
		}
		if flagText != "" {
			if inputs == nil {
				inputs = make(map[string]any)
			}
			inputs["message"] = map[string]any{
				"text":       flagText,
				"message_id": flagMessageID,
			}
		}

		result, err := a.Execute(cmd.Context(), component.ModePredict, inputs, cachePolicy())
		if err != nil {
			return err
		}
		return printResult(result)
	},
}

func init() {
	predictCmd.Flags().StringVarP(&flagText, "text", "t", "", "message text to feed the source node")
	predictCmd.Flags().StringVar(&flagMessageID, "message-id", "", "message identifier")
	predictCmd.Flags().StringArrayVarP(&flagPredictInputs, "input", "i", nil, "external input as name=value (repeatable)")
}
