package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plexusml/plexus/internal/app"
	"github.com/plexusml/plexus/internal/component"
	"github.com/plexusml/plexus/internal/executor"
)

var (
	flagForceRetrain bool
	flagNoCache      bool
	flagModeScoped   bool
	flagFinetune     bool
	flagTrainInputs  []string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run the pipeline in training mode",
	Long: "Train executes every node of the schema in dependency order, persisting\n" +
		"each produced artifact into the store under its fingerprint. Unchanged\n" +
		"nodes are resolved from the cache without being instantiated.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		inputs, err := parseInputs(flagTrainInputs)
		if err != nil {
			return err
		}

		mode := component.ModeTrain
		if flagFinetune {
			mode = component.ModeFinetune
		}
		result, err := a.Execute(cmd.Context(), mode, inputs, cachePolicy())
		if err != nil {
			return err
		}
		return printResult(result)
	},
}

func init() {
	trainCmd.Flags().BoolVar(&flagForceRetrain, "force-retrain", false, "recompute every node even on cache hits")
	trainCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "disable the cache entirely for this run")
	trainCmd.Flags().BoolVar(&flagModeScoped, "mode-scoped-cache", false, "partition cache keys by run mode")
	trainCmd.Flags().BoolVar(&flagFinetune, "finetune", false, "run in fine-tuning mode instead of full training")
	trainCmd.Flags().StringArrayVarP(&flagTrainInputs, "input", "i", nil, "external input as name=value (repeatable)")
}

// newApp builds the App from the persistent flags.
func newApp() (*app.App, error) {
	cfg, err := app.NewConfig(app.Config{
		SchemaPath: flagSchema,
		StorePath:  flagStore,
		LogLevel:   flagLogLevel,
		LogFormat:  flagLogFormat,
		Workers:    flagWorkers,
	})
	if err != nil {
		return nil, err
	}
	return app.New(os.Stderr, cfg)
}

func cachePolicy() executor.CachePolicy {
	return executor.CachePolicy{
		Disabled:     flagNoCache,
		ForceRetrain: flagForceRetrain,
		ModeScoped:   flagModeScoped,
	}
}

// parseInputs turns repeated name=value flags into the raw external input
// set.
func parseInputs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	inputs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := cutPair(pair)
		if !ok {
			return nil, fmt.Errorf("invalid input '%s', expected name=value", pair)
		}
		inputs[name] = value
	}
	return inputs, nil
}

func cutPair(pair string) (string, string, bool) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '=' {
			return pair[:i], pair[i+1:], i > 0
		}
	}
	return "", "", false
}

// printResult renders target outputs as JSON on stdout, one document per
// run.
func printResult(result *executor.Result) error {
	out := make(map[string]any, len(result.Outputs))
	for _, name := range result.Order {
		if v, ok := result.Outputs[name]; ok {
			out[name] = v
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
