package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dataforge/dataforge/internal/output"
	"github.com/dataforge/dataforge/internal/refctx"
)

var contextCmd = &cobra.Command{
	Use:   "context <topic>",
	Short: "Inspect the reference context for a topic",
	Long: `Assemble and print the reference context that would ground a
generation for the given topic, without calling the model.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)

	contextCmd.Flags().StringP("description", "d", "", "free-text description of the desired data")
	contextCmd.Flags().Bool("json", false, "output the raw context as JSON")
}

func runContext(cmd *cobra.Command, args []string) error {
	topic := strings.TrimSpace(args[0])
	if topic == "" {
		return errors.New("topic is required")
	}

	description, _ := cmd.Flags().GetString("description")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	refContext := a.builder.Build(cmd.Context(), topic, description)

	if asJSON {
		data, err := json.MarshalIndent(refContext, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if refContext.Empty() {
		fmt.Fprintln(cmd.OutOrStdout(), "no reference context found for topic:", topic)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), output.FormatSources(refContext.ReferenceSources))
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), refctx.Format(refContext))
	return nil
}
