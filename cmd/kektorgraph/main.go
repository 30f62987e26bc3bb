package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sanonone/kektorgraph/cmd/kektorgraph/commands"
	"github.com/sanonone/kektorgraph/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "kektorgraph",
	Short: "kektorgraph - similarity graph enrichment and ranking",
	Long: `kektorgraph loads a property graph, runs a pipeline of enrichment and
ranking steps against it and writes the enriched graph back out.

Available commands:
  run      - Execute a step pipeline on a graph file
  rank     - Rank vertices by immersion or connectivity
  convert  - Convert a graph between GraphML, JSON and DOT
  version  - Show version information

Examples:
  kektorgraph run -i alerts.graphml -o out.graphml -a "ADD-DISTANCE;IMMERSION,all,5"
  kektorgraph rank -i alerts.graphml --by connectivity -k 3
  kektorgraph convert -i out.graphml -o out.dot

Every flag can also be set from the environment, e.g. KEKTORGRAPH_ACTIONS.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := commands.Env(cmd)
		if err != nil {
			return err
		}
		if err := logger.Initialize(v.GetBool("json-log"), v.GetBool("quiet")); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.RankCmd)
	rootCmd.AddCommand(commands.ConvertCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
