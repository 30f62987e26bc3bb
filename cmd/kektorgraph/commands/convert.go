package commands

import (
	"github.com/spf13/cobra"

	"github.com/sanonone/kektorgraph/pkg/graphio"
)

// ConvertCmd rewrites a graph file in another format.
var ConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a graph between GraphML, JSON and DOT",
	Long: `Read a graph and write it in the format given by the output extension.
DOT output is write only.

Example:
  kektorgraph convert -i alerts.graphml -o alerts.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := Env(cmd)
		if err != nil {
			return err
		}
		_, g, err := loadGraph(v)
		if err != nil {
			return err
		}
		out := v.GetString("output")
		if err := graphio.Write(out, g); err != nil {
			return err
		}
		g.Session().Logger().Infow("Graph converted", "input", v.GetString("input"), "output", out)
		return nil
	},
}

func init() {
	ConvertCmd.Flags().StringP("input", "i", "", "Input graph (.graphml or .json)")
	ConvertCmd.Flags().StringP("output", "o", "", "Output graph (.graphml, .json or .dot)")
	ConvertCmd.Flags().StringP("config", "c", "", "YAML configuration file")
	ConvertCmd.Flags().Bool("no-edges", false, "Ignore the edges of the input graph")
}
