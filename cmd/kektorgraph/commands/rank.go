package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/pipeline"
)

// RankCmd ranks the vertices of a graph file without writing it back.
var RankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank vertices by immersion or connectivity",
	Long: `Rank the vertices of a graph and print the ranking.

  --by immersion     summed distance to every other vertex of the preset label
  --by connectivity  incident edge count, or summed weight with --weighted

Examples:
  kektorgraph rank -i alerts.graphml -k 5
  kektorgraph rank -i alerts.graphml --by connectivity --weighted --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := Env(cmd)
		if err != nil {
			return err
		}
		step, err := rankStep(v.GetString("by"), v.GetString("preset"), v.GetInt("count"),
			v.GetBool("weighted"), v.GetString("label"))
		if err != nil {
			return err
		}
		cfg, g, err := loadGraph(v)
		if err != nil {
			return err
		}

		results, err := newDispatcher(cfg, g).Run(cmd.Context(), step)
		if err != nil {
			return err
		}
		res := results[0]
		if res.Err != nil {
			return res.Err
		}

		if v.GetBool("json") {
			out, err := json.MarshalIndent(res.Report, "", "  ")
			if err != nil {
				return errors.Wrap(err, "encoding ranking")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}
		printReport(cmd.OutOrStdout(), res.Report)
		return nil
	},
}

// rankStep renders the flags of the rank command as a single pipeline step.
func rankStep(by, preset string, k int, weighted bool, label string) (string, error) {
	count := ""
	if k >= 0 {
		count = strconv.Itoa(k)
	}
	switch strings.ToLower(by) {
	case "immersion", "":
		return strings.Join([]string{string(pipeline.OpImmersion), preset, count}, pipeline.ParamSeparator), nil
	case "connectivity":
		w := ""
		if weighted {
			w = "true"
		}
		params := []string{string(pipeline.OpConnectivityRank), count, w}
		if label != "" {
			params = append(params, label)
		}
		return strings.Join(params, pipeline.ParamSeparator), nil
	}
	return "", errors.WithHint(
		errors.NewConfigurationError("unknown ranking %q", by),
		"use --by immersion or --by connectivity",
	)
}

func init() {
	RankCmd.Flags().StringP("input", "i", "", "Input graph (.graphml or .json)")
	RankCmd.Flags().StringP("config", "c", "", "YAML configuration file")
	RankCmd.Flags().String("by", "immersion", "Ranking: immersion or connectivity")
	RankCmd.Flags().IntP("count", "k", -1, "Vertices per list (default from configuration)")
	RankCmd.Flags().String("preset", "", "Distance preset of the immersion ranking")
	RankCmd.Flags().Bool("weighted", false, "Sum edge weights in the connectivity ranking")
	RankCmd.Flags().String("label", "", "Vertex label of the connectivity ranking")
	RankCmd.Flags().Bool("no-edges", false, "Ignore the edges of the input graph")
	RankCmd.Flags().BoolP("json", "j", false, "Print the ranking as JSON")
}
