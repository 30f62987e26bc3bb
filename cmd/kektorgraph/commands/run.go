package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sanonone/kektorgraph/pkg/algorithms"
	"github.com/sanonone/kektorgraph/pkg/config"
	"github.com/sanonone/kektorgraph/pkg/engine"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
	"github.com/sanonone/kektorgraph/pkg/graphio"
	"github.com/sanonone/kektorgraph/pkg/logger"
	"github.com/sanonone/kektorgraph/pkg/pipeline"
)

// RunCmd executes a pipeline against a graph file.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a step pipeline on a graph file",
	Long: `Load a graph, execute the steps of --actions in order and write the
result. Steps are separated by ';', parameters by ','. A failing step is
reported and the remaining steps still run.

Operations:
  ADD-DISTANCE [preset[,metric]]
  ADD-DISTANCE label,relation,value-attr,attrs,metric,normalize,min,max[,value]
  STRONG-CONNECTIVITY
  CLUSTER [algorithm[,k]]
  CONNECTIVITY-RANK [count[,weighted[,label]]]
  IMMERSION [preset[,count]]

Examples:
  kektorgraph run -i in.graphml -o out.graphml -a "ADD-DISTANCE,photometry;CLUSTER,kspanning,4"
  kektorgraph run -i in.json -a "IMMERSION,all,10" --report -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := Env(cmd)
		if err != nil {
			return err
		}
		cfg, g, err := loadGraph(v)
		if err != nil {
			return err
		}

		stop := serveMetrics(v.GetString("metrics-addr"))
		defer stop()

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		var opts []pipeline.Option
		if v.GetBool("show") {
			opts = append(opts, pipeline.WithViewer(pipeline.LogViewer{Log: logger.Named(nil, "viewer")}))
		}
		d := newDispatcher(cfg, g, opts...)

		results, runErr := d.Run(ctx, v.GetString("actions"))
		printResults(cmd.OutOrStdout(), results)
		if err := writeReport(cmd, v.GetString("report"), results); err != nil {
			return err
		}

		// Effects of completed steps are kept even when the run was
		// interrupted, so the output is written either way.
		if out := v.GetString("output"); out != "" && results != nil {
			if err := graphio.Write(out, g); err != nil {
				return err
			}
			g.Session().Logger().Infow("Graph written", "path", out, "vertices", g.Order(), "edges", g.Size())
		}
		if runErr != nil {
			return runErr
		}
		if failed := pipeline.Failed(results); len(failed) > 0 {
			return errors.Newf("%d of %d steps failed", len(failed), len(results))
		}
		return nil
	},
}

func printResults(w io.Writer, results []pipeline.StepResult) {
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "FAILED: " + r.Error
		}
		fmt.Fprintf(w, "%2d  %-20s %-8s %s\n", r.Index, r.Name, r.Duration.Round(time.Millisecond), status)
		if r.Err == nil {
			printReport(w, r.Report)
		}
	}
}

func printReport(w io.Writer, report any) {
	switch rep := report.(type) {
	case *engine.DistanceReport:
		fmt.Fprintf(w, "    %d %s vertices, %d pairs, %d %q edges in (%g, %g]\n",
			rep.Vertices, rep.VertexLabel, rep.Pairs, rep.Created, rep.RelationLabel, rep.Lower, rep.Upper)
		if len(rep.Duplicates) > 0 {
			fmt.Fprintf(w, "    %d pairs at distance 0\n", len(rep.Duplicates))
		}
	case *engine.RankReport:
		lowTitle, highTitle := "most connected", "most isolated"
		if rep.Kind == engine.RankConnectivity {
			lowTitle, highTitle = "least connected", "most connected"
		}
		printRanking(w, lowTitle, rep.Low)
		printRanking(w, highTitle, rep.High)
		if rep.Overlap {
			fmt.Fprintf(w, "    note: %d of %d vertices requested, the lists overlap\n", rep.K, rep.Vertices)
		}
	case algorithms.Partition:
		fmt.Fprintf(w, "    %d components\n", len(rep))
	}
}

func printRanking(w io.Writer, title string, entries []engine.RankEntry) {
	fmt.Fprintf(w, "    %s:\n", title)
	for _, e := range entries {
		fmt.Fprintf(w, "      %-24s %g\n", e.Name, e.Score)
	}
}

// writeReport stores the step results as JSON at path; "-" is stdout.
func writeReport(cmd *cobra.Command, path string, results []pipeline.StepResult) error {
	if path == "" {
		return nil
	}
	var w io.Writer = cmd.OutOrStdout()
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(errors.Mark(err, errors.ErrIO), "creating report %s", path)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(results), "encoding report")
}

// newDispatcher builds the engine and dispatcher shared by run and rank.
func newDispatcher(cfg config.Config, g *graph.Graph, opts ...pipeline.Option) *pipeline.Dispatcher {
	eng := engine.New(g, engine.Options{ImmersionAttribute: cfg.Defaults.ImmersionAttribute})
	return pipeline.NewDispatcher(eng, cfg, opts...)
}

func init() {
	RunCmd.Flags().StringP("input", "i", "", "Input graph (.graphml or .json)")
	RunCmd.Flags().StringP("output", "o", "", "Output graph (.graphml, .json or .dot)")
	RunCmd.Flags().StringP("actions", "a", "", "Step pipeline, e.g. \"ADD-DISTANCE;IMMERSION,all,5\"")
	RunCmd.Flags().StringP("config", "c", "", "YAML configuration file")
	RunCmd.Flags().Bool("show", false, "Log the resulting graph")
	RunCmd.Flags().Bool("no-edges", false, "Ignore the edges of the input graph")
	RunCmd.Flags().String("report", "", "Write step results as JSON to this file (\"-\" for stdout)")
	RunCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
}
