// Package commands implements the kektorgraph subcommands.
package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sanonone/kektorgraph/internal/server"
	"github.com/sanonone/kektorgraph/pkg/config"
	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
	"github.com/sanonone/kektorgraph/pkg/graphio"
	"github.com/sanonone/kektorgraph/pkg/logger"
)

// EnvPrefix prefixes the environment variables that override flags.
const EnvPrefix = "KEKTORGRAPH"

// Env returns a viper instance bound to the flags of cmd, with
// KEKTORGRAPH_<FLAG> environment variables taking effect when a flag is not
// set on the command line.
func Env(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, errors.Wrap(err, "binding flags")
	}
	return v, nil
}

// loadGraph reads the configuration and the input graph into a new session.
func loadGraph(v *viper.Viper) (config.Config, *graph.Graph, error) {
	cfg, err := config.LoadConfig(v.GetString("config"))
	if err != nil {
		return config.Config{}, nil, err
	}

	input := v.GetString("input")
	if input == "" {
		return config.Config{}, nil, errors.WithHint(
			errors.NewConfigurationError("no input graph"),
			"pass --input or set "+EnvPrefix+"_INPUT",
		)
	}

	s := core.NewSession(cfg.Labels, logger.Logger)
	var opts []graphio.ReadOption
	if v.GetBool("no-edges") {
		opts = append(opts, graphio.SkipEdges())
	}
	g, err := graphio.Read(input, s, opts...)
	if err != nil {
		return config.Config{}, nil, err
	}
	if n := len(s.Registry.Conflicts()); n > 0 {
		s.Logger().Warnw("Input declares attributes with conflicting kinds", "conflicts", n)
	}
	return cfg, g, nil
}

// serveMetrics exposes /metrics and /healthz on addr until the returned stop
// function is called. An empty addr disables it.
func serveMetrics(addr string) (stop func()) {
	if addr == "" {
		return func() {}
	}
	srv := server.New(addr, nil)
	go func() {
		if err := srv.Run(); err != nil {
			logger.Logger.Errorw("Metrics server failed", "error", err)
		}
	}()
	return srv.Shutdown
}
