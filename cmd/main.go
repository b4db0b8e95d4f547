package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"textot/pkg/config"
	"textot/pkg/util/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "textot",
		Short:        "Operational transformation engine for collaborative plain text",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a yaml config file")

	load := func() (*config.Config, error) {
		if configPath == "" {
			return config.Default(), nil
		}
		return config.Load(configPath)
	}

	root.AddCommand(newReplayCmd(load), newConfigCmd(load))
	return root
}

func newConfigCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), cfg)
			return err
		},
	}
}

func newReplayCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay a scripted editing session through in-process sites and print every site's text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := logging.Init(cfg.Logging, cfg.Site.ID)

			script, err := ReadScript(args[0])
			if err != nil {
				return err
			}
			result, err := NewReplayer(cfg, logger).Run(script)
			if err != nil {
				return err
			}
			return result.Print(cmd.OutOrStdout())
		},
	}
}
