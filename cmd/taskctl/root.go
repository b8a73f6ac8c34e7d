package main

import (
	"io"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	v := newViper()
	var configFile string
	var app *cliApp

	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "taskctl - command-line client for the task tracker",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, configFile)
			if err != nil {
				return err
			}
			app, err = newCLIApp(cfg, out, errOut)
			if err != nil {
				return err
			}
			app.start(cmd.Context())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.stop()
			}
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default ~/.taskctl/config.yaml)")
	flags.String("server", "", "server URL")
	flags.String("session-file", "", "where the session is stored")
	flags.String("log-level", "", "debug, info, warn or error")
	_ = v.BindPFlag("server", flags.Lookup("server"))
	_ = v.BindPFlag("session_file", flags.Lookup("session-file"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	current := func() *cliApp { return app }
	rootCmd.AddCommand(
		listCmd(current),
		showCmd(current),
		addCmd(current),
		editCmd(current),
		toggleCmd(current),
		deleteCmd(current),
		clearCmd(current),
		statsCmd(current),
		activityCmd(current),
		settingsCmd(current),
		themeCmd(current),
		loginCmd(current),
		registerCmd(current),
		logoutCmd(current),
	)
	return rootCmd
}
