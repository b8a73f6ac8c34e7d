package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/example/task-tracker/client"
	"github.com/example/task-tracker/domain/preferences"
	"github.com/example/task-tracker/navigation"
	"github.com/spf13/cobra"
)

// prompt reads a line from in when value is empty.
func prompt(in *bufio.Reader, out io.Writer, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(out, "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func loginCmd(app func() *cliApp) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := a.enter(navigation.LoginPath); err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if email, err = prompt(in, a.out, "Email", email); err != nil {
				return err
			}
			if password, err = prompt(in, a.out, "Password", password); err != nil {
				return err
			}

			u, err := a.identity.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			a.printf("Signed in as %s\n", u.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func registerCmd(app func() *cliApp) *cobra.Command {
	var name, email, password, confirm string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := a.enter(navigation.RegisterPath); err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			for _, field := range []struct {
				label string
				value *string
			}{
				{"Name", &name},
				{"Email", &email},
				{"Password", &password},
				{"Confirm password", &confirm},
			} {
				if *field.value, err = prompt(in, a.out, field.label, *field.value); err != nil {
					return err
				}
			}

			u, err := a.identity.Register(cmd.Context(), name, email, password, confirm)
			if err != nil {
				return err
			}
			a.printf("Account created. Signed in as %s\n", u.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "your name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the password")
	return cmd
}

func logoutCmd(app func() *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if a.identity.Current() == nil {
				a.println("Not signed in")
				return nil
			}

			err := a.identity.SignOut(cmd.Context())
			if err != nil {
				a.logger.Warn("server sign-out failed; local session removed", "err", err)
			}
			a.println("Signed out")
			return nil
		},
	}
}

func settingsCmd(app func() *cliApp) *cobra.Command {
	var theme, displayName, picture string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change your profile settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := a.enter(navigation.SettingsPath); err != nil {
				return err
			}

			var update client.PreferencesUpdate
			if cmd.Flags().Changed("theme") {
				update.Theme = &theme
			}
			if cmd.Flags().Changed("display-name") {
				update.DisplayName = &displayName
			}
			if cmd.Flags().Changed("picture") {
				update.ProfilePicture = &picture
			}

			var prefs *preferences.Preferences
			var err error
			if update.Theme != nil || update.DisplayName != nil || update.ProfilePicture != nil {
				prefs, err = a.api.UpdatePreferences(cmd.Context(), update)
			} else {
				prefs, err = a.api.Preferences(cmd.Context())
			}
			if err != nil {
				return err
			}

			if u := a.identity.Current(); u != nil {
				a.printf("Account:      %s <%s>\n", u.Name, u.Email)
			}
			a.printf("Theme:        %s\n", prefs.Theme)
			a.printf("Display name: %s\n", valueOrNone(prefs.DisplayName))
			a.printf("Picture:      %s\n", valueOrNone(prefs.ProfilePicture))
			return nil
		},
	}

	cmd.Flags().StringVar(&theme, "theme", "", "light or dark")
	cmd.Flags().StringVar(&displayName, "display-name", "", "name shown in the app")
	cmd.Flags().StringVar(&picture, "picture", "", "profile picture URL (empty to remove)")
	return cmd
}

func themeCmd(app func() *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Switch between light and dark theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(preferences.ThemeLight), string(preferences.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := a.enter(navigation.SettingsPath); err != nil {
				return err
			}

			var next string
			if len(args) == 1 {
				next = args[0]
			} else {
				current, err := a.api.Preferences(cmd.Context())
				if err != nil {
					return err
				}
				next = string(current.Theme.Toggled())
			}

			prefs, err := a.api.UpdatePreferences(cmd.Context(), client.PreferencesUpdate{Theme: &next})
			if err != nil {
				return err
			}
			a.printf("Theme: %s\n", prefs.Theme)
			return nil
		},
	}
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
