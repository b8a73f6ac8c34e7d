package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/navigation"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04"

func listCmd(app func() *cliApp) *cobra.Command {
	var search, sort, date, clock string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List tasks, newest first by default.

Dates are matched against creation and last update in local time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := a.enter(navigation.HomePath); err != nil {
				return err
			}

			params, err := viewParams(search, sort, date, clock)
			if err != nil {
				return err
			}

			tasks, err := a.api.AllTasks(cmd.Context())
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				a.println("No tasks yet")
				return nil
			}

			view := task.Derive(tasks, params, time.Local)
			if len(view) == 0 {
				a.println("No tasks match your filters")
				return nil
			}
			printTasks(a, view)
			if task.IsFilterActive(params) {
				a.printf("\n%d of %d tasks\n", len(view), len(tasks))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive title search")
	cmd.Flags().StringVar(&sort, "sort", string(task.DefaultSort), "createdAt-asc, createdAt-desc, updatedAt-asc or updatedAt-desc")
	cmd.Flags().StringVar(&date, "date", "", "only tasks created or updated on YYYY-MM-DD")
	cmd.Flags().StringVar(&clock, "time", "", "narrow --date to HH:MM")
	return cmd
}

func viewParams(search, sort, date, clock string) (task.ViewParams, error) {
	opt, err := task.ParseSortOption(sort)
	if err != nil {
		return task.ViewParams{}, err
	}
	filter, err := task.ParseDateFilter(date, clock)
	if err != nil {
		return task.ViewParams{}, err
	}
	return task.ViewParams{Search: search, Sort: opt, Date: filter}, nil
}

func printTasks(a *cliApp, tasks []task.Task) {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tTITLE\tCREATED\tUPDATED")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			checkbox(t.Completed),
			t.Title,
			t.CreatedTime(time.Local).Format(timeLayout),
			t.UpdatedTime(time.Local).Format(timeLayout),
		)
	}
	_ = w.Flush()
}

func printTask(a *cliApp, t *task.Task) {
	a.printf("%s %s\n", checkbox(t.Completed), t.Title)
	if t.Description != "" {
		a.printf("\n%s\n\n", t.Description)
	}
	a.printf("id:      %s\n", t.ID)
	a.printf("created: %s\n", t.CreatedTime(time.Local).Format(timeLayout))
	a.printf("updated: %s\n", t.UpdatedTime(time.Local).Format(timeLayout))
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func showCmd(app func() *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.enterTask(navigation.TaskPath, args[0]); err != nil {
				return err
			}

			t, err := a.api.GetTask(cmd.Context(), args[0])
			if err != nil {
				return taskError(err, args[0])
			}
			printTask(a, t)
			return nil
		},
	}
}

func addCmd(app func() *cliApp) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := a.enter(navigation.NewTaskPath); err != nil {
				return err
			}

			t, err := a.api.CreateTask(cmd.Context(), strings.Join(args, " "), description)
			if err != nil {
				return err
			}
			a.printf("Added %s %q\n", t.ID, t.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "optional description")
	return cmd
}

func editCmd(app func() *cliApp) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.enterTask(navigation.EditTaskPath, args[0]); err != nil {
				return err
			}

			current, err := a.api.GetTask(cmd.Context(), args[0])
			if err != nil {
				return taskError(err, args[0])
			}
			if !cmd.Flags().Changed("title") {
				title = current.Title
			}
			if !cmd.Flags().Changed("description") {
				description = current.Description
			}

			t, err := a.api.UpdateTask(cmd.Context(), args[0], title, description)
			if err != nil {
				return taskError(err, args[0])
			}
			a.printf("Updated %s %q\n", t.ID, t.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func toggleCmd(app func() *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done or not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.enterTask(navigation.TaskPath, args[0]); err != nil {
				return err
			}

			t, err := a.api.ToggleTask(cmd.Context(), args[0])
			if err != nil {
				return taskError(err, args[0])
			}
			a.printf("%s %s\n", checkbox(t.Completed), t.Title)
			return nil
		},
	}
}

func deleteCmd(app func() *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.enterTask(navigation.TaskPath, args[0]); err != nil {
				return err
			}

			if err := a.api.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func clearCmd(app func() *cliApp) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := a.enter(navigation.SettingsPath); err != nil {
				return err
			}
			if !yes {
				return errors.New("this deletes all tasks and cannot be undone; pass --yes to confirm")
			}

			removed, err := a.api.ClearTasks(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("Removed %d tasks\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing all tasks")
	return cmd
}

func statsCmd(app func() *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := a.enter(navigation.StatsPath); err != nil {
				return err
			}

			s, err := a.api.Stats(cmd.Context())
			if err != nil {
				return err
			}

			a.printf("Total:      %d\n", s.Total)
			a.printf("Completed:  %d\n", s.Completed)
			a.printf("Active:     %d\n", s.Active)
			a.printf("Completion: %d%%\n", s.CompletionRate)
			if len(s.Recent) > 0 {
				a.println("\nRecent:")
				printTasks(a, s.Recent)
			}
			return nil
		},
	}
}

func activityCmd(app func() *cliApp) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := a.enter(navigation.StatsPath); err != nil {
				return err
			}

			entries, err := a.api.Activity(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				a.println("No activity yet")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.At.In(time.Local).Format(timeLayout), e.Kind, e.Title, e.Detail)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries")
	return cmd
}

// taskError names the task in not-found errors.
func taskError(err error, id string) error {
	if errors.Is(err, task.ErrNotFound) {
		return fmt.Errorf("task %s not found", id)
	}
	return err
}
