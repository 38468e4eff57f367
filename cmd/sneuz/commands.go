package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sneuz/internal/export"
	"sneuz/internal/stats"
)

func newSignupCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.auth.Register(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Println("Account created. You are logged in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.auth.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			// Pull current state so the widget is right immediately.
			if _, err := a.svc.RefreshFromRemote(cmd.Context()); err != nil {
				a.log.Warn().Err(err).Msg("initial refresh failed")
			}
			fmt.Println("Logged in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session token",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			a.auth.Logout()
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start tracking sleep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.intents.StartTracking(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Good night. Tracking started.")
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop tracking sleep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.intents.StopTracking(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Good morning. Tracking stopped.")
			return nil
		},
	}
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Start tracking if awake, stop if sleeping",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			wasTracking := a.shared.IsTracking()
			if err := a.intents.ToggleTracking(cmd.Context()); err != nil {
				return err
			}
			if wasTracking {
				fmt.Println("Good morning. Tracking stopped.")
			} else {
				fmt.Println("Good night. Tracking started.")
			}
			return nil
		},
	}
}

// newStatusCmd renders the widget view. It reads only the shared state file,
// never the network: a separate process sees exactly what a home-screen
// widget would.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tracking state (widget view, offline)",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if !a.shared.IsLoggedIn() {
				fmt.Println("Not logged in.")
				return nil
			}
			if a.shared.IsTracking() {
				if start := a.shared.StartTime(); start != nil {
					elapsed := time.Since(*start).Round(time.Minute)
					fmt.Printf("Sleeping since %s (%s)\n", start.Local().Format("15:04"), elapsed)
				} else {
					fmt.Println("Sleeping.")
				}
				return nil
			}
			fmt.Println("Awake.")
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recent sleep sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sessions, err := a.svc.RefreshFromRemote(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions yet.")
				return nil
			}
			for i := range sessions {
				s := &sessions[i]
				if s.Open() {
					fmt.Printf("%s  %s  (sleeping)\n", s.ID, s.StartTime.Local().Format("Mon 2006-01-02 15:04"))
					continue
				}
				fmt.Printf("%s  %s → %s  %s\n",
					s.ID,
					s.StartTime.Local().Format("Mon 2006-01-02 15:04"),
					s.EndTime.Local().Format("15:04"),
					s.Duration().Round(time.Minute),
				)
			}
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a past sleep session by hand",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			startAt, err := parseWhen(start)
			if err != nil {
				return err
			}
			endAt, err := parseWhen(end)
			if err != nil {
				return err
			}
			created, err := a.svc.CreateManualSession(cmd.Context(), startAt, endAt)
			if err != nil {
				return err
			}
			fmt.Printf("Recorded %s (%s)\n", created.ID, created.Duration().Round(time.Minute))
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "bedtime (RFC 3339 or \"2006-01-02 15:04\")")
	cmd.Flags().StringVar(&end, "end", "", "wake time")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newEditCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "edit <session-id>",
		Short: "Rewrite the times of an existing session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			startAt, err := parseWhen(start)
			if err != nil {
				return err
			}
			endAt, err := parseWhen(end)
			if err != nil {
				return err
			}
			updated, err := a.svc.UpdateSession(cmd.Context(), args[0], startAt, endAt)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %s (%s)\n", updated.ID, updated.Duration().Round(time.Minute))
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "bedtime")
	cmd.Flags().StringVar(&end, "end", "", "wake time")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <session-id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.svc.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show sleep totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sessions, err := a.svc.RefreshFromRemote(cmd.Context())
			if err != nil {
				return err
			}
			summary := stats.Summarize(sessions)
			fmt.Printf("%d nights, %d hours total, %.1f hours per night\n",
				summary.Count, summary.TotalHours, summary.AvgHours)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sessions, err := a.svc.RefreshFromRemote(cmd.Context())
			if err != nil {
				return err
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			result := export.Sessions(w, sessions)
			for _, skipped := range result.Skipped {
				fmt.Fprintf(os.Stderr, "skipped %v\n", skipped)
			}
			fmt.Fprintf(os.Stderr, "exported %d sessions\n", result.Exported)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}

// newRefreshCmd is the explicit on-resume hook: re-sync cache and the shared
// state file with the remote store.
func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reconcile local state with the remote store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.auth.RefreshSession(cmd.Context()); err != nil {
				return err
			}
			sessions, err := a.svc.RefreshFromRemote(cmd.Context())
			if err != nil {
				return err
			}
			if active := a.svc.ActiveSession(); active != nil {
				fmt.Printf("Tracking since %s. %d sessions synced.\n", active.StartTime.Local().Format("15:04"), len(sessions))
			} else {
				fmt.Printf("Not tracking. %d sessions synced.\n", len(sessions))
			}
			return nil
		},
	}
}

func parseWhen(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q: want RFC 3339 or \"2006-01-02 15:04\"", value)
}
