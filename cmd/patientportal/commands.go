package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/zatekoja/patientportal/internal/adapters/pickers"
	"github.com/zatekoja/patientportal/internal/application/services"
	"github.com/zatekoja/patientportal/internal/domain/entities"
	"github.com/zatekoja/patientportal/internal/domain/providers"
	apperrors "github.com/zatekoja/patientportal/pkg/errors"
)

// prompt reads answers from the command's stdin. Prompt text is only
// printed when stdin is a terminal so piped input stays quiet.
func (c *cli) prompt(cmd *cobra.Command) *pickers.Prompt {
	var promptOut io.Writer = io.Discard
	if f, ok := cmd.InOrStdin().(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		promptOut = cmd.ErrOrStderr()
	}
	return pickers.NewPrompt(cmd.InOrStdin(), promptOut)
}

func (c *cli) loginCmd() *cobra.Command {
	var login, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if password == "" {
				line, _, err := c.prompt(cmd).Ask(ctx, "Password: ")
				if err != nil {
					return err
				}
				password = line
			}

			if _, err := c.app.session.Login(ctx, login, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", login)
			return nil
		},
	}

	cmd.Flags().StringVar(&login, "login", "", "account login")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("login")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := c.app.session.Current(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !session.Authenticated() {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			fmt.Fprintln(out, "Logged in.")
			if session.ExpiresAt != nil {
				fmt.Fprintf(out, "Token expires %s.\n", session.ExpiresAt.In(c.app.loc).Format(time.RFC1123))
			}
			return nil
		},
	}
}

func (c *cli) visitsCmd() *cobra.Command {
	var expand []int

	cmd := &cobra.Command{
		Use:   "visits",
		Short: "List visits, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			history := c.app.history()
			if _, err := history.Load(ctx); err != nil {
				return err
			}
			for _, id := range expand {
				history.ToggleExpanded(id)
			}

			out := cmd.OutOrStdout()
			items := history.Items()
			renderVisits(out, items)

			for _, item := range items {
				if !item.Expanded {
					continue
				}
				fmt.Fprintln(out)
				renderVisitSummary(out, item)
				if !item.CanViewDetail {
					continue
				}
				detail, err := history.FetchDetail(ctx, item.Visit.ID)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Visit %d: %s\n", item.Visit.ID, apperrors.UserMessage(err))
					continue
				}
				renderRecommendations(out, detail.Recommendations)
			}
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&expand, "expand", nil, "visit ids to show in full")
	return cmd
}

func (c *cli) visitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "visit ID",
		Short: "Show one visit with its recommendations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return apperrors.NewValidationError(fmt.Sprintf("Visit id must be a number, got %q.", args[0]))
			}

			detail, err := c.app.history().FetchDetail(cmd.Context(), id)
			if err != nil {
				return err
			}
			renderVisitDetail(cmd.OutOrStdout(), detail)
			return nil
		},
	}
}

func (c *cli) doctorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctors",
		Short: "List doctors available for booking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workflow := c.app.booking(nil, nil)
			defer workflow.Close()

			if err := workflow.Start(cmd.Context()); err != nil {
				return err
			}
			renderDoctors(cmd.OutOrStdout(), workflow.Doctors())
			return nil
		},
	}
}

func (c *cli) bookCmd() *cobra.Command {
	var (
		doctorID int
		dateArg  string
		timeArg  string
	)

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment; missing values are asked for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			prompt := c.prompt(cmd)

			var dates providers.DatePicker = prompt
			if dateArg != "" {
				d, err := time.ParseInLocation(entities.DateLayout, dateArg, c.app.loc)
				if err != nil {
					return apperrors.NewValidationError(fmt.Sprintf("Date must look like 2024-05-20, got %q.", dateArg))
				}
				dates = pickers.Fixed{Value: d}
			}

			var times providers.TimePicker = prompt
			if timeArg != "" {
				t, err := time.Parse(entities.TimeLayout, timeArg)
				if err != nil {
					return apperrors.NewValidationError(fmt.Sprintf("Time must look like 14:30, got %q.", timeArg))
				}
				if interval := c.app.cfg.Booking.MinuteInterval; t.Minute()%interval != 0 {
					return apperrors.NewValidationError(fmt.Sprintf("Time must be on a %d-minute step.", interval))
				}
				times = pickers.Fixed{Value: t}
			}

			workflow := c.app.booking(dates, times)
			defer workflow.Close()

			if err := workflow.Start(ctx); err != nil {
				return err
			}

			if doctorID == 0 {
				renderDoctors(out, workflow.Doctors())
				line, ok, err := prompt.Ask(ctx, "Doctor ID: ")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Booking cancelled.")
					return nil
				}
				if doctorID, err = strconv.Atoi(line); err != nil {
					return apperrors.NewValidationError(services.MsgUnknownDoctor)
				}
			}
			if err := workflow.SelectDoctor(doctorID); err != nil {
				return err
			}

			if err := pickDate(ctx, workflow, dateArg == "", cmd.ErrOrStderr()); err != nil {
				return err
			}
			if _, err := workflow.PickTime(ctx); err != nil {
				return err
			}

			payload, err := workflow.Payload()
			if err != nil {
				return err
			}
			confirmation, err := workflow.Submit(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Booked %s at %s.\n", payload.Date, payload.Time)
			if confirmation.Message != "" {
				fmt.Fprintln(out, confirmation.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&doctorID, "doctor", 0, "doctor id")
	cmd.Flags().StringVar(&dateArg, "date", "", "appointment date, YYYY-MM-DD")
	cmd.Flags().StringVar(&timeArg, "time", "", "appointment time, HH:MM")
	return cmd
}

// pickDate reopens an interactive picker after a rejected date; a date
// given on the command line fails straight away.
func pickDate(ctx context.Context, workflow *services.BookingWorkflow, interactive bool, errOut io.Writer) error {
	for {
		_, err := workflow.PickDate(ctx)
		if err == nil {
			return nil
		}
		if !interactive || !apperrors.Is(err, apperrors.ErrorTypeValidation) {
			return err
		}
		fmt.Fprintln(errOut, apperrors.UserMessage(err))
	}
}

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the patient profile",
	}
	cmd.AddCommand(c.profileShowCmd(), c.profileUpdateCmd())
	return cmd
}

func (c *cli) profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := c.app.profiles().Get(cmd.Context())
			if err != nil {
				return err
			}
			renderProfile(cmd.OutOrStdout(), profile)
			return nil
		},
	}
}

func (c *cli) profileUpdateCmd() *cobra.Command {
	var update entities.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; fields not given keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profiles := c.app.profiles()

			current, err := profiles.Get(ctx)
			if err != nil {
				return err
			}

			merged := current.UpdateFrom()
			flags := cmd.Flags()
			if flags.Changed("name") {
				merged.Name = update.Name
			}
			if flags.Changed("surname") {
				merged.Surname = update.Surname
			}
			if flags.Changed("address") {
				merged.Address = update.Address
			}
			if flags.Changed("passport") {
				merged.Passport = update.Passport
			}
			if flags.Changed("telephone") {
				merged.Telephone = update.Telephone
			}
			if flags.Changed("login") {
				merged.Login = update.Login
			}
			merged.Password = update.Password

			updated, err := profiles.Update(ctx, current.ID, merged)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated.")
			renderProfile(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&update.Name, "name", "", "first name")
	flags.StringVar(&update.Surname, "surname", "", "surname")
	flags.StringVar(&update.Address, "address", "", "address")
	flags.StringVar(&update.Passport, "passport", "", "passport number")
	flags.StringVar(&update.Telephone, "telephone", "", "telephone")
	flags.StringVar(&update.Login, "login", "", "login")
	flags.StringVar(&update.Password, "password", "", "new password; omitted keeps the current one")
	return cmd
}
