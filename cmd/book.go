package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"goa.design/clue/log"

	"github.com/example/xmum-booking/internal/booking"
	"github.com/example/xmum-booking/internal/captcha"
	"github.com/example/xmum-booking/internal/config"
	"github.com/example/xmum-booking/internal/portal"
	"github.com/example/xmum-booking/internal/runner"
)

func newBookCmd() *cobra.Command {
	var (
		date     string
		roomType string
	)

	c := &cobra.Command{
		Use:   "book",
		Short: "Log in and book a library room",
		Long: "Logs in to eServices (solving the login captcha), discovers open slots\n" +
			"and books one. Without --date it books two days out using the default\n" +
			"weekday/weekend window; with --date it books any open slot on that date.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			creds, err := config.LoadCredentials()
			if err != nil {
				return err
			}
			if missing := creds.Missing(); len(missing) > 0 {
				fmt.Fprintln(os.Stderr, "✗ Missing credentials:", strings.Join(missing, ", "))
				fmt.Fprintln(os.Stderr, "  Run 'xmubook setup' or set the environment variables.")
				return fmt.Errorf("missing credentials")
			}

			room, ok := booking.ParseRoomType(roomType)
			if !ok {
				return fmt.Errorf("invalid --room-type %q (options: %s)", roomType, strings.Join(booking.RoomTypes(), ", "))
			}

			targets, err := booking.ResolveTargets(time.Now(), date, room, cfg.Windows)
			if err != nil {
				return err
			}

			format := log.FormatJSON
			if log.IsTerminal() {
				format = log.FormatTerminal
			}
			ctx := log.Context(cmd.Context(), log.WithFormat(format))
			if os.Getenv("XMUM_DEBUG") == "1" {
				ctx = log.Context(ctx, log.WithDebug())
			}

			printBanner(creds.Username, room, date, cfg.Windows)

			solver := captcha.New(creds.GeminiKey, cfg.CaptchaBaseURL, cfg.CaptchaModel)
			client, err := portal.New(cfg.BaseURL, cfg.UserAgent, cfg.HTTPTimeout, solver)
			if err != nil {
				return err
			}

			r := &runner.Runner{
				Portal:       client,
				Out:          os.Stdout,
				Attempts:     cfg.LoginAttempts,
				RetryDelay:   cfg.LoginRetryDelay,
				BookingPause: cfg.BookingPause,
				DatePause:    cfg.DatePause,
			}

			// Hard failures only (auth exhausted, token missing) surface as
			// errors; per-date no_slots/failed outcomes are still a
			// successful run.
			if _, err := r.Run(ctx, creds.Username, creds.Password, targets); err != nil {
				return err
			}
			fmt.Println("\nSession complete!")
			return nil
		},
	}

	c.Flags().StringVar(&date, "date", "", "book a specific date (YYYY-MM-DD); accepts any open slot")
	c.Flags().StringVar(&roomType, "room-type", string(booking.RoomGroup),
		fmt.Sprintf("room type to book (%s)", strings.Join(booking.RoomTypes(), "|")))
	return c
}

func printBanner(username string, room booking.RoomType, date string, w booking.Windows) {
	fmt.Println("╔==========================================================╗")
	fmt.Println("║               XMUM Auto Booking System                   ║")
	fmt.Println("╚==========================================================╝")
	fmt.Println()
	fmt.Printf("User:      %s\n", username)
	fmt.Printf("Room type: %s\n", room)
	if date != "" {
		fmt.Printf("Mode:      Manual → %s (any available time)\n", date)
	} else {
		fmt.Println("Mode:      Auto (2 days from now)")
		fmt.Printf("           Weekday %s-%s / Weekend %s-%s\n",
			w.WeekdayStart, w.WeekdayEnd, w.WeekendStart, w.WeekendEnd)
	}
}
