// Package runner is the top-level booking orchestrator: one Run covers
// authentication with bounded retries, a single CSRF token extraction, and
// sequential processing of each target date into an Outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"goa.design/clue/log"

	"github.com/example/xmum-booking/internal/booking"
)

// ErrAuthExhausted is the hard run failure for login retries running out.
var ErrAuthExhausted = errors.New("login failed")

// Runner executes one booking run. Out receives the human-readable
// progress and summary; structured logs go through the context logger.
type Runner struct {
	Portal booking.Portal
	Out    io.Writer

	Attempts     int           // login attempts before giving up
	RetryDelay   time.Duration // between login attempts
	BookingPause time.Duration // after a booking attempt
	DatePause    time.Duration // after each processed date

	// Sleep is swappable in tests; nil means time.Sleep.
	Sleep func(time.Duration)
}

func (r *Runner) sleep(d time.Duration) {
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Run processes targets in order and returns one Outcome per target. The
// returned error is non-nil only for the two hard failures: authentication
// exhausted and token extraction failed. Everything after that — no slots,
// rejected bookings, transport errors during discovery — degrades to a
// per-date status and the run continues.
//
// Requests are strictly sequential. The portal shares one session and one
// CSRF token across the run; overlapping requests risk invalidating both
// and racing ourselves for the same slot.
func (r *Runner) Run(ctx context.Context, username, password string, targets []booking.Target) ([]booking.Outcome, error) {
	ctx = log.With(ctx, log.KV{K: "run", V: uuid.NewString()})

	if err := r.login(ctx, username, password); err != nil {
		return nil, err
	}

	fmt.Fprintf(r.Out, "\n%s\n", banner("Starting room booking process..."))
	token, err := r.Portal.Token(ctx)
	if err != nil {
		fmt.Fprintf(r.Out, "✗ Failed to extract CSRF token: %v\n", err)
		return nil, fmt.Errorf("extract csrf token: %w", err)
	}
	fmt.Fprintln(r.Out, "✓ CSRF token obtained")

	var outcomes []booking.Outcome
	for _, t := range targets {
		outcomes = append(outcomes, r.processDate(ctx, t, token))
		r.sleep(r.DatePause)
	}

	r.printSummary(outcomes)
	return outcomes, nil
}

// login drives the bounded retry loop. Captcha misreads and transient
// credential rejections are indistinguishable from out here, so every
// failure gets the same uniform retry.
func (r *Runner) login(ctx context.Context, username, password string) error {
	var lastErr error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		fmt.Fprintf(r.Out, "\nLogin attempt %d/%d\n", attempt, r.Attempts)
		lastErr = r.Portal.Login(ctx, username, password)
		if lastErr == nil {
			fmt.Fprintln(r.Out, "✓ Login successful!")
			return nil
		}
		fmt.Fprintf(r.Out, "✗ Login failed: %v\n", lastErr)
		log.Errorf(ctx, lastErr, "login attempt %d/%d failed", attempt, r.Attempts)
		if attempt < r.Attempts {
			fmt.Fprintf(r.Out, "Retrying in %v...\n", r.RetryDelay)
			r.sleep(r.RetryDelay)
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrAuthExhausted, r.Attempts, lastErr)
}

// processDate resolves one target into a terminal Outcome. No failure
// escapes: whatever discovery or booking does, the date gets a status.
func (r *Runner) processDate(ctx context.Context, t booking.Target, token string) booking.Outcome {
	out := booking.Outcome{Date: t.Date, DayName: t.DayName}

	fmt.Fprintf(r.Out, "\n%s\n", banner(fmt.Sprintf("Processing %s, %s  [room type: %s]", t.DayName, t.Date, t.RoomType)))
	if !t.Select.Any() {
		fmt.Fprintf(r.Out, "  Time target: %s-%s\n", t.Select.Start, t.Select.End)
	}

	disc, err := r.Portal.Slots(ctx, t.Date, token, t.RoomType, t.Select)
	if err != nil {
		fmt.Fprintf(r.Out, "  ✗ Error getting rooms: %v\n", err)
		out.Status = booking.StatusFailed
		out.Reason = err.Error()
		return out
	}

	if len(disc.Matched) == 0 {
		r.reportEmpty(t, disc)
		out.Status = booking.StatusNoSlots
		return out
	}

	for _, s := range disc.Matched {
		fmt.Fprintf(r.Out, "  ✓ Candidate: %s (%s-%s)\n", s.RoomName, s.StartTime, s.EndTime)
	}

	// Only the first candidate is attempted per date. Falling through to
	// the next candidate after a rejection would mean rapid-fire booking
	// attempts against a shared, contested resource.
	slot := disc.Matched[0]
	fmt.Fprintf(r.Out, "  [*] Booking: %s  %s  %s-%s\n", slot.RoomName, slot.Date, slot.StartTime, slot.EndTime)
	err = r.Portal.Book(ctx, slot, token)
	r.sleep(r.BookingPause)
	if err != nil {
		fmt.Fprintf(r.Out, "  ✗ Booking failed: %v\n", err)
		log.Errorf(ctx, err, "booking failed for %s", t.Date)
		out.Status = booking.StatusFailed
		out.Reason = err.Error()
		return out
	}

	fmt.Fprintln(r.Out, "  ✓ Booking successful!")
	out.Status = booking.StatusBooked
	out.RoomName = slot.RoomName
	return out
}

// reportEmpty explains a zero-candidate date: either the table was absent
// altogether, or slots were open but none fit the requested window — in
// which case a short preview of what was available helps the user pick a
// different window next time.
func (r *Runner) reportEmpty(t booking.Target, disc booking.Discovery) {
	if !disc.TableFound {
		fmt.Fprintf(r.Out, "  ✗ Room table for type %q not found in response\n", t.RoomType)
		return
	}
	fmt.Fprintln(r.Out, "  ✗ No available rooms found")
	if t.Select.Any() || len(disc.Open) == 0 {
		return
	}
	fmt.Fprintf(r.Out, "  ℹ No %s-%s slots. Available (%d):\n", t.Select.Start, t.Select.End, len(disc.Open))
	const previewMax = 5
	for i, s := range disc.Open {
		if i == previewMax {
			fmt.Fprintf(r.Out, "     ... and %d more\n", len(disc.Open)-previewMax)
			break
		}
		fmt.Fprintf(r.Out, "     - %s (%s-%s)\n", s.RoomName, s.StartTime, s.EndTime)
	}
}

func (r *Runner) printSummary(outcomes []booking.Outcome) {
	fmt.Fprintf(r.Out, "\n%s\n", banner("BOOKING SUMMARY"))
	for _, o := range outcomes {
		switch o.Status {
		case booking.StatusBooked:
			fmt.Fprintf(r.Out, "✓ %s, %s: BOOKED → %s\n", o.DayName, o.Date, o.RoomName)
		case booking.StatusNoSlots:
			fmt.Fprintf(r.Out, "○ %s, %s: NO AVAILABLE ROOMS\n", o.DayName, o.Date)
		default:
			fmt.Fprintf(r.Out, "✗ %s, %s: FAILED (%s)\n", o.DayName, o.Date, o.Reason)
		}
	}
}

const rule = "============================================================"

func banner(title string) string {
	return rule + "\n" + title + "\n" + rule
}
