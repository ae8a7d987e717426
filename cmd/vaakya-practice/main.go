// Command vaakya-practice is an interactive terminal client for a Vaakya
// server. It drives one practice session: fetch an exercise, record the
// patient's attempt as a WAV file out of band, submit it for scoring, and
// walk the tier progression until the session quota is met.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kalpana-health/vaakya/internal/therapy"
	"github.com/kalpana-health/vaakya/pkg/client"
	"github.com/kalpana-health/vaakya/pkg/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	serverURL := flag.String("server", "http://localhost:8080", "base URL of the Vaakya server")
	patientID := flag.String("patient", "", "patient identifier (required)")
	language := flag.String("language", "en", "practice language")
	tier := flag.String("tier", "easy", "starting difficulty tier (easy, medium, hard)")
	quota := flag.Int("quota", 10, "attempts per session")
	flag.Parse()

	if *patientID == "" {
		fmt.Fprintln(os.Stderr, "vaakya-practice: -patient is required")
		return 2
	}

	cl, err := client.New(*serverURL, client.WithQuota(*quota))
	if err != nil {
		fmt.Fprintf(os.Stderr, "vaakya-practice: %v\n", err)
		return 1
	}

	ctrl, err := therapy.NewController(therapy.ControllerConfig{
		Lifecycle:   cl,
		Exercises:   cl,
		Scorer:      cl,
		Language:    *language,
		PatientID:   *patientID,
		InitialTier: therapy.Tier(*tier),
		Quota:       *quota,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "vaakya-practice: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "vaakya-practice: start session: %v\n", err)
		return 1
	}
	if ctrl.LocalOnly() {
		fmt.Println("warning: server unreachable, practising locally; progress will not be saved")
	}
	fmt.Printf("session %s started at tier %s (%d attempts)\n\n",
		ctrl.SessionID(), ctrl.Progress().Tier, *quota)

	if err := practiceLoop(ctx, ctrl, cl); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("\ninterrupted")
			return 0
		}
		fmt.Fprintf(os.Stderr, "vaakya-practice: %v\n", err)
		return 1
	}
	return 0
}

// practiceLoop runs the attempt/confirm cycle until the session completes or
// the patient quits.
func practiceLoop(ctx context.Context, ctrl *therapy.Controller, cl *client.Client) error {
	in := bufio.NewScanner(os.Stdin)

	for ctrl.State() != therapy.StateComplete {
		ex, err := ctrl.CurrentExercise(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("── %s (%s) ──\n", strings.ToUpper(string(ex.Tier)), ex.Category)
		fmt.Printf("say: %q\n", ex.Prompt)
		if ex.ImageURL != "" {
			fmt.Printf("picture: %s\n", ex.ImageURL)
		}
		fmt.Print("path to WAV recording (or q to quit): ")
		if !in.Scan() {
			break
		}
		line := strings.TrimSpace(in.Text())
		if line == "q" {
			return quitEarly(ctx, ctrl, cl)
		}
		if line == "" {
			continue
		}

		data, err := os.ReadFile(line)
		if err != nil {
			fmt.Printf("cannot read recording: %v\n\n", err)
			continue
		}

		outcome, err := ctrl.SubmitAttempt(ctx, types.AudioClip{Data: data, MIMEType: "audio/wav"})
		if err != nil {
			// The attempt was not counted; the same exercise stays current.
			fmt.Printf("scoring failed: %v\nretry the same exercise\n\n", err)
			continue
		}
		printOutcome(outcome)

		if outcome.PendingTier != "" {
			accept := askYesNo(in, fmt.Sprintf("your scores suggest moving to %s, switch? [y/N]: ", outcome.PendingTier))
			if err := ctrl.ConfirmTierChange(ctx, accept); err != nil {
				fmt.Printf("tier change failed: %v\n\n", err)
			}
		}
		if outcome.Completion != nil {
			printCompletion(outcome.Completion)
			return nil
		}
	}
	return in.Err()
}

// quitEarly finalises the session on the server before exiting, so the tier
// verdict is recorded even for a short session.
func quitEarly(ctx context.Context, ctrl *therapy.Controller, cl *client.Client) error {
	if ctrl.LocalOnly() {
		fmt.Println("local session abandoned")
		return nil
	}
	res, err := cl.Complete(ctx, ctrl.SessionID())
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	printCompletion(&res)
	return nil
}

func printOutcome(o therapy.AttemptOutcome) {
	fmt.Printf("heard:    %q\n", o.Result.Transcription)
	fmt.Printf("score:    %.0f/100\n", float64(o.Result.Score))
	if o.Result.Feedback != "" {
		fmt.Printf("feedback: %s\n", o.Result.Feedback)
	}
	fmt.Printf("progress: %d attempts, mean %.1f\n\n", o.Progress.Attempts, o.Progress.Mean)
}

func printCompletion(res *therapy.CompleteResult) {
	fmt.Println("── session complete ──")
	if res.Message != "" {
		fmt.Println(res.Message)
	}
	fmt.Printf("final tier: %s\n", res.FinalTier)
	if res.NextTier != "" && res.NextTier != res.FinalTier {
		fmt.Printf("next session starts at: %s\n", res.NextTier)
	}
}

func askYesNo(in *bufio.Scanner, prompt string) bool {
	fmt.Print(prompt)
	if !in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(in.Text()))
	return answer == "y" || answer == "yes"
}
