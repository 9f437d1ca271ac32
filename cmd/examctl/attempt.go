package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/exam-portal/portal-client/internal/api"
	"github.com/exam-portal/portal-client/internal/config"
	"github.com/exam-portal/portal-client/internal/session"
	"github.com/exam-portal/portal-client/internal/snapshot"
)

// runTake drives the interactive attempt flow. Input commands:
// an option number selects an answer, n saves and advances, p goes
// back, s submits (with confirmation), q quits keeping the snapshot.
func runTake(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: examctl take <exam-id>")
	}
	examID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad exam id %q", args[0])
	}

	client, profile, err := authedClient(cfg, log)
	if err != nil {
		return err
	}

	if err := cfg.EnsureStateDir(); err != nil {
		return err
	}
	store, err := snapshot.Open(cfg.SnapshotPath(), log)
	if err != nil {
		return err
	}
	defer store.Close()

	sess := session.New(client, store, profile.User(), log)
	if err := sess.Start(ctx, examID); err != nil {
		if api.IsNotFound(err) {
			fmt.Println("Exam not found or failed to load.")
			return nil
		}
		return err
	}
	defer sess.Close()

	exam := sess.Exam()
	fmt.Printf("\n%s: %d questions, %s, %.0f marks total\n",
		exam.Title, len(sess.Questions()), formatTime(sess.TimeLeft()), exam.TotalMarks)
	if sess.ResumeAvailable() {
		fmt.Println("Resuming your unfinished attempt for this exam.")
	}

	lines := readLines()
	for {
		renderQuestion(sess)

		select {
		case outcome := <-sess.AutoSubmitted():
			fmt.Println("\nTime is up. Your attempt was submitted automatically.")
			if outcome.Err != nil {
				return fmt.Errorf("auto-submit: %w", outcome.Err)
			}
			printAttemptResult(outcome.Result)
			return nil

		case line, ok := <-lines:
			if !ok {
				sess.Close()
				fmt.Println("Input closed. Progress saved; resume with `examctl take`.")
				return nil
			}
			done, err := handleCommand(ctx, sess, lines, strings.TrimSpace(line))
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

func handleCommand(ctx context.Context, sess *session.Session, lines <-chan string, line string) (bool, error) {
	switch {
	case line == "q":
		sess.Close()
		fmt.Println("Progress saved; resume with `examctl take`.")
		return true, nil

	case line == "n":
		if err := sess.SaveCurrentAndAdvance(ctx); err != nil {
			return false, err
		}

	case line == "p":
		if err := sess.GoBack(ctx); err != nil {
			return false, err
		}

	case line == "s":
		fmt.Printf("Submit with %d of %d answered? (y/N) ",
			sess.AnsweredCount(), len(sess.Questions()))
		confirm, ok := <-lines
		if !ok || strings.TrimSpace(confirm) != "y" {
			fmt.Println("Submit cancelled.")
			return false, nil
		}
		result, err := sess.Submit(ctx)
		if err != nil {
			// Finalize failures leave the attempt resumable; tell the
			// user instead of bailing out of the loop.
			fmt.Printf("Submit failed (%v). You can try again.\n", err)
			return false, nil
		}
		printAttemptResult(result)
		return true, nil

	case line != "":
		option, err := strconv.Atoi(line)
		if err != nil {
			fmt.Println("Enter an option number, or n/p/s/q.")
			return false, nil
		}
		q := sess.CurrentQuestion()
		if err := sess.SelectAnswer(ctx, q.ID, option-1); err != nil {
			fmt.Println("That option does not exist.")
		}
	}
	return false, nil
}

func renderQuestion(sess *session.Session) {
	q := sess.CurrentQuestion()
	idx := sess.CurrentIndex()
	total := len(sess.Questions())
	answers := sess.Answers()

	fmt.Printf("\n[%s]  Question %d/%d  (%.0f marks)  answered %d/%d\n",
		formatTime(sess.TimeLeft()), idx+1, total, q.Marks, len(answers), total)
	fmt.Println(q.Text)
	selected, hasSelection := answers[q.ID]
	for i, opt := range q.Options {
		marker := " "
		if hasSelection && i == selected {
			marker = "*"
		}
		fmt.Printf("  %s %d) %s\n", marker, i+1, opt)
	}
	fmt.Print("> ")
}

func printAttemptResult(r *session.Result) {
	percentage := 0.0
	if r.TotalMarks > 0 {
		percentage = r.Score / r.TotalMarks * 100
	}
	fmt.Printf("\n%s: results\n", r.Exam.Title)
	fmt.Printf("Score: %.1f / %.1f (%.0f%%)\n", r.Score, r.TotalMarks, percentage)
	fmt.Printf("Attempted %d  Correct %d  Wrong %d\n",
		r.AttemptedCount, r.CorrectCount, r.WrongCount)

	for i, q := range r.Questions {
		status := "skipped"
		if ans, ok := r.Answers[q.ID]; ok {
			if ans == q.CorrectOption {
				status = "correct"
			} else {
				status = fmt.Sprintf("wrong (answered %d, correct %d)", ans+1, q.CorrectOption+1)
			}
		}
		fmt.Printf("  Q%d: %s\n", i+1, status)
	}
}

func formatTime(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// readLines pumps stdin lines into a channel so the render loop can
// also watch for timer-driven auto-submission.
func readLines() <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}
