// examctl is the terminal front end for the exam portal: log in, list
// exams, take an attempt with a live countdown and resume support, and
// review results.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/exam-portal/portal-client/internal/api"
	"github.com/exam-portal/portal-client/internal/auth"
	"github.com/exam-portal/portal-client/internal/config"
	"github.com/exam-portal/portal-client/internal/logger"
	"github.com/exam-portal/portal-client/internal/model"
	"github.com/exam-portal/portal-client/internal/validator"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	args := os.Args[2:]

	var err error
	switch os.Args[1] {
	case "login":
		err = runLogin(ctx, cfg, log)
	case "register":
		err = runRegister(ctx, cfg, log)
	case "logout":
		err = runLogout(cfg)
	case "whoami":
		err = runWhoami(cfg)
	case "exams":
		err = runExams(ctx, cfg, log)
	case "take":
		err = runTake(ctx, cfg, log, args)
	case "results":
		err = runResults(ctx, cfg, log, args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: examctl <command> [args]

Commands:
  login              Log in to the portal
  register           Create a portal account
  logout             Remove the stored credentials
  whoami             Show the logged-in user
  exams              List available exams
  take <exam-id>     Take an exam attempt
  results [exam-id]  Show results (one exam, or all of yours)`)
}

// authedClient builds an API client carrying the stored token.
func authedClient(cfg *config.Config, log zerolog.Logger) (*api.Client, *auth.Profile, error) {
	profile, err := auth.LoadProfile(cfg.ProfilePath())
	if err != nil {
		return nil, nil, fmt.Errorf("load profile (run `examctl login` first): %w", err)
	}
	client := api.New(cfg.APIBaseURL, cfg.HTTPTimeout, log)
	client.SetToken(profile.Token)
	return client, profile, nil
}

func runLogin(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	client := api.New(cfg.APIBaseURL, cfg.HTTPTimeout, log)
	profile, err := auth.Login(ctx, client, cfg.ProfilePath(), email, password)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s (%s)\n", profile.Email, profile.Role)
	return nil
}

func runRegister(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	name, err := promptLine("Name: ")
	if err != nil {
		return err
	}
	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	req := model.RegisterRequest{Name: name, Email: email, Password: password}
	if fields := validator.Struct(req); fields != nil {
		return fmt.Errorf("invalid input: %v", fields)
	}

	client := api.New(cfg.APIBaseURL, cfg.HTTPTimeout, log)
	user, err := client.Register(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("Registered %s. Run `examctl login` to sign in.\n", user.Email)
	return nil
}

func runLogout(cfg *config.Config) error {
	if err := auth.DeleteProfile(cfg.ProfilePath()); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(cfg *config.Config) error {
	profile, err := auth.LoadProfile(cfg.ProfilePath())
	if err != nil {
		return err
	}
	fmt.Printf("%s (id %d, %s)\n", profile.Email, profile.UserID, profile.Role)
	return nil
}

func runExams(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, _, err := authedClient(cfg, log)
	if err != nil {
		return err
	}

	exams, err := client.ListExams(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDURATION\tMARKS\tQUESTIONS")
	for _, e := range exams {
		fmt.Fprintf(w, "%d\t%s\t%dm\t%.0f\t%d\n",
			e.ID, e.Title, e.DurationMinutes, e.TotalMarks, len(e.QuestionIDs))
	}
	return w.Flush()
}

func runResults(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	client, profile, err := authedClient(cfg, log)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		examID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad exam id %q", args[0])
		}
		result, err := client.GetResult(ctx, examID, profile.UserID)
		if err != nil {
			if api.IsNotFound(err) {
				fmt.Println("No result for this exam yet.")
				return nil
			}
			return err
		}
		printResults([]model.Result{*result})
		return nil
	}

	var results []model.Result
	user := profile.User()
	if user.IsAdmin() {
		results, err = client.ListAllResults(ctx)
	} else {
		results, err = client.ListResultsByUser(ctx, profile.UserID)
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	printResults(results)
	return nil
}

func printResults(results []model.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RESULT\tEXAM\tUSER\tOBTAINED\tTOTAL\tFEEDBACK")
	for _, r := range results {
		feedback := r.Feedback
		if feedback == "" {
			feedback = "-"
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%.1f\t%.1f\t%s\n",
			r.ID, r.ExamID, r.UserID, r.MarksObtained, r.TotalMarks, feedback)
	}
	w.Flush()
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
