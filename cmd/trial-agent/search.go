package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ewbaxter/ClinicalTrialAgent/internal/agent"
	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find clinical trials matching a patient",
	Long: `Search runs one agent session for the given patient criteria. The model
searches ClinicalTrials.gov, filters trials by eligibility, and ranks the
eligible ones by distance, phase, and enrollment status.

Criteria come from flags or from a YAML file via --criteria. Finding no
eligible trials is a normal outcome, not an error.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("age", 0, "patient age in years")
	searchCmd.Flags().String("gender", "", "patient gender (male, female, other)")
	searchCmd.Flags().StringArray("condition", nil, "patient condition (repeatable)")
	searchCmd.Flags().String("city", "", "patient city")
	searchCmd.Flags().String("state", "", "patient state")
	searchCmd.Flags().String("criteria", "", "YAML file with patient criteria (overrides the flags above)")
	searchCmd.Flags().String("out", "", "write the full session result to this YAML file")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("verbose", false, "echo the audit log to stderr")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	patient, err := patientFromFlags(cmd)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Agent.ConsoleLog = true
	}

	runner, err := agent.NewRunner(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, runErr := runner.Search(ctx, patient)

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		if werr := agent.WriteResultFile(path, patient, cfg, out); werr != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", werr)
		} else {
			fmt.Fprintln(os.Stderr, "Result written to", path)
		}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		printOutcome(os.Stdout, out)
	}

	if runErr != nil {
		// Partial results were already printed; the exit code still
		// reports the failure.
		var exhausted *types.BudgetExhaustedError
		if errors.As(runErr, &exhausted) {
			fmt.Fprintln(os.Stderr, "Session ended before a final answer; results above are partial.")
		}
		return runErr
	}
	return nil
}

// patientFromFlags builds criteria from --criteria or the individual flags.
func patientFromFlags(cmd *cobra.Command) (types.PatientCriteria, error) {
	if path, _ := cmd.Flags().GetString("criteria"); path != "" {
		return agent.LoadCriteriaFile(path)
	}

	age, _ := cmd.Flags().GetInt("age")
	genderFlag, _ := cmd.Flags().GetString("gender")
	conditions, _ := cmd.Flags().GetStringArray("condition")
	city, _ := cmd.Flags().GetString("city")
	state, _ := cmd.Flags().GetString("state")

	gender, err := types.ParseGender(genderFlag)
	if err != nil {
		return types.PatientCriteria{}, err
	}

	patient := types.PatientCriteria{
		Age:        age,
		Gender:     gender,
		Conditions: conditions,
	}
	if city != "" || state != "" {
		patient.Location = &types.Location{City: city, State: state}
	}
	if err := patient.Validate(); err != nil {
		return types.PatientCriteria{}, fmt.Errorf("invalid criteria: %w (use --condition, or --criteria for a file)", err)
	}
	return patient, nil
}

// printOutcome renders the ranked trials as a table, followed by the
// model's closing summary.
func printOutcome(w io.Writer, out agent.Outcome) {
	var eligible []types.MatchResult
	for _, r := range out.Results {
		if r.Eligible {
			eligible = append(eligible, r)
		}
	}

	if len(eligible) == 0 {
		fmt.Fprintln(w, "No eligible trials found.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tNCT ID\tSCORE\tPHASE\tSTATUS\tTITLE")
		for i, r := range eligible {
			fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\t%s\n",
				i+1, r.Trial.TrialID, r.Score, r.Trial.Phase, r.Trial.Status, truncateTitle(r.Trial.Title))
		}
		tw.Flush()
	}

	if out.FinalText != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, out.FinalText)
	}
	if out.LogPath != "" {
		fmt.Fprintln(os.Stderr, "Audit log:", out.LogPath)
	}
}

func truncateTitle(s string) string {
	const max = 60
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "..."
}
