// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"
	"os"

	"github.com/ewbaxter/ClinicalTrialAgent/internal/auditlog"
	"github.com/ewbaxter/ClinicalTrialAgent/internal/llm"
	"github.com/ewbaxter/ClinicalTrialAgent/internal/trials"
	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// Runner wires the provider, trial client, and configuration into
// ready-to-run sessions. It is shared by the CLI and the local UI server.
type Runner struct {
	cfg      types.Config
	provider llm.Provider
	searcher TrialSearcher
}

// NewRunner builds a Runner from configuration, constructing the Anthropic
// provider and the ClinicalTrials.gov client.
func NewRunner(cfg types.Config) (*Runner, error) {
	provider, err := llm.NewAnthropicProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:      cfg,
		provider: provider,
		searcher: trials.NewClient(cfg.Search),
	}, nil
}

// NewRunnerWith builds a Runner with explicit collaborators, for tests.
func NewRunnerWith(cfg types.Config, provider llm.Provider, searcher TrialSearcher) *Runner {
	return &Runner{cfg: cfg, provider: provider, searcher: searcher}
}

// Search runs one end-to-end session for the given criteria. The audit log
// is written under the configured log directory; a log-sink failure is
// reported to stderr but never aborts the search.
func (r *Runner) Search(ctx context.Context, patient types.PatientCriteria) (Outcome, error) {
	sess, err := NewSession(patient)
	if err != nil {
		return Outcome{}, err
	}

	logger, lerr := auditlog.New(r.cfg.Agent.LogDir, sess.ID, r.cfg.Agent.ConsoleLog)
	if lerr != nil {
		fmt.Fprintf(os.Stderr, "warning: audit log disabled: %v\n", lerr)
		logger = nil
	}
	defer logger.Close()

	registry, err := NewToolset(sess, r.searcher, r.cfg.Search, r.cfg.Ranking)
	if err != nil {
		return Outcome{}, err
	}

	orch := &Orchestrator{
		Provider:   r.provider,
		Registry:   registry,
		Log:        logger,
		StepBudget: r.cfg.Agent.StepBudget,
	}
	out, err := orch.Run(ctx, sess)
	out.LogPath = logger.Path()
	return out, err
}
