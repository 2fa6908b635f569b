package engine

import (
	"context"
	"fmt"
	"sync"

	"go-claims/internal/common/errs"
	"go-claims/internal/features/claim"
	"go-claims/internal/features/workflow"
)

// Verdict tells the executor whether the workflow moves on after a rule.
type Verdict int

const (
	Proceed Verdict = iota
	// Halt ends the workflow branch without recording an error.
	Halt
)

// Run is the state a rule executes against. Mutations go through Store so
// they commit with the step; Claim is kept in step with them.
type Run struct {
	Claim  *claim.Claim
	Step   workflow.Step
	Config workflow.RuleConfig
	Store  Store

	notices []string
}

// Notify queues a customer notification, sent once the step commits.
func (r *Run) Notify(template string) {
	r.notices = append(r.notices, template)
}

type Rule func(ctx context.Context, run *Run) (Verdict, error)

type RuleRegistry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRuleRegistry returns a registry holding the built-in rules.
func NewRuleRegistry() *RuleRegistry {
	r := &RuleRegistry{rules: make(map[string]Rule)}
	r.Register(workflow.RuleAssignByAmount, assignByAmount)
	r.Register(workflow.RuleAutoApproveSimple, autoApproveSimple)
	r.Register(workflow.RuleCheckStatus, checkStatus)
	r.Register(workflow.RuleReassignClaim, reassignClaim)
	r.Register(workflow.RuleEvaluateScript, evaluateScript)
	return r
}

func (r *RuleRegistry) Register(name string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[name] = rule
}

func (r *RuleRegistry) Lookup(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

func assignByAmount(ctx context.Context, run *Run) (Verdict, error) {
	cfg := run.Config
	// Both options are required whatever the amount, as they are when the step is saved.
	if cfg.Threshold == nil || cfg.TargetAdminID == "" {
		return Proceed, errs.Configuration("Missing threshold or targetAdminId in assignByAmount rule config.")
	}
	if run.Claim.Amount >= *cfg.Threshold {
		return Proceed, nil
	}
	return Proceed, assign(ctx, run, cfg.TargetAdminID, fmt.Sprintf("Claim assigned to admin %s by workflow rule.", cfg.TargetAdminID))
}

func autoApproveSimple(ctx context.Context, run *Run) (Verdict, error) {
	if err := run.Store.SetStatus(ctx, run.Claim.ID, claim.StatusApproved); err != nil {
		return Proceed, err
	}
	run.Claim.Status = claim.StatusApproved
	if err := run.Store.AppendLog(ctx, run.Claim.ID, "Claim auto-approved by workflow rule."); err != nil {
		return Proceed, err
	}
	run.Notify("claimApproved")
	return Proceed, nil
}

func checkStatus(_ context.Context, run *Run) (Verdict, error) {
	if run.Config.ExpectedStatus == "" {
		return Proceed, errs.Configuration("Missing expectedStatus in checkStatus rule config.")
	}
	if string(run.Claim.Status) != run.Config.ExpectedStatus {
		return Halt, nil
	}
	return Proceed, nil
}

func reassignClaim(ctx context.Context, run *Run) (Verdict, error) {
	if run.Config.TargetAdminID == "" {
		return Proceed, errs.Configuration("Missing targetAdminId in reassignClaim rule config.")
	}
	if err := assign(ctx, run, run.Config.TargetAdminID, "Claim escalated and reassigned."); err != nil {
		return Proceed, err
	}
	run.Notify("claimEscalated")
	return Proceed, nil
}

func assign(ctx context.Context, run *Run, adminID, entry string) error {
	if err := run.Store.AssignAdmin(ctx, run.Claim.ID, adminID); err != nil {
		return err
	}
	run.Claim.AdminID = adminID
	return run.Store.AppendLog(ctx, run.Claim.ID, entry)
}
