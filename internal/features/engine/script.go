package engine

import (
	"context"
	"fmt"
	"time"

	"go-claims/internal/common/errs"
	"go-claims/internal/features/workflow"
)

const scriptTimeout = 2 * time.Second

// evaluateScript runs the step's tengo script with the claim bound to the
// workflow.ScriptGlobals names. The script halts the branch with
// `pass = false` and reassigns the claim with `assign_to = "<admin>"`.
func evaluateScript(ctx context.Context, run *Run) (Verdict, error) {
	if run.Config.Script == "" {
		return Proceed, errs.Configuration("Missing script in evaluateScript rule config.")
	}

	compiled, err := workflow.CompileScript(run.Config.Script)
	if err != nil {
		return Proceed, errs.Configuration(fmt.Sprintf("evaluateScript does not compile: %v", err))
	}

	c := run.Claim
	for name, value := range map[string]any{
		"amount":      c.Amount,
		"risk_score":  c.RiskScore,
		"status":      string(c.Status),
		"customer_id": c.CustomerID,
		"admin_id":    c.AdminID,
	} {
		if err := compiled.Set(name, value); err != nil {
			return Proceed, err
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()
	if err := compiled.RunContext(runCtx); err != nil {
		return Proceed, fmt.Errorf("evaluateScript failed: %w", err)
	}

	if target := compiled.Get("assign_to").String(); target != "" && target != c.AdminID {
		if err := assign(ctx, run, target, fmt.Sprintf("Claim assigned to admin %s by script rule.", target)); err != nil {
			return Proceed, err
		}
	}
	if !compiled.Get("pass").Bool() {
		return Halt, nil
	}
	return Proceed, nil
}
