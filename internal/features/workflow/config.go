package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"go-claims/internal/common/errs"

	"github.com/d5/tengo/v2"
)

// Rule names the engine knows how to run.
const (
	RuleAssignByAmount    = "assignByAmount"
	RuleAutoApproveSimple = "autoApproveSimple"
	RuleCheckStatus       = "checkStatus"
	RuleReassignClaim     = "reassignClaim"
	RuleEvaluateScript    = "evaluateScript"

	APITaskSendNotification = "sendNotification"

	DefaultTimerSeconds = 60
	MaxTimerSeconds     = 366 * 24 * 60 * 60
)

// ScriptGlobals are the variables an evaluateScript rule can read and assign.
// A script halts the branch by setting pass = false and may set assign_to.
var ScriptGlobals = map[string]any{
	"amount":      0.0,
	"risk_score":  0,
	"status":      "",
	"customer_id": "",
	"admin_id":    "",
	"pass":        true,
	"assign_to":   "",
}

// Options is the stored form of a step configuration: a flat object of
// string, number and boolean values.
type Options map[string]any

// StepConfig is the typed configuration of one step.
type StepConfig interface {
	TaskType() TaskType
	Validate() error
	options() Options
}

type ManualConfig struct {
	AssignedRole string
	Extra        Options
}

type RuleConfig struct {
	RuleName       string
	Threshold      *float64
	TargetAdminID  string
	ExpectedStatus string
	Script         string
	Extra          Options
}

// TimerConfig with DurationSeconds == 0 waits DefaultTimerSeconds.
type TimerConfig struct {
	DurationSeconds int
	Extra           Options
}

type APIConfig struct {
	Task     string
	Template string
	Extra    Options
}

func (ManualConfig) TaskType() TaskType { return TaskManual }
func (RuleConfig) TaskType() TaskType   { return TaskRule }
func (TimerConfig) TaskType() TaskType  { return TaskTimer }
func (APIConfig) TaskType() TaskType    { return TaskAPI }

// Duration is the wait in seconds, never more than MaxTimerSeconds.
func (t TimerConfig) Duration() int {
	switch {
	case t.DurationSeconds <= 0:
		return DefaultTimerSeconds
	case t.DurationSeconds > MaxTimerSeconds:
		return MaxTimerSeconds
	}
	return t.DurationSeconds
}

func (c ManualConfig) Validate() error { return nil }

func (c RuleConfig) Validate() error {
	switch c.RuleName {
	case "":
		return errs.Validation("RULE steps require a ruleName")
	case RuleAssignByAmount:
		if c.Threshold == nil || c.TargetAdminID == "" {
			return errs.Validation("assignByAmount requires threshold and targetAdminId")
		}
	case RuleReassignClaim:
		if c.TargetAdminID == "" {
			return errs.Validation("reassignClaim requires targetAdminId")
		}
	case RuleCheckStatus:
		switch c.ExpectedStatus {
		case "PENDING", "APPROVED", "DECLINED":
		default:
			return errs.Validation("checkStatus requires expectedStatus of PENDING, APPROVED or DECLINED")
		}
	case RuleEvaluateScript:
		if c.Script == "" {
			return errs.Validation("evaluateScript requires a script")
		}
		if _, err := CompileScript(c.Script); err != nil {
			return errs.Validation(fmt.Sprintf("script does not compile: %v", err))
		}
	}
	return nil
}

func (c TimerConfig) Validate() error {
	if c.DurationSeconds < 0 {
		return errs.Validation("durationSeconds must not be negative")
	}
	if c.DurationSeconds > MaxTimerSeconds {
		return errs.Validation(fmt.Sprintf("durationSeconds must be at most %d", MaxTimerSeconds))
	}
	return nil
}

func (c APIConfig) Validate() error {
	if c.Task == APITaskSendNotification && c.Template == "" {
		return errs.Validation("sendNotification requires a template")
	}
	return nil
}

// KnownRule reports whether the engine has a handler for name.
func KnownRule(name string) bool {
	switch name {
	case RuleAssignByAmount, RuleAutoApproveSimple, RuleCheckStatus, RuleReassignClaim, RuleEvaluateScript:
		return true
	}
	return false
}

// CompileScript compiles an evaluateScript body with the rule globals bound.
func CompileScript(src string) (*tengo.Compiled, error) {
	script := tengo.NewScript([]byte(src))
	for name, value := range ScriptGlobals {
		if err := script.Add(name, value); err != nil {
			return nil, err
		}
	}
	return script.Compile()
}

// ParseStepConfig decodes a stored blob into the variant for taskType.
// An empty or null blob yields the zero variant. Errors are configuration
// errors: the engine treats them as fatal for the step.
//
// Parsing canonicalizes: recognized options that are null or empty are
// dropped, string options given as numbers become strings ("targetAdminId": 7
// reads as "7") and numeric strings become numbers. MarshalStepConfig writes
// that canonical form, so a second parse and marshal is byte-stable.
func ParseStepConfig(taskType TaskType, blob []byte) (StepConfig, error) {
	opts, err := decodeOptions(blob)
	if err != nil {
		return nil, err
	}

	p := &optionReader{opts: opts}
	var cfg StepConfig
	switch taskType {
	case TaskManual:
		cfg = ManualConfig{AssignedRole: p.str("assignedRole"), Extra: p.rest()}
	case TaskRule:
		cfg = RuleConfig{
			RuleName:       p.str("ruleName"),
			Threshold:      p.num("threshold"),
			TargetAdminID:  p.str("targetAdminId"),
			ExpectedStatus: p.str("expectedStatus"),
			Script:         p.str("script"),
			Extra:          p.rest(),
		}
	case TaskTimer:
		seconds := p.integer("durationSeconds")
		if seconds > MaxTimerSeconds {
			p.fail("durationSeconds", fmt.Sprintf("at most %d", MaxTimerSeconds))
		}
		cfg = TimerConfig{DurationSeconds: seconds, Extra: p.rest()}
	case TaskAPI:
		cfg = APIConfig{Task: p.str("task"), Template: p.str("template"), Extra: p.rest()}
	default:
		return nil, errs.Configuration(fmt.Sprintf("unknown task type '%s'", taskType))
	}

	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// MarshalStepConfig encodes cfg into its stored form.
func MarshalStepConfig(cfg StepConfig) ([]byte, error) {
	return json.Marshal(cfg.options())
}

func (c ManualConfig) options() Options {
	o := c.Extra.clone()
	o.setStr("assignedRole", c.AssignedRole)
	return o
}

func (c RuleConfig) options() Options {
	o := c.Extra.clone()
	o.setStr("ruleName", c.RuleName)
	if c.Threshold != nil {
		o["threshold"] = *c.Threshold
	}
	o.setStr("targetAdminId", c.TargetAdminID)
	o.setStr("expectedStatus", c.ExpectedStatus)
	o.setStr("script", c.Script)
	return o
}

func (c TimerConfig) options() Options {
	o := c.Extra.clone()
	if c.DurationSeconds != 0 {
		o["durationSeconds"] = c.DurationSeconds
	}
	return o
}

func (c APIConfig) options() Options {
	o := c.Extra.clone()
	o.setStr("task", c.Task)
	o.setStr("template", c.Template)
	return o
}

func (o Options) clone() Options {
	out := make(Options, len(o)+4)
	for k, v := range o {
		out[k] = v
	}
	return out
}

func (o Options) setStr(key, value string) {
	if value != "" {
		o[key] = value
	}
}

func decodeOptions(blob []byte) (Options, error) {
	blob = bytes.TrimSpace(blob)
	if len(blob) == 0 || bytes.Equal(blob, []byte("null")) {
		return Options{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()
	var opts Options
	if err := dec.Decode(&opts); err != nil {
		return nil, errs.Configuration(fmt.Sprintf("Invalid step configuration JSON: %v", err))
	}
	if dec.More() {
		return nil, errs.Configuration("Invalid step configuration JSON: trailing data")
	}

	for k, v := range opts {
		switch n := v.(type) {
		case string, bool, nil:
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, errs.Configuration(fmt.Sprintf("option %q is not a valid number", k))
			}
			opts[k] = f
		default:
			return nil, errs.Configuration(fmt.Sprintf("option %q must be a string, number or boolean", k))
		}
	}
	if opts == nil {
		opts = Options{}
	}
	return opts, nil
}

// optionReader pulls recognized keys out of opts; whatever is left is kept
// as Extra so unrecognized options survive a round trip.
type optionReader struct {
	opts Options
	err  error
}

func (p *optionReader) take(key string) (any, bool) {
	v, ok := p.opts[key]
	if ok {
		delete(p.opts, key)
	}
	return v, ok && v != nil
}

func (p *optionReader) fail(key, want string) {
	if p.err == nil {
		p.err = errs.Configuration(fmt.Sprintf("option %q must be %s", key, want))
	}
}

func (p *optionReader) str(key string) string {
	v, ok := p.take(key)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	p.fail(key, "a string")
	return ""
}

func (p *optionReader) num(key string) *float64 {
	v, ok := p.take(key)
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return &f
		}
	}
	p.fail(key, "a number")
	return nil
}

func (p *optionReader) integer(key string) int {
	f := p.num(key)
	if f == nil {
		return 0
	}
	if *f != math.Trunc(*f) {
		p.fail(key, "a whole number")
		return 0
	}
	if math.Abs(*f) > math.MaxInt32 {
		p.fail(key, "a whole number in range")
		return 0
	}
	return int(*f)
}

func (p *optionReader) rest() Options {
	if len(p.opts) == 0 {
		return nil
	}
	return p.opts
}
