// Package memstore is an in-memory stand-in for the SQL entity store. It
// implements the repository interfaces and database.Transactor so services
// can be exercised without a database. Locking reads and updates take a
// per-row lock that a transaction holds until it ends, like SELECT ... FOR
// UPDATE; a failed transaction undoes its own writes.
package memstore

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"time"

	"go-claims/internal/features/claim"
	"go-claims/internal/features/policy"
	"go-claims/internal/features/scheduler"
	"go-claims/internal/features/workflow"
)

var ErrDuplicate = errors.New("memstore: duplicate key")

type txKey struct{}

type tx struct {
	held map[string]*sync.Mutex
	undo []func(d *data)
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

func (t *tx) release() {
	for _, m := range t.held {
		m.Unlock()
	}
}

type data struct {
	workflows map[string]workflow.Definition
	steps     map[string]workflow.Step
	claims    map[string]claim.Claim
	logs      map[string][]claim.LogEntry
	policies  map[string]policy.Policy
	links     map[[2]string]bool
	payments  []policy.Payment
	timers    map[string]scheduler.Timer
	seq       int64
}

func newData() *data {
	return &data{
		workflows: map[string]workflow.Definition{},
		steps:     map[string]workflow.Step{},
		claims:    map[string]claim.Claim{},
		logs:      map[string][]claim.LogEntry{},
		policies:  map[string]policy.Policy{},
		links:     map[[2]string]bool{},
		timers:    map[string]scheduler.Timer{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.workflows {
		c.workflows[k] = v
	}
	for k, v := range d.steps {
		c.steps[k] = v
	}
	for k, v := range d.claims {
		v.CurrentStepOrder = copyInt(v.CurrentStepOrder)
		c.claims[k] = v
	}
	for k, v := range d.logs {
		c.logs[k] = append([]claim.LogEntry(nil), v...)
	}
	for k, v := range d.policies {
		c.policies[k] = v
	}
	for k, v := range d.links {
		c.links[k] = v
	}
	c.payments = append([]policy.Payment(nil), d.payments...)
	for k, v := range d.timers {
		v.NextStepOrder = copyInt(v.NextStepOrder)
		c.timers[k] = v
	}
	c.seq = d.seq
	return c
}

// changes returns a func that puts back every entry d changed since before.
// Only the touched keys are restored, so concurrent transactions on other
// rows keep their writes.
func (d *data) changes(before *data) func(d *data) {
	workflows := revert(d.workflows, before.workflows)
	steps := revert(d.steps, before.steps)
	claims := revert(d.claims, before.claims)
	logs := revert(d.logs, before.logs)
	policies := revert(d.policies, before.policies)
	links := revert(d.links, before.links)
	timers := revert(d.timers, before.timers)

	added := map[string]bool{}
	for _, p := range d.payments[len(before.payments):] {
		added[p.ID] = true
	}

	return func(d *data) {
		workflows(d.workflows)
		steps(d.steps)
		claims(d.claims)
		logs(d.logs)
		policies(d.policies)
		links(d.links)
		timers(d.timers)
		if len(added) > 0 {
			kept := d.payments[:0]
			for _, p := range d.payments {
				if !added[p.ID] {
					kept = append(kept, p)
				}
			}
			d.payments = kept
		}
	}
}

func revert[K comparable, V any](cur, before map[K]V) func(m map[K]V) {
	type entry struct {
		key     K
		value   V
		existed bool
	}
	var entries []entry
	for k, v := range cur {
		old, ok := before[k]
		if !ok || !reflect.DeepEqual(old, v) {
			entries = append(entries, entry{k, old, ok})
		}
	}
	for k, v := range before {
		if _, ok := cur[k]; !ok {
			entries = append(entries, entry{k, v, true})
		}
	}
	return func(m map[K]V) {
		for _, e := range entries {
			if e.existed {
				m[e.key] = e.value
			} else {
				delete(m, e.key)
			}
		}
	}
}

type Store struct {
	mu   sync.Mutex
	d    *data
	rows map[string]*sync.Mutex

	// Commits counts successful top-level transactions.
	Commits int
}

func New() *Store {
	return &Store{d: newData(), rows: map[string]*sync.Mutex{}}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	t := &tx{held: map[string]*sync.Mutex{}}
	defer t.release()

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		s.mu.Lock()
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i](s.d)
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

// with runs fn against the data. Inside a transaction the writes fn makes
// are remembered so a rollback can undo them.
func (s *Store) with(ctx context.Context, fn func(d *data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := txFrom(ctx)
	if t == nil {
		return fn(s.d)
	}
	before := s.d.clone()
	err := fn(s.d)
	t.undo = append(t.undo, s.d.changes(before))
	return err
}

func (s *Store) row(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[key]
	if !ok {
		m = &sync.Mutex{}
		s.rows[key] = m
	}
	return m
}

// lock takes the row lock for key. A transaction keeps it until it ends;
// outside one the returned func releases it after the single statement.
func (s *Store) lock(ctx context.Context, key string) func() {
	m := s.row(key)
	t := txFrom(ctx)
	if t == nil {
		m.Lock()
		return m.Unlock
	}
	if _, ok := t.held[key]; !ok {
		m.Lock()
		t.held[key] = m
	}
	return func() {}
}

// tryLock is lock for SKIP LOCKED reads: it reports false instead of
// waiting when another transaction holds the row.
func (s *Store) tryLock(ctx context.Context, key string) bool {
	t := txFrom(ctx)
	if t == nil {
		return true
	}
	if _, ok := t.held[key]; ok {
		return true
	}
	m := s.row(key)
	if !m.TryLock() {
		return false
	}
	t.held[key] = m
	return true
}

func (s *Store) Workflows() *Workflows { return &Workflows{s: s} }
func (s *Store) Claims() *Claims       { return &Claims{s: s} }
func (s *Store) Policies() *Policies   { return &Policies{s: s} }
func (s *Store) Timers() *Timers       { return &Timers{s: s} }

// Payments returns a copy of every recorded payment.
func (s *Store) Payments() []policy.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]policy.Payment(nil), s.d.payments...)
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Workflows implements workflow.WorkflowRepository.
type Workflows struct{ s *Store }

func (r *Workflows) List(ctx context.Context) ([]workflow.Definition, error) {
	var out []workflow.Definition
	err := r.s.with(ctx, func(d *data) error {
		out = make([]workflow.Definition, 0, len(d.workflows))
		for _, w := range d.workflows {
			out = append(out, w)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *Workflows) Get(ctx context.Context, id string) (*workflow.Definition, error) {
	var out *workflow.Definition
	err := r.s.with(ctx, func(d *data) error {
		if w, ok := d.workflows[id]; ok {
			out = &w
		}
		return nil
	})
	return out, err
}

func (r *Workflows) Create(ctx context.Context, def workflow.Definition) error {
	return r.s.with(ctx, func(d *data) error {
		if _, ok := d.workflows[def.ID]; ok {
			return ErrDuplicate
		}
		def.Steps = nil
		d.workflows[def.ID] = def
		return nil
	})
}

func (r *Workflows) Update(ctx context.Context, def workflow.Definition) (bool, error) {
	var ok bool
	err := r.s.with(ctx, func(d *data) error {
		if _, ok = d.workflows[def.ID]; ok {
			def.Steps = nil
			d.workflows[def.ID] = def
		}
		return nil
	})
	return ok, err
}

func (r *Workflows) Delete(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.s.with(ctx, func(d *data) error {
		if _, ok = d.workflows[id]; ok {
			delete(d.workflows, id)
		}
		return nil
	})
	return ok, err
}

func (r *Workflows) CountClaims(ctx context.Context, id string) (int, error) {
	n := 0
	err := r.s.with(ctx, func(d *data) error {
		for _, c := range d.claims {
			if c.WorkflowID == id {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *Workflows) ListSteps(ctx context.Context, workflowID string) ([]workflow.Step, error) {
	var out []workflow.Step
	err := r.s.with(ctx, func(d *data) error {
		out = stepsOf(d, workflowID)
		return nil
	})
	return out, err
}

func stepsOf(d *data, workflowID string) []workflow.Step {
	steps := []workflow.Step{}
	for _, st := range d.steps {
		if st.WorkflowID == workflowID {
			steps = append(steps, st)
		}
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps
}

func (r *Workflows) GetStep(ctx context.Context, workflowID string, order int) (*workflow.Step, error) {
	var out *workflow.Step
	err := r.s.with(ctx, func(d *data) error {
		for _, st := range stepsOf(d, workflowID) {
			if st.Order == order {
				out = &st
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *Workflows) GetStepByID(ctx context.Context, workflowID, stepID string) (*workflow.Step, error) {
	var out *workflow.Step
	err := r.s.with(ctx, func(d *data) error {
		if st, ok := d.steps[stepID]; ok && st.WorkflowID == workflowID {
			out = &st
		}
		return nil
	})
	return out, err
}

func (r *Workflows) FirstStepOrder(ctx context.Context, workflowID string) (*int, error) {
	var out *int
	err := r.s.with(ctx, func(d *data) error {
		if steps := stepsOf(d, workflowID); len(steps) > 0 {
			out = &steps[0].Order
		}
		return nil
	})
	return out, err
}

func (r *Workflows) NextStepOrder(ctx context.Context, workflowID string, after int) (*int, error) {
	var out *int
	err := r.s.with(ctx, func(d *data) error {
		for _, st := range stepsOf(d, workflowID) {
			if st.Order > after {
				order := st.Order
				out = &order
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *Workflows) CreateStep(ctx context.Context, step workflow.Step) error {
	return r.s.with(ctx, func(d *data) error {
		for _, st := range stepsOf(d, step.WorkflowID) {
			if st.Order == step.Order {
				return ErrDuplicate
			}
		}
		d.steps[step.ID] = step
		return nil
	})
}

func (r *Workflows) UpdateStep(ctx context.Context, step workflow.Step) (bool, error) {
	var ok bool
	err := r.s.with(ctx, func(d *data) error {
		if _, ok = d.steps[step.ID]; ok {
			d.steps[step.ID] = step
		}
		return nil
	})
	return ok, err
}

func (r *Workflows) DeleteStep(ctx context.Context, workflowID, stepID string) (bool, error) {
	var ok bool
	err := r.s.with(ctx, func(d *data) error {
		st, found := d.steps[stepID]
		ok = found && st.WorkflowID == workflowID
		if ok {
			delete(d.steps, stepID)
		}
		return nil
	})
	return ok, err
}

func (r *Workflows) DeleteSteps(ctx context.Context, workflowID string) error {
	return r.s.with(ctx, func(d *data) error {
		for id, st := range d.steps {
			if st.WorkflowID == workflowID {
				delete(d.steps, id)
			}
		}
		return nil
	})
}

// Claims implements claim.ClaimRepository.
type Claims struct{ s *Store }

func (r *Claims) Insert(ctx context.Context, c claim.Claim) error {
	return r.s.with(ctx, func(d *data) error {
		if _, ok := d.claims[c.ID]; ok {
			return ErrDuplicate
		}
		c.CurrentStepOrder = copyInt(c.CurrentStepOrder)
		c.StatusLog = nil
		d.claims[c.ID] = c
		return nil
	})
}

func (r *Claims) Get(ctx context.Context, id string) (*claim.Claim, error) {
	var out *claim.Claim
	err := r.s.with(ctx, func(d *data) error {
		if c, ok := d.claims[id]; ok {
			c.CurrentStepOrder = copyInt(c.CurrentStepOrder)
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *Claims) Lock(ctx context.Context, id string) (*claim.Claim, error) {
	defer r.s.lock(ctx, "claim:"+id)()
	return r.Get(ctx, id)
}

func (r *Claims) StatusLog(ctx context.Context, id string) ([]claim.LogEntry, error) {
	var out []claim.LogEntry
	err := r.s.with(ctx, func(d *data) error {
		out = append([]claim.LogEntry{}, d.logs[id]...)
		return nil
	})
	return out, err
}

func (r *Claims) AppendLog(ctx context.Context, id, entry string) error {
	return r.s.with(ctx, func(d *data) error {
		d.seq++
		d.logs[id] = append(d.logs[id], claim.LogEntry{Seq: d.seq, Entry: entry, CreatedAt: time.Now().UTC()})
		return nil
	})
}

func (r *Claims) update(ctx context.Context, id string, fn func(c *claim.Claim)) error {
	defer r.s.lock(ctx, "claim:"+id)()
	return r.s.with(ctx, func(d *data) error {
		if c, ok := d.claims[id]; ok {
			fn(&c)
			d.claims[id] = c
		}
		return nil
	})
}

func (r *Claims) SetStepOrder(ctx context.Context, id string, step *int) error {
	return r.update(ctx, id, func(c *claim.Claim) { c.CurrentStepOrder = copyInt(step) })
}

func (r *Claims) CompareAndSetStep(ctx context.Context, id string, expected int, next *int) (bool, error) {
	defer r.s.lock(ctx, "claim:"+id)()
	var moved bool
	err := r.s.with(ctx, func(d *data) error {
		c, ok := d.claims[id]
		if !ok || c.CurrentStepOrder == nil || *c.CurrentStepOrder != expected {
			return nil
		}
		c.CurrentStepOrder = copyInt(next)
		d.claims[id] = c
		moved = true
		return nil
	})
	return moved, err
}

func (r *Claims) SetAdmin(ctx context.Context, id, adminID string) error {
	return r.update(ctx, id, func(c *claim.Claim) { c.AdminID = adminID })
}

func (r *Claims) SetStatus(ctx context.Context, id string, status claim.Status) error {
	return r.update(ctx, id, func(c *claim.Claim) { c.Status = status })
}

func (r *Claims) History(ctx context.Context, customerID string) (claim.History, error) {
	var h claim.History
	err := r.s.with(ctx, func(d *data) error {
		for _, c := range d.claims {
			if c.CustomerID != customerID {
				continue
			}
			h.ClaimCount++
			if c.Status == claim.StatusDeclined {
				h.DeclinedCount++
			}
		}
		return nil
	})
	return h, err
}

func (r *Claims) filter(ctx context.Context, keep func(c claim.Claim) bool, less func(a, b claim.Claim) bool) ([]claim.Claim, error) {
	out := []claim.Claim{}
	err := r.s.with(ctx, func(d *data) error {
		for _, c := range d.claims {
			if keep(c) {
				c.CurrentStepOrder = copyInt(c.CurrentStepOrder)
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, err
}

func newestFirst(a, b claim.Claim) bool { return a.FiledAt.After(b.FiledAt) }
func oldestFirst(a, b claim.Claim) bool { return a.FiledAt.Before(b.FiledAt) }

func (r *Claims) ListByCustomer(ctx context.Context, customerID string) ([]claim.Claim, error) {
	return r.filter(ctx, func(c claim.Claim) bool { return c.CustomerID == customerID }, newestFirst)
}

func (r *Claims) ListPending(ctx context.Context) ([]claim.Claim, error) {
	return r.filter(ctx, func(c claim.Claim) bool { return c.Status == claim.StatusPending }, oldestFirst)
}

func (r *Claims) ListByAdmin(ctx context.Context, adminID string) ([]claim.Claim, error) {
	return r.filter(ctx, func(c claim.Claim) bool { return c.AdminID == adminID }, newestFirst)
}

func (r *Claims) ListHighRisk(ctx context.Context, customerID string, minScore int) ([]claim.Claim, error) {
	return r.filter(ctx, func(c claim.Claim) bool {
		return c.RiskScore >= minScore && (customerID == "" || c.CustomerID == customerID)
	}, func(a, b claim.Claim) bool { return a.Amount > b.Amount })
}

func (r *Claims) ListPendingFiledBefore(ctx context.Context, cutoff time.Time) ([]claim.Claim, error) {
	return r.filter(ctx, func(c claim.Claim) bool {
		return c.Status == claim.StatusPending && c.FiledAt.Before(cutoff)
	}, oldestFirst)
}

func (r *Claims) ListInFlight(ctx context.Context) ([]string, error) {
	claims, err := r.filter(ctx, func(c claim.Claim) bool {
		return c.WorkflowID != "" && c.CurrentStepOrder != nil
	}, func(a, b claim.Claim) bool { return a.ID < b.ID })
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(claims))
	for _, c := range claims {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (r *Claims) WorkflowMetrics(ctx context.Context, customerID string, now time.Time) ([]claim.WorkflowMetric, error) {
	var out []claim.WorkflowMetric
	err := r.s.with(ctx, func(d *data) error {
		ids := make([]string, 0, len(d.workflows))
		for id := range d.workflows {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		out = make([]claim.WorkflowMetric, 0, len(ids))
		for _, id := range ids {
			m := claim.WorkflowMetric{WorkflowID: id, WorkflowName: d.workflows[id].Name}
			var hours float64
			for _, c := range d.claims {
				if c.WorkflowID != id || (customerID != "" && c.CustomerID != customerID) {
					continue
				}
				m.TotalClaims++
				hours += now.Sub(c.FiledAt).Hours()
			}
			if m.TotalClaims > 0 {
				m.AvgProcessingHours = hours / float64(m.TotalClaims)
			}
			out = append(out, m)
		}
		return nil
	})
	return out, err
}

// Policies implements policy.PolicyRepository.
type Policies struct{ s *Store }

func (r *Policies) Create(ctx context.Context, p policy.Policy) error {
	return r.s.with(ctx, func(d *data) error {
		if _, ok := d.policies[p.ID]; ok {
			return ErrDuplicate
		}
		d.policies[p.ID] = p
		return nil
	})
}

func (r *Policies) LinkCustomer(ctx context.Context, customerID, policyID string) error {
	return r.s.with(ctx, func(d *data) error {
		d.links[[2]string{customerID, policyID}] = true
		return nil
	})
}

func (r *Policies) Get(ctx context.Context, id string) (*policy.Policy, error) {
	var out *policy.Policy
	err := r.s.with(ctx, func(d *data) error {
		if p, ok := d.policies[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *Policies) Lock(ctx context.Context, id string) (*policy.Policy, error) {
	defer r.s.lock(ctx, "policy:"+id)()
	return r.Get(ctx, id)
}

func (r *Policies) LockOwned(ctx context.Context, policyID, customerID string) (*policy.Policy, error) {
	linked, err := r.IsLinked(ctx, customerID, policyID)
	if err != nil || !linked {
		return nil, err
	}
	return r.Lock(ctx, policyID)
}

func (r *Policies) IsLinked(ctx context.Context, customerID, policyID string) (bool, error) {
	var ok bool
	err := r.s.with(ctx, func(d *data) error {
		ok = d.links[[2]string{customerID, policyID}]
		return nil
	})
	return ok, err
}

func (r *Policies) Owners(ctx context.Context, policyID string) ([]string, error) {
	owners := []string{}
	err := r.s.with(ctx, func(d *data) error {
		for k := range d.links {
			if k[1] == policyID {
				owners = append(owners, k[0])
			}
		}
		return nil
	})
	sort.Strings(owners)
	return owners, err
}

func (r *Policies) update(ctx context.Context, id string, fn func(p *policy.Policy)) error {
	defer r.s.lock(ctx, "policy:"+id)()
	return r.s.with(ctx, func(d *data) error {
		if p, ok := d.policies[id]; ok {
			fn(&p)
			d.policies[id] = p
		}
		return nil
	})
}

func (r *Policies) RecordInitialApproval(ctx context.Context, id, adminID string, at time.Time) error {
	return r.update(ctx, id, func(p *policy.Policy) {
		p.Status = policy.StatusPendingFinalApproval
		p.InitialApproverID = adminID
		p.InitialApprovalDate = &at
	})
}

func (r *Policies) RecordFinalApproval(ctx context.Context, id, adminID string, at time.Time) error {
	return r.update(ctx, id, func(p *policy.Policy) {
		p.Status = policy.StatusAwaitingPayment
		p.FinalApproverID = adminID
		p.FinalApprovalDate = &at
	})
}

func (r *Policies) SetStatus(ctx context.Context, id string, status policy.Status) error {
	return r.update(ctx, id, func(p *policy.Policy) { p.Status = status })
}

func (r *Policies) InsertPayment(ctx context.Context, p policy.Payment) error {
	return r.s.with(ctx, func(d *data) error {
		d.payments = append(d.payments, p)
		return nil
	})
}

func (r *Policies) ListByCustomer(ctx context.Context, customerID string) ([]policy.Policy, error) {
	out := []policy.Policy{}
	err := r.s.with(ctx, func(d *data) error {
		for k := range d.links {
			if k[0] == customerID {
				out = append(out, d.policies[k[1]])
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *Policies) ListPendingApproval(ctx context.Context) ([]policy.Policy, error) {
	out := []policy.Policy{}
	err := r.s.with(ctx, func(d *data) error {
		for _, p := range d.policies {
			if p.Status == policy.StatusPendingInitialApproval || p.Status == policy.StatusPendingFinalApproval {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// Timers implements scheduler.TimerRepository.
type Timers struct{ s *Store }

func (r *Timers) InsertIfAbsent(ctx context.Context, t scheduler.Timer) (bool, error) {
	created := false
	err := r.s.with(ctx, func(d *data) error {
		for _, existing := range d.timers {
			if existing.ClaimID == t.ClaimID && existing.ExpectedStepOrder == t.ExpectedStepOrder {
				return nil
			}
		}
		t.NextStepOrder = copyInt(t.NextStepOrder)
		d.timers[t.ID] = t
		created = true
		return nil
	})
	return created, err
}

func (r *Timers) ClaimDue(ctx context.Context, now time.Time, limit int) ([]scheduler.Timer, error) {
	due := []scheduler.Timer{}
	err := r.s.with(ctx, func(d *data) error {
		for _, t := range d.timers {
			if t.Status == scheduler.TimerPending && !t.DueAt.After(now) {
				due = append(due, t)
			}
		}
		return nil
	})
	sort.Slice(due, func(i, j int) bool { return due[i].DueAt.Before(due[j].DueAt) })

	claimed := []scheduler.Timer{}
	for _, t := range due {
		if len(claimed) == limit {
			break
		}
		if !r.s.tryLock(ctx, "timer:"+t.ID) {
			continue
		}
		// Another poller may have resolved it before the lock was taken.
		pending := false
		_ = r.s.with(ctx, func(d *data) error {
			pending = d.timers[t.ID].Status == scheduler.TimerPending
			return nil
		})
		if pending {
			claimed = append(claimed, t)
		}
	}
	return claimed, err
}

func (r *Timers) Resolve(ctx context.Context, id string, status scheduler.TimerStatus, at time.Time) error {
	defer r.s.lock(ctx, "timer:"+id)()
	return r.s.with(ctx, func(d *data) error {
		if t, ok := d.timers[id]; ok {
			t.Status = status
			t.FiredAt = &at
			d.timers[id] = t
		}
		return nil
	})
}

func (r *Timers) ListByClaim(ctx context.Context, claimID string) ([]scheduler.Timer, error) {
	out := []scheduler.Timer{}
	err := r.s.with(ctx, func(d *data) error {
		for _, t := range d.timers {
			if t.ClaimID == claimID {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

// Due moves every timer's due time into the past so the next poll sees it.
func (r *Timers) Due() {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.d.timers {
		t.DueAt = time.Now().Add(-time.Second)
		r.s.d.timers[id] = t
	}
}
