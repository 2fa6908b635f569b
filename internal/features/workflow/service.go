package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go-claims/internal/common/errs"
	common_models "go-claims/internal/common/models"
	"go-claims/internal/database"
	"go-claims/internal/features/audit"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var workflowIDPattern = regexp.MustCompile(`^[A-Z0-9_]+$`)

type WorkflowService interface {
	ListDefinitions(ctx context.Context) ([]Definition, error)
	// GetDefinition returns the workflow with its steps ordered by step_order.
	GetDefinition(ctx context.Context, id string) (*Definition, error)
	ListSteps(ctx context.Context, id string) ([]Step, error)
	CreateDefinition(ctx context.Context, actor common_models.Actor, input DefinitionInput) (*Definition, error)
	UpdateDefinition(ctx context.Context, actor common_models.Actor, id string, input DefinitionInput) error
	DeleteDefinition(ctx context.Context, actor common_models.Actor, id string) error

	AddStep(ctx context.Context, actor common_models.Actor, workflowID string, input StepInput) (*Step, error)
	UpdateStep(ctx context.Context, actor common_models.Actor, workflowID, stepID string, input StepInput) error
	DeleteStep(ctx context.Context, actor common_models.Actor, workflowID, stepID string) error

	// EnsureDefinition creates an empty workflow with the given id if none exists.
	EnsureDefinition(ctx context.Context, id string) error
	// Import creates the workflow if missing and adds every step whose order
	// is not taken yet. Existing steps are left alone.
	Import(ctx context.Context, actor common_models.Actor, seed Seed) (int, error)
}

type WorkflowServiceImpl struct {
	Repo         WorkflowRepository
	Tx           database.Transactor
	AuditService audit.AuditService
	logger       *zap.Logger
}

func NewWorkflowService(repo WorkflowRepository, tx database.Transactor, auditService audit.AuditService, logger *zap.Logger) WorkflowService {
	return &WorkflowServiceImpl{
		Repo:         repo,
		Tx:           tx,
		AuditService: auditService,
		logger:       logger,
	}
}

func (s *WorkflowServiceImpl) ListDefinitions(ctx context.Context) ([]Definition, error) {
	return s.Repo.List(ctx)
}

func (s *WorkflowServiceImpl) GetDefinition(ctx context.Context, id string) (*Definition, error) {
	def, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, errs.NotFound(fmt.Sprintf("Workflow ID %s not found.", id))
	}

	steps, err := s.Repo.ListSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	def.Steps = steps
	return def, nil
}

func (s *WorkflowServiceImpl) ListSteps(ctx context.Context, id string) ([]Step, error) {
	return s.Repo.ListSteps(ctx, id)
}

func (s *WorkflowServiceImpl) CreateDefinition(ctx context.Context, actor common_models.Actor, input DefinitionInput) (*Definition, error) {
	if input.WorkflowID == "" || strings.TrimSpace(input.Name) == "" {
		return nil, errs.Validation("Workflow ID and Name are required.")
	}
	if !workflowIDPattern.MatchString(input.WorkflowID) {
		return nil, errs.Validation("Workflow ID can only contain uppercase letters, numbers, and underscores.")
	}

	def := Definition{
		ID:          input.WorkflowID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.Repo.Get(ctx, def.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return duplicateWorkflow(def.ID)
		}
		if err := s.Repo.Create(ctx, def); err != nil {
			if database.IsUniqueViolation(err) {
				return duplicateWorkflow(def.ID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.AuditService.Record(ctx, actor, common_models.AuditActionWorkflowCreated, def.ID, map[string]any{"name": def.Name})
	return &def, nil
}

func duplicateWorkflow(id string) error {
	return errs.Conflict(fmt.Sprintf("Workflow ID '%s' already exists.", id))
}

func (s *WorkflowServiceImpl) UpdateDefinition(ctx context.Context, actor common_models.Actor, id string, input DefinitionInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return errs.Validation("Workflow Name is required.")
	}

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.Repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return errs.NotFound(fmt.Sprintf("Workflow ID %s not found.", id))
		}
		existing.Name = strings.TrimSpace(input.Name)
		existing.Description = input.Description
		_, err = s.Repo.Update(ctx, *existing)
		return err
	})
	if err != nil {
		return err
	}

	s.AuditService.Record(ctx, actor, common_models.AuditActionWorkflowUpdated, id, map[string]any{"name": input.Name})
	return nil
}

func (s *WorkflowServiceImpl) DeleteDefinition(ctx context.Context, actor common_models.Actor, id string) error {
	inUse := errs.Conflict(fmt.Sprintf("Cannot delete workflow %s as it is currently assigned to one or more claims.", id))

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.Repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return errs.NotFound(fmt.Sprintf("Workflow ID %s not found.", id))
		}

		n, err := s.Repo.CountClaims(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return inUse
		}

		if err := s.Repo.DeleteSteps(ctx, id); err != nil {
			return err
		}
		if _, err := s.Repo.Delete(ctx, id); err != nil {
			if database.IsForeignKeyViolation(err) {
				return inUse
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.AuditService.Record(ctx, actor, common_models.AuditActionWorkflowDeleted, id, nil)
	return nil
}

// normalizeStep validates input and returns the canonical stored blob.
func (s *WorkflowServiceImpl) normalizeStep(input StepInput) (json.RawMessage, error) {
	if input.StepName == "" || input.TaskType == "" {
		return nil, errs.Validation("Step order, name, and task type are required.")
	}
	if input.StepOrder <= 0 {
		return nil, errs.Validation("Step order must be a positive integer.")
	}
	if !input.TaskType.Valid() {
		return nil, errs.Validation("Invalid task type. Must be MANUAL, RULE, TIMER or API.")
	}

	cfg, err := ParseStepConfig(input.TaskType, input.Configuration)
	if err != nil {
		return nil, errs.Validation(errs.Message(err, "Configuration must be a flat JSON object."))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch c := cfg.(type) {
	case RuleConfig:
		if !KnownRule(c.RuleName) {
			s.logger.Warn("Step uses an unknown rule; it will run as a no-op", zap.String("rule", c.RuleName))
		}
	case APIConfig:
		if c.Task != APITaskSendNotification {
			s.logger.Warn("Step uses an unknown API task; it will run as a no-op", zap.String("task", c.Task))
		}
	}

	blob, err := MarshalStepConfig(cfg)
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (s *WorkflowServiceImpl) AddStep(ctx context.Context, actor common_models.Actor, workflowID string, input StepInput) (*Step, error) {
	blob, err := s.normalizeStep(input)
	if err != nil {
		return nil, err
	}

	step := Step{
		ID:            newStepID(workflowID),
		WorkflowID:    workflowID,
		Order:         input.StepOrder,
		Name:          input.StepName,
		TaskType:      input.TaskType,
		Configuration: blob,
	}

	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		def, err := s.Repo.Get(ctx, workflowID)
		if err != nil {
			return err
		}
		if def == nil {
			return errs.NotFound(fmt.Sprintf("Workflow ID %s not found.", workflowID))
		}
		if err := s.checkOrderFree(ctx, workflowID, step.Order, ""); err != nil {
			return err
		}
		if err := s.Repo.CreateStep(ctx, step); err != nil {
			if database.IsUniqueViolation(err) {
				return duplicateOrder(workflowID, step.Order)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.AuditService.Record(ctx, actor, common_models.AuditActionStepCreated, workflowID,
		map[string]any{"step_id": step.ID, "step_order": step.Order, "task_type": string(step.TaskType)})
	return &step, nil
}

func (s *WorkflowServiceImpl) UpdateStep(ctx context.Context, actor common_models.Actor, workflowID, stepID string, input StepInput) error {
	blob, err := s.normalizeStep(input)
	if err != nil {
		return err
	}

	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.Repo.GetStepByID(ctx, workflowID, stepID)
		if err != nil {
			return err
		}
		if existing == nil {
			return errs.NotFound(fmt.Sprintf("Step ID %s not found in workflow %s.", stepID, workflowID))
		}
		if err := s.checkOrderFree(ctx, workflowID, input.StepOrder, stepID); err != nil {
			return err
		}

		existing.Order = input.StepOrder
		existing.Name = input.StepName
		existing.TaskType = input.TaskType
		existing.Configuration = blob
		if _, err := s.Repo.UpdateStep(ctx, *existing); err != nil {
			if database.IsUniqueViolation(err) {
				return duplicateOrder(workflowID, input.StepOrder)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.AuditService.Record(ctx, actor, common_models.AuditActionStepUpdated, workflowID,
		map[string]any{"step_id": stepID, "step_order": input.StepOrder, "task_type": string(input.TaskType)})
	return nil
}

func (s *WorkflowServiceImpl) DeleteStep(ctx context.Context, actor common_models.Actor, workflowID, stepID string) error {
	var deleted bool
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.Repo.DeleteStep(ctx, workflowID, stepID)
		return err
	})
	if err != nil {
		return err
	}
	if !deleted {
		return errs.NotFound(fmt.Sprintf("Step ID %s not found in workflow %s.", stepID, workflowID))
	}

	s.AuditService.Record(ctx, actor, common_models.AuditActionStepDeleted, workflowID, map[string]any{"step_id": stepID})
	return nil
}

func (s *WorkflowServiceImpl) checkOrderFree(ctx context.Context, workflowID string, order int, selfID string) error {
	taken, err := s.Repo.GetStep(ctx, workflowID, order)
	if err != nil {
		return err
	}
	if taken != nil && taken.ID != selfID {
		return duplicateOrder(workflowID, order)
	}
	return nil
}

func duplicateOrder(workflowID string, order int) error {
	return errs.Conflict(fmt.Sprintf("Step order %d already exists for workflow %s.", order, workflowID))
}

func newStepID(workflowID string) string {
	return fmt.Sprintf("STEP_%s_%s", workflowID, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func (s *WorkflowServiceImpl) EnsureDefinition(ctx context.Context, id string) error {
	existing, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	err = s.Repo.Create(ctx, Definition{
		ID:          id,
		Name:        "Claim Approval (Default)",
		Description: "Default workflow created automatically",
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil && !database.IsUniqueViolation(err) {
		return err
	}
	s.logger.Info("Created default workflow", zap.String("workflowId", id))
	return nil
}

func (s *WorkflowServiceImpl) Import(ctx context.Context, actor common_models.Actor, seed Seed) (int, error) {
	def, err := s.Repo.Get(ctx, seed.WorkflowID)
	if err != nil {
		return 0, err
	}
	if def == nil {
		if _, err := s.CreateDefinition(ctx, actor, DefinitionInput{
			WorkflowID:  seed.WorkflowID,
			Name:        seed.Name,
			Description: seed.Description,
		}); err != nil {
			return 0, err
		}
	}

	added := 0
	for _, st := range seed.Steps {
		input, err := st.input()
		if err != nil {
			return added, err
		}
		taken, err := s.Repo.GetStep(ctx, seed.WorkflowID, input.StepOrder)
		if err != nil {
			return added, err
		}
		if taken != nil {
			continue
		}
		if _, err := s.AddStep(ctx, actor, seed.WorkflowID, input); err != nil {
			return added, fmt.Errorf("step %d of %s: %w", input.StepOrder, seed.WorkflowID, err)
		}
		added++
	}
	return added, nil
}
