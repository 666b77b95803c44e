package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/alexanderramin/appraise/internal/completion"
	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/editor"
	"github.com/alexanderramin/appraise/internal/importer"
	"github.com/alexanderramin/appraise/internal/repository"
	"github.com/alexanderramin/appraise/internal/template"
)

// ErrInvalidInput marks caller mistakes, as opposed to storage failures.
var ErrInvalidInput = errors.New("invalid input")

var inputValidate = validator.New()

type appraisalService struct {
	appraisals repository.AppraisalRepo
	templates  TemplateCatalog
	observer   editor.UseCaseObserver
	now        func() time.Time
}

func NewAppraisalService(
	appraisals repository.AppraisalRepo,
	templates TemplateCatalog,
	observers ...editor.UseCaseObserver,
) AppraisalService {
	return &appraisalService{
		appraisals: appraisals,
		templates:  templates,
		observer:   combineObservers(observers),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *appraisalService) Create(ctx context.Context, in CreateAppraisalInput) (*domain.Appraisal, error) {
	var out *domain.Appraisal
	err := s.observe(ctx, "create_appraisal", map[string]any{"template": string(in.TemplateType)}, func() error {
		if err := inputValidate.Struct(in); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if in.EffectiveDate.IsZero() {
			return fmt.Errorf("%w: effective date is required", ErrInvalidInput)
		}
		if _, err := s.templates.RequiredSections(in.TemplateType); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}

		now := s.now().Truncate(time.Second)
		a := &domain.Appraisal{
			ID:            uuid.New().String(),
			TemplateType:  in.TemplateType,
			EffectiveDate: in.EffectiveDate.UTC(),
			Status:        domain.AppraisalStatus(domain.CoalesceStr(string(in.Status), string(domain.AppraisalDraft))),
			PropertyType:  domain.PropertyClass(domain.CoalesceStr(string(in.PropertyType), string(domain.PropertyResidential))),
			Sections:      domain.SectionMap{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if in.PropertyID != "" {
			id := in.PropertyID
			a.PropertyID = &id
		}
		if err := s.appraisals.Create(ctx, a); err != nil {
			return fmt.Errorf("creating appraisal: %w", err)
		}
		out = a
		return nil
	})
	return out, err
}

func (s *appraisalService) Get(ctx context.Context, id string) (*domain.Appraisal, error) {
	return s.appraisals.Read(ctx, id)
}

func (s *appraisalService) List(ctx context.Context, filter ListFilter) ([]*domain.Appraisal, error) {
	all, err := s.appraisals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing appraisals: %w", err)
	}
	if filter == (ListFilter{}) {
		return all, nil
	}
	var out []*domain.Appraisal
	for _, a := range all {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.TemplateType != "" && a.TemplateType != filter.TemplateType {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *appraisalService) Delete(ctx context.Context, id string) error {
	return s.observe(ctx, "delete_appraisal", map[string]any{"appraisal_id": id}, func() error {
		return s.appraisals.Delete(ctx, id)
	})
}

func (s *appraisalService) SetStatus(ctx context.Context, id string, status domain.AppraisalStatus) error {
	if err := inputValidate.Var(string(status), "required,oneof=draft in_progress completed archived"); err != nil {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}
	return s.appraisals.Update(ctx, id, repository.AppraisalPatch{Status: &status})
}

func (s *appraisalService) CompletionReport(ctx context.Context, id string) (*CompletionReport, error) {
	a, err := s.appraisals.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	required, err := s.templates.RequiredSections(a.TemplateType)
	if err != nil {
		return nil, fmt.Errorf("completion report for %s: %w", a.DisplayID(), err)
	}
	return &CompletionReport{
		AppraisalID: a.ID,
		Template:    a.TemplateType,
		Stored:      a.CompletionPercentage,
		Computed:    completion.Percentage(required, a.Sections),
		Sections:    completion.Breakdown(required, a.Sections),
	}, nil
}

func (s *appraisalService) Templates() []template.TemplateConfig {
	return s.templates.Templates()
}

func (s *appraisalService) Import(ctx context.Context, f *importer.AppraisalFile) (*domain.Appraisal, error) {
	var out *domain.Appraisal
	err := s.observe(ctx, "import_appraisal", map[string]any{"template": f.TemplateType}, func() error {
		if errs := importer.Validate(f); len(errs) > 0 {
			return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
		}
		required, err := s.templates.RequiredSections(domain.TemplateType(f.TemplateType))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if f.ID != "" {
			_, err := s.appraisals.Read(ctx, f.ID)
			switch {
			case err == nil:
				return fmt.Errorf("%w: appraisal %s already exists", ErrInvalidInput, f.ID)
			case !errors.Is(err, repository.ErrNotFound):
				return err
			}
		}
		a, err := importer.Convert(f, required, s.now())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if err := s.appraisals.Create(ctx, a); err != nil {
			return fmt.Errorf("importing appraisal: %w", err)
		}
		out = a
		return nil
	})
	return out, err
}

func (s *appraisalService) Export(ctx context.Context, id string) (*importer.AppraisalFile, error) {
	a, err := s.appraisals.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	return importer.Export(a), nil
}

func (s *appraisalService) observe(ctx context.Context, name string, fields map[string]any, fn func() error) error {
	started := time.Now()
	err := fn()
	s.observer.ObserveUseCase(ctx, editor.UseCaseEvent{
		Name:      name,
		Duration:  time.Since(started),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: started,
	})
	return err
}

func combineObservers(observers []editor.UseCaseObserver) editor.UseCaseObserver {
	if len(observers) == 0 {
		return editor.NoopUseCaseObserver{}
	}
	return editor.MultiObserver(observers)
}
