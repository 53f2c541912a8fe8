package service

import (
	"context"
	"errors"
	"fmt"

	"cerium.app/cerium/common"
	"cerium.app/cerium/common/id"
	"cerium.app/cerium/internal/model"
	"cerium.app/cerium/internal/store"
)

var (
	ErrOrgNotFound = errors.New("organization not found")
	ErrNotOrgAdmin = errors.New("user is not the organization admin")
)

type OrganizationService interface {
	Create(ctx context.Context, name string, slug *string, adminUserID int64) (*model.Organization, error)
	Get(ctx context.Context, id int64) (*model.Organization, error)
	Update(ctx context.Context, id int64, name string, actorID int64) (*model.Organization, error)
	Delete(ctx context.Context, id int64, actorID int64) error
	ListByAdmin(ctx context.Context, userID int64) ([]model.Organization, error)
}

type organizationService struct {
	orgStore store.OrganizationStore
}

func NewOrganizationService(orgStore store.OrganizationStore) OrganizationService {
	return &organizationService{orgStore: orgStore}
}

func (s *organizationService) Create(ctx context.Context, name string, slug *string, adminUserID int64) (*model.Organization, error) {
	finalSlug, err := s.ensureSlug(ctx, name, slug)
	if err != nil {
		return nil, err
	}

	org := &model.Organization{
		ID:          id.New(),
		AdminUserID: adminUserID,
		Name:        name,
		Slug:        finalSlug,
	}

	if err := s.orgStore.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("creating organization: %w", err)
	}

	return org, nil
}

func (s *organizationService) Get(ctx context.Context, orgID int64) (*model.Organization, error) {
	org, err := s.orgStore.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("getting organization: %w", err)
	}
	return org, nil
}

func (s *organizationService) Update(ctx context.Context, orgID int64, name string, actorID int64) (*model.Organization, error) {
	org, err := s.requireAdmin(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}

	org.Name = name
	if err := s.orgStore.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("updating organization: %w", err)
	}
	return org, nil
}

func (s *organizationService) Delete(ctx context.Context, orgID int64, actorID int64) error {
	if _, err := s.requireAdmin(ctx, orgID, actorID); err != nil {
		return err
	}

	if err := s.orgStore.Delete(ctx, orgID); err != nil {
		return fmt.Errorf("deleting organization: %w", err)
	}
	return nil
}

func (s *organizationService) ListByAdmin(ctx context.Context, userID int64) ([]model.Organization, error) {
	return s.orgStore.ListByAdminUser(ctx, userID)
}

func (s *organizationService) requireAdmin(ctx context.Context, orgID, actorID int64) (*model.Organization, error) {
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org.AdminUserID != actorID {
		return nil, ErrNotOrgAdmin
	}
	return org, nil
}

func (s *organizationService) ensureSlug(ctx context.Context, name string, slug *string) (string, error) {
	input := name
	if slug != nil && *slug != "" {
		input = *slug
	}

	base, err := common.Slugify(input, "org")
	if err != nil {
		return "", fmt.Errorf("generating slug: %w", err)
	}

	// Fast path
	if _, err := s.orgStore.GetBySlug(ctx, base); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return base, nil
		}
		return "", fmt.Errorf("checking slug availability: %w", err)
	}

	// Add numeric suffix until available
	for i := 1; i <= 20; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		_, err := s.orgStore.GetBySlug(ctx, candidate)
		if errors.Is(err, store.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking slug availability: %w", err)
		}
	}

	return "", fmt.Errorf("unable to find available slug for %q", base)
}
