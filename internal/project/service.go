// Package project exposes the project CRUD and snapshot endpoints: create,
// list, load the latest document version, save a new one. Documents are
// validated before they are stored, so a corrupt snapshot can never be
// written back over a good one.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/snapreel/snapreel/backend-go/internal/document"
	"github.com/snapreel/snapreel/backend-go/internal/store"
	"github.com/snapreel/snapreel/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("project not found")
	ErrForbidden = errors.New("forbidden")
)

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*Project, error) {
	projectID := typeid.NewProjectID()

	dbProj, err := s.store.CreateProject(ctx, store.Project{
		ID:      projectID,
		Name:    name,
		OwnerID: ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	// Seed the first snapshot so a fresh project opens with content.
	doc := document.NewSampleProject(projectID)
	doc.Name = name
	docJSON, err := document.MarshalSnapshot(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal seed document: %w", err)
	}
	if err := s.store.CreateSnapshot(ctx, typeid.NewSnapshotID(), projectID, 1, docJSON); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbProjectToProject(dbProj), nil
}

func (s *Service) Get(ctx context.Context, projectID, userID string) (*Project, error) {
	dbProj, err := s.ownedProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	return dbProjectToProject(dbProj), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	dbProjects, err := s.store.ListProjectsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]Project, len(dbProjects))
	for i, p := range dbProjects {
		projects[i] = *dbProjectToProject(p)
	}
	return projects, nil
}

func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	if _, err := s.ownedProject(ctx, projectID, userID); err != nil {
		return err
	}
	return s.store.DeleteProject(ctx, projectID)
}

func (s *Service) GetLatestSnapshot(ctx context.Context, projectID, userID string) (json.RawMessage, error) {
	if _, err := s.ownedProject(ctx, projectID, userID); err != nil {
		return nil, err
	}
	doc, _, err := s.store.GetLatestSnapshot(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return doc, nil
}

// SaveSnapshot validates and stores a new document version.
func (s *Service) SaveSnapshot(ctx context.Context, projectID, userID string, doc json.RawMessage) error {
	if _, err := s.ownedProject(ctx, projectID, userID); err != nil {
		return err
	}

	parsed, err := document.ParseSnapshot(doc)
	if err != nil {
		return err
	}

	_, version, err := s.store.GetLatestSnapshot(ctx, projectID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("get snapshot version: %w", err)
	}

	canonical, err := document.MarshalSnapshot(parsed)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return s.store.CreateSnapshot(ctx, typeid.NewSnapshotID(), projectID, version+1, canonical)
}

func (s *Service) ownedProject(ctx context.Context, projectID, userID string) (store.Project, error) {
	dbProj, err := s.store.GetProject(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Project{}, ErrNotFound
	}
	if err != nil {
		return store.Project{}, fmt.Errorf("get project: %w", err)
	}
	if dbProj.OwnerID != userID {
		return store.Project{}, ErrForbidden
	}
	return dbProj, nil
}

func dbProjectToProject(p store.Project) *Project {
	return &Project{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
