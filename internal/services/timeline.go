package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/store"
	"github.com/harentsoaR/neocare-api/internal/utils"
)

const maxTimelineTasks = 200

type TimelineService struct {
	store       *store.Store
	affiliation *AffiliationService
	now         func() time.Time
}

func NewTimelineService(s *store.Store, affiliation *AffiliationService) *TimelineService {
	return &TimelineService{store: s, affiliation: affiliation, now: time.Now}
}

// Get returns the parent's timeline, or an empty one if none was saved yet.
func (s *TimelineService) Get(ctx context.Context, parentID string) (*models.Timeline, error) {
	t, err := s.store.Timelines.Get(ctx, parentID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Timeline{ParentID: parentID, Tasks: []models.TimelineTask{}}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load timeline")
	}
	return t, nil
}

// GetForDoctor returns a parent's timeline to a doctor of their care team.
func (s *TimelineService) GetForDoctor(ctx context.Context, doctorID, parentID string) (*models.Timeline, error) {
	if _, err := s.affiliation.ParentForDoctor(ctx, doctorID, parentID); err != nil {
		return nil, err
	}
	return s.Get(ctx, parentID)
}

// Replace stores tasks as the parent's whole timeline. Tasks without an id get one.
func (s *TimelineService) Replace(ctx context.Context, parentID string, tasks []models.TimelineTask) (*models.Timeline, error) {
	if len(tasks) > maxTimelineTasks {
		return nil, apperr.Validation("a timeline holds at most 200 tasks", "tasks")
	}
	seen := make(map[string]bool, len(tasks))
	clean := make([]models.TimelineTask, 0, len(tasks))
	for _, task := range tasks {
		task.Text = strings.TrimSpace(task.Text)
		if task.Text == "" {
			return nil, apperr.Validation("every task needs text", "tasks")
		}
		if task.ID == "" {
			task.ID = utils.NewID("task")
		}
		if seen[task.ID] {
			return nil, apperr.Validation("duplicate task id "+task.ID, "tasks")
		}
		seen[task.ID] = true
		clean = append(clean, task)
	}

	t := &models.Timeline{ParentID: parentID, Tasks: clean, UpdatedAt: s.now()}
	if err := s.store.Timelines.Upsert(ctx, t); err != nil {
		return nil, apperr.Wrap(err, "failed to save timeline")
	}
	return t, nil
}

func (s *TimelineService) SetTaskCompleted(ctx context.Context, parentID, taskID string, completed bool) (*models.Timeline, error) {
	if err := s.store.Timelines.SetTaskCompleted(ctx, parentID, taskID, completed, s.now()); err != nil {
		return nil, lookupErr(err, "task")
	}
	return s.Get(ctx, parentID)
}
