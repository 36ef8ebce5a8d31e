package task

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/domain/ledger"
	"github.com/okcoin/okcoin-api/internal/domain/user"
)

// EntryAppender enqueues ledger entries.
type EntryAppender interface {
	Append(ctx context.Context, e ledger.Entry) error
}

type Service struct {
	repo   Repository
	users  user.Repository
	ledger EntryAppender
	now    func() time.Time
}

func NewService(repo Repository, users user.Repository, appender EntryAppender) *Service {
	return &Service{repo: repo, users: users, ledger: appender, now: time.Now}
}

// List returns the active catalog for userID, highest order first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]View, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}

	tasks, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	claims, err := s.repo.ListClaims(ctx, userID)
	if err != nil {
		return nil, err
	}
	claimedAt := make(map[uuid.UUID]time.Time, len(claims))
	for _, c := range claims {
		claimedAt[c.TaskID] = c.CreatedAt
	}

	views := make([]View, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		eval := evaluatorFor(t.Category)
		at, claimed := claimedAt[t.ID]

		v := View{
			TaskID:      t.ID,
			Title:       t.Title,
			Description: t.Description,
			Reward:      t.Reward,
			Category:    t.Category,
			SubCategory: t.SubCategory,
			URL:         t.URL,
			ImageURL:    t.ImageURL,
			IsClaimed:   claimed,
			IsCompleted: eval.Completed(u, t, claimed),
			TaskValue:   t.Value,
			UserValue:   eval.Progress(u),
			Order:       t.Order,
			CreatedAt:   t.CreatedAt,
		}
		if claimed {
			at := at
			v.ClaimedAt = &at
		}
		views = append(views, v)
	}

	sort.SliceStable(views, func(i, j int) bool { return views[i].Order > views[j].Order })
	return views, nil
}

// Complete pays the task reward once per user.
func (s *Service) Complete(ctx context.Context, userID uuid.UUID, rawTaskID, code string) error {
	taskID, err := uuid.Parse(rawTaskID)
	if err != nil {
		return ErrTaskNotFound
	}
	t, err := s.repo.GetActive(ctx, taskID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTaskNotFound
	}

	claims, err := s.repo.ListClaims(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range claims {
		if c.TaskID == taskID {
			return ErrAlreadyCompleted
		}
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return user.ErrUserNotFound
	}
	if err := evaluatorFor(t.Category).Verify(u, t, code); err != nil {
		return err
	}

	now := s.now().UTC()
	claim := &Claim{ID: uuid.New(), UserID: userID, TaskID: taskID, CreatedAt: now}
	if err := s.repo.InsertClaim(ctx, claim); err != nil {
		return err
	}

	if _, err := s.users.Update(ctx, userID, func(u *user.User) error {
		u.CreditPoints(t.Reward, false)
		return nil
	}); err != nil {
		if derr := s.repo.DeleteClaim(ctx, claim.ID); derr != nil {
			log.Error().Err(derr).Str("claim_id", claim.ID.String()).Msg("Failed to roll back task claim")
		}
		return err
	}

	entry := ledger.Points(userID, t.Reward, ledger.TypeTaskReward, now)
	entry.Description = fmt.Sprintf("Reward for completing task %s - %s", t.ID, t.Title)
	if err := s.ledger.Append(ctx, entry); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to queue task reward entry")
	}

	log.Info().Str("user_id", userID.String()).Str("task_id", t.ID.String()).Int64("reward", t.Reward).Msg("Task completed")
	return nil
}
