package task

import "github.com/okcoin/okcoin-api/internal/domain/user"

// evaluator judges one task category.
type evaluator interface {
	// Completed reports whether the task shows as done for u.
	Completed(u *user.User, t *Task, claimed bool) bool
	// Verify checks a completion attempt before the reward is paid.
	Verify(u *user.User, t *Task, code string) error
	// Progress is the user's current value towards the threshold.
	Progress(u *user.User) int64
}

var evaluators = map[Category]evaluator{
	CategoryVideo:    videoTask{},
	CategorySocial:   socialTask{},
	CategoryRanking:  rankingTask{},
	CategoryReferral: referralTask{},
}

func evaluatorFor(c Category) evaluator {
	if e, ok := evaluators[c]; ok {
		return e
	}
	return socialTask{}
}

type videoTask struct{}

func (videoTask) Completed(_ *user.User, _ *Task, claimed bool) bool { return claimed }
func (videoTask) Progress(*user.User) int64                           { return 0 }

func (videoTask) Verify(_ *user.User, t *Task, code string) error {
	if t.Code != "" && t.Code != code {
		return ErrIncorrectCode
	}
	return nil
}

// socialTask trusts the client; there is no way to check a follow.
type socialTask struct{}

func (socialTask) Completed(_ *user.User, _ *Task, claimed bool) bool { return claimed }
func (socialTask) Verify(*user.User, *Task, string) error             { return nil }
func (socialTask) Progress(*user.User) int64                          { return 0 }

type rankingTask struct{}

func (rankingTask) Completed(u *user.User, t *Task, _ bool) bool { return u.TapBalance >= t.Threshold() }
func (rankingTask) Progress(u *user.User) int64                 { return u.TapBalance }

func (rankingTask) Verify(u *user.User, t *Task, _ string) error {
	if u.TapBalance < t.Threshold() {
		return ErrClaimInvalid
	}
	return nil
}

type referralTask struct{}

func (referralTask) Completed(u *user.User, t *Task, _ bool) bool {
	return int64(u.RefererCount) >= t.Threshold()
}
func (referralTask) Progress(u *user.User) int64 { return int64(u.RefererCount) }

func (referralTask) Verify(u *user.User, t *Task, _ string) error {
	if int64(u.RefererCount) < t.Threshold() {
		return ErrNotEnoughReferrals
	}
	return nil
}
