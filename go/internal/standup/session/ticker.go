package session

import "github.com/huddlehq/huddle/go/internal/models"

// Tick advances the countdown by recomputing the remaining time against the
// synchronized clock. It is called once per second by the coordinator while
// a session is live and returns the threshold notices that fired on this
// tick. Each notice fires at most once per distinct value per session: the
// two-minute warning once, and each overdue minute value once.
func (s *State) Tick() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}

	remaining := s.remainingLocked()

	if remaining <= 0 {
		over := int(-remaining / 60_000)
		if over == s.overdue {
			return nil
		}
		s.overdue = over
		return []Notice{{Message: overdueMessage(over), Variant: models.ToastWarning}}
	}

	if remaining <= 120_000 && !s.warned {
		s.warned = true
		return []Notice{{Message: msgTwoMinuteWarning, Variant: models.ToastWarning}}
	}

	return nil
}
