package refresh

import "time"

// SetClock replaces the time source used for article creation and GC cutoffs.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}
