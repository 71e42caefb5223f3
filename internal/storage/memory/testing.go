package memory

// SeedMember inserts a membership row directly, bypassing auto-join-on-send.
// Test fixtures only; production membership changes go through InsertMessage.
func (s *Store) SeedMember(chatID, userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.members[chatID] == nil {
		s.members[chatID] = make(map[int]bool)
	}
	s.members[chatID][userID] = true
}
