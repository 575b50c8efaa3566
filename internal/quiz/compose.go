package quiz

// Compose builds the message list for one request: the augmented system
// prompt, then the stored history in order, then the turn's prompt. The
// system message is never part of the stored history.
func Compose(systemPrompt string, s *Session, t *Turn) []Message {
	history := s.messages
	out := make([]Message, 0, len(history)+2)
	out = append(out, Message{
		Role:    RoleSystem,
		Content: AugmentSystemPrompt(systemPrompt, s.operation, s.difficulty),
	})
	out = append(out, history...)
	if t != nil {
		out = append(out, t.prompt)
	}
	return out
}
