package chat

import (
	chatsvc "github.com/abhisek/quizchat/internal/chat"
	"github.com/abhisek/quizchat/internal/quiz"
)

// streamOpenedMsg is sent when Start returns for a turn.
type streamOpenedMsg struct {
	turn   *quiz.Turn
	events <-chan chatsvc.Event
	err    error
}

// streamEventMsg carries one event from the reply stream. ok is false once
// the channel is closed.
type streamEventMsg struct {
	turn   *quiz.Turn
	events <-chan chatsvc.Event
	ev     chatsvc.Event
	ok     bool
}
