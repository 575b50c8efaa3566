package screen

import (
	"context"

	"github.com/abhisek/quizchat/internal/chat"
	"github.com/abhisek/quizchat/internal/quiz"
)

// Env is the state shared by the terminal screens: one quiz session and
// the editable settings it is run with.
type Env struct {
	Ctx      context.Context
	Service  *chat.Service
	Session  *quiz.Session
	Settings chat.Settings

	// SaveSettings persists settings edited on the settings screen. Nil
	// keeps edits in memory only.
	SaveSettings func(chat.Settings) error
}

// NewEnv returns an Env with a fresh session.
func NewEnv(ctx context.Context, svc *chat.Service, settings chat.Settings) *Env {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Env{
		Ctx:      ctx,
		Service:  svc,
		Session:  quiz.NewSession(),
		Settings: settings,
	}
}
