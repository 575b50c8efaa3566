package chat

import (
	"errors"
	"fmt"

	"github.com/abhisek/quizchat/internal/llm"
)

// ErrMissingAPIKey is returned by Start before any provider is built when the
// settings carry no API key.
var ErrMissingAPIKey = errors.New("chat: API key is not configured")

// InfoMissingKey is shown instead of an error when ErrMissingAPIKey occurs.
const InfoMissingKey = "설정에서 API 키를 입력하고 모델을 설정하세요. 🗝️"

// SetupError reports invalid settings or a provider that could not be built.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string { return fmt.Sprintf("chat setup: %v", e.Err) }
func (e *SetupError) Unwrap() error { return e.Err }

// RequestError reports a request that could not be opened.
type RequestError struct {
	Bootstrap bool
	Err       error
}

func (e *RequestError) Error() string { return fmt.Sprintf("chat request: %v", e.Err) }
func (e *RequestError) Unwrap() error { return e.Err }

// StreamError reports a failure after the reply started streaming.
type StreamError struct {
	Bootstrap bool
	Err       error
}

func (e *StreamError) Error() string { return fmt.Sprintf("chat stream: %v", e.Err) }
func (e *StreamError) Unwrap() error { return e.Err }

// UserMessage renders err in the wording shown to the learner.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMissingAPIKey) {
		return InfoMissingKey
	}

	var (
		setup  *SetupError
		auth   *llm.ErrAuth
		req    *RequestError
		stream *StreamError
	)
	switch {
	case errors.As(err, &setup):
		return "API 키가 유효하지 않거나 오류가 발생했습니다: " + setup.Err.Error()
	case errors.As(err, &auth):
		return "API 키가 유효하지 않거나 오류가 발생했습니다: " + auth.Error()
	case errors.As(err, &req):
		return turnMessage(req.Bootstrap, req.Err)
	case errors.As(err, &stream):
		return turnMessage(stream.Bootstrap, stream.Err)
	default:
		return turnMessage(false, err)
	}
}

func turnMessage(bootstrap bool, err error) string {
	if bootstrap {
		return "초기 메시지 생성 중 오류가 발생했습니다: " + err.Error()
	}
	return "응답 생성 중 오류가 발생했습니다: " + err.Error()
}
