package kbi

import (
	"github.com/varphi/go-kbi-sdk/common_models"
)

type sessionStorage struct { // no need for lock here, sessionLock on State covers it
	session *currentSession
}

// currentSession is the durable client state surviving restarts: the bearer
// credential, the identity derived from it, and an optional one-shot flash
// message to show on the next screen.
type currentSession struct {
	Token    string                      `json:"token"`
	Role     common_models.Role          `json:"role"`
	Username string                      `json:"username"`
	Email    string                      `json:"email"`
	Flash    *common_models.FlashMessage `json:"flash,omitempty"`
}

func (s *sessionStorage) get() currentSession {
	if s.session == nil {
		return currentSession{}
	}
	return *s.session
}

func (s *sessionStorage) set(session currentSession) {
	s.session = &session
}
