package kbi

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/varphi/go-kbi-sdk/common_models"
	"github.com/varphi/go-kbi-sdk/exported_session"
	"github.com/varphi/go-kbi-sdk/utils"
	"github.com/ztrue/tracerr"
	"sync"
)

var (
	// ErrorCredentialsRequired is returned when signing in with an empty email or password
	ErrorCredentialsRequired = utils.NewKbiError("CREDENTIALS_REQUIRED", "email and password are required")
	// ErrorInvalidCredentials is returned when the backend rejects the sign-in
	ErrorInvalidCredentials = utils.NewKbiError("INVALID_CREDENTIALS", "Invalid Credentials")
)

// LoginSuccessFlash is the one-shot status message stored after a successful sign-in.
const LoginSuccessFlash = "Loggedin Successfully"

// AccountInfo describes the identity of the signed-in session.
type AccountInfo struct {
	Role     common_models.Role
	Username string
	Email    string
}

// GetCurrentAccountInfo returns the identity of the current session, or nil
// if no session is open.
func (state *State) GetCurrentAccountInfo() *AccountInfo {
	state.locks.sessionLock.RLock()
	defer state.locks.sessionLock.RUnlock()
	session := state.storage.session.get()
	if session.Token == "" {
		return nil
	}
	return &AccountInfo{
		Role:     session.Role,
		Username: session.Username,
		Email:    session.Email,
	}
}

// Login signs in with the given credentials. On success the token, the role
// decoded from it, and the identity are persisted, and a success flash
// message is set for the next screen. A backend rejection returns
// ErrorInvalidCredentials and mutates nothing.
func (state *State) Login(email string, password string) error {
	state.locks.loginLock.Lock()
	defer state.locks.loginLock.Unlock()
	state.locks.sessionLock.Lock()
	defer state.locks.sessionLock.Unlock()

	err := state.checkSdkState(false)
	if err != nil {
		return tracerr.Wrap(err)
	}

	if email == "" || password == "" {
		return tracerr.Wrap(ErrorCredentialsRequired)
	}
	err = utils.CheckEmail(email)
	if err != nil {
		return tracerr.Wrap(err)
	}

	response, err := state.apiClient.login(&loginRequest{Username: email, Password: password})
	if err != nil {
		state.logger.Debug().Err(err).Msg("Sign-in rejected by backend")
		return tracerr.Wrap(ErrorInvalidCredentials)
	}

	session := currentSession{
		Token: response.AccessToken,
		Email: email,
		Flash: &common_models.FlashMessage{Message: LoginSuccessFlash, Kind: common_models.FlashSuccess},
	}

	// the access token is a JWT carrying the role; decoded without
	// verification, the backend remains authoritative via /verify
	role, username := decodeTokenClaims(response.AccessToken)
	session.Role = role
	session.Username = username

	state.storage.session.set(session)
	err = state.saveSessionUnlocked()
	if err != nil {
		return tracerr.Wrap(err)
	}
	state.apiClient.setToken(response.AccessToken)
	state.logger.Debug().Str("role", string(role)).Msg("Signed in")
	return nil
}

func decodeTokenClaims(token string) (common_models.Role, string) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return "", ""
	}
	role, _ := claims["role"].(string)
	username, _ := claims["name"].(string)
	return common_models.Role(role), username
}

// VerifySession checks the current token against the backend. Without a
// token it returns false immediately, without any network call. A response
// carrying a role refreshes the persisted role and username and returns
// true; a response without one clears the stored token. Transport failures
// are logged and reported as a failed verification, never raised.
func (state *State) VerifySession() bool {
	state.locks.sessionLock.Lock()
	defer state.locks.sessionLock.Unlock()

	if state.closed {
		return false
	}

	session := state.storage.session.get()
	if session.Token == "" {
		return false
	}

	response, err := state.apiClient.verifyToken()
	if err != nil {
		state.logger.Error().Err(err).Msg("Token verification failed")
		return false
	}

	if response.Role == "" {
		session.Token = ""
		state.storage.session.set(session)
		state.apiClient.clearToken()
		if err := state.saveSessionUnlocked(); err != nil {
			state.logger.Error().Err(err).Msg("Could not persist token removal")
		}
		return false
	}

	session.Role = common_models.Role(response.Role)
	session.Username = response.Name
	state.storage.session.set(session)
	if err := state.saveSessionUnlocked(); err != nil {
		state.logger.Error().Err(err).Msg("Could not persist verified session")
	}
	return true
}

// SignOut clears the session from memory and durable storage.
func (state *State) SignOut() error {
	state.locks.sessionLock.Lock()
	defer state.locks.sessionLock.Unlock()

	err := state.checkSdkState(false)
	if err != nil {
		return tracerr.Wrap(err)
	}

	state.storage.session.set(currentSession{})
	state.apiClient.clearToken()
	err = state.saveSessionUnlocked()
	if err != nil {
		return tracerr.Wrap(err)
	}
	state.logger.Debug().Msg("Signed out")
	return nil
}

// SetFlash stores a one-shot message for the next screen that reads it.
func (state *State) SetFlash(message string, kind common_models.FlashKind) {
	state.locks.sessionLock.Lock()
	defer state.locks.sessionLock.Unlock()
	if state.closed {
		return
	}
	session := state.storage.session.get()
	session.Flash = &common_models.FlashMessage{Message: message, Kind: kind}
	state.storage.session.set(session)
	if err := state.saveSessionUnlocked(); err != nil {
		state.logger.Error().Err(err).Msg("Could not persist flash message")
	}
}

// TakeFlash returns the pending flash message and clears it, or nil if none
// is pending. The message is consumed by the first caller.
func (state *State) TakeFlash() *common_models.FlashMessage {
	state.locks.sessionLock.Lock()
	defer state.locks.sessionLock.Unlock()
	if state.closed {
		return nil
	}
	session := state.storage.session.get()
	flash := session.Flash
	if flash == nil {
		return nil
	}
	session.Flash = nil
	state.storage.session.set(session)
	if err := state.saveSessionUnlocked(); err != nil {
		state.logger.Error().Err(err).Msg("Could not persist flash removal")
	}
	return flash
}

// ExportSession serializes the signed-in session so it can be imported on
// another device without going through the sign-in flow again.
func (state *State) ExportSession() ([]byte, error) {
	state.locks.sessionLock.RLock()
	defer state.locks.sessionLock.RUnlock()
	err := state.checkSdkState(true)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	session := state.storage.session.get()
	exported, err := exported_session.Export(session.Token, session.Role, session.Username, session.Email)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return exported, nil
}

// ImportSession installs a session previously produced by ExportSession.
func (state *State) ImportSession(data []byte) error {
	state.locks.sessionLock.Lock()
	defer state.locks.sessionLock.Unlock()
	err := state.checkSdkState(false)
	if err != nil {
		return tracerr.Wrap(err)
	}
	imported, err := exported_session.Import(data)
	if err != nil {
		return tracerr.Wrap(err)
	}
	state.storage.session.set(currentSession{
		Token:    imported.Token,
		Role:     imported.Role,
		Username: imported.Username,
		Email:    imported.Email,
	})
	err = state.saveSessionUnlocked()
	if err != nil {
		return tracerr.Wrap(err)
	}
	state.apiClient.setToken(imported.Token)
	return nil
}

// GateStatus is the verification state of a SessionGate.
type GateStatus int

const (
	// GateUnknown is the state before Admit has been called.
	GateUnknown GateStatus = iota
	// GateVerifying means a view is rendered optimistically while the token is checked.
	GateVerifying
	// GateAuthenticated means the backend confirmed the token.
	GateAuthenticated
	// GateDenied means there is no valid session; the caller was redirected.
	GateDenied
)

// SessionGate decides whether a protected view may render. Verification is
// deliberately fire-and-forget: a view with a stored token renders
// immediately, and is redirected away afterwards if the token turns out to
// be invalid.
type SessionGate struct {
	state  *State
	onDeny func()
	lock   sync.Mutex
	status GateStatus
	wg     sync.WaitGroup
	closed bool
}

// NewSessionGate creates a gate for one protected view. onDeny is invoked
// when the session is missing or fails verification; it typically navigates
// back to the sign-in screen.
func (state *State) NewSessionGate(onDeny func()) *SessionGate {
	return &SessionGate{
		state:  state,
		onDeny: onDeny,
		status: GateUnknown,
	}
}

// Admit reports whether the protected view may render now. Without a stored
// token it denies synchronously, without any network call. With one, it
// admits optimistically and verifies in the background; onDeny fires later
// if verification fails.
func (gate *SessionGate) Admit() bool {
	gate.lock.Lock()

	gate.state.locks.sessionLock.RLock()
	hasToken := !gate.state.closed && gate.state.storage.session.get().Token != ""
	gate.state.locks.sessionLock.RUnlock()

	if !hasToken {
		gate.status = GateDenied
		gate.lock.Unlock()
		if gate.onDeny != nil {
			gate.onDeny()
		}
		return false
	}

	gate.status = GateVerifying
	gate.wg.Add(1)
	gate.lock.Unlock()

	go func() {
		defer gate.wg.Done()
		ok := gate.state.VerifySession()
		gate.lock.Lock()
		if gate.closed {
			gate.lock.Unlock()
			return
		}
		if ok {
			gate.status = GateAuthenticated
			gate.lock.Unlock()
			return
		}
		gate.status = GateDenied
		gate.lock.Unlock()
		if gate.onDeny != nil {
			gate.onDeny()
		}
	}()

	return true
}

// Status returns the current verification state.
func (gate *SessionGate) Status() GateStatus {
	gate.lock.Lock()
	defer gate.lock.Unlock()
	return gate.status
}

// Wait blocks until a pending verification has settled.
func (gate *SessionGate) Wait() {
	gate.wg.Wait()
}

// Close detaches the gate from its view: a verification still in flight can
// no longer change the status or trigger a redirect.
func (gate *SessionGate) Close() {
	gate.lock.Lock()
	defer gate.lock.Unlock()
	gate.closed = true
}
