package kbi

import (
	"github.com/varphi/go-kbi-sdk/common_models"
	"github.com/varphi/go-kbi-sdk/utils"
	"github.com/ztrue/tracerr"
	"time"
)

var (
	// ErrorMissingField is returned when a required user field is empty
	ErrorMissingField = utils.NewKbiError("MISSING_FIELD", "required field is empty")
	// ErrorPasswordMismatch is returned when the password confirmation does not match
	ErrorPasswordMismatch = utils.NewKbiError("PASSWORD_MISMATCH", "passwords do not match")
	// ErrorInvalidRole is returned when the given role is not one the backend knows
	ErrorInvalidRole = utils.NewKbiError("INVALID_ROLE", "invalid role")
)

// AddUserOptions are the fields of the add-user form. AddedDate defaults to
// today when empty.
type AddUserOptions struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            common_models.Role
	AddedDate       string
}

// ListUsers returns every dashboard user.
func (state *State) ListUsers() ([]common_models.User, error) {
	state.locks.sessionLock.RLock()
	err := state.checkSdkState(true)
	state.locks.sessionLock.RUnlock()
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	response, err := state.apiClient.listUsers()
	if err != nil {
		state.logger.Error().Err(err).Msg("Error fetching users")
		return nil, tracerr.Wrap(err)
	}
	return response.Users, nil
}

// AddUser creates a dashboard user. Validation failures block the call
// before any network request.
func (state *State) AddUser(options AddUserOptions) (*common_models.User, error) {
	state.locks.sessionLock.RLock()
	err := state.checkSdkState(true)
	state.locks.sessionLock.RUnlock()
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	if options.Username == "" {
		return nil, tracerr.Wrap(ErrorMissingField.AddDetails("username"))
	}
	if options.Password == "" {
		return nil, tracerr.Wrap(ErrorMissingField.AddDetails("password"))
	}
	err = utils.CheckEmail(options.Email)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	if options.Password != options.ConfirmPassword {
		return nil, tracerr.Wrap(ErrorPasswordMismatch)
	}
	if !options.Role.IsValid() {
		return nil, tracerr.Wrap(ErrorInvalidRole.AddDetails(string(options.Role)))
	}
	if options.AddedDate == "" {
		options.AddedDate = time.Now().Format("2006-01-02")
	}

	user, err := state.apiClient.addUser(&addUserRequest{
		Username:  options.Username,
		Email:     options.Email,
		Password:  options.Password,
		Role:      string(options.Role),
		AddedDate: options.AddedDate,
	})
	if err != nil {
		state.logger.Error().Err(err).Msg("Error adding user")
		return nil, tracerr.Wrap(err)
	}
	return user, nil
}

// EditUser updates a user's name and role, keyed by email. The backend's
// confirmation is stored as a flash message for the reloaded screen.
func (state *State) EditUser(username string, email string, role common_models.Role) (string, error) {
	state.locks.sessionLock.RLock()
	err := state.checkSdkState(true)
	state.locks.sessionLock.RUnlock()
	if err != nil {
		return "", tracerr.Wrap(err)
	}

	if username == "" {
		return "", tracerr.Wrap(ErrorMissingField.AddDetails("username"))
	}
	err = utils.CheckEmail(email)
	if err != nil {
		return "", tracerr.Wrap(err)
	}
	if !role.IsValid() {
		return "", tracerr.Wrap(ErrorInvalidRole.AddDetails(string(role)))
	}

	response, err := state.apiClient.editUser(&editUserRequest{
		Username: username,
		Email:    email,
		Role:     string(role),
	})
	if err != nil {
		state.logger.Error().Err(err).Msg("Error editing user")
		state.SetFlash(err.Error(), common_models.FlashError)
		return "", tracerr.Wrap(err)
	}
	state.SetFlash(response.Detail, common_models.FlashSuccess)
	return response.Detail, nil
}

// DeleteUser removes a user by email.
func (state *State) DeleteUser(email string) (string, error) {
	state.locks.sessionLock.RLock()
	err := state.checkSdkState(true)
	state.locks.sessionLock.RUnlock()
	if err != nil {
		return "", tracerr.Wrap(err)
	}

	err = utils.CheckEmail(email)
	if err != nil {
		return "", tracerr.Wrap(err)
	}

	response, err := state.apiClient.deleteUser(&deleteUserRequest{Email: email})
	if err != nil {
		state.logger.Error().Err(err).Msg("Error deleting user")
		state.SetFlash(err.Error(), common_models.FlashError)
		return "", tracerr.Wrap(err)
	}
	state.SetFlash(response.Detail, common_models.FlashSuccess)
	return response.Detail, nil
}
