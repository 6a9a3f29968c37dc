package kbi

import (
	"github.com/rs/zerolog"
	"github.com/varphi/go-kbi-sdk/api_helper"
	"github.com/varphi/go-kbi-sdk/utils"
	"github.com/ztrue/tracerr"
	"io"
	"net/url"
	"os"
	"sync"
	"time"
)

var (
	// ErrorInvalidApiURL is returned when the ApiURL given in InitializeOptions is invalid.
	ErrorInvalidApiURL = utils.NewKbiError("INVALID_API_URL", "the ApiURL is invalid")
	// ErrorDatabaseRequired is returned when Database is not defined
	ErrorDatabaseRequired = utils.NewKbiError("SDK_DATABASE_REQUIRED", "Database argument is required")
	// ErrorPlatformRequired is returned when Platform is not defined
	ErrorPlatformRequired = utils.NewKbiError("SDK_PLATFORM_REQUIRED", "Platform argument is required")
	// ErrorSdkClosed is returned when this SDK instance has been closed
	ErrorSdkClosed = utils.NewKbiError("SDK_CLOSED", "this SDK instance has already been closed")
	// ErrorSessionRequired is returned when trying to use a function that needs a signed-in session
	ErrorSessionRequired = utils.NewKbiError("SESSION_REQUIRED", "this function cannot be called without a signed-in session")
)

// InitializeOptions is the main options object for initializing the SDK instance.
type InitializeOptions struct {
	// ApiURL is the base URL of the KBI backend, including host and port.
	ApiURL string
	// Database is the storage backend instance used to persist the session across restarts.
	Database Database
	// LogLevel is the minimum level of logs you want. All logs of this level or above will be displayed. Use one of the zerolog level constants.
	LogLevel zerolog.Level
	// LogNoColor should be set to true if you want to disable colors in the log output.
	LogNoColor bool
	// InstanceName is an arbitrary name to give to this instance. Can be useful for debugging when multiple instances are running in parallel, as it is added to logs.
	InstanceName string
	// Platform is a name that references the platform on which the SDK is running ("go" / "desktop" / "tui" / ...)
	Platform string
	// LogWriter is the io.Writer to which to write the logs. Defaults to os.Stdout.
	LogWriter io.Writer
}

type storage struct {
	session sessionStorage
}

type stateLocks struct {
	sessionLock sync.RWMutex // Lock when doing something that can change the current session (signing in / importing a session)
	loginLock   sync.Mutex   // Used to avoid having multiple logins in parallel
}

// State is the object representing an instance of the KBI SDK.
// You must never create a State yourself. Instead, always use Initialize.
type State struct {
	apiClient kbiApiClientInterface
	storage   storage
	locks     stateLocks
	options   *InitializeOptions
	logger    zerolog.Logger
	closed    bool
}

func validateOptions(options InitializeOptions) error {
	parsed, err := url.Parse(options.ApiURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return tracerr.Wrap(ErrorInvalidApiURL.AddDetails(options.ApiURL))
	}
	if options.Platform == "" {
		return tracerr.Wrap(ErrorPlatformRequired)
	}
	if options.Database == nil {
		return tracerr.Wrap(ErrorDatabaseRequired)
	}
	return nil
}

// Initialize is the function to use to create an instance of the SDK.
// It receives an InitializeOptions object, and returns a State representing the instantiated SDK.
func Initialize(options *InitializeOptions) (*State, error) {
	err := validateOptions(*options)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	if options.LogWriter == nil {
		options.LogWriter = os.Stdout
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	instanceLogger := zerolog.New(zerolog.ConsoleWriter{Out: options.LogWriter, TimeFormat: time.StampMilli, NoColor: options.LogNoColor}).With().Timestamp().Logger()
	instanceLogger = instanceLogger.Level(options.LogLevel)
	if options.InstanceName != "" {
		instanceLogger = instanceLogger.With().Str("instance", options.InstanceName).Logger()
	}

	instanceLogger.Debug().Msg("Initialize new instance...")
	instanceLogger.Trace().Interface("opts", options).Msg("Init options")

	err = options.Database.initialize()
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	apiLogger := instanceLogger.With().Str("component", "kbiApiClient").Logger()
	version_ := "kbi-go/" + options.Platform + "/" + utils.Version
	state := State{
		apiClient: &kbiApiClient{
			ApiClient: *api_helper.NewApiClient(
				options.ApiURL,
				[]api_helper.Header{
					{Name: "X-KBI-VERSION", Value: version_},
				},
				apiLogger,
			),
		},
		options: options,
		logger:  instanceLogger,
	}

	err = options.Database.readSession(&state.storage.session)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	// resume the persisted session, if any
	state.apiClient.setToken(state.storage.session.get().Token)

	state.closed = false

	return &state, nil
}

// Close closes the current SDK instance. This frees any lock on the current database. After calling Close, the instance cannot be used anymore.
func (state *State) Close() error {
	if state.closed == true { // Checking if already closed, to bail out
		state.logger.Debug().Msg("Already closed")
		return nil
	}

	state.locks.sessionLock.Lock()
	defer state.locks.sessionLock.Unlock()

	if state.closed == true { // Checking again, because maybe it got closed while we were acquiring the lock
		state.logger.Debug().Msg("Already closed after lock")
		return nil
	}

	state.logger.Debug().Msg("Closing...")

	err := state.options.Database.close()
	if err != nil {
		return tracerr.Wrap(err)
	}

	state.closed = true
	return nil
}

// checkSdkState must be called with at least a read lock on sessionLock.
func (state *State) checkSdkState(requireSession bool) error {
	if state.closed {
		return tracerr.Wrap(ErrorSdkClosed)
	}
	if requireSession && state.storage.session.get().Token == "" {
		return tracerr.Wrap(ErrorSessionRequired)
	}
	return nil
}

func (state *State) saveSessionUnlocked() error {
	return tracerr.Wrap(state.options.Database.writeSession(&state.storage.session))
}
