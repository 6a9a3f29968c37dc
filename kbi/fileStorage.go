package kbi

import (
	"encoding/json"
	"github.com/allan-simon/go-singleinstance"
	"github.com/varphi/go-kbi-sdk/storage_key"
	"github.com/varphi/go-kbi-sdk/utils"
	"github.com/ztrue/tracerr"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	// ErrorDatabaseLocked is returned when another instance of the SDK is already using this database
	ErrorDatabaseLocked = utils.NewKbiError("DATABASE_LOCKED", "another instance of the SDK is already using this database")
	// ErrorDatabaseClosed is returned when trying to use a database which is not open
	ErrorDatabaseClosed = utils.NewKbiError("DATABASE_CLOSED", "database closed")
	// ErrorDatabaseAlreadyInitialized is returned when trying to initialize a database which has already been initialized
	ErrorDatabaseAlreadyInitialized = utils.NewKbiError("DATABASE_ALREADY_INITIALIZED", "database already initialized")
	// ErrorDatabaseNoEncryptionKey is returned when creating a FileStorage without an encryption key
	ErrorDatabaseNoEncryptionKey = utils.NewKbiError("DATABASE_NO_ENCRYPTION_KEY", "an encryption key is required")
)

func readStorage[T interface{}](fileName string, key *storage_key.StorageKey, data *T) error {
	read, err := os.ReadFile(fileName)

	if err != nil {
		if os.IsNotExist(err) {
			return nil
		} else {
			return tracerr.Wrap(err)
		}
	}

	if len(read) == 0 {
		return nil
	}

	decryptedData, err := key.Decrypt(read)

	if err != nil {
		return tracerr.Wrap(err)
	}

	err = json.Unmarshal(decryptedData, &data)

	if err != nil {
		return tracerr.Wrap(err)
	}

	return nil
}

func writeStorage[T interface{}](fileName string, key *storage_key.StorageKey, data *T) error {
	marshalledData, err := json.Marshal(data)

	if err != nil {
		return tracerr.Wrap(err)
	}

	encryptedData, err := key.Encrypt(marshalledData)

	if err != nil {
		return tracerr.Wrap(err)
	}

	t := time.Now()
	now := strings.Replace(t.Format("20060102150405.000"), ".", "", 1)
	tempFileName := fileName + "_temp_" + now

	// write in 2 steps for atomic write
	err = os.WriteFile(tempFileName, encryptedData, 0600)
	if err != nil {
		return tracerr.Wrap(err)
	}

	err = os.Rename(tempFileName, fileName)
	if err != nil {
		return tracerr.Wrap(err)
	}

	return nil
}

// FileStorage is an implementation of Database, which stores the session on
// the File System, encrypted at rest. To create it, you must instantiate a
// FileStorage object with an EncryptionKey and DatabaseDir. This instance
// should then directly be passed to InitializeOptions.
type FileStorage struct {
	EncryptionKey   *storage_key.StorageKey
	DatabaseDir     string
	databaseLock    *os.File
	sessionFileLock sync.Mutex // locks the file on FS, whereas sessionLock on State covers the in-memory value
}

func (f *FileStorage) initialize() error {
	if f.databaseLock != nil {
		return tracerr.Wrap(ErrorDatabaseAlreadyInitialized)
	}
	if f.EncryptionKey == nil {
		return tracerr.Wrap(ErrorDatabaseNoEncryptionKey)
	}

	err := os.MkdirAll(f.DatabaseDir, 0700)
	if err != nil {
		return tracerr.Wrap(err)
	}
	lockPath := filepath.Join(f.DatabaseDir, "lock")
	databaseLock, err := singleinstance.CreateLockFile(lockPath)
	if err != nil {
		if (runtime.GOOS == "windows" && err.Error() == "remove "+lockPath+": The process cannot access the file because it is being used by another process.") ||
			err.Error() == "resource temporarily unavailable" {
			return tracerr.Wrap(ErrorDatabaseLocked)
		} else {
			return tracerr.Wrap(err)
		}
	}
	f.databaseLock = databaseLock
	return nil
}

func (f *FileStorage) close() error {
	// ensure any writes which are already in flight finish before closing the DB
	f.sessionFileLock.Lock()
	defer f.sessionFileLock.Unlock()

	// release the DB lock
	err := f.databaseLock.Close()
	if err != nil {
		return tracerr.Wrap(err)
	}
	f.databaseLock = nil

	return nil
}

func (f *FileStorage) readSession(storage *sessionStorage) error {
	if f.databaseLock == nil {
		return tracerr.Wrap(ErrorDatabaseClosed)
	}
	storage.session = &currentSession{}
	f.sessionFileLock.Lock()
	defer f.sessionFileLock.Unlock()
	return readStorage[currentSession](filepath.Join(f.DatabaseDir, "session_storage"), f.EncryptionKey, storage.session)
}

func (f *FileStorage) writeSession(storage *sessionStorage) error {
	if f.databaseLock == nil {
		return tracerr.Wrap(ErrorDatabaseClosed)
	}
	f.sessionFileLock.Lock()
	defer f.sessionFileLock.Unlock()
	return writeStorage[currentSession](filepath.Join(f.DatabaseDir, "session_storage"), f.EncryptionKey, storage.session)
}
