package kbi

import (
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varphi/go-kbi-sdk/common_models"
	"github.com/varphi/go-kbi-sdk/storage_key"
	"github.com/varphi/go-kbi-sdk/test_utils"
	"io"
	"os"
	"testing"
)

func TestInitialize(t *testing.T) {
	t.Run("rejects an invalid ApiURL", func(t *testing.T) {
		invalidURLs := []string{
			"",
			"localhost:8080",
			"ftp://localhost:8080",
			"http://",
			"not a url",
		}
		for _, apiURL := range invalidURLs {
			state, err := Initialize(&InitializeOptions{
				ApiURL:   apiURL,
				Database: &MemoryStorage{},
				Platform: "go-tests",
				LogLevel: zerolog.Disabled,
			})
			assert.ErrorIs(t, err, ErrorInvalidApiURL, "ApiURL %q should be rejected", apiURL)
			assert.Nil(t, state)
		}
	})

	t.Run("requires a platform", func(t *testing.T) {
		state, err := Initialize(&InitializeOptions{
			ApiURL:   "http://localhost:8080",
			Database: &MemoryStorage{},
			LogLevel: zerolog.Disabled,
		})
		assert.ErrorIs(t, err, ErrorPlatformRequired)
		assert.Nil(t, state)
	})

	t.Run("requires a database", func(t *testing.T) {
		state, err := Initialize(&InitializeOptions{
			ApiURL:   "http://localhost:8080",
			Platform: "go-tests",
			LogLevel: zerolog.Disabled,
		})
		assert.ErrorIs(t, err, ErrorDatabaseRequired)
		assert.Nil(t, state)
	})

	t.Run("resumes the persisted token", func(t *testing.T) {
		encryptionKey, err := storage_key.DecodeB64(test_utils.DatabaseEncryptionKeyB64)
		require.NoError(t, err)
		dbPath, err := test_utils.GetDBPath("testDB_resume_token")
		require.NoError(t, err)
		require.NoError(t, os.RemoveAll(dbPath))

		db := &FileStorage{EncryptionKey: encryptionKey, DatabaseDir: dbPath}
		require.NoError(t, db.initialize())
		var storage sessionStorage
		storage.set(currentSession{Token: "resumed-token", Role: common_models.RoleUser, Email: "alice@x.com"})
		require.NoError(t, db.writeSession(&storage))
		require.NoError(t, db.close())

		state, err := Initialize(&InitializeOptions{
			ApiURL:       "http://localhost:8080",
			Database:     &FileStorage{EncryptionKey: encryptionKey, DatabaseDir: dbPath},
			Platform:     "go-tests",
			LogLevel:     zerolog.Disabled,
			InstanceName: t.Name(),
			LogWriter:    io.Discard,
		})
		require.NoError(t, err)
		assert.Equal(t, "resumed-token", state.storage.session.get().Token)
		assert.Equal(t, "resumed-token", state.apiClient.(*kbiApiClient).BearerToken)
		require.NoError(t, state.Close())
	})
}

func TestClose(t *testing.T) {
	t.Run("a closed instance cannot be used", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleUser, "alice@x.com")
		require.NoError(t, state.Close())

		assert.False(t, state.VerifySession())
		_, err := state.Query("hello")
		assert.ErrorIs(t, err, ErrorSdkClosed)
		_, err = state.PendingFileRequests()
		assert.ErrorIs(t, err, ErrorSdkClosed)
		err = state.Login("alice@x.com", "password")
		assert.ErrorIs(t, err, ErrorSdkClosed)
		assert.Equal(t, 0, canary.Counter["verifyToken"])
		assert.Equal(t, 0, canary.Counter["query"])
		assert.Equal(t, 0, canary.Counter["login"])
	})

	t.Run("closing twice is a no-op", func(t *testing.T) {
		state, _ := newTestState(t)
		require.NoError(t, state.Close())
		require.NoError(t, state.Close())
	})
}
