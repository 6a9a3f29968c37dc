package kbi

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varphi/go-kbi-sdk/common_models"
	"github.com/varphi/go-kbi-sdk/test_utils"
	"strings"
	"testing"
)

func TestUploadFile(t *testing.T) {
	t.Run("accepted document is sent as-is", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleUser, "alice@x.com")
		var sent uploadedFile
		canary.ToExecute["uploadFile"] = func(request any) ([]byte, error) {
			sent = request.(uploadedFile)
			return []byte(`{"detail": "File uploaded successfully!"}`), nil
		}

		detail, err := state.UploadFile("report.pdf", strings.NewReader("%PDF-1.4"))
		require.NoError(t, err)
		assert.Equal(t, "File uploaded successfully!", detail)
		assert.Equal(t, "report.pdf", sent.Name)
		assert.Equal(t, []byte("%PDF-1.4"), sent.Content)
	})

	t.Run("extension allowlist blocks before any network call", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleUser, "alice@x.com")

		_, err := state.UploadFile("malware.exe", strings.NewReader("MZ"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrorInvalidFileType)
		assert.Equal(t, 0, canary.Counter["uploadFile"])

		// the check is case-insensitive
		canary.ToExecute["uploadFile"] = func(any) ([]byte, error) {
			return []byte(`{"detail": "ok"}`), nil
		}
		_, err = state.UploadFile("REPORT.PDF", strings.NewReader("%PDF-1.4"))
		assert.NoError(t, err)
	})

	t.Run("empty file name is rejected", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleUser, "alice@x.com")
		_, err := state.UploadFile("", strings.NewReader("data"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrorEmptyFileName)
		assert.Equal(t, 0, canary.Counter["uploadFile"])
	})

	t.Run("backend error_detail surfaces as an error", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleUser, "alice@x.com")
		canary.ToExecute["uploadFile"] = func(any) ([]byte, error) {
			return []byte(`{"error_detail": "duplicate file"}`), nil
		}

		_, err := state.UploadFile("report.pdf", strings.NewReader("%PDF-1.4"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrorUploadRejected)
	})

	t.Run("requires a session", func(t *testing.T) {
		state, _ := newTestState(t)
		_, err := state.UploadFile("report.pdf", strings.NewReader("%PDF-1.4"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrorSessionRequired)
	})
}

func TestPendingFileRequests(t *testing.T) {
	state, canary := signedInTestState(t, common_models.RoleAdmin, "admin@x.com")
	canary.ToExecute["listFileRequests"] = func(any) ([]byte, error) {
		return []byte(`{"detail": [
			{"file_name": "a.txt", "email": "bob@x.com"},
			{"file_name": "b.pdf", "email": "carol@x.com"}
		]}`), nil
	}

	requests, err := state.PendingFileRequests()
	require.NoError(t, err)
	assert.Equal(t, []common_models.FileRequest{
		{FileName: "a.txt", Email: "bob@x.com"},
		{FileName: "b.pdf", Email: "carol@x.com"},
	}, requests)

	t.Run("fetch failure is propagated", func(t *testing.T) {
		canary.ToExecute["listFileRequests"] = test_utils.SyntheticErrorCallback
		_, err := state.PendingFileRequests()
		assert.Error(t, err)
	})
}

func TestFileDecisions(t *testing.T) {
	t.Run("approval stores a success flash", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleAdmin, "admin@x.com")
		var sent *fileDecisionRequest
		canary.ToExecute["acceptFile"] = func(request any) ([]byte, error) {
			sent = request.(*fileDecisionRequest)
			return []byte(`{"detail": "a.txt approved"}`), nil
		}

		detail, err := state.ApproveFile("a.txt")
		require.NoError(t, err)
		assert.Equal(t, "a.txt approved", detail)
		assert.Equal(t, "a.txt", sent.Filename)

		flash := state.TakeFlash()
		require.NotNil(t, flash)
		assert.Equal(t, "a.txt approved", flash.Message)
		assert.Equal(t, common_models.FlashSuccess, flash.Kind)
	})

	t.Run("rejection stores a success flash too", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleAdmin, "admin@x.com")
		canary.ToExecute["rejectFile"] = func(any) ([]byte, error) {
			return []byte(`{"detail": "a.txt rejected"}`), nil
		}

		detail, err := state.RejectFile("a.txt")
		require.NoError(t, err)
		assert.Equal(t, "a.txt rejected", detail)
		require.NotNil(t, state.TakeFlash())
	})

	t.Run("backend failure stores an error flash", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleAdmin, "admin@x.com")
		canary.ToExecute["acceptFile"] = test_utils.SyntheticErrorCallback

		_, err := state.ApproveFile("a.txt")
		require.Error(t, err)
		flash := state.TakeFlash()
		require.NotNil(t, flash)
		assert.Equal(t, common_models.FlashError, flash.Kind)
	})

	t.Run("error_detail in the decision response is an error", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleAdmin, "admin@x.com")
		canary.ToExecute["acceptFile"] = func(any) ([]byte, error) {
			return []byte(`{"error_detail": "file already handled"}`), nil
		}

		_, err := state.ApproveFile("a.txt")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrorUploadRejected)
	})
}
