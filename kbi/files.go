package kbi

import (
	"github.com/varphi/go-kbi-sdk/common_models"
	"github.com/varphi/go-kbi-sdk/utils"
	"github.com/ztrue/tracerr"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrorInvalidFileType is returned when uploading a file with an extension the ingestion pipeline does not handle
	ErrorInvalidFileType = utils.NewKbiError("INVALID_FILE_TYPE", "Invalid file type. Please upload .pdf, .xlsx, .txt, .pptx, .docx, or .csv files.")
	// ErrorEmptyFileName is returned when uploading without a file name
	ErrorEmptyFileName = utils.NewKbiError("EMPTY_FILE_NAME", "a file name is required")
	// ErrorUploadRejected is returned when the backend refuses the uploaded file
	ErrorUploadRejected = utils.NewKbiError("UPLOAD_REJECTED", "file upload rejected")
)

// ValidUploadExtensions are the document types the ingestion pipeline accepts.
var ValidUploadExtensions = []string{".pdf", ".xlsx", ".txt", ".pptx", ".docx", ".csv"}

// UploadFile submits a document for admin approval. The extension is checked
// before any network call. Returns the backend's status message.
func (state *State) UploadFile(fileName string, fileContent io.Reader) (string, error) {
	state.locks.sessionLock.RLock()
	err := state.checkSdkState(true)
	state.locks.sessionLock.RUnlock()
	if err != nil {
		return "", tracerr.Wrap(err)
	}

	if fileName == "" {
		return "", tracerr.Wrap(ErrorEmptyFileName)
	}
	extension := strings.ToLower(filepath.Ext(fileName))
	if !utils.SliceIncludes(ValidUploadExtensions, extension) {
		return "", tracerr.Wrap(ErrorInvalidFileType)
	}

	response, err := state.apiClient.uploadFile(fileName, fileContent)
	if err != nil {
		state.logger.Error().Err(err).Str("file", fileName).Msg("File upload failed")
		return "", tracerr.Wrap(err)
	}
	if response.ErrorDetail != "" {
		return "", tracerr.Wrap(ErrorUploadRejected.AddDetails(response.ErrorDetail))
	}
	return response.Detail, nil
}

// PendingFileRequests lists the uploads awaiting the current approver's decision.
func (state *State) PendingFileRequests() ([]common_models.FileRequest, error) {
	state.locks.sessionLock.RLock()
	err := state.checkSdkState(true)
	state.locks.sessionLock.RUnlock()
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	response, err := state.apiClient.listFileRequests()
	if err != nil {
		state.logger.Error().Err(err).Msg("Error fetching file requests")
		return nil, tracerr.Wrap(err)
	}
	return response.Detail, nil
}

// ApproveFile accepts a pending upload. The outcome is also stored as a
// flash message, so the decision survives the screen reload that follows.
func (state *State) ApproveFile(filename string) (string, error) {
	return state.decideFile(filename, true)
}

// RejectFile refuses a pending upload.
func (state *State) RejectFile(filename string) (string, error) {
	return state.decideFile(filename, false)
}

func (state *State) decideFile(filename string, approve bool) (string, error) {
	state.locks.sessionLock.RLock()
	err := state.checkSdkState(true)
	state.locks.sessionLock.RUnlock()
	if err != nil {
		return "", tracerr.Wrap(err)
	}

	request := &fileDecisionRequest{Filename: filename}
	var response *detailResponse
	if approve {
		response, err = state.apiClient.acceptFile(request)
	} else {
		response, err = state.apiClient.rejectFile(request)
	}
	if err != nil {
		state.logger.Error().Err(err).Str("file", filename).Msg("File decision failed")
		state.SetFlash(err.Error(), common_models.FlashError)
		return "", tracerr.Wrap(err)
	}
	if response.ErrorDetail != "" {
		state.SetFlash(response.ErrorDetail, common_models.FlashError)
		return "", tracerr.Wrap(ErrorUploadRejected.AddDetails(response.ErrorDetail))
	}
	state.SetFlash(response.Detail, common_models.FlashSuccess)
	return response.Detail, nil
}
