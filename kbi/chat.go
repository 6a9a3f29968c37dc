package kbi

import (
	"github.com/varphi/go-kbi-sdk/common_models"
	"github.com/varphi/go-kbi-sdk/utils"
	"github.com/ztrue/tracerr"
	"strings"
)

var (
	// ErrorEmptyQuery is returned when submitting a blank prompt
	ErrorEmptyQuery = utils.NewKbiError("EMPTY_QUERY", "query must not be empty")
)

// Query asks the assistant a question over the ingested documents.
func (state *State) Query(text string) (*common_models.ChatAnswer, error) {
	state.locks.sessionLock.RLock()
	err := state.checkSdkState(true)
	state.locks.sessionLock.RUnlock()
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, tracerr.Wrap(ErrorEmptyQuery)
	}

	response, err := state.apiClient.query(&queryRequest{Query: text})
	if err != nil {
		state.logger.Error().Err(err).Msg("Query failed")
		return nil, tracerr.Wrap(err)
	}
	return &common_models.ChatAnswer{
		Response:   response.Response,
		MoreDetail: response.MoreDetail,
		Image:      response.Image,
	}, nil
}
