package kbi

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varphi/go-kbi-sdk/common_models"
	"github.com/varphi/go-kbi-sdk/test_utils"
	"testing"
)

func TestQuery(t *testing.T) {
	t.Run("returns the assistant's answer", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleUser, "alice@x.com")
		canary.ToExecute["query"] = func(request any) ([]byte, error) {
			queryReq := request.(*queryRequest)
			assert.Equal(t, "what is in the Q3 report?", queryReq.Query)
			return []byte(`{"response": "Revenue grew 12%.", "more_detail": "See page 4.", "image": "aW1n"}`), nil
		}

		answer, err := state.Query("what is in the Q3 report?")
		require.NoError(t, err)
		assert.Equal(t, "Revenue grew 12%.", answer.Response)
		assert.Equal(t, "See page 4.", answer.MoreDetail)
		assert.Equal(t, "aW1n", answer.Image)
	})

	t.Run("blank prompt is rejected before any network call", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleUser, "alice@x.com")

		_, err := state.Query("   ")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrorEmptyQuery)
		assert.Equal(t, 0, canary.Counter["query"])
	})

	t.Run("requires a session", func(t *testing.T) {
		state, _ := newTestState(t)
		_, err := state.Query("hello")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrorSessionRequired)
	})

	t.Run("backend failure is propagated", func(t *testing.T) {
		state, canary := signedInTestState(t, common_models.RoleUser, "alice@x.com")
		canary.ToExecute["query"] = test_utils.SyntheticErrorCallback
		_, err := state.Query("hello")
		assert.Error(t, err)
	})
}
