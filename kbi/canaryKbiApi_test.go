package kbi

import (
	"encoding/json"
	"github.com/varphi/go-kbi-sdk/common_models"
	"github.com/ztrue/tracerr"
	"io"
)

func newCanaryKbiApiClient(client kbiApiClientInterface) *canaryKbiApiClient {
	return &canaryKbiApiClient{Client: client, ToExecute: make(map[string]func(any) ([]byte, error)), Counter: make(map[string]int)}
}

func executeKbiApiCanary[U any](c *canaryKbiApiClient, funcName string, request interface{}) (*U, error) {
	c.Counter[funcName] += 1
	if c.ToExecute[funcName] != nil {
		res, err := c.ToExecute[funcName](request)
		if err != nil {
			return nil, tracerr.Wrap(err)
		}
		if res != nil {
			var response U
			err = json.Unmarshal(res, &response)
			if err != nil {
				return nil, tracerr.Wrap(err)
			}
			return &response, nil
		}
	}
	return nil, nil
}

type canaryKbiApiClient struct {
	Client    kbiApiClientInterface
	ToExecute map[string]func(request any) ([]byte, error)
	Counter   map[string]int
	Token     string
}

// uploadedFile is what the uploadFile canary hands to its override callback.
type uploadedFile struct {
	Name    string
	Content []byte
}

func (c *canaryKbiApiClient) setToken(token string) {
	c.Token = token
	if c.Client != nil {
		c.Client.setToken(token)
	}
}

func (c *canaryKbiApiClient) clearToken() {
	c.Token = ""
	if c.Client != nil {
		c.Client.clearToken()
	}
}

func (c *canaryKbiApiClient) verifyToken() (*verifyTokenResponse, error) {
	res, err := executeKbiApiCanary[verifyTokenResponse](c, "verifyToken", nil)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.verifyToken()
}

func (c *canaryKbiApiClient) login(request *loginRequest) (*loginResponse, error) {
	res, err := executeKbiApiCanary[loginResponse](c, "login", request)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.login(request)
}

func (c *canaryKbiApiClient) listNotifications() (*listNotificationsResponse, error) {
	res, err := executeKbiApiCanary[listNotificationsResponse](c, "listNotifications", nil)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.listNotifications()
}

func (c *canaryKbiApiClient) readOneNotification(request *readOneNotificationRequest) (*detailResponse, error) {
	res, err := executeKbiApiCanary[detailResponse](c, "readOneNotification", request)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.readOneNotification(request)
}

func (c *canaryKbiApiClient) readAllNotifications() (*detailResponse, error) {
	res, err := executeKbiApiCanary[detailResponse](c, "readAllNotifications", nil)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.readAllNotifications()
}

func (c *canaryKbiApiClient) listFileRequests() (*listFileRequestsResponse, error) {
	res, err := executeKbiApiCanary[listFileRequestsResponse](c, "listFileRequests", nil)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.listFileRequests()
}

func (c *canaryKbiApiClient) acceptFile(request *fileDecisionRequest) (*detailResponse, error) {
	res, err := executeKbiApiCanary[detailResponse](c, "acceptFile", request)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.acceptFile(request)
}

func (c *canaryKbiApiClient) rejectFile(request *fileDecisionRequest) (*detailResponse, error) {
	res, err := executeKbiApiCanary[detailResponse](c, "rejectFile", request)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.rejectFile(request)
}

func (c *canaryKbiApiClient) listUsers() (*listUsersResponse, error) {
	c.Counter["listUsers"] += 1
	if c.ToExecute["listUsers"] != nil {
		res, err := c.ToExecute["listUsers"](nil)
		if err != nil {
			return nil, tracerr.Wrap(err)
		}
		if res != nil {
			// same bare-array shape as the real endpoint
			var users []common_models.User
			err = json.Unmarshal(res, &users)
			if err != nil {
				return nil, tracerr.Wrap(err)
			}
			return &listUsersResponse{Users: users}, nil
		}
	}
	return c.Client.listUsers()
}

func (c *canaryKbiApiClient) addUser(request *addUserRequest) (*common_models.User, error) {
	res, err := executeKbiApiCanary[common_models.User](c, "addUser", request)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.addUser(request)
}

func (c *canaryKbiApiClient) editUser(request *editUserRequest) (*detailResponse, error) {
	res, err := executeKbiApiCanary[detailResponse](c, "editUser", request)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.editUser(request)
}

func (c *canaryKbiApiClient) deleteUser(request *deleteUserRequest) (*detailResponse, error) {
	res, err := executeKbiApiCanary[detailResponse](c, "deleteUser", request)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.deleteUser(request)
}

func (c *canaryKbiApiClient) uploadFile(fileName string, fileContent io.Reader) (*detailResponse, error) {
	var content []byte
	if fileContent != nil {
		content, _ = io.ReadAll(fileContent)
	}
	res, err := executeKbiApiCanary[detailResponse](c, "uploadFile", uploadedFile{Name: fileName, Content: content})
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.uploadFile(fileName, fileContent)
}

func (c *canaryKbiApiClient) query(request *queryRequest) (*queryResponse, error) {
	res, err := executeKbiApiCanary[queryResponse](c, "query", request)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return c.Client.query(request)
}
