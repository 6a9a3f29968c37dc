package kbi

import (
	"encoding/json"
	"github.com/varphi/go-kbi-sdk/api_helper"
	"github.com/varphi/go-kbi-sdk/common_models"
	"github.com/ztrue/tracerr"
	"io"
	"net/url"
)

type kbiApiClientInterface interface {
	setToken(token string)
	clearToken()
	verifyToken() (*verifyTokenResponse, error)
	login(request *loginRequest) (*loginResponse, error)
	listNotifications() (*listNotificationsResponse, error)
	readOneNotification(request *readOneNotificationRequest) (*detailResponse, error)
	readAllNotifications() (*detailResponse, error)
	listFileRequests() (*listFileRequestsResponse, error)
	acceptFile(request *fileDecisionRequest) (*detailResponse, error)
	rejectFile(request *fileDecisionRequest) (*detailResponse, error)
	listUsers() (*listUsersResponse, error)
	addUser(request *addUserRequest) (*common_models.User, error)
	editUser(request *editUserRequest) (*detailResponse, error)
	deleteUser(request *deleteUserRequest) (*detailResponse, error)
	uploadFile(fileName string, fileContent io.Reader) (*detailResponse, error)
	query(request *queryRequest) (*queryResponse, error)
}

// detailResponse is the backend's generic acknowledgement shape.
type detailResponse struct {
	Detail      string `json:"detail"`
	ErrorDetail string `json:"error_detail"`
}

type verifyTokenResponse struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

type loginRequest struct {
	Username string
	Password string
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type notificationItem struct {
	FileName string `json:"file_name"`
	From     string `json:"from"`
	Email    string `json:"email"`
	Status   string `json:"status"`
}

type listNotificationsResponse struct {
	Detail []notificationItem `json:"detail"`
}

type readOneNotificationRequest struct {
	FileName string `json:"file_name"`
	Email    string `json:"email"`
}

type listFileRequestsResponse struct {
	Detail []common_models.FileRequest `json:"detail"`
}

type fileDecisionRequest struct {
	Filename string `json:"filename"`
}

type listUsersResponse struct {
	Users []common_models.User
}

type addUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	AddedDate string `json:"added_date"`
}

type editUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type deleteUserRequest struct {
	Email string `json:"email"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Response   string `json:"response"`
	MoreDetail string `json:"more_detail"`
	Image      string `json:"image"`
}

type kbiApiClient struct {
	api_helper.ApiClient
}

func (apiClient *kbiApiClient) setToken(token string) {
	apiClient.BearerToken = token
}

func (apiClient *kbiApiClient) clearToken() {
	apiClient.BearerToken = ""
}

func (apiClient *kbiApiClient) verifyToken() (*verifyTokenResponse, error) {
	responseBody, err := apiClient.MakeRequest(
		"GET",
		"/verify",
		nil,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result verifyTokenResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) login(request *loginRequest) (*loginResponse, error) {
	// OAuth2 password grant shape, with the optional fields left empty
	form := "grant_type=&username=" + url.QueryEscape(request.Username) +
		"&password=" + url.QueryEscape(request.Password) +
		"&scope=&client_id=&client_secret="

	responseBody, err := apiClient.MakeFormRequest(
		"POST",
		"/token",
		form,
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result loginResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) listNotifications() (*listNotificationsResponse, error) {
	responseBody, err := apiClient.MakeRequest(
		"GET",
		"/notifications",
		nil,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result listNotificationsResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) readOneNotification(request *readOneNotificationRequest) (*detailResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	responseBody, err := apiClient.MakeRequest(
		"PUT",
		"/notifications/read_one",
		requestBody,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result detailResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) readAllNotifications() (*detailResponse, error) {
	requestBody, err := json.Marshal(map[string]interface{}{})
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	responseBody, err := apiClient.MakeRequest(
		"PUT",
		"/notifications/read_all",
		requestBody,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result detailResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) listFileRequests() (*listFileRequestsResponse, error) {
	responseBody, err := apiClient.MakeRequest(
		"GET",
		"/files/request_all",
		nil,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result listFileRequestsResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) acceptFile(request *fileDecisionRequest) (*detailResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	responseBody, err := apiClient.MakeRequest(
		"POST",
		"/files/accept",
		requestBody,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result detailResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) rejectFile(request *fileDecisionRequest) (*detailResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	responseBody, err := apiClient.MakeRequest(
		"POST",
		"/files/reject",
		requestBody,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result detailResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) listUsers() (*listUsersResponse, error) {
	responseBody, err := apiClient.MakeRequest(
		"GET",
		"/users",
		nil,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	// the users endpoint returns a bare array
	var users []common_models.User
	err = json.Unmarshal(responseBody, &users)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &listUsersResponse{Users: users}, nil
}

func (apiClient *kbiApiClient) addUser(request *addUserRequest) (*common_models.User, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	responseBody, err := apiClient.MakeRequest(
		"POST",
		"/users/add",
		requestBody,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result common_models.User
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) editUser(request *editUserRequest) (*detailResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	responseBody, err := apiClient.MakeRequest(
		"PUT",
		"/users/edit",
		requestBody,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result detailResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) deleteUser(request *deleteUserRequest) (*detailResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	responseBody, err := apiClient.MakeRequest(
		"DELETE",
		"/users/delete",
		requestBody,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result detailResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) uploadFile(fileName string, fileContent io.Reader) (*detailResponse, error) {
	responseBody, err := apiClient.MakeMultipartRequest(
		"POST",
		"/files/upload",
		"files",
		fileName,
		fileContent,
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result detailResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}

func (apiClient *kbiApiClient) query(request *queryRequest) (*queryResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	responseBody, err := apiClient.MakeRequest(
		"POST",
		"/query",
		requestBody,
		[]api_helper.Header{},
		200,
	)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var result queryResponse
	err = json.Unmarshal(responseBody, &result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &result, nil
}
