package api_helper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/varphi/go-kbi-sdk/utils"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// ApiClient is a thin wrapper around net/http implementing the KBI backend
// conventions: JSON bodies, and a bearer token attached to every request
// once a session is open.
type ApiClient struct {
	client       *http.Client
	ApiURL       string
	BearerToken  string
	ExtraHeaders []Header
	Logger       zerolog.Logger
}

type serverError struct {
	Detail      string `json:"detail"`
	ErrorDetail string `json:"error_detail"`
}

type Header struct {
	Name  string
	Value string
}

func NewApiClient(apiUrl string, extraHeaders []Header, logger zerolog.Logger) *ApiClient {
	var url string
	if strings.HasSuffix(apiUrl, "/") {
		url = apiUrl[:len(apiUrl)-1]
	} else {
		url = apiUrl
	}

	return &ApiClient{
		client:       &http.Client{},
		ApiURL:       url,
		BearerToken:  "",
		ExtraHeaders: extraHeaders,
		Logger:       logger,
	}
}

// MakeRequest sends a JSON request and returns the raw response body.
// A response with a status other than expectedStatusCode is decoded into
// a utils.APIError, using the backend's detail/error_detail convention.
func (apiClient *ApiClient) MakeRequest(method string, url string, requestBody []byte, headers []Header, expectedStatusCode int) ([]byte, error) {
	if len(requestBody) > 0 {
		headers = append([]Header{{Name: "Content-Type", Value: "application/json"}}, headers...)
	}
	return apiClient.doRequest(method, url, requestBody, headers, expectedStatusCode)
}

// MakeFormRequest sends a URL-encoded form body, as the OAuth2-style /token
// endpoint expects.
func (apiClient *ApiClient) MakeFormRequest(method string, url string, form string, expectedStatusCode int) ([]byte, error) {
	headers := []Header{{Name: "Content-Type", Value: "application/x-www-form-urlencoded"}}
	return apiClient.doRequest(method, url, []byte(form), headers, expectedStatusCode)
}

// MakeMultipartRequest uploads a file as a multipart form, under the field
// name the ingestion endpoint expects.
func (apiClient *ApiClient) MakeMultipartRequest(method string, url string, fieldName string, fileName string, fileContent io.Reader, expectedStatusCode int) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		return nil, utils.APIError{Status: 0, Code: "REQUEST_ERROR", Details: err.Error(), Method: method, Url: apiClient.ApiURL + url}
	}
	_, err = io.Copy(part, fileContent)
	if err != nil {
		return nil, utils.APIError{Status: 0, Code: "REQUEST_ERROR", Details: err.Error(), Method: method, Url: apiClient.ApiURL + url}
	}
	err = writer.Close()
	if err != nil {
		return nil, utils.APIError{Status: 0, Code: "REQUEST_ERROR", Details: err.Error(), Method: method, Url: apiClient.ApiURL + url}
	}
	headers := []Header{{Name: "Content-Type", Value: writer.FormDataContentType()}}
	return apiClient.doRequest(method, url, body.Bytes(), headers, expectedStatusCode)
}

func (apiClient *ApiClient) doRequest(method string, url string, requestBody []byte, headers []Header, expectedStatusCode int) ([]byte, error) {
	if apiClient.client == nil {
		apiClient.client = &http.Client{}
	}

	var req *http.Request
	var err error
	if requestBody != nil {
		data := bytes.NewBuffer(requestBody)
		req, err = http.NewRequest(method, apiClient.ApiURL+url, data)
	} else {
		req, err = http.NewRequest(method, apiClient.ApiURL+url, nil) // cannot use a typed `nil`, otherwise it panics...
	}
	if err != nil {
		return nil, utils.APIError{Status: 0, Code: "REQUEST_ERROR", Details: err.Error(), Method: method, Url: apiClient.ApiURL + url}
	}

	req.Header.Add("Accept", "application/json")

	for i := 0; i < len(apiClient.ExtraHeaders); i++ {
		req.Header.Add(apiClient.ExtraHeaders[i].Name, apiClient.ExtraHeaders[i].Value)
	}

	for i := 0; i < len(headers); i++ {
		req.Header.Add(headers[i].Name, headers[i].Value)
	}

	if apiClient.BearerToken != "" {
		req.Header.Add("Authorization", "Bearer "+apiClient.BearerToken)
	}

	apiClient.Logger.Debug().Msg("API call: " + method + " " + req.URL.String())
	apiClient.Logger.Trace().Msg(fmt.Sprintf("Request body: %s", requestBody))
	resp, err := apiClient.client.Do(req)
	if err != nil {
		return nil, utils.APIError{Status: 0, Code: "NETWORK_ERROR", Details: err.Error(), Method: method, Url: req.URL.String()}
	}

	defer func(Body io.ReadCloser) {
		closeErr := Body.Close()
		if closeErr != nil {
			apiClient.Logger.Error().Err(closeErr).Msg("Could not close response body")
		}
	}(resp.Body)

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.APIError{Status: 0, Code: "RESPONSE_READER_ERROR", Details: err.Error(), Method: method, Url: req.URL.String()}
	}

	apiClient.Logger.Debug().Msg(fmt.Sprintf("Received response to %s %s, status code: %d", req.Method, req.URL.String(), resp.StatusCode))
	apiClient.Logger.Trace().Msg(fmt.Sprintf("Response body: %s", responseBody))
	if resp.StatusCode != expectedStatusCode {
		var responseServerError serverError
		err = json.Unmarshal(responseBody, &responseServerError)
		detail := responseServerError.Detail
		if responseServerError.ErrorDetail != "" {
			detail = responseServerError.ErrorDetail
		}
		if err != nil || detail == "" {
			return nil, utils.APIError{Status: resp.StatusCode, Code: "UNKNOWN", Raw: string(responseBody), Method: method, Url: req.URL.String()}
		} else {
			return nil, utils.APIError{
				Status:  resp.StatusCode,
				Code:    "SERVER_ERROR",
				Details: detail,
				Url:     req.URL.String(),
				Method:  method,
				Raw:     string(responseBody),
			}
		}
	}

	return responseBody, nil
}
