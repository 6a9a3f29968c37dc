package utils

import (
	"errors"
	"fmt"
)

type KbiError struct {
	Code        string
	Description string
	Details     string
}

var knownErrors = Set[string]{}

func NewKbiError(code string, description string) KbiError {
	if knownErrors.Has(code) {
		panic("Duplicate error: " + code)
	}
	knownErrors.Add(code)
	return KbiError{
		Code:        code,
		Description: description,
	}
}

func (err KbiError) Error() string {
	var text = err.Code
	if err.Description != "" {
		text = text + " - " + err.Description
	}
	if err.Details != "" {
		text = text + " : " + err.Details
	}
	return text
}

func (err KbiError) Is(target error) bool {
	var kbiErrorTarget KbiError
	if errors.As(target, &kbiErrorTarget) {
		return kbiErrorTarget.Code == err.Code
	} else {
		return false
	}
}

func (err KbiError) AddDetails(details string) KbiError {
	if err.Details != "" {
		panic("Cannot re-add details to an error")
	}
	newErr := err
	newErr.Details = details
	return newErr
}

type APIError struct {
	Status  int
	Url     string
	Method  string
	Code    string
	Details string
	Raw     string
}

func (err APIError) Error() string {
	s := fmt.Sprintf("API Error: status: %d", err.Status)
	if err.Code != "" {
		s += "; code: " + err.Code
	}
	if err.Details != "" {
		s += "; details: " + err.Details
	}
	if err.Url != "" {
		s += "; URL: " + err.Url
	}
	if err.Method != "" {
		s += "; Method: " + err.Method
	}
	if err.Raw != "" {
		s += "; raw: " + err.Raw
	}
	return s
}

func (err APIError) Is(target error) bool {
	var apiErrorTarget APIError
	if errors.As(target, &apiErrorTarget) {
		return apiErrorTarget.Status == err.Status && apiErrorTarget.Code == err.Code
	} else {
		return false
	}
}
