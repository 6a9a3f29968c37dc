package utils

import (
	"crypto/rand"
	"github.com/ztrue/tracerr"
	"golang.org/x/text/unicode/norm"
	"regexp"
	"strings"
)

// Version is the SDK version, sent to the backend in the X-KBI-VERSION header.
const Version = "1.0.0"

var (
	// ErrorInvalidEmail is returned when a value that should be an email address is not one
	ErrorInvalidEmail = NewKbiError("INVALID_EMAIL", "invalid email address")
)

var (
	emailRegexp = regexp.MustCompile("^[a-zA-Z0-9_.+-]+@([a-zA-Z0-9-]+\\.)+[a-zA-Z0-9-]{2,}$")
)

func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	// Note that err == nil only if we read len(b) bytes.
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	return b, nil
}

// NormalizeString applies NFKC normalization, so that visually identical
// inputs compare equal before validation.
func NormalizeString(s string) string {
	return string(norm.NFKC.Bytes([]byte(s)))
}

func IsEmail(email string) bool {
	lowerCaseEmail := strings.ToLower(NormalizeString(email))
	return emailRegexp.MatchString(lowerCaseEmail)
}

func CheckEmail(email string) error {
	if IsEmail(email) {
		return nil
	}
	return tracerr.Wrap(ErrorInvalidEmail.AddDetails(email))
}

// Set implements three methods: Add, Remove & Has.
// It needs to be defined with a comparable generic type such as int or string.
// The len operator can be used on Set.
type Set[T comparable] map[T]struct{}

// Add adds the given element to the Set.
func (s Set[T]) Add(element T) {
	s[element] = struct{}{}
}

// Remove removes given element from Set. If element is not in Set, Remove is a no-op.
func (s Set[T]) Remove(element T) {
	delete(s, element)
}

// Has checks if element is in Set, and returns true or false.
func (s Set[T]) Has(element T) bool {
	_, ok := s[element]
	return ok
}

func SliceMap[T interface{}, U interface{}](s []T, f func(T) U) []U {
	output := make([]U, len(s))
	for i, e := range s {
		output[i] = f(e)
	}
	return output
}

func SliceIncludes[T comparable](s []T, u T) bool {
	for _, e := range s {
		if e == u {
			return true
		}
	}
	return false
}
