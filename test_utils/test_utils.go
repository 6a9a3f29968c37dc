package test_utils

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/varphi/go-kbi-sdk/utils"
	"github.com/ztrue/tracerr"
	"os"
	"path/filepath"
	"time"
)

// DatabaseEncryptionKeyB64 is a fixed storage key for the test databases.
const DatabaseEncryptionKeyB64 = "Rf8njQSPNXlUeXVIHAX1V3owTTe7gmCprLZruB7n9Fs="

var (
	ErrorSyntheticTestError = utils.NewKbiError("SYNTHETIC_TEST_ERROR", "Synthetic test error")
)

func SyntheticErrorCallback(_ any) ([]byte, error) {
	return nil, tracerr.Wrap(ErrorSyntheticTestError)
}

func GetDBPath(dbName string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", tracerr.Wrap(err)
	}

	dbPath := filepath.Join(wd, "test_output", dbName)
	return dbPath, nil
}

// MakeTestJWT builds a signed access token carrying the claims the backend
// puts in real tokens. The signature is irrelevant: the SDK decodes tokens
// without verifying them.
func MakeTestJWT(role string, email string, name string) (string, error) {
	claims := jwt.MapClaims{
		"role": role,
		"sub":  email,
		"name": name,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-shared-secret"))
	if err != nil {
		return "", tracerr.Wrap(err)
	}
	return signed, nil
}
