// Package exported_session serializes a signed-in session so it can be
// carried to another device without going through the sign-in flow again.
package exported_session

import (
	"crypto/sha256"
	"encoding/hex"
	"github.com/gibson042/canonicaljson-go"
	"github.com/varphi/go-kbi-sdk/common_models"
	"github.com/varphi/go-kbi-sdk/utils"
	"github.com/ztrue/tracerr"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	// ErrorFingerprintMismatch is returned when the imported payload does not match its fingerprint
	ErrorFingerprintMismatch = utils.NewKbiError("EXPORTED_SESSION_FINGERPRINT_MISMATCH", "exported session is corrupted")
	// ErrorExportNoToken is returned when exporting a session without a token
	ErrorExportNoToken = utils.NewKbiError("EXPORTED_SESSION_NO_TOKEN", "cannot export a signed-out session")
)

type ExportedSession struct {
	Token       string             `bson:"token" json:"token"`
	Role        common_models.Role `bson:"role" json:"role"`
	Username    string             `bson:"username" json:"username"`
	Email       string             `bson:"email" json:"email"`
	Fingerprint string             `bson:"fingerprint" json:"-"`
}

// fingerprint hashes the canonical JSON form of the session fields, so the
// same session always produces the same fingerprint regardless of field
// ordering in the serialized payload.
func (session *ExportedSession) fingerprint() (string, error) {
	canonical, err := canonicaljson.Marshal(session)
	if err != nil {
		return "", tracerr.Wrap(err)
	}
	digest := sha256.Sum256(canonical)
	return hex.EncodeToString(digest[:]), nil
}

func Export(token string, role common_models.Role, username string, email string) ([]byte, error) {
	if token == "" {
		return nil, tracerr.Wrap(ErrorExportNoToken)
	}
	session := ExportedSession{
		Token:    token,
		Role:     role,
		Username: username,
		Email:    email,
	}
	fingerprint, err := session.fingerprint()
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	session.Fingerprint = fingerprint

	b, err := bson.Marshal(session)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return b, nil
}

func Import(data []byte) (*ExportedSession, error) {
	var session ExportedSession
	err := bson.Unmarshal(data, &session)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	expected := session.Fingerprint
	session.Fingerprint = ""
	fingerprint, err := session.fingerprint()
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	if fingerprint != expected {
		return nil, tracerr.Wrap(ErrorFingerprintMismatch)
	}
	session.Fingerprint = expected
	return &session, nil
}
