package common_models

// Role is the authorization level the backend associates with a session.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsAdmin returns true for roles that review other users' submissions.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleSuperAdmin
}

type NotificationStatus string

const (
	NotificationStatusPending  NotificationStatus = "pending"
	NotificationStatusAccepted NotificationStatus = "accepted"
	NotificationStatusRejected NotificationStatus = "rejected"
)

// Notification is a file-approval event awaiting acknowledgement.
// Counterpart is the submitter's email for an approver, or the approver
// identity for a submitter. Status is empty for requests still awaiting action.
type Notification struct {
	FileName    string             `json:"file_name"`
	Counterpart string             `json:"counterpart"`
	Status      NotificationStatus `json:"status,omitempty"`
}

// Display renders the notification the way the dashboard shows it:
// "<file_name> from <counterpart>[ was <status>]".
func (n Notification) Display() string {
	s := n.FileName + " from " + n.Counterpart
	if n.Status != "" {
		s += " was " + string(n.Status)
	}
	return s
}

// User is a dashboard user record, mirrored from the backend.
type User struct {
	AddedDate string `json:"date"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// FileRequest is an uploaded file awaiting an approver's decision.
type FileRequest struct {
	FileName string `json:"file_name"`
	Email    string `json:"email"`
}

// ChatAnswer is the assistant's reply to a query over the ingested documents.
type ChatAnswer struct {
	Response   string `json:"response"`
	MoreDetail string `json:"more_detail,omitempty"`
	// Image is an optional base64-encoded illustration returned by the backend.
	Image string `json:"image,omitempty"`
}

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// FlashMessage is a one-shot status message surviving a single reload,
// consumed by the first screen that reads it.
type FlashMessage struct {
	Message string    `json:"message"`
	Kind    FlashKind `json:"kind"`
}
