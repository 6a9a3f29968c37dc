package kbi

import (
	"github.com/varphi/go-kbi-sdk/common_models"
	"github.com/varphi/go-kbi-sdk/utils"
	"github.com/ztrue/tracerr"
	"golang.org/x/exp/slices"
	"strings"
	"sync"
)

var (
	// ErrorNotificationIndex is returned when acknowledging an index that is not in the list
	ErrorNotificationIndex = utils.NewKbiError("NOTIFICATION_INDEX", "no notification at this index")
	// ErrorNotificationStoreClosed is returned when using a store whose owning view is gone
	ErrorNotificationStoreClosed = utils.NewKbiError("NOTIFICATION_STORE_CLOSED", "notification store closed")
)

// StoreStatus is the load state of a NotificationStore.
type StoreStatus int

const (
	StoreIdle StoreStatus = iota
	StoreLoading
	StoreReady
)

// NotificationStore holds the notifications visible to the current identity.
// Records are kept structured end to end; the display string is derived only
// at render time, so acknowledgements never depend on re-parsing it.
// Acknowledged items are pruned locally without a re-fetch; Load doubles as
// manual reconciliation.
type NotificationStore struct {
	state    *State
	lock     sync.Mutex
	status   StoreStatus
	items    []common_models.Notification
	inFlight utils.Set[string]
	closed   bool
}

// NewNotificationStore creates an empty store. Each view showing the badge
// creates its own and calls Load on mount.
func (state *State) NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		state:    state,
		status:   StoreIdle,
		inFlight: utils.Set[string]{},
	}
}

// Load fetches all notifications visible to the current identity. The server
// scopes the list by role: users see their own submissions, admins see
// submissions awaiting their action. On failure the list is left empty and
// the error returned; no retry is performed.
func (store *NotificationStore) Load() error {
	store.lock.Lock()
	if store.closed {
		store.lock.Unlock()
		return tracerr.Wrap(ErrorNotificationStoreClosed)
	}
	store.status = StoreLoading
	store.lock.Unlock()

	response, err := store.state.apiClient.listNotifications()

	store.lock.Lock()
	defer store.lock.Unlock()
	if store.closed {
		return tracerr.Wrap(ErrorNotificationStoreClosed)
	}
	store.status = StoreReady
	if err != nil {
		store.state.logger.Error().Err(err).Msg("Error fetching notifications")
		store.items = nil
		return tracerr.Wrap(err)
	}

	store.items = utils.SliceMap(response.Detail, func(item notificationItem) common_models.Notification {
		notification := common_models.Notification{
			FileName: item.FileName,
			Status:   common_models.NotificationStatus(item.Status),
		}
		// submitters get "from <approver> was <status>", approvers get "from <email>"
		if item.From != "" {
			notification.Counterpart = item.From
		} else {
			notification.Counterpart = item.Email
		}
		return notification
	})
	return nil
}

// Status returns the current load state.
func (store *NotificationStore) Status() StoreStatus {
	store.lock.Lock()
	defer store.lock.Unlock()
	return store.status
}

// Items returns a copy of the current list, in display order.
func (store *NotificationStore) Items() []common_models.Notification {
	store.lock.Lock()
	defer store.lock.Unlock()
	return slices.Clone(store.items)
}

// Count is the unread badge value. It is derived from the list length, so it
// can never go negative or drift from the rendered items.
func (store *NotificationStore) Count() int {
	store.lock.Lock()
	defer store.lock.Unlock()
	return len(store.items)
}

// AcknowledgeOne marks the notification at the given display index as read
// and removes exactly that item from the local list. For an admin the
// acknowledged identity is the submitter embedded in the record; for a user
// it is their own stored email. A failed call leaves the list unchanged.
// While a call for an item is in flight, further acknowledgements of the
// same item are no-ops.
func (store *NotificationStore) AcknowledgeOne(index int) error {
	store.lock.Lock()
	if store.closed {
		store.lock.Unlock()
		return tracerr.Wrap(ErrorNotificationStoreClosed)
	}
	if index < 0 || index >= len(store.items) {
		store.lock.Unlock()
		return tracerr.Wrap(ErrorNotificationIndex)
	}
	item := store.items[index]
	key := item.FileName + "\x00" + item.Counterpart
	if store.inFlight.Has(key) {
		store.lock.Unlock()
		return nil
	}
	store.inFlight.Add(key)
	store.lock.Unlock()

	email := store.resolveAcknowledgeIdentity(item)
	_, err := store.state.apiClient.readOneNotification(&readOneNotificationRequest{
		FileName: item.FileName,
		Email:    email,
	})

	store.lock.Lock()
	defer store.lock.Unlock()
	store.inFlight.Remove(key)
	if store.closed {
		return tracerr.Wrap(ErrorNotificationStoreClosed)
	}
	if err != nil {
		store.state.logger.Error().Err(err).Msg("Error clearing notification")
		return tracerr.Wrap(err)
	}

	// remove by the displayed index; the list cannot have been reordered
	// because mutations all run under the store lock
	if index < len(store.items) && store.items[index] == item {
		store.items = slices.Delete(store.items, index, index+1)
	}
	return nil
}

// resolveAcknowledgeIdentity preserves the dashboard's observed branching:
// admins acknowledge on behalf of the submitter embedded in the record,
// everyone else acknowledges as themselves. Flagged for product
// confirmation, not altered.
func (store *NotificationStore) resolveAcknowledgeIdentity(item common_models.Notification) string {
	store.state.locks.sessionLock.RLock()
	session := store.state.storage.session.get()
	store.state.locks.sessionLock.RUnlock()

	if session.Role.IsAdmin() {
		fields := strings.Fields(item.Counterpart)
		if len(fields) > 0 {
			return fields[0]
		}
		return item.Counterpart
	}
	return session.Email
}

// AcknowledgeAll marks every visible notification as read and clears the
// local list. The bulk call is trusted without a re-fetch. A failed call
// leaves the list unchanged.
func (store *NotificationStore) AcknowledgeAll() error {
	store.lock.Lock()
	if store.closed {
		store.lock.Unlock()
		return tracerr.Wrap(ErrorNotificationStoreClosed)
	}
	store.lock.Unlock()

	_, err := store.state.apiClient.readAllNotifications()

	store.lock.Lock()
	defer store.lock.Unlock()
	if store.closed {
		return tracerr.Wrap(ErrorNotificationStoreClosed)
	}
	if err != nil {
		store.state.logger.Error().Err(err).Msg("Error clearing all notifications")
		return tracerr.Wrap(err)
	}
	store.items = nil
	return nil
}

// Close detaches the store from its view; later completions of in-flight
// calls no longer touch the list.
func (store *NotificationStore) Close() {
	store.lock.Lock()
	defer store.lock.Unlock()
	store.closed = true
}

// ParseDisplay reverses common_models.Notification.Display for records that
// only survived as display strings. The split is on the first " from ", so
// the round trip is exact whenever neither field contains that substring;
// any status suffix stays attached to the counterpart, exactly as the
// legacy dashboard behaved.
func ParseDisplay(display string) common_models.Notification {
	fileName, counterpart, found := strings.Cut(display, " from ")
	if !found {
		return common_models.Notification{FileName: display}
	}
	return common_models.Notification{FileName: fileName, Counterpart: counterpart}
}
