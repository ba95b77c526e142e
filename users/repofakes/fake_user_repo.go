package userrepofakes

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/helpdesk-console/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users  map[string]*users.User
	logins map[string]string // tenant/username to user id
	lock   sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:  make(map[string]*users.User),
		logins: make(map[string]string),
	}
}

func loginKey(tenantID, username string) string {
	return tenantID + "/" + username
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		if id, ok := ur.logins[loginKey(user.TenantID, user.Username)]; ok {
			user.ID = id
		} else {
			user.ID = uuid.New().String()
		}
	}
	ur.users[user.ID] = user
	ur.logins[loginKey(user.TenantID, user.Username)] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(tenantID, username string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	key := loginKey(tenantID, username)
	userID, ok := ur.logins[key]
	if !ok {
		return users.UserNotFoundErr
	}
	delete(ur.logins, key)
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByUsername(tenantID, username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userID, ok := ur.logins[loginKey(tenantID, username)]
	if !ok {
		return nil, users.UserNotFoundErr
	}
	return ur.users[userID], nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, users.UserNotFoundErr
	}
	return user, nil
}

// List returns the users of a tenant, or of every tenant when tenantID is
// empty, ordered by username.
func (ur *FakeUserRepo) List(tenantID string) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0)
	for _, v := range ur.users {
		if tenantID != "" && v.TenantID != tenantID {
			continue
		}
		userList = append(userList, v)
	}

	sort.Slice(userList, func(i, j int) bool {
		if userList[i].Username == userList[j].Username {
			return userList[i].TenantID < userList[j].TenantID
		}
		return userList[i].Username < userList[j].Username
	})
	return userList, nil
}

func (ur *FakeUserRepo) SetBlocked(tenantID, username string, blocked bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.logins[loginKey(tenantID, username)]
	if !ok {
		return users.UserNotFoundErr
	}
	ur.users[userID].Blocked = blocked
	return nil
}
