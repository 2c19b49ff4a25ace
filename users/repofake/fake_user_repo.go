package fakeuserrepo

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jrsteele09/go-taskboard/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[user.Email]; ok {
		return users.ErrEmailTaken
	}
	ur.upsert(user)
	return nil
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	ur.upsert(user)
	return nil
}

func (ur *FakeUserRepo) upsert(user *users.User) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[user.Email] = user.ID
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userID, ok := ur.emailIds[email]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	u := *ur.users[userID]
	return &u, nil
}

func (ur *FakeUserRepo) GetByID(ID string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[ID]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	u := *stored
	return &u, nil
}
