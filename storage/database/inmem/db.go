package inmemdb

import (
	"sync"

	"github.com/darasahq/darasa/core/user"
)

type (
	DB struct {
		users   *userTable
		invites *inviteTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	inviteTable struct {
		sync.RWMutex
		table map[string]*user.Invite
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:   &userTable{table: make(map[string]*user.User)},
		invites: &inviteTable{table: make(map[string]*user.Invite)},
	}
	return db, nil
}
