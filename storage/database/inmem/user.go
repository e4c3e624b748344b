package inmemdb

import (
	"github.com/darasahq/darasa/core/user"
)

type userRepository struct {
	users   *userTable
	invites *inviteTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{users: db.users, invites: db.invites}
}

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	repo.users.RLock()
	defer repo.users.RUnlock()

	for _, usr := range repo.users.table {
		if usr.Email == email && !isExcluded(*usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.users.Lock()
	defer repo.users.Unlock()

	repo.users.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	if usr, ok := repo.users.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	for _, usr := range repo.users.table {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	repo.users.Lock()
	defer repo.users.Unlock()

	orig, ok := repo.users.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if usr.Name == "" {
		usr.Name = orig.Name
	}
	if usr.Email == "" {
		usr.Email = orig.Email
	}
	if usr.Role == "" {
		usr.Role = orig.Role
	}
	if usr.PasswordHash == nil {
		usr.PasswordHash = orig.PasswordHash
	}
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = orig.CreatedAt
	}
	if usr.LastLogin.IsZero() {
		usr.LastLogin = orig.LastLogin
	}
	if isActive != nil {
		usr.IsActive = *isActive
	} else {
		usr.IsActive = orig.IsActive
	}

	repo.users.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) CreateInvite(inv user.Invite) (user.Invite, error) {
	repo.invites.Lock()
	defer repo.invites.Unlock()

	repo.invites.table[inv.ID] = &inv
	return inv, nil
}

func (repo *userRepository) GetInviteByID(id string) (user.Invite, error) {
	repo.invites.RLock()
	defer repo.invites.RUnlock()

	if inv, ok := repo.invites.table[id]; ok {
		return *inv, nil
	}
	return user.Invite{}, user.ErrInviteNotFound
}

func (repo *userRepository) DeleteInvitesByID(ids ...string) error {
	repo.invites.Lock()
	defer repo.invites.Unlock()

	for _, id := range ids {
		delete(repo.invites.table, id)
	}
	return nil
}

func isExcluded(usr user.User, excluded []user.User) bool {
	for _, ex := range excluded {
		if ex.ID == usr.ID {
			return true
		}
	}
	return false
}
