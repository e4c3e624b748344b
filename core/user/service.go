package user

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrInviteNotFound = errors.New("invitation not found")
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		CreateUser(usr User) (User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		UpdateUser(usr User, isActive *bool) (User, error)

		CreateInvite(inv Invite) (Invite, error)
		GetInviteByID(id string) (Invite, error)
		DeleteInvitesByID(ids ...string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

func (svc *Service) checkUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register creates a brand new self-signed-up account. Public sign-up is
// student-only; other roles come through invitations.
func (svc *Service) Register(r Register) (User, error) {
	if err := svc.checkUniqueness(r.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:        uuid.New().String(),
		Name:      r.Name,
		Email:     r.Email,
		Role:      RoleStudent,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(r.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

// RegisterInvited redeems an invitation token and creates the invited account
// with the role the invitation carries. The invitation is consumed on success.
func (svc *Service) RegisterInvited(ir InviteRegistration) (User, error) {
	uid, err := ParseTokenUID(ir.Token)
	if err != nil {
		return User{}, ErrInviteNotFound
	}
	inv, err := svc.repo.GetInviteByID(uid)
	if err != nil {
		return User{}, err
	}
	if err = verifyToken(inv, ir.Token, svc.conf.SecretKey, svc.conf.Server.InviteTimeoutDelta); err != nil {
		return User{}, err
	}
	if err = svc.checkUniqueness(inv.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:        uuid.New().String(),
		Name:      ir.Name,
		Email:     inv.Email,
		Role:      inv.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = usr.SetPassword(ir.Password); err != nil {
		return User{}, err
	}
	usr, err = svc.repo.CreateUser(usr)
	if err != nil {
		return User{}, err
	}

	if err = svc.repo.DeleteInvitesByID(inv.ID); err != nil {
		return User{}, errors.Wrap(err, "consuming invitation")
	}
	return usr, nil
}

// Invite issues an invitation and emails its acceptance link.
func (svc *Service) Invite(ni NewInvite) (Invite, error) {
	if err := svc.checkUniqueness(ni.Email); err != nil {
		return Invite{}, err
	}

	inv := Invite{
		ID:        uuid.New().String(),
		Email:     ni.Email,
		Role:      ni.Role,
		CreatedAt: time.Now().UTC(),
	}
	inv, err := svc.repo.CreateInvite(inv)
	if err != nil {
		return Invite{}, err
	}

	token, err := MakeToken(inv, svc.conf.SecretKey)
	if err != nil {
		return Invite{}, errors.Wrap(err, "making invitation token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: inv.Email}},
		Subject: "You have been invited to " + svc.conf.AppName,
		Body: fmt.Sprintf(
			"You have been invited to join %s as %s.\nAccept the invitation here: %s/invite/%s",
			svc.conf.AppName, inv.Role, svc.conf.FrontendBaseURL, token,
		),
	})
	return inv, nil
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}
