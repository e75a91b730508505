package accounts

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// IsRecordNotFound normalizes the two not-found shapes the store can
// produce: raw bun scans and go-repository-bun lookups.
func IsRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}

// Users is the credential store surface the account flows consume.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	UpdateProfile(ctx context.Context, id uuid.UUID, name, avatar string) (*User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*User, error)

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	// ListAll and DeleteByID deliberately avoid the List/Delete names: the
	// embedded generic repository already declares those with criteria and
	// record shaped signatures.
	ListAll(ctx context.Context) ([]*User, error)
	ListManaged(ctx context.Context, actorID uuid.UUID) ([]*User, error)

	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository builds the bun backed credential store.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *users) UpdateProfile(ctx context.Context, id uuid.UUID, name, avatar string) (*User, error) {
	record := &User{}
	q := a.db.NewUpdate().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Set("updated_at = ?", time.Now()).
		Returning("*")

	if name != "" {
		q = q.Set("name = ?", name)
	}
	if avatar != "" {
		q = q.Set("avatar = ?", avatar)
	}

	if _, err := q.Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (a *users) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*User, error) {
	return a.UpdateProfile(ctx, id, "", avatarURL)
}

func (a *users) UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*User, error) {
	record := &User{}
	_, err := a.db.NewUpdate().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Set("user_role = ?", role).
		Set("updated_at = ?", time.Now()).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	_, err := tx.NewUpdate().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now()).
		Exec(ctx)
	return err
}

func (a *users) ListAll(ctx context.Context) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListManaged returns every account a manager can see: admins and the
// acting account itself are excluded.
func (a *users) ListManaged(ctx context.Context, actorID uuid.UUID) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_role != ?", RoleAdmin).
		Where("?TableAlias.id != ?", actorID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *users) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	return err
}
