package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/toeirei/keydepot/internal/model"
	"github.com/uptrace/bun"
)

// KeyModel maps the `keys` table for Bun queries.
type KeyModel struct {
	bun.BaseModel `bun:"table:keys"`
	Name          string `bun:"name,pk"`
	Description   string `bun:"description"`
	Status        string `bun:"status"`
}

// UserModel maps the `users` table for Bun queries.
type UserModel struct {
	bun.BaseModel `bun:"table:users"`
	ID            int            `bun:"id,pk,autoincrement"`
	Username      string         `bun:"username"`
	Email         sql.NullString `bun:"email"`
	DisplayName   string         `bun:"display_name"`
	PasswordHash  string         `bun:"password_hash"`
	CanLogin      bool           `bun:"can_login"`
}

// AssignmentModel maps the `assignments` table for Bun queries.
type AssignmentModel struct {
	bun.BaseModel `bun:"table:assignments"`
	ID            int          `bun:"id,pk,autoincrement"`
	Username      string       `bun:"username"`
	KeyName       string       `bun:"key_name"`
	DateOut       time.Time    `bun:"date_out"`
	DateIn        sql.NullTime `bun:"date_in"`
}

// --- Mapping helpers (centralized conversions) ---

func keyModelToModel(k KeyModel) model.Key {
	return model.Key{Name: k.Name, Description: k.Description, Status: model.KeyStatus(k.Status)}
}

func userModelToModel(u UserModel) model.User {
	usr := model.User{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		CanLogin:    u.CanLogin,
	}
	if u.Email.Valid {
		usr.Email = u.Email.String
	}
	return usr
}

func assignmentModelToModel(a AssignmentModel) model.Assignment {
	as := model.Assignment{
		ID:       a.ID,
		Username: a.Username,
		KeyName:  a.KeyName,
		DateOut:  a.DateOut,
	}
	if a.DateIn.Valid {
		t := a.DateIn.Time
		as.DateIn = &t
	}
	return as
}

// nullEmail normalizes an empty email to NULL so that users without an email
// never collide on the unique index.
func nullEmail(email string) sql.NullString {
	return sql.NullString{String: email, Valid: email != ""}
}

// --- Key helpers ---

// GetAllKeysBun retrieves all keys ordered by name.
func GetAllKeysBun(idb bun.IDB) ([]model.Key, error) {
	ctx := context.Background()
	var km []KeyModel
	if err := idb.NewSelect().Model(&km).OrderExpr("name").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Key, 0, len(km))
	for _, k := range km {
		out = append(out, keyModelToModel(k))
	}
	return out, nil
}

// GetActiveKeysBun retrieves keys with status Active, ordered by name. These
// are the keys offered as assignment choices.
func GetActiveKeysBun(idb bun.IDB) ([]model.Key, error) {
	ctx := context.Background()
	var km []KeyModel
	if err := idb.NewSelect().Model(&km).Where("status = ?", string(model.KeyStatusActive)).OrderExpr("name").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Key, 0, len(km))
	for _, k := range km {
		out = append(out, keyModelToModel(k))
	}
	return out, nil
}

// GetKeyByNameBun retrieves a key by its name. This is the canonical presence
// check for keys; every validation path goes through it.
func GetKeyByNameBun(idb bun.IDB, name string) (*model.Key, error) {
	ctx := context.Background()
	var km KeyModel
	err := idb.NewSelect().Model(&km).Where("name = ?", name).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := keyModelToModel(km)
	return &m, nil
}

// AddKeyBun inserts a new key with status Active. The existence check and the
// insert run in one transaction so concurrent adds cannot both pass the check.
func AddKeyBun(bdb *bun.DB, name, description string) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		existing, err := GetKeyByNameBun(tx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicate
		}
		km := &KeyModel{Name: name, Description: description, Status: string(model.KeyStatusActive)}
		if _, err := tx.NewInsert().Model(km).Exec(ctx); err != nil {
			return MapDBError(err)
		}
		return nil
	})
}

// UpdateKeyBun updates the description and status of an existing key. The
// name is immutable.
func UpdateKeyBun(bdb *bun.DB, name, description string, status model.KeyStatus) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		existing, err := GetKeyByNameBun(tx, name)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		_, err = tx.NewUpdate().Model((*KeyModel)(nil)).
			Set("description = ?", description).
			Set("status = ?", string(status)).
			Where("name = ?", name).
			Exec(ctx)
		return err
	})
}

// DeleteKeyBun removes a key. It refuses with ErrConflict while any open
// assignment still references the key, so checkout history never loses its
// referential target.
func DeleteKeyBun(bdb *bun.DB, name string) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		existing, err := GetKeyByNameBun(tx, name)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		open, err := countOpenAssignments(tx, "key_name", name)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrConflict
		}
		_, err = tx.NewDelete().Model((*KeyModel)(nil)).Where("name = ?", name).Exec(ctx)
		return err
	})
}

// --- User helpers ---

// GetAllUsersBun retrieves all users ordered by username.
func GetAllUsersBun(idb bun.IDB) ([]model.User, error) {
	ctx := context.Background()
	var um []UserModel
	if err := idb.NewSelect().Model(&um).OrderExpr("username").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(um))
	for _, u := range um {
		out = append(out, userModelToModel(u))
	}
	return out, nil
}

// GetUserByIDBun retrieves a user by its numeric ID.
func GetUserByIDBun(idb bun.IDB, id int) (*model.User, error) {
	ctx := context.Background()
	var um UserModel
	err := idb.NewSelect().Model(&um).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := userModelToModel(um)
	return &m, nil
}

// GetUserByUsernameBun retrieves a user by username. This is the canonical
// presence check for users.
func GetUserByUsernameBun(idb bun.IDB, username string) (*model.User, error) {
	ctx := context.Background()
	var um UserModel
	err := idb.NewSelect().Model(&um).Where("username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := userModelToModel(um)
	return &m, nil
}

// GetUserPasswordHashBun returns the stored credential hash for a username.
// The hash never travels on the model.User DTO.
func GetUserPasswordHashBun(idb bun.IDB, username string) (string, error) {
	ctx := context.Background()
	var um UserModel
	err := idb.NewSelect().Model(&um).Column("password_hash").Where("username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}
	return um.PasswordHash, nil
}

// AddUserBun inserts a new user and returns its ID. Username and (non-empty)
// email uniqueness are checked inside the same transaction as the insert.
func AddUserBun(bdb *bun.DB, username, email, displayName, passwordHash string, canLogin bool) (int, error) {
	ctx := context.Background()
	um := &UserModel{
		Username:     username,
		Email:        nullEmail(email),
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CanLogin:     canLogin,
	}
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		taken, err := tx.NewSelect().Model((*UserModel)(nil)).Where("username = ?", username).Count(ctx)
		if err != nil {
			return err
		}
		if taken > 0 {
			return ErrDuplicate
		}
		if email != "" {
			taken, err = tx.NewSelect().Model((*UserModel)(nil)).Where("email = ?", email).Count(ctx)
			if err != nil {
				return err
			}
			if taken > 0 {
				return ErrDuplicate
			}
		}
		// Returning("id") works across Postgres and falls back to LastInsertId
		// on SQLite/MySQL, so the model ends up with the assigned ID either way.
		if _, err := tx.NewInsert().Model(um).Returning("id").Exec(ctx); err != nil {
			return MapDBError(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return um.ID, nil
}

// UpdateUserBun updates a user's fields, re-validating username/email
// uniqueness against all *other* users. The password hash is not touched.
func UpdateUserBun(bdb *bun.DB, id int, username, email, displayName string, canLogin bool) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		existing, err := GetUserByIDBun(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		taken, err := tx.NewSelect().Model((*UserModel)(nil)).
			Where("username = ?", username).Where("id != ?", id).Count(ctx)
		if err != nil {
			return err
		}
		if taken > 0 {
			return ErrDuplicate
		}
		if email != "" {
			taken, err = tx.NewSelect().Model((*UserModel)(nil)).
				Where("email = ?", email).Where("id != ?", id).Count(ctx)
			if err != nil {
				return err
			}
			if taken > 0 {
				return ErrDuplicate
			}
		}
		_, err = tx.NewUpdate().Model((*UserModel)(nil)).
			Set("username = ?", username).
			Set("email = ?", nullEmail(email)).
			Set("display_name = ?", displayName).
			Set("can_login = ?", canLogin).
			Where("id = ?", id).
			Exec(ctx)
		return MapDBError(err)
	})
}

// UpdateUserPasswordHashBun replaces the stored credential hash for a user.
func UpdateUserPasswordHashBun(bdb *bun.DB, id int, passwordHash string) error {
	ctx := context.Background()
	res, err := bdb.NewUpdate().Model((*UserModel)(nil)).
		Set("password_hash = ?", passwordHash).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUserBun removes a user by username. It refuses with ErrConflict while
// the user still has keys checked out.
func DeleteUserBun(bdb *bun.DB, username string) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		existing, err := GetUserByUsernameBun(tx, username)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		open, err := countOpenAssignments(tx, "username", username)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrConflict
		}
		_, err = tx.NewDelete().Model((*UserModel)(nil)).Where("username = ?", username).Exec(ctx)
		return err
	})
}

// --- Assignment helpers ---

// GetAllAssignmentsBun retrieves the full assignment history, oldest first.
func GetAllAssignmentsBun(idb bun.IDB) ([]model.Assignment, error) {
	ctx := context.Background()
	var am []AssignmentModel
	if err := idb.NewSelect().Model(&am).OrderExpr("id").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Assignment, 0, len(am))
	for _, a := range am {
		out = append(out, assignmentModelToModel(a))
	}
	return out, nil
}

// GetOpenAssignmentsBun retrieves assignments whose key has not been returned,
// ordered by username then key name.
func GetOpenAssignmentsBun(idb bun.IDB) ([]model.Assignment, error) {
	ctx := context.Background()
	var am []AssignmentModel
	if err := idb.NewSelect().Model(&am).Where("date_in IS NULL").OrderExpr("username, key_name, id").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Assignment, 0, len(am))
	for _, a := range am {
		out = append(out, assignmentModelToModel(a))
	}
	return out, nil
}

// GetAssignmentByIDBun retrieves an assignment by its numeric ID.
func GetAssignmentByIDBun(idb bun.IDB, id int) (*model.Assignment, error) {
	ctx := context.Background()
	var am AssignmentModel
	err := idb.NewSelect().Model(&am).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := assignmentModelToModel(am)
	return &m, nil
}

// FindOpenAssignmentBun returns the open assignment for a (user, key) pairing,
// or nil when the pairing is not currently checked out.
func FindOpenAssignmentBun(idb bun.IDB, username, keyName string) (*model.Assignment, error) {
	ctx := context.Background()
	var am AssignmentModel
	err := idb.NewSelect().Model(&am).
		Where("username = ?", username).
		Where("key_name = ?", keyName).
		Where("date_in IS NULL").
		Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := assignmentModelToModel(am)
	return &m, nil
}

// AssignKeysBun creates open assignments for the cross-product of usernames
// and key names within one transaction. Pairings that already have an open
// assignment are skipped and reported; the rest of the batch proceeds.
func AssignKeysBun(bdb *bun.DB, usernames, keyNames []string, dateOut time.Time) ([]model.AssignOutcome, error) {
	ctx := context.Background()
	var outcomes []model.AssignOutcome
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		for _, username := range usernames {
			for _, keyName := range keyNames {
				open, err := FindOpenAssignmentBun(tx, username, keyName)
				if err != nil {
					return err
				}
				if open != nil {
					outcomes = append(outcomes, model.AssignOutcome{Username: username, KeyName: keyName, Skipped: true})
					continue
				}
				am := &AssignmentModel{Username: username, KeyName: keyName, DateOut: dateOut}
				if _, err := tx.NewInsert().Model(am).Returning("id").Exec(ctx); err != nil {
					return MapDBError(err)
				}
				outcomes = append(outcomes, model.AssignOutcome{Username: username, KeyName: keyName, AssignmentID: am.ID})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// UpdateAssignmentBun overwrites all mutable fields of an assignment. Setting
// DateIn closes the assignment; clearing it re-opens the checkout.
func UpdateAssignmentBun(bdb *bun.DB, a model.Assignment) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		existing, err := GetAssignmentByIDBun(tx, a.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		dateIn := sql.NullTime{}
		if a.DateIn != nil {
			dateIn = sql.NullTime{Time: *a.DateIn, Valid: true}
		}
		_, err = tx.NewUpdate().Model((*AssignmentModel)(nil)).
			Set("username = ?", a.Username).
			Set("key_name = ?", a.KeyName).
			Set("date_out = ?", a.DateOut).
			Set("date_in = ?", dateIn).
			Where("id = ?", a.ID).
			Exec(ctx)
		return err
	})
}

// DeleteAssignmentBun removes an assignment unconditionally; assignments carry
// no downstream referential constraints of their own.
func DeleteAssignmentBun(bdb *bun.DB, id int) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		existing, err := GetAssignmentByIDBun(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		_, err = tx.NewDelete().Model((*AssignmentModel)(nil)).Where("id = ?", id).Exec(ctx)
		return err
	})
}

// CountOpenAssignmentsForKeyBun counts open assignments referencing a key.
func CountOpenAssignmentsForKeyBun(idb bun.IDB, keyName string) (int, error) {
	return countOpenAssignments(idb, "key_name", keyName)
}

// CountOpenAssignmentsForUserBun counts open assignments referencing a user.
func CountOpenAssignmentsForUserBun(idb bun.IDB, username string) (int, error) {
	return countOpenAssignments(idb, "username", username)
}

func countOpenAssignments(idb bun.IDB, column, value string) (int, error) {
	ctx := context.Background()
	return idb.NewSelect().Model((*AssignmentModel)(nil)).
		Where("? = ?", bun.Ident(column), value).
		Where("date_in IS NULL").
		Count(ctx)
}
