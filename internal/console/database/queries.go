package database

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("database: not found")

// Queries bundles the prepared statements used by the console.
type Queries struct {
	db *sql.DB

	getAccount            *sql.Stmt
	findAccountByUsername *sql.Stmt
	createAccount         *sql.Stmt
	updateLastLogin       *sql.Stmt
	getCharacter          *sql.Stmt
	listCharacters        *sql.Stmt
	createCharacter       *sql.Stmt
}

func Prepare(ctx context.Context, db *sql.DB) (*Queries, error) {
	q := &Queries{db: db}

	stmts := []struct {
		target **sql.Stmt
		query  string
	}{
		{&q.getAccount, `SELECT id, username, email, password_hash, is_admin, is_banned FROM accounts WHERE id = ?`},
		{&q.findAccountByUsername, `SELECT id, username, email, password_hash, is_admin, is_banned FROM accounts WHERE username = ?`},
		{&q.createAccount, `INSERT INTO accounts (id, username, email, password_hash, is_admin) VALUES (?, ?, ?, ?, ?)`},
		{&q.updateLastLogin, `UPDATE accounts SET last_login = datetime('now') WHERE id = ?`},
		{&q.getCharacter, `SELECT id, account_id, name, rank, allegiance FROM characters WHERE id = ?`},
		{&q.listCharacters, `SELECT id, account_id, name, rank, allegiance FROM characters WHERE account_id = ?`},
		{&q.createCharacter, `INSERT INTO characters (id, account_id, name, rank, allegiance) VALUES (?, ?, ?, ?, ?)`},
	}
	for _, s := range stmts {
		stmt, err := db.PrepareContext(ctx, s.query)
		if err != nil {
			return nil, err
		}
		*s.target = stmt
	}

	return q, nil
}

func (q *Queries) Close() error {
	return errors.Join(
		q.getAccount.Close(),
		q.findAccountByUsername.Close(),
		q.createAccount.Close(),
		q.updateLastLogin.Close(),
		q.getCharacter.Close(),
		q.listCharacters.Close(),
		q.createCharacter.Close(),
	)
}

type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	IsBanned     bool
}

type Character struct {
	ID         string
	AccountID  string
	Name       string
	Rank       string
	Allegiance string
}

func (q *Queries) GetAccount(ctx context.Context, id string) (Account, error) {
	var a Account
	err := q.getAccount.QueryRowContext(ctx, id).
		Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.IsAdmin, &a.IsBanned)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

func (q *Queries) FindAccountByUsername(ctx context.Context, username string) (Account, error) {
	var a Account
	err := q.findAccountByUsername.QueryRowContext(ctx, username).
		Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.IsAdmin, &a.IsBanned)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

type CreateAccountParams struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

func (q *Queries) CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error) {
	if _, err := q.createAccount.ExecContext(ctx,
		params.ID, params.Username, params.Email, params.PasswordHash, params.IsAdmin,
	); err != nil {
		return Account{}, err
	}
	return Account{
		ID:           params.ID,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		IsAdmin:      params.IsAdmin,
	}, nil
}

func (q *Queries) UpdateLastLogin(ctx context.Context, accountID string) error {
	_, err := q.updateLastLogin.ExecContext(ctx, accountID)
	return err
}

func (q *Queries) GetCharacter(ctx context.Context, id string) (Character, error) {
	var c Character
	err := q.getCharacter.QueryRowContext(ctx, id).
		Scan(&c.ID, &c.AccountID, &c.Name, &c.Rank, &c.Allegiance)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

func (q *Queries) ListCharacters(ctx context.Context, accountID string) ([]Character, error) {
	rows, err := q.listCharacters.QueryContext(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var characters []Character
	for rows.Next() {
		var c Character
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Rank, &c.Allegiance); err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	return characters, rows.Err()
}

type CreateCharacterParams struct {
	ID         string
	AccountID  string
	Name       string
	Rank       string
	Allegiance string
}

func (q *Queries) CreateCharacter(ctx context.Context, params CreateCharacterParams) (Character, error) {
	if _, err := q.createCharacter.ExecContext(ctx,
		params.ID, params.AccountID, params.Name, params.Rank, params.Allegiance,
	); err != nil {
		return Character{}, err
	}
	return Character{
		ID:         params.ID,
		AccountID:  params.AccountID,
		Name:       params.Name,
		Rank:       params.Rank,
		Allegiance: params.Allegiance,
	}, nil
}
