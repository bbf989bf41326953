package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// CustodyAccount é a conta de custódia do engine: escrow entra aqui no
// pull e sai daqui no push. Fixada no deploy, sem mutação em runtime.
const CustodyAccount = "engine-custody"

// Postgres implementa o value transfer adapter em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// GetOrCreateAccount retorna id e saldo da conta do usuário, criando se
// não existir. Usa transação para garantir atomicidade.
func (p *Postgres) GetOrCreateAccount(ctx context.Context, owner string) (accountID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	accountID, balance, err = getOrCreate(ctx, tx, owner)
	if err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return accountID, balance, nil
}

func getOrCreate(ctx context.Context, tx *sql.Tx, owner string) (string, int64, error) {
	var id string
	var bal int64
	err := tx.QueryRowContext(ctx, `SELECT id, balance_cents FROM treasury_accounts WHERE owner=$1`, owner).Scan(&id, &bal)
	if err == sql.ErrNoRows {
		id = uuid.NewString()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO treasury_accounts(id, owner, balance_cents, version) VALUES($1,$2,0,1)`,
			id, owner); err != nil {
			return "", 0, err
		}
		return id, 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	return id, bal, nil
}

// Deposit credita saldo na conta do usuário e registra no ledger
func (p *Postgres) Deposit(ctx context.Context, owner string, amount int64, externalRef string) (accountID string, newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	id, _, err := getOrCreate(ctx, tx, owner)
	if err != nil {
		return "", 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE treasury_accounts SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`,
		amount, id); err != nil {
		return "", 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO treasury_ledger(account_id, operation_type, amount_cents, description) VALUES($1,'CREDIT',$2,$3)`,
		id, amount, "deposit:"+externalRef); err != nil {
		return "", 0, err
	}
	if err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM treasury_accounts WHERE id=$1`, id).Scan(&newBalance); err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return id, newBalance, nil
}

// Withdraw debita saldo da conta do usuário; falha se insuficiente
func (p *Postgres) Withdraw(ctx context.Context, owner string, amount int64, externalRef string) (accountID string, newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	var balance int64
	if err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM treasury_accounts WHERE owner=$1 FOR UPDATE`, owner).Scan(&id, &balance); err != nil {
		if err == sql.ErrNoRows {
			return "", 0, ErrNotFound
		}
		return "", 0, err
	}
	if balance < amount {
		return "", 0, ErrInsufficientFunds
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE treasury_accounts SET balance_cents = balance_cents - $1, version = version + 1 WHERE id=$2`,
		amount, id); err != nil {
		return "", 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO treasury_ledger(account_id, operation_type, amount_cents, description) VALUES($1,'DEBIT',$2,$3)`,
		id, amount, "withdraw:"+externalRef); err != nil {
		return "", 0, err
	}
	if err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM treasury_accounts WHERE id=$1`, id).Scan(&newBalance); err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return id, newBalance, nil
}

// Pull move fundos da conta do dono para a custódia do engine
// (transferFrom). Idempotente por external_ref: repetir a mesma ref
// devolve a transferência original sem mover saldo de novo.
func (p *Postgres) Pull(ctx context.Context, owner string, amount int64, externalRef string) (transferID string, err error) {
	return p.transfer(ctx, owner, CustodyAccount, amount, "PULL", externalRef)
}

// Push move fundos da custódia do engine para a conta destino (transfer)
func (p *Postgres) Push(ctx context.Context, to string, amount int64, externalRef string) (transferID string, err error) {
	return p.transfer(ctx, CustodyAccount, to, amount, "PUSH", externalRef)
}

func (p *Postgres) transfer(ctx context.Context, fromOwner, toOwner string, amount int64, direction, externalRef string) (string, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	// Idempotência: a mesma external_ref nunca move saldo duas vezes
	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM treasury_transfers WHERE external_ref=$1`, externalRef).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	// Lock nas duas contas em ordem estável de owner para evitar deadlock
	first, second := fromOwner, toOwner
	if second < first {
		first, second = second, first
	}
	if _, _, err = lockOrCreate(ctx, tx, first); err != nil {
		return "", err
	}
	if _, _, err = lockOrCreate(ctx, tx, second); err != nil {
		return "", err
	}

	var fromID string
	var fromBal int64
	if err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM treasury_accounts WHERE owner=$1`, fromOwner).Scan(&fromID, &fromBal); err != nil {
		return "", err
	}
	if fromBal < amount {
		return "", ErrInsufficientFunds
	}
	var toID string
	if err = tx.QueryRowContext(ctx,
		`SELECT id FROM treasury_accounts WHERE owner=$1`, toOwner).Scan(&toID); err != nil {
		return "", err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE treasury_accounts SET balance_cents = balance_cents - $1, version = version + 1 WHERE id=$2`,
		amount, fromID); err != nil {
		return "", err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE treasury_accounts SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`,
		amount, toID); err != nil {
		return "", err
	}

	transferID := uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO treasury_transfers(id, direction, from_account_id, to_account_id, amount_cents, external_ref)
		VALUES($1,$2,$3,$4,$5,$6)`,
		transferID, direction, fromID, toID, amount, externalRef); err != nil {
		return "", err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO treasury_ledger(account_id, operation_type, amount_cents, description) VALUES($1,'DEBIT',$2,$3)`,
		fromID, amount, direction+":"+externalRef); err != nil {
		return "", err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO treasury_ledger(account_id, operation_type, amount_cents, description) VALUES($1,'CREDIT',$2,$3)`,
		toID, amount, direction+":"+externalRef); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return transferID, nil
}

func lockOrCreate(ctx context.Context, tx *sql.Tx, owner string) (string, int64, error) {
	var id string
	var bal int64
	err := tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM treasury_accounts WHERE owner=$1 FOR UPDATE`, owner).Scan(&id, &bal)
	if err == sql.ErrNoRows {
		return getOrCreate(ctx, tx, owner)
	}
	if err != nil {
		return "", 0, err
	}
	return id, bal, nil
}
