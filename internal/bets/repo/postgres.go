package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/p2p-wager-platform-poc/internal/bets/ledger"
)

// Postgres implementa o ledger de apostas em banco. Ids vêm de uma
// BIGSERIAL começando em 1 e nunca são reusados: limpar é DELETE,
// nunca UPDATE de volta pro estado aberto.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Append(ctx context.Context, b *ledger.Bet) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO bets (game_id, account_a, account_b, bet_price, contract_amount, state, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id`,
		b.GameID, b.AccountA, b.AccountB, b.BetPrice, b.ContractAmount, string(b.State), b.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (p *Postgres) Get(ctx context.Context, id int64) (*ledger.Bet, error) {
	b := &ledger.Bet{}
	var state string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, game_id, account_a, account_b, bet_price, contract_amount, state, created_at
		FROM bets WHERE id=$1`, id).
		Scan(&b.ID, &b.GameID, &b.AccountA, &b.AccountB, &b.BetPrice, &b.ContractAmount, &state, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.State = ledger.State(state)
	return b, nil
}

func (p *Postgres) Fill(ctx context.Context, id int64, side ledger.Side, account string) error {
	// UPDATE condicional no estado aberto esperado: uma aposta já casada
	// (ou limpa) não é afetada e cai em ErrNotFound
	var col, want string
	if side == ledger.SideA {
		col, want = "account_a", string(ledger.StateOpenA)
	} else {
		col, want = "account_b", string(ledger.StateOpenB)
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE bets SET `+col+`=$1, state=$2
		WHERE id=$3 AND state=$4`,
		account, string(ledger.StateMatched), id, want)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (p *Postgres) Clear(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM bets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, state ledger.State) ([]*ledger.Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, game_id, account_a, account_b, bet_price, contract_amount, state, created_at
		FROM bets WHERE state=$1 ORDER BY id`, string(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.Bet
	for rows.Next() {
		b := &ledger.Bet{}
		var st string
		if err := rows.Scan(&b.ID, &b.GameID, &b.AccountA, &b.AccountB, &b.BetPrice, &b.ContractAmount, &st, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.State = ledger.State(st)
		out = append(out, b)
	}
	return out, rows.Err()
}
