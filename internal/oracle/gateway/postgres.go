package gateway

import (
	"context"
	"database/sql"
	"time"
)

// PostgresStore persiste o estado do gateway em banco: requisições
// chaveadas por request id, fulfillments históricos e uma linha por jogo
// com os últimos valores de cada canal.
//
// Tabelas:
//
//	oracle_requests(id, game_id, kind, requested_at, consumed)
//	oracle_fulfillments(request_id, game_id, kind, home_score, away_score, status, fulfilled_at)
//	oracle_games(game_id, home_score, away_score, status,
//	             score_request_id, status_request_id,
//	             score_fulfilled_at, status_fulfilled_at,
//	             last_score_request_id, last_status_request_id)
type PostgresStore struct{ db *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (p *PostgresStore) InsertPending(ctx context.Context, req PendingRequest) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO oracle_requests(id, game_id, kind, requested_at, consumed)
		VALUES ($1,$2,$3,$4,false)`,
		req.ID, req.GameID, req.Kind, req.RequestedAt); err != nil {
		return err
	}

	// Garante a linha do jogo e marca este request como o mais recente do canal
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO oracle_games(game_id, status) VALUES ($1,'')
		ON CONFLICT (game_id) DO NOTHING`, req.GameID); err != nil {
		return err
	}
	col := "last_score_request_id"
	if req.Kind == "status" {
		col = "last_status_request_id"
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE oracle_games SET `+col+`=$1 WHERE game_id=$2`,
		req.ID, req.GameID); err != nil {
		return err
	}

	return tx.Commit()
}

func (p *PostgresStore) ConsumePending(ctx context.Context, requestID string) (PendingRequest, error) {
	var req PendingRequest
	// UPDATE condicional dá o exatamente-uma-vez: a segunda tentativa não
	// encontra linha não-consumida e cai em ErrUnknownRequest
	err := p.db.QueryRowContext(ctx, `
		UPDATE oracle_requests SET consumed=true
		WHERE id=$1 AND consumed=false
		RETURNING id, game_id, kind, requested_at`, requestID).
		Scan(&req.ID, &req.GameID, &req.Kind, &req.RequestedAt)
	if err == sql.ErrNoRows {
		return PendingRequest{}, ErrUnknownRequest
	}
	if err != nil {
		return PendingRequest{}, err
	}
	return req, nil
}

func (p *PostgresStore) RecordScore(ctx context.Context, gameID, requestID string, home, away int64, at time.Time) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO oracle_fulfillments(request_id, game_id, kind, home_score, away_score, fulfilled_at)
		VALUES ($1,$2,'score',$3,$4,$5)`,
		requestID, gameID, home, away, at); err != nil {
		return err
	}

	var last sql.NullString
	if err = tx.QueryRowContext(ctx,
		`SELECT last_score_request_id FROM oracle_games WHERE game_id=$1 FOR UPDATE`,
		gameID).Scan(&last); err != nil {
		return err
	}
	// Fulfillment de request superado fica só no histórico
	if last.Valid && last.String == requestID {
		if _, err = tx.ExecContext(ctx, `
			UPDATE oracle_games
			SET home_score=$1, away_score=$2, score_request_id=$3, score_fulfilled_at=$4
			WHERE game_id=$5`,
			home, away, requestID, at, gameID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *PostgresStore) RecordStatus(ctx context.Context, gameID, requestID, status string, at time.Time) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO oracle_fulfillments(request_id, game_id, kind, status, fulfilled_at)
		VALUES ($1,$2,'status',$3,$4)`,
		requestID, gameID, status, at); err != nil {
		return err
	}

	var last sql.NullString
	if err = tx.QueryRowContext(ctx,
		`SELECT last_status_request_id FROM oracle_games WHERE game_id=$1 FOR UPDATE`,
		gameID).Scan(&last); err != nil {
		return err
	}
	if last.Valid && last.String == requestID {
		if _, err = tx.ExecContext(ctx, `
			UPDATE oracle_games
			SET status=$1, status_request_id=$2, status_fulfilled_at=$3
			WHERE game_id=$4`,
			status, requestID, at, gameID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *PostgresStore) Latest(ctx context.Context, gameID string) (Snapshot, error) {
	snap := Snapshot{GameID: gameID}

	var (
		scoreReqID, statusReqID sql.NullString
		scoreAt, statusAt       sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT home_score, away_score, status,
		       score_request_id, status_request_id,
		       score_fulfilled_at, status_fulfilled_at
		FROM oracle_games WHERE game_id=$1`, gameID).
		Scan(&snap.HomeScore, &snap.AwayScore, &snap.Status,
			&scoreReqID, &statusReqID, &scoreAt, &statusAt)
	if err == sql.ErrNoRows {
		// Nenhuma requisição emitida ainda: snapshot zerado
		return snap, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	if scoreReqID.Valid {
		snap.ScoreRequestID = scoreReqID.String
	}
	if statusReqID.Valid {
		snap.StatusRequestID = statusReqID.String
	}
	if scoreAt.Valid {
		snap.ScoreFulfilledAt = scoreAt.Time
	}
	if statusAt.Valid {
		snap.StatusFulfilledAt = statusAt.Time
	}
	return snap, nil
}
