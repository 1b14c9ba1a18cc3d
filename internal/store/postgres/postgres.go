package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/psimmons86/playdates-server/internal/model"
	"github.com/psimmons86/playdates-server/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens a connection, ensures the schema exists, and returns a store.
func New(dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users                   { return &users{db: s.db} }
func (s *pgStore) FriendRequests() store.FriendRequests { return &friendRequests{db: s.db} }
func (s *pgStore) Friendships() store.Friendships       { return &friendships{db: s.db} }
func (s *pgStore) Invitations() store.Invitations       { return &invitations{db: s.db} }
func (s *pgStore) Playdates() store.Playdates           { return &playdates{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, display_name, email)
        VALUES ($1,$2,$3)
        RETURNING created_at
    `, m.UserID, m.DisplayName, m.Email)
	if err := row.Scan(&created); err != nil {
		return nil, model.Infra(err)
	}
	out := *m
	out.CreatedAt = created
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, display_name, email, created_at FROM users WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.UserID, &out.DisplayName, &out.Email, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, model.Infra(err)
	}
	return &out, nil
}

func (u *users) Delete(ctx context.Context, userID string) error {
	res, err := u.db.ExecContext(ctx, `DELETE FROM users WHERE user_id=$1`, userID)
	if err != nil {
		return model.Infra(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Friend requests ---

type friendRequests struct{ db *sql.DB }

const friendRequestCols = `request_id, sender_id, recipient_id, status, message, created_at, updated_at`

func scanFriendRequest(row interface{ Scan(...any) error }) (*model.FriendRequest, error) {
	var out model.FriendRequest
	if err := row.Scan(&out.ID, &out.SenderID, &out.RecipientID, &out.Status, &out.Message, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *friendRequests) Create(ctx context.Context, r *model.FriendRequest) (*model.FriendRequest, error) {
	id := r.ID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := f.db.QueryRowContext(ctx, `
        INSERT INTO friend_requests (request_id, sender_id, recipient_id, status, message)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at
    `, id, r.SenderID, r.RecipientID, model.StatusPending, r.Message)
	if err := row.Scan(&created); err != nil {
		return nil, model.Infra(err)
	}
	out := *r
	out.ID = id
	out.Status = model.StatusPending
	out.CreatedAt = created
	out.UpdatedAt = created
	return &out, nil
}

func (f *friendRequests) Get(ctx context.Context, requestID string) (*model.FriendRequest, error) {
	row := f.db.QueryRowContext(ctx, `
        SELECT `+friendRequestCols+` FROM friend_requests WHERE request_id=$1
    `, requestID)
	out, err := scanFriendRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, model.Infra(err)
	}
	return out, nil
}

func (f *friendRequests) FindPendingBetween(ctx context.Context, userA, userB string) (*model.FriendRequest, error) {
	row := f.db.QueryRowContext(ctx, `
        SELECT `+friendRequestCols+` FROM friend_requests
        WHERE status=$1 AND ((sender_id=$2 AND recipient_id=$3) OR (sender_id=$3 AND recipient_id=$2))
        LIMIT 1
    `, model.StatusPending, userA, userB)
	out, err := scanFriendRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, model.Infra(err)
	}
	return out, nil
}

func (f *friendRequests) ListIncoming(ctx context.Context, recipientID string) ([]*model.FriendRequest, error) {
	return f.list(ctx, `
        SELECT `+friendRequestCols+` FROM friend_requests
        WHERE recipient_id=$1 AND status=$2 ORDER BY created_at DESC
    `, recipientID, model.StatusPending)
}

func (f *friendRequests) ListOutgoing(ctx context.Context, senderID string) ([]*model.FriendRequest, error) {
	return f.list(ctx, `
        SELECT `+friendRequestCols+` FROM friend_requests
        WHERE sender_id=$1 AND status=$2 ORDER BY created_at DESC
    `, senderID, model.StatusPending)
}

func (f *friendRequests) list(ctx context.Context, query string, args ...any) ([]*model.FriendRequest, error) {
	rows, err := f.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, model.Infra(err)
	}
	defer func() { _ = rows.Close() }()
	var res []*model.FriendRequest
	for rows.Next() {
		r, err := scanFriendRequest(rows)
		if err != nil {
			return nil, model.Infra(err)
		}
		res = append(res, r)
	}
	return res, model.Infra(rows.Err())
}

func (f *friendRequests) Respond(ctx context.Context, requestID string, accept bool) (*model.FriendRequest, error) {
	tx, err := f.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, model.Infra(err)
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the row so concurrent responders serialize on the conditional flip.
	row := tx.QueryRowContext(ctx, `
        SELECT `+friendRequestCols+` FROM friend_requests WHERE request_id=$1 FOR UPDATE
    `, requestID)
	req, err := scanFriendRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, model.Infra(err)
	}
	if req.Status != model.StatusPending {
		return nil, model.ErrInvalidState
	}

	status := model.StatusDeclined
	if accept {
		status = model.StatusAccepted
	}
	var updated time.Time
	row = tx.QueryRowContext(ctx, `
        UPDATE friend_requests SET status=$1, updated_at=now()
        WHERE request_id=$2 AND status=$3
        RETURNING updated_at
    `, status, requestID, model.StatusPending)
	if err := row.Scan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrInvalidState
		}
		return nil, model.Infra(err)
	}

	if accept {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO friendships (user_id, friend_id, friend_since)
            VALUES ($1,$2,$3), ($2,$1,$3)
            ON CONFLICT DO NOTHING
        `, req.SenderID, req.RecipientID, updated); err != nil {
			return nil, model.Infra(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, model.Infra(err)
	}
	req.Status = status
	req.UpdatedAt = updated
	return req, nil
}

func (f *friendRequests) Delete(ctx context.Context, requestID string) error {
	res, err := f.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE request_id=$1`, requestID)
	if err != nil {
		return model.Infra(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Friendships ---

type friendships struct{ db *sql.DB }

func (f *friendships) Exists(ctx context.Context, userID, friendID string) (bool, error) {
	var n int
	row := f.db.QueryRowContext(ctx, `
        SELECT COUNT(1) FROM friendships WHERE user_id=$1 AND friend_id=$2
    `, userID, friendID)
	if err := row.Scan(&n); err != nil {
		return false, model.Infra(err)
	}
	return n > 0, nil
}

func (f *friendships) List(ctx context.Context, userID string) ([]*model.Friendship, error) {
	rows, err := f.db.QueryContext(ctx, `
        SELECT user_id, friend_id, friend_since FROM friendships
        WHERE user_id=$1 ORDER BY friend_since DESC
    `, userID)
	if err != nil {
		return nil, model.Infra(err)
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Friendship
	for rows.Next() {
		var fr model.Friendship
		if err := rows.Scan(&fr.UserID, &fr.FriendID, &fr.FriendSince); err != nil {
			return nil, model.Infra(err)
		}
		res = append(res, &fr)
	}
	return res, model.Infra(rows.Err())
}

func (f *friendships) Remove(ctx context.Context, userID, friendID string) error {
	tx, err := f.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.Infra(err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
        DELETE FROM friendships
        WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)
    `, userID, friendID)
	if err != nil {
		return model.Infra(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return model.Infra(tx.Commit())
}

// --- Invitations ---

type invitations struct{ db *sql.DB }

const invitationCols = `invitation_id, playdate_id, sender_id, recipient_id, status, message, created_at, updated_at`

func scanInvitation(row interface{ Scan(...any) error }) (*model.PlaydateInvitation, error) {
	var out model.PlaydateInvitation
	if err := row.Scan(&out.ID, &out.PlaydateID, &out.SenderID, &out.RecipientID, &out.Status, &out.Message, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (i *invitations) Create(ctx context.Context, inv *model.PlaydateInvitation) (*model.PlaydateInvitation, error) {
	id := inv.ID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := i.db.QueryRowContext(ctx, `
        INSERT INTO playdate_invitations (invitation_id, playdate_id, sender_id, recipient_id, status, message)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at
    `, id, inv.PlaydateID, inv.SenderID, inv.RecipientID, model.StatusPending, inv.Message)
	if err := row.Scan(&created); err != nil {
		return nil, model.Infra(err)
	}
	out := *inv
	out.ID = id
	out.Status = model.StatusPending
	out.CreatedAt = created
	out.UpdatedAt = created
	return &out, nil
}

func (i *invitations) Get(ctx context.Context, invitationID string) (*model.PlaydateInvitation, error) {
	row := i.db.QueryRowContext(ctx, `
        SELECT `+invitationCols+` FROM playdate_invitations WHERE invitation_id=$1
    `, invitationID)
	out, err := scanInvitation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, model.Infra(err)
	}
	return out, nil
}

func (i *invitations) ListIncoming(ctx context.Context, recipientID string) ([]*model.PlaydateInvitation, error) {
	return i.list(ctx, `
        SELECT `+invitationCols+` FROM playdate_invitations
        WHERE recipient_id=$1 AND status=$2 ORDER BY created_at DESC
    `, recipientID, model.StatusPending)
}

func (i *invitations) ListOutgoing(ctx context.Context, senderID string) ([]*model.PlaydateInvitation, error) {
	return i.list(ctx, `
        SELECT `+invitationCols+` FROM playdate_invitations
        WHERE sender_id=$1 ORDER BY created_at DESC
    `, senderID)
}

func (i *invitations) list(ctx context.Context, query string, args ...any) ([]*model.PlaydateInvitation, error) {
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, model.Infra(err)
	}
	defer func() { _ = rows.Close() }()
	var res []*model.PlaydateInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, model.Infra(err)
		}
		res = append(res, inv)
	}
	return res, model.Infra(rows.Err())
}

func (i *invitations) Respond(ctx context.Context, invitationID string, accept bool) (*model.PlaydateInvitation, error) {
	tx, err := i.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, model.Infra(err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
        SELECT `+invitationCols+` FROM playdate_invitations WHERE invitation_id=$1 FOR UPDATE
    `, invitationID)
	inv, err := scanInvitation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, model.Infra(err)
	}
	if inv.Status != model.StatusPending {
		return nil, model.ErrInvalidState
	}

	status := model.StatusDeclined
	if accept {
		status = model.StatusAccepted
	}
	var updated time.Time
	row = tx.QueryRowContext(ctx, `
        UPDATE playdate_invitations SET status=$1, updated_at=now()
        WHERE invitation_id=$2 AND status=$3
        RETURNING updated_at
    `, status, invitationID, model.StatusPending)
	if err := row.Scan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrInvalidState
		}
		return nil, model.Infra(err)
	}

	if accept {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO playdate_attendees (playdate_id, user_id)
            VALUES ($1,$2)
            ON CONFLICT DO NOTHING
        `, inv.PlaydateID, inv.RecipientID); err != nil {
			return nil, model.Infra(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, model.Infra(err)
	}
	inv.Status = status
	inv.UpdatedAt = updated
	return inv, nil
}

// --- Playdates ---

type playdates struct{ db *sql.DB }

func (p *playdates) Create(ctx context.Context, pd *model.Playdate) (*model.Playdate, error) {
	id := pd.ID
	if id == "" {
		id = uuid.New().String()
	}

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, model.Infra(err)
	}
	defer func() { _ = tx.Rollback() }()

	var created time.Time
	row := tx.QueryRowContext(ctx, `
        INSERT INTO playdates (playdate_id, host_id, title, description, location, start_time, end_time)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at
    `, id, pd.HostID, pd.Title, pd.Description, pd.Location, pd.StartTime.UTC(), pd.EndTime.UTC())
	if err := row.Scan(&created); err != nil {
		return nil, model.Infra(err)
	}
	for _, uid := range pd.AttendeeIDs {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO playdate_attendees (playdate_id, user_id) VALUES ($1,$2)
            ON CONFLICT DO NOTHING
        `, id, uid); err != nil {
			return nil, model.Infra(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, model.Infra(err)
	}

	out := *pd
	out.ID = id
	out.CreatedAt = created
	return &out, nil
}

func (p *playdates) Get(ctx context.Context, playdateID string) (*model.Playdate, error) {
	var out model.Playdate
	row := p.db.QueryRowContext(ctx, `
        SELECT playdate_id, host_id, title, description, location, start_time, end_time, created_at
        FROM playdates WHERE playdate_id=$1
    `, playdateID)
	if err := row.Scan(&out.ID, &out.HostID, &out.Title, &out.Description, &out.Location, &out.StartTime, &out.EndTime, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, model.Infra(err)
	}
	attendees, err := p.attendees(ctx, playdateID)
	if err != nil {
		return nil, err
	}
	out.AttendeeIDs = attendees
	return &out, nil
}

func (p *playdates) List(ctx context.Context, limit int) ([]*model.Playdate, error) {
	q := `
        SELECT playdate_id, host_id, title, description, location, start_time, end_time, created_at
        FROM playdates ORDER BY start_time ASC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, model.Infra(err)
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Playdate
	for rows.Next() {
		var pd model.Playdate
		if err := rows.Scan(&pd.ID, &pd.HostID, &pd.Title, &pd.Description, &pd.Location, &pd.StartTime, &pd.EndTime, &pd.CreatedAt); err != nil {
			return nil, model.Infra(err)
		}
		res = append(res, &pd)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Infra(err)
	}
	for _, pd := range res {
		attendees, err := p.attendees(ctx, pd.ID)
		if err != nil {
			return nil, err
		}
		pd.AttendeeIDs = attendees
	}
	return res, nil
}

func (p *playdates) attendees(ctx context.Context, playdateID string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT user_id FROM playdate_attendees WHERE playdate_id=$1 ORDER BY user_id ASC
    `, playdateID)
	if err != nil {
		return nil, model.Infra(err)
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, model.Infra(err)
		}
		ids = append(ids, id)
	}
	return ids, model.Infra(rows.Err())
}
