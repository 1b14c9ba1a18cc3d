package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/psimmons86/playdates-server/internal/model"
	"github.com/psimmons86/playdates-server/internal/store"
)

// New opens the SQLite database at path, bootstraps the schema, and returns a store.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a SQLite store backed by an existing connection.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Users() store.Users                   { return &users{db: s.db} }
func (s *sqliteStore) FriendRequests() store.FriendRequests { return &friendRequests{db: s.db} }
func (s *sqliteStore) Friendships() store.Friendships       { return &friendships{db: s.db} }
func (s *sqliteStore) Invitations() store.Invitations       { return &invitations{db: s.db} }
func (s *sqliteStore) Playdates() store.Playdates           { return &playdates{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	now := time.Now().UTC()
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (user_id, display_name, email, created_at) VALUES (?,?,?,?)
    `, m.UserID, m.DisplayName, m.Email, now)
	if err != nil {
		return nil, model.Infra(err)
	}
	out := *m
	out.CreatedAt = now
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, display_name, email, created_at FROM users WHERE user_id=?
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
	res, err := u.db.ExecContext(ctx, `DELETE FROM users WHERE user_id=?`, userID)
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
	now := time.Now().UTC()
	_, err := f.db.ExecContext(ctx, `
        INSERT INTO friend_requests (request_id, sender_id, recipient_id, status, message, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?)
    `, id, r.SenderID, r.RecipientID, model.StatusPending, r.Message, now, now)
	if err != nil {
		return nil, model.Infra(err)
	}
	out := *r
	out.ID = id
	out.Status = model.StatusPending
	out.CreatedAt = now
	out.UpdatedAt = now
	return &out, nil
}

func (f *friendRequests) Get(ctx context.Context, requestID string) (*model.FriendRequest, error) {
	row := f.db.QueryRowContext(ctx, `
        SELECT `+friendRequestCols+` FROM friend_requests WHERE request_id=?
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
        WHERE status=? AND ((sender_id=? AND recipient_id=?) OR (sender_id=? AND recipient_id=?))
        LIMIT 1
    `, model.StatusPending, userA, userB, userB, userA)
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
        WHERE recipient_id=? AND status=? ORDER BY created_at DESC
    `, recipientID, model.StatusPending)
}

func (f *friendRequests) ListOutgoing(ctx context.Context, senderID string) ([]*model.FriendRequest, error) {
	return f.list(ctx, `
        SELECT `+friendRequestCols+` FROM friend_requests
        WHERE sender_id=? AND status=? ORDER BY created_at DESC
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

	row := tx.QueryRowContext(ctx, `
        SELECT `+friendRequestCols+` FROM friend_requests WHERE request_id=?
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
	now := time.Now().UTC()

	// Conditional flip: a concurrent responder loses and sees InvalidState.
	res, err := tx.ExecContext(ctx, `
        UPDATE friend_requests SET status=?, updated_at=? WHERE request_id=? AND status=?
    `, status, now, requestID, model.StatusPending)
	if err != nil {
		return nil, model.Infra(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrInvalidState
	}

	if accept {
		for _, pair := range [][2]string{{req.SenderID, req.RecipientID}, {req.RecipientID, req.SenderID}} {
			if _, err := tx.ExecContext(ctx, `
                INSERT OR IGNORE INTO friendships (user_id, friend_id, friend_since) VALUES (?,?,?)
            `, pair[0], pair[1], now); err != nil {
				return nil, model.Infra(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, model.Infra(err)
	}
	req.Status = status
	req.UpdatedAt = now
	return req, nil
}

func (f *friendRequests) Delete(ctx context.Context, requestID string) error {
	res, err := f.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE request_id=?`, requestID)
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
        SELECT COUNT(1) FROM friendships WHERE user_id=? AND friend_id=?
    `, userID, friendID)
	if err := row.Scan(&n); err != nil {
		return false, model.Infra(err)
	}
	return n > 0, nil
}

func (f *friendships) List(ctx context.Context, userID string) ([]*model.Friendship, error) {
	rows, err := f.db.QueryContext(ctx, `
        SELECT user_id, friend_id, friend_since FROM friendships
        WHERE user_id=? ORDER BY friend_since DESC
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
        WHERE (user_id=? AND friend_id=?) OR (user_id=? AND friend_id=?)
    `, userID, friendID, friendID, userID)
	if err != nil {
		return model.Infra(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
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
	now := time.Now().UTC()
	_, err := i.db.ExecContext(ctx, `
        INSERT INTO playdate_invitations (invitation_id, playdate_id, sender_id, recipient_id, status, message, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?)
    `, id, inv.PlaydateID, inv.SenderID, inv.RecipientID, model.StatusPending, inv.Message, now, now)
	if err != nil {
		return nil, model.Infra(err)
	}
	out := *inv
	out.ID = id
	out.Status = model.StatusPending
	out.CreatedAt = now
	out.UpdatedAt = now
	return &out, nil
}

func (i *invitations) Get(ctx context.Context, invitationID string) (*model.PlaydateInvitation, error) {
	row := i.db.QueryRowContext(ctx, `
        SELECT `+invitationCols+` FROM playdate_invitations WHERE invitation_id=?
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
        WHERE recipient_id=? AND status=? ORDER BY created_at DESC
    `, recipientID, model.StatusPending)
}

func (i *invitations) ListOutgoing(ctx context.Context, senderID string) ([]*model.PlaydateInvitation, error) {
	return i.list(ctx, `
        SELECT `+invitationCols+` FROM playdate_invitations
        WHERE sender_id=? ORDER BY created_at DESC
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
        SELECT `+invitationCols+` FROM playdate_invitations WHERE invitation_id=?
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
	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
        UPDATE playdate_invitations SET status=?, updated_at=? WHERE invitation_id=? AND status=?
    `, status, now, invitationID, model.StatusPending)
	if err != nil {
		return nil, model.Infra(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrInvalidState
	}

	if accept {
		// Add-if-absent: the primary key makes duplicate attendee rows impossible.
		if _, err := tx.ExecContext(ctx, `
            INSERT OR IGNORE INTO playdate_attendees (playdate_id, user_id) VALUES (?,?)
        `, inv.PlaydateID, inv.RecipientID); err != nil {
			return nil, model.Infra(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, model.Infra(err)
	}
	inv.Status = status
	inv.UpdatedAt = now
	return inv, nil
}

// --- Playdates ---

type playdates struct{ db *sql.DB }

func (p *playdates) Create(ctx context.Context, pd *model.Playdate) (*model.Playdate, error) {
	id := pd.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, model.Infra(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO playdates (playdate_id, host_id, title, description, location, start_time, end_time, created_at)
        VALUES (?,?,?,?,?,?,?,?)
    `, id, pd.HostID, pd.Title, pd.Description, pd.Location, pd.StartTime.UTC(), pd.EndTime.UTC(), now); err != nil {
		return nil, model.Infra(err)
	}
	for _, uid := range pd.AttendeeIDs {
		if _, err := tx.ExecContext(ctx, `
            INSERT OR IGNORE INTO playdate_attendees (playdate_id, user_id) VALUES (?,?)
        `, id, uid); err != nil {
			return nil, model.Infra(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, model.Infra(err)
	}

	out := *pd
	out.ID = id
	out.CreatedAt = now
	return &out, nil
}

func (p *playdates) Get(ctx context.Context, playdateID string) (*model.Playdate, error) {
	var out model.Playdate
	row := p.db.QueryRowContext(ctx, `
        SELECT playdate_id, host_id, title, description, location, start_time, end_time, created_at
        FROM playdates WHERE playdate_id=?
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
		q += ` LIMIT ?`
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
        SELECT user_id FROM playdate_attendees WHERE playdate_id=? ORDER BY rowid ASC
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
