package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/psimmons86/playdates-server/internal/model"
	"github.com/psimmons86/playdates-server/internal/store"
)

// Collection names.
const (
	colUsers          = "users"
	colFriendRequests = "friend_requests"
	colFriendships    = "friendships"
	colInvitations    = "playdate_invitations"
	colPlaydates      = "playdates"
)

// Open connects to MongoDB and verifies connectivity.
func Open(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo URI is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// New connects and returns a store bound to the named database.
func New(ctx context.Context, uri, database string) (store.Store, error) {
	client, err := Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	return NewWithClient(client, database), nil
}

// NewWithClient constructs a Mongo store from an existing client.
func NewWithClient(client *mongo.Client, database string) store.Store {
	return &mongoStore{client: client, db: client.Database(database)}
}

type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func (s *mongoStore) Users() store.Users                   { return &users{db: s.db} }
func (s *mongoStore) FriendRequests() store.FriendRequests { return &friendRequests{s} }
func (s *mongoStore) Friendships() store.Friendships       { return &friendships{db: s.db} }
func (s *mongoStore) Invitations() store.Invitations       { return &invitations{s} }
func (s *mongoStore) Playdates() store.Playdates           { return &playdates{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *mongoStore) HealthPing(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// withTxn runs fn inside a session transaction. Compound writes (request flip
// plus edge creation) commit-or-none.
func (s *mongoStore) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, model.Infra(err)
	}
	defer sess.EndSession(ctx)
	return sess.WithTransaction(ctx, fn)
}

// pairKey builds the canonical unordered-pair identifier for a friendship
// edge so {a,b} and {b,a} map to the same document.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "#" + b
}

// friendshipDoc stores one symmetric edge as a single document; single-doc
// writes make edge creation and removal atomic without extra coordination.
type friendshipDoc struct {
	ID          string    `bson:"_id"`
	UserIDs     []string  `bson:"user_ids"`
	FriendSince time.Time `bson:"friend_since"`
}

// --- Users ---

type users struct{ db *mongo.Database }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	out.CreatedAt = time.Now().UTC()
	if _, err := u.db.Collection(colUsers).InsertOne(ctx, out); err != nil {
		return nil, model.Infra(err)
	}
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	err := u.db.Collection(colUsers).FindOne(ctx, bson.M{"user_id": userID}).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, model.Infra(err)
	}
	return &out, nil
}

func (u *users) Delete(ctx context.Context, userID string) error {
	res, err := u.db.Collection(colUsers).DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return model.Infra(err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Friend requests ---

type friendRequests struct{ s *mongoStore }

func (f *friendRequests) col() *mongo.Collection { return f.s.db.Collection(colFriendRequests) }

func (f *friendRequests) Create(ctx context.Context, r *model.FriendRequest) (*model.FriendRequest, error) {
	out := *r
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	out.Status = model.StatusPending
	out.CreatedAt = now
	out.UpdatedAt = now
	if _, err := f.col().InsertOne(ctx, out); err != nil {
		return nil, model.Infra(err)
	}
	return &out, nil
}

func (f *friendRequests) Get(ctx context.Context, requestID string) (*model.FriendRequest, error) {
	var out model.FriendRequest
	err := f.col().FindOne(ctx, bson.M{"_id": requestID}).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, model.Infra(err)
	}
	return &out, nil
}

func (f *friendRequests) FindPendingBetween(ctx context.Context, userA, userB string) (*model.FriendRequest, error) {
	filter := bson.M{
		"status": model.StatusPending,
		"$or": bson.A{
			bson.M{"sender_id": userA, "recipient_id": userB},
			bson.M{"sender_id": userB, "recipient_id": userA},
		},
	}
	var out model.FriendRequest
	err := f.col().FindOne(ctx, filter).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, model.Infra(err)
	}
	return &out, nil
}

func (f *friendRequests) ListIncoming(ctx context.Context, recipientID string) ([]*model.FriendRequest, error) {
	return f.list(ctx, bson.M{"recipient_id": recipientID, "status": model.StatusPending})
}

func (f *friendRequests) ListOutgoing(ctx context.Context, senderID string) ([]*model.FriendRequest, error) {
	return f.list(ctx, bson.M{"sender_id": senderID, "status": model.StatusPending})
}

func (f *friendRequests) list(ctx context.Context, filter bson.M) ([]*model.FriendRequest, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := f.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, model.Infra(err)
	}
	var res []*model.FriendRequest
	if err := cur.All(ctx, &res); err != nil {
		return nil, model.Infra(err)
	}
	return res, nil
}

func (f *friendRequests) Respond(ctx context.Context, requestID string, accept bool) (*model.FriendRequest, error) {
	status := model.StatusDeclined
	if accept {
		status = model.StatusAccepted
	}
	now := time.Now().UTC()

	out, err := f.s.withTxn(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// Conditional flip: FindOneAndUpdate on {_id, status: pending} is the
		// CAS that lets exactly one responder win.
		var req model.FriendRequest
		err := f.col().FindOneAndUpdate(sc,
			bson.M{"_id": requestID, "status": model.StatusPending},
			bson.M{"$set": bson.M{"status": status, "updated_at": now}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&req)
		if err != nil {
			if !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, model.Infra(err)
			}
			// Distinguish "absent" from "already terminal".
			if _, gerr := f.Get(sc, requestID); gerr != nil {
				return nil, gerr
			}
			return nil, model.ErrInvalidState
		}

		if accept {
			doc := friendshipDoc{
				ID:          pairKey(req.SenderID, req.RecipientID),
				UserIDs:     []string{req.SenderID, req.RecipientID},
				FriendSince: now,
			}
			_, err := f.s.db.Collection(colFriendships).UpdateOne(sc,
				bson.M{"_id": doc.ID},
				bson.M{"$setOnInsert": doc},
				options.Update().SetUpsert(true),
			)
			if err != nil {
				return nil, model.Infra(err)
			}
		}
		return &req, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*model.FriendRequest), nil
}

func (f *friendRequests) Delete(ctx context.Context, requestID string) error {
	res, err := f.col().DeleteOne(ctx, bson.M{"_id": requestID})
	if err != nil {
		return model.Infra(err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Friendships ---

type friendships struct{ db *mongo.Database }

func (f *friendships) col() *mongo.Collection { return f.db.Collection(colFriendships) }

func (f *friendships) Exists(ctx context.Context, userID, friendID string) (bool, error) {
	n, err := f.col().CountDocuments(ctx, bson.M{"_id": pairKey(userID, friendID)})
	if err != nil {
		return false, model.Infra(err)
	}
	return n > 0, nil
}

func (f *friendships) List(ctx context.Context, userID string) ([]*model.Friendship, error) {
	opts := options.Find().SetSort(bson.M{"friend_since": -1})
	cur, err := f.col().Find(ctx, bson.M{"user_ids": userID}, opts)
	if err != nil {
		return nil, model.Infra(err)
	}
	var docs []friendshipDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, model.Infra(err)
	}
	var res []*model.Friendship
	for _, d := range docs {
		for _, other := range d.UserIDs {
			if other != userID {
				res = append(res, &model.Friendship{UserID: userID, FriendID: other, FriendSince: d.FriendSince})
			}
		}
	}
	return res, nil
}

func (f *friendships) Remove(ctx context.Context, userID, friendID string) error {
	res, err := f.col().DeleteOne(ctx, bson.M{"_id": pairKey(userID, friendID)})
	if err != nil {
		return model.Infra(err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Invitations ---

type invitations struct{ s *mongoStore }

func (i *invitations) col() *mongo.Collection { return i.s.db.Collection(colInvitations) }

func (i *invitations) Create(ctx context.Context, inv *model.PlaydateInvitation) (*model.PlaydateInvitation, error) {
	out := *inv
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	out.Status = model.StatusPending
	out.CreatedAt = now
	out.UpdatedAt = now
	if _, err := i.col().InsertOne(ctx, out); err != nil {
		return nil, model.Infra(err)
	}
	return &out, nil
}

func (i *invitations) Get(ctx context.Context, invitationID string) (*model.PlaydateInvitation, error) {
	var out model.PlaydateInvitation
	err := i.col().FindOne(ctx, bson.M{"_id": invitationID}).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, model.Infra(err)
	}
	return &out, nil
}

func (i *invitations) ListIncoming(ctx context.Context, recipientID string) ([]*model.PlaydateInvitation, error) {
	return i.list(ctx, bson.M{"recipient_id": recipientID, "status": model.StatusPending})
}

func (i *invitations) ListOutgoing(ctx context.Context, senderID string) ([]*model.PlaydateInvitation, error) {
	return i.list(ctx, bson.M{"sender_id": senderID})
}

func (i *invitations) list(ctx context.Context, filter bson.M) ([]*model.PlaydateInvitation, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := i.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, model.Infra(err)
	}
	var res []*model.PlaydateInvitation
	if err := cur.All(ctx, &res); err != nil {
		return nil, model.Infra(err)
	}
	return res, nil
}

func (i *invitations) Respond(ctx context.Context, invitationID string, accept bool) (*model.PlaydateInvitation, error) {
	status := model.StatusDeclined
	if accept {
		status = model.StatusAccepted
	}
	now := time.Now().UTC()

	out, err := i.s.withTxn(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var inv model.PlaydateInvitation
		err := i.col().FindOneAndUpdate(sc,
			bson.M{"_id": invitationID, "status": model.StatusPending},
			bson.M{"$set": bson.M{"status": status, "updated_at": now}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&inv)
		if err != nil {
			if !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, model.Infra(err)
			}
			if _, gerr := i.Get(sc, invitationID); gerr != nil {
				return nil, gerr
			}
			return nil, model.ErrInvalidState
		}

		if accept {
			// $addToSet is the add-if-absent write the attendee list needs.
			_, err := i.s.db.Collection(colPlaydates).UpdateOne(sc,
				bson.M{"_id": inv.PlaydateID},
				bson.M{"$addToSet": bson.M{"attendee_ids": inv.RecipientID}},
			)
			if err != nil {
				return nil, model.Infra(err)
			}
		}
		return &inv, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*model.PlaydateInvitation), nil
}

// --- Playdates ---

type playdates struct{ db *mongo.Database }

func (p *playdates) col() *mongo.Collection { return p.db.Collection(colPlaydates) }

func (p *playdates) Create(ctx context.Context, pd *model.Playdate) (*model.Playdate, error) {
	out := *pd
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	out.CreatedAt = time.Now().UTC()
	if out.AttendeeIDs == nil {
		out.AttendeeIDs = []string{}
	}
	if _, err := p.col().InsertOne(ctx, out); err != nil {
		return nil, model.Infra(err)
	}
	return &out, nil
}

func (p *playdates) Get(ctx context.Context, playdateID string) (*model.Playdate, error) {
	var out model.Playdate
	err := p.col().FindOne(ctx, bson.M{"_id": playdateID}).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, model.Infra(err)
	}
	return &out, nil
}

func (p *playdates) List(ctx context.Context, limit int) ([]*model.Playdate, error) {
	opts := options.Find().SetSort(bson.M{"start_time": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := p.col().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, model.Infra(err)
	}
	var res []*model.Playdate
	if err := cur.All(ctx, &res); err != nil {
		return nil, model.Infra(err)
	}
	return res, nil
}
