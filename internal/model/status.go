package model

// FriendshipStatusKind names the relationship between the current user and a
// candidate. Exactly one kind holds for any pair at any point in time.
type FriendshipStatusKind string

const (
	StatusNotLoggedIn     FriendshipStatusKind = "notLoggedIn"
	StatusIsSelf          FriendshipStatusKind = "isSelf"
	StatusFriends         FriendshipStatusKind = "friends"
	StatusRequestSent     FriendshipStatusKind = "requestSent"
	StatusRequestReceived FriendshipStatusKind = "requestReceived"
	StatusNotFriends      FriendshipStatusKind = "notFriends"
)

// FriendshipStatus is the derived relationship query result. Request is set
// for the pending kinds so the caller can respond or cancel directly.
type FriendshipStatus struct {
	Kind    FriendshipStatusKind `json:"kind"`
	Request *FriendRequest       `json:"request,omitempty"`
}
