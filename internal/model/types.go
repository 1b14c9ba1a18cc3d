package model

import "time"

// User represents an account in the system. The core only needs identity;
// the mobile app's full profile lives outside this service.
type User struct {
	UserID      string    `json:"userId" bson:"user_id"`
	DisplayName *string   `json:"displayName,omitempty" bson:"display_name,omitempty"`
	Email       string    `json:"email" bson:"email"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// RequestStatus is the lifecycle state shared by friend requests and
// playdate invitations. Pending is the only mutable state.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusDeclined RequestStatus = "declined"
)

// Terminal reports whether the status permits no further transitions.
func (s RequestStatus) Terminal() bool { return s == StatusAccepted || s == StatusDeclined }

// FriendRequest is a directed ask from sender to recipient.
type FriendRequest struct {
	ID          string        `json:"id" bson:"_id"`
	SenderID    string        `json:"senderId" bson:"sender_id"`
	RecipientID string        `json:"recipientId" bson:"recipient_id"`
	Status      RequestStatus `json:"status" bson:"status"`
	Message     *string       `json:"message,omitempty" bson:"message,omitempty"`
	CreatedAt   time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updated_at"`
}

// Friendship is one direction of a symmetric edge. The store guarantees the
// mirrored row exists: if {a,b} is present so is {b,a}, with equal FriendSince.
type Friendship struct {
	UserID      string    `json:"userId" bson:"user_id"`
	FriendID    string    `json:"friendId" bson:"friend_id"`
	FriendSince time.Time `json:"friendSince" bson:"friend_since"`
}

// PlaydateInvitation invites a recipient to a specific playdate.
type PlaydateInvitation struct {
	ID          string        `json:"id" bson:"_id"`
	PlaydateID  string        `json:"playdateId" bson:"playdate_id"`
	SenderID    string        `json:"senderId" bson:"sender_id"`
	RecipientID string        `json:"recipientId" bson:"recipient_id"`
	Status      RequestStatus `json:"status" bson:"status"`
	Message     *string       `json:"message,omitempty" bson:"message,omitempty"`
	CreatedAt   time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updated_at"`
}

// Playdate is the external entity the invitation flow touches. Accepting an
// invitation appends the recipient to AttendeeIDs at most once.
type Playdate struct {
	ID          string    `json:"id" bson:"_id"`
	HostID      string    `json:"hostId" bson:"host_id"`
	Title       string    `json:"title" bson:"title"`
	Description *string   `json:"description,omitempty" bson:"description,omitempty"`
	Location    *string   `json:"location,omitempty" bson:"location,omitempty"`
	StartTime   time.Time `json:"startTime" bson:"start_time"`
	EndTime     time.Time `json:"endTime" bson:"end_time"`
	AttendeeIDs []string  `json:"attendeeIds" bson:"attendee_ids"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// HasAttendee reports whether userID is already on the attendee list.
func (p *Playdate) HasAttendee(userID string) bool {
	for _, id := range p.AttendeeIDs {
		if id == userID {
			return true
		}
	}
	return false
}
