// internal/app/views/views.go
//
// Package views shapes internal aggregates for API responses: ids become
// resolved sub-objects where the consumer wants them, timestamps become a
// fixed human-readable form, and the credential hash never leaves the
// server. Everything here is a pure transform over already-loaded data.
package views

import (
	"fmt"
	"time"

	"github.com/freethub/freethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Username        string   `json:"username"`
	Followers       int64    `json:"followers"`
	Following       int64    `json:"following"`
	TotalFreets     int64    `json:"total_freets"`
	TotalUpvotes    int64    `json:"total_upvotes"`
	TotalDownvotes  int64    `json:"total_downvotes"`
	ReputationScore int64    `json:"reputation_score"`
	Groups          []string `json:"groups"`
	LikedFreets     []string `json:"liked_freets"`
	DislikedFreets  []string `json:"disliked_freets"`
	DateJoined      string   `json:"date_joined"`
}

type FreetView struct {
	ID           string    `json:"id"`
	Author       *UserView `json:"author,omitempty"`
	AuthorID     string    `json:"author_id"`
	Content      string    `json:"content"`
	Upvotes      int64     `json:"upvotes"`
	Downvotes    int64     `json:"downvotes"`
	DateCreated  string    `json:"date_created"`
	DateModified string    `json:"date_modified"`
}

type MessageView struct {
	ID       string    `json:"id"`
	Sender   *UserView `json:"sender,omitempty"`
	SenderID string    `json:"sender_id"`
	GroupID  string    `json:"group_id"`
	Content  string    `json:"content"`
	DateSent string    `json:"date_sent"`
}

type GroupView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	CreatorID   string        `json:"creator_id"`
	AllUsers    []UserView    `json:"all_users"`
	AllMessages []MessageView `json:"all_messages"`
	DateCreated string        `json:"date_created"`
}

// User maps a user to its external shape. The bcrypt hash is dropped by
// construction: UserView has no field for it.
func User(u models.User) UserView {
	return UserView{
		ID:              u.ID.Hex(),
		Name:            u.Name,
		Username:        u.Username,
		Followers:       u.Followers,
		Following:       u.Following,
		TotalFreets:     u.TotalFreets,
		TotalUpvotes:    u.TotalUpvotes,
		TotalDownvotes:  u.TotalDownvotes,
		ReputationScore: u.ReputationScore,
		Groups:          hexIDs(u.Groups),
		LikedFreets:     hexIDs(u.LikedFreets),
		DislikedFreets:  hexIDs(u.DislikedFreets),
		DateJoined:      Moment(u.DateJoined),
	}
}

// Freet maps a freet. Pass the resolved author when the consumer wants
// the sub-object; a nil author leaves only author_id.
func Freet(f models.Freet, author *models.User) FreetView {
	v := FreetView{
		ID:           f.ID.Hex(),
		AuthorID:     f.AuthorID.Hex(),
		Content:      f.Content,
		Upvotes:      f.Upvotes,
		Downvotes:    f.Downvotes,
		DateCreated:  Moment(f.DateCreated),
		DateModified: Moment(f.DateModified),
	}
	if author != nil {
		av := User(*author)
		v.Author = &av
	}
	return v
}

func Message(m models.Message, sender *models.User) MessageView {
	v := MessageView{
		ID:       m.ID.Hex(),
		SenderID: m.SenderID.Hex(),
		GroupID:  m.GroupID.Hex(),
		Content:  m.Content,
		DateSent: Moment(m.DateSent),
	}
	if sender != nil {
		sv := User(*sender)
		v.Sender = &sv
	}
	return v
}

// Group maps a group with its roster and messages resolved. Members and
// messages keep the order of the group's all_users / all_messages arrays;
// references that no longer resolve (deleted users, reconciled messages)
// are skipped rather than rendered as holes.
func Group(g models.Group, members map[primitive.ObjectID]models.User, msgs map[primitive.ObjectID]models.Message) GroupView {
	v := GroupView{
		ID:          g.ID.Hex(),
		Name:        g.Name,
		CreatorID:   g.CreatorID.Hex(),
		AllUsers:    []UserView{},
		AllMessages: []MessageView{},
		DateCreated: Moment(g.DateCreated),
	}
	for _, id := range g.AllUsers {
		if u, ok := members[id]; ok {
			v.AllUsers = append(v.AllUsers, User(u))
		}
	}
	for _, id := range g.AllMessages {
		if m, ok := msgs[id]; ok {
			sender, ok := members[m.SenderID]
			if ok {
				v.AllMessages = append(v.AllMessages, Message(m, &sender))
			} else {
				v.AllMessages = append(v.AllMessages, Message(m, nil))
			}
		}
	}
	return v
}

// Moment renders a timestamp like "January 2nd 2006, 3:04:05 pm".
func Moment(t time.Time) string {
	return fmt.Sprintf("%s %s %d, %s",
		t.Format("January"),
		ordinal(t.Day()),
		t.Year(),
		t.Format("3:04:05 pm"))
}

func ordinal(day int) string {
	suffix := "th"
	switch {
	case day%100 >= 11 && day%100 <= 13:
		// 11th, 12th, 13th
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", day, suffix)
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
