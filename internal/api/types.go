package api

import "time"

type CastVoteRequest struct {
	PostID    uint      `json:"postId" binding:"required"`
	Direction Direction `json:"direction" binding:"required,oneof=up down"`
}

type CastVoteResponse struct {
	UserVote   VoteValue `json:"userVote"`
	ScoreDelta int       `json:"scoreDelta"`
}

type VoteState struct {
	UserVote VoteValue `json:"userVote"`
	Score    int       `json:"score"`
}

type Author struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Place struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`
}

// Post is the read model shown in feeds and on the detail page.
type Post struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content,omitempty"`
	ContentHTML string    `json:"contentHtml,omitempty"`
	URL         string    `json:"url,omitempty"`
	Domain      string    `json:"domain"`
	Score       int       `json:"score"`
	UserVote    VoteValue `json:"userVote"`
	Author      Author    `json:"author"`
	Place       Place     `json:"place"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type SubscriptionState struct {
	Subscribed bool `json:"subscribed"`
}

type DefaultSubscriptions struct {
	Subscribed int `json:"subscribed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
