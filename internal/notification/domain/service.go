package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academia/pkg/db/pagination"
)

// NotifyRequest is one fan-out call: the same type/title/content/link is
// written for every resolved recipient.
type NotifyRequest struct {
	OrgID    snowflake.ID
	Scope    Scope
	Type     string
	Title    string
	Content  string
	Link     string
	ActorID  snowflake.ID
	TargetID snowflake.ID
}

// NotifyOutcome reports how many recipients a fan-out reached. Callers
// never treat it as a failure.
type NotifyOutcome struct {
	Recipients int `json:"recipients"`
}

type FeedRequest struct {
	MemberID   string
	UnreadOnly bool
	PageToken  string
	PageSize   int
}

type FeedResponse struct {
	pagination.PageInfo
	Notifications []Notification `json:"notifications"`
}

type MarkReadRequest struct {
	MemberID       string
	NotificationID string
}

// Service is the direct fan-out boundary, invoked by business actions
// without consulting automation rules. Notify never returns an error; a
// failed bulk insert is logged and the triggering action still succeeds.
type Service interface {
	Notify(ctx context.Context, req NotifyRequest) NotifyOutcome

	Feed(ctx context.Context, req FeedRequest) (FeedResponse, error)
	MarkRead(ctx context.Context, req MarkReadRequest) error
}
