package model

import "fmt"

type TargetKind string

const (
	TargetPublisher  TargetKind = "publisher"
	TargetJournalist TargetKind = "journalist"
)

// Target is something a reader can subscribe to.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

func PublisherTarget(id string) Target {
	return Target{Kind: TargetPublisher, ID: id}
}

func JournalistTarget(id string) Target {
	return Target{Kind: TargetJournalist, ID: id}
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}

type MatchReason string

const (
	MatchPublisher  MatchReason = "publisher"
	MatchJournalist MatchReason = "journalist"
)

// NotificationIntent asks the transport to tell one reader about one approval.
type NotificationIntent struct {
	ReaderID     string        `json:"reader_id"`
	ArticleID    string        `json:"article_id"`
	MatchReasons []MatchReason `json:"match_reasons"`
}
