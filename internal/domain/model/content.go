package model

// Post is a timeline post.
type Post struct {
	ID           string
	AuthorID     string
	AuthorName   string
	Caption      string
	CreatedAt    int64 // epoch milliseconds, valid only if HasCreatedAt
	HasCreatedAt bool
}

// ReactionPost is an emotion post placed on the map.
type ReactionPost struct {
	ID           string
	ProfileID    string
	Emotion      string
	Message      string
	CreatedAt    int64
	HasCreatedAt bool
}

// Identity is a user profile.
type Identity struct {
	ID            string
	DisplayName   string
	CreatedAt     int64
	HasCreatedAt  bool
	ReceivedLikes int64
	Followers     int64
}
