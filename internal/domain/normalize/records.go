package normalize

import (
	"strconv"
	"strings"

	"github.com/okian/streetpass/internal/domain/model"
)

// UnknownUser is the display name used when a profile carries none.
const UnknownUser = "unknown user"

// PresenceTimeField is the only field a presence is timestamped by. Stores
// filter and order presences on the same field.
const PresenceTimeField = "lastUpdatedMs"

// Presence normalizes one presence document. It returns false when the
// timestamp does not resolve; such records take part in no derivation.
func Presence(raw model.RawRecord) (model.PresenceRecord, bool) {
	ts, ok := Timestamp(raw.Fields[PresenceTimeField])
	if !ok {
		return model.PresenceRecord{}, false
	}

	profile, _ := raw.Fields["profile"].(map[string]any)
	rec := model.PresenceRecord{
		ID:        raw.ID,
		Timestamp: ts,
		Location:  location(raw.Fields),
		Active:    active(raw.Fields["active"]),
		Profile:   profileSnapshot(raw, profile),
		Message:   firstString(raw.Fields["message"], profile["message"]),
	}
	return rec, true
}

// Presences normalizes a snapshot and reports how many records were dropped.
func Presences(raws []model.RawRecord) ([]model.PresenceRecord, int) {
	out := make([]model.PresenceRecord, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		rec, ok := Presence(raw)
		if !ok {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}

// Posts normalizes timeline posts. Posts whose createdAt does not resolve are
// kept with HasCreatedAt=false; the int result counts them.
func Posts(raws []model.RawRecord) ([]model.Post, int) {
	out := make([]model.Post, 0, len(raws))
	undated := 0
	for _, raw := range raws {
		ts, ok := Timestamp(raw.Fields["createdAt"])
		if !ok {
			undated++
		}
		out = append(out, model.Post{
			ID:           raw.ID,
			AuthorID:     stringField(raw.Fields["authorId"]),
			AuthorName:   stringField(raw.Fields["authorName"]),
			Caption:      stringField(raw.Fields["caption"]),
			CreatedAt:    ts,
			HasCreatedAt: ok,
		})
	}
	return out, undated
}

// Reactions normalizes emotion posts the same way as Posts.
func Reactions(raws []model.RawRecord) ([]model.ReactionPost, int) {
	out := make([]model.ReactionPost, 0, len(raws))
	undated := 0
	for _, raw := range raws {
		ts, ok := Timestamp(raw.Fields["createdAt"])
		if !ok {
			undated++
		}
		out = append(out, model.ReactionPost{
			ID:           raw.ID,
			ProfileID:    stringField(raw.Fields["profileId"]),
			Emotion:      stringField(raw.Fields["emotion"]),
			Message:      stringField(raw.Fields["message"]),
			CreatedAt:    ts,
			HasCreatedAt: ok,
		})
	}
	return out, undated
}

// Identities normalizes profile documents the same way as Posts.
func Identities(raws []model.RawRecord) ([]model.Identity, int) {
	out := make([]model.Identity, 0, len(raws))
	undated := 0
	for _, raw := range raws {
		ts, ok := Timestamp(raw.Fields["createdAt"])
		if !ok {
			undated++
		}
		likes, _ := Int(raw.Fields["receivedLikes"])
		followers, _ := Int(raw.Fields["followersCount"])
		out = append(out, model.Identity{
			ID:            raw.ID,
			DisplayName:   firstString(raw.Fields["displayName"], raw.Fields["name"]),
			CreatedAt:     ts,
			HasCreatedAt:  ok,
			ReceivedLikes: likes,
			Followers:     followers,
		})
	}
	return out, undated
}

func location(fields map[string]any) *model.Location {
	lat, okLat := Float(fields["lat"])
	lng, okLng := Float(fields["lng"])
	if !okLat || !okLng {
		return nil
	}
	loc := model.Location{Lat: lat, Lng: lng}
	if !loc.Valid() {
		return nil
	}
	return &loc
}

// active treats anything but an explicit false as active.
func active(v any) bool {
	b, ok := v.(bool)
	return !ok || b
}

func profileSnapshot(raw model.RawRecord, profile map[string]any) model.ProfileSnapshot {
	name := firstString(profile["displayName"], profile["name"])
	if name == "" {
		name = UnknownUser
	}
	id := firstString(raw.Fields["profileId"], profile["id"])
	if id == "" {
		id = raw.ID
	}
	return model.ProfileSnapshot{
		ProfileID:   id,
		DisplayName: name,
		Avatar:      stringField(profile["avatarImageBase64"]),
		Color:       color(profile),
	}
}

func color(profile map[string]any) *int64 {
	for _, key := range []string{"colorValue", "avatarColor"} {
		switch v := profile[key].(type) {
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n != 0 {
				return &n
			}
		default:
			if n, ok := Int(v); ok {
				return &n
			}
		}
	}
	return nil
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

func firstString(values ...any) string {
	for _, v := range values {
		if s := stringField(v); s != "" {
			return s
		}
	}
	return ""
}
