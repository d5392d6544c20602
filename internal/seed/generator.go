package seed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/streetpass/internal/adapters/repository"
	"github.com/okian/streetpass/internal/domain/model"
)

// Places presences gather around.
var places = []model.Location{
	{Lat: 35.6580, Lng: 139.7016}, // Shibuya
	{Lat: 35.6896, Lng: 139.7006}, // Shinjuku
	{Lat: 35.7101, Lng: 139.8107}, // Oshiage
	{Lat: 34.7025, Lng: 135.4959}, // Umeda
	{Lat: 35.0116, Lng: 135.7681}, // Kyoto
	{Lat: 43.0618, Lng: 141.3545}, // Sapporo
}

var (
	emotions = []string{"happy", "sad", "excited", "calm", "surprised", "tired"}
	names    = []string{"Aoi", "Haruto", "Yui", "Sota", "Mei", "Ren", "Hina", "Riku", "Sakura", "Yuto"}
	captions = []string{"morning walk", "coffee break", "found a great ramen place", "rainy day", "concert tonight", ""}
)

// Location scatter constants.
const (
	clusterRadiusMeters = 150.0
	metersPerDegreeLat  = 111_320.0
	offlineShare        = 0.3 // presences last seen long before now
	inactiveShare       = 0.05
	recentWindow        = 4 * time.Minute
)

// Dataset maps every catalogued dataset to its generated documents.
type Dataset map[repository.Dataset][]model.RawRecord

// Len returns the total number of documents.
func (d Dataset) Len() int {
	n := 0
	for _, records := range d {
		n += len(records)
	}
	return n
}

type generator struct {
	cfg Config
	rnd *rand.Rand
}

// Generate builds a dataset from cfg. Equal configs give equal datasets.
func Generate(cfg Config) (Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &generator{cfg: cfg, rnd: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))}

	ids := make([]string, cfg.Profiles)
	for i := range ids {
		ids[i] = g.uuid()
	}

	data := Dataset{
		repository.Profiles:  make([]model.RawRecord, 0, cfg.Profiles),
		repository.Presences: make([]model.RawRecord, 0, cfg.Profiles),
		repository.Posts:     make([]model.RawRecord, 0, cfg.Posts),
		repository.Reactions: make([]model.RawRecord, 0, cfg.Reactions),
	}
	for i, id := range ids {
		name := fmt.Sprintf("%s %d", names[i%len(names)], i)
		color := int64(0xFF000000) | g.rnd.Int64N(0xFFFFFF)
		data[repository.Profiles] = append(data[repository.Profiles], g.profile(id, name, color))
		data[repository.Presences] = append(data[repository.Presences], g.presence(id, name, color))
	}
	for i := 0; i < cfg.Posts; i++ {
		data[repository.Posts] = append(data[repository.Posts], g.post(ids, i))
	}
	for i := 0; i < cfg.Reactions; i++ {
		data[repository.Reactions] = append(data[repository.Reactions], g.reaction(ids))
	}
	return data, nil
}

func (g *generator) uuid() string {
	var b [16]byte
	for i := range b {
		b[i] = byte(g.rnd.IntN(256))
	}
	return uuid.Must(uuid.FromBytes(b[:])).String()
}

// past returns an instant up to span before now.
func (g *generator) past(span time.Duration) time.Time {
	return g.cfg.Now.Add(-time.Duration(g.rnd.Int64N(int64(span))))
}

func (g *generator) profile(id, name string, color int64) model.RawRecord {
	return model.RawRecord{ID: id, Fields: map[string]any{
		"displayName":    name,
		"colorValue":     color,
		"createdAt":      g.past(g.cfg.Spread).UTC(),
		"receivedLikes":  g.rnd.IntN(500),
		"followersCount": g.rnd.IntN(200),
	}}
}

// presence places id near one of the clusters. Most presences are fresh,
// so the same cluster yields encounters.
func (g *generator) presence(id, name string, color int64) model.RawRecord {
	center := places[g.rnd.IntN(min(g.cfg.Clusters, len(places)))]
	loc := g.scatter(center)

	seen := g.past(recentWindow)
	if g.rnd.Float64() < offlineShare {
		seen = g.past(24 * time.Hour)
	}
	fields := map[string]any{
		"profileId":     id,
		"lastUpdatedMs": seen.UnixMilli(),
		"lat":           loc.Lat,
		"lng":           loc.Lng,
		"active":        g.rnd.Float64() >= inactiveShare,
		"profile": map[string]any{
			"displayName": name,
			"avatarColor": color,
		},
	}
	if g.rnd.IntN(3) == 0 {
		fields["message"] = captions[g.rnd.IntN(len(captions))]
	}
	return model.RawRecord{ID: "presence-" + id, Fields: fields}
}

// scatter moves center by up to clusterRadiusMeters in a random direction.
func (g *generator) scatter(center model.Location) model.Location {
	r := clusterRadiusMeters * math.Sqrt(g.rnd.Float64())
	theta := 2 * math.Pi * g.rnd.Float64()
	dLat := r * math.Cos(theta) / metersPerDegreeLat
	dLng := r * math.Sin(theta) / (metersPerDegreeLat * math.Cos(center.Lat*math.Pi/180))
	return model.Location{Lat: center.Lat + dLat, Lng: center.Lng + dLng}
}

func (g *generator) post(authors []string, i int) model.RawRecord {
	fields := map[string]any{
		"caption":   captions[g.rnd.IntN(len(captions))],
		"createdAt": g.past(g.cfg.Spread).UTC(),
	}
	if len(authors) > 0 {
		a := g.rnd.IntN(len(authors))
		fields["authorId"] = authors[a]
		fields["authorName"] = fmt.Sprintf("%s %d", names[a%len(names)], a)
	}
	return model.RawRecord{ID: fmt.Sprintf("post-%05d", i), Fields: fields}
}

func (g *generator) reaction(profiles []string) model.RawRecord {
	fields := map[string]any{
		"emotion":   emotions[g.rnd.IntN(len(emotions))],
		"createdAt": g.past(g.cfg.Spread).UTC(),
	}
	if len(profiles) > 0 {
		fields["profileId"] = profiles[g.rnd.IntN(len(profiles))]
	}
	if g.rnd.IntN(2) == 0 {
		fields["message"] = captions[g.rnd.IntN(len(captions))]
	}
	return model.RawRecord{ID: g.uuid(), Fields: fields}
}
