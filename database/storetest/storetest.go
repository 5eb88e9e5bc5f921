// Package storetest provides in-memory implementations of the database store
// interfaces for use in tests.
package storetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/stationlab/weatherapi/database"
	"github.com/stationlab/weatherapi/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrInjected is returned by a store whose Fail field is set.
var ErrInjected = errors.New("storetest: injected failure")

func cloneUser(u models.User) *models.User {
	if u.AuthToken != nil {
		tok := *u.AuthToken
		u.AuthToken = &tok
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return &u
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

// Users is an in-memory database.UserStore.
type Users struct {
	mu    sync.Mutex
	byID  map[bson.ObjectID]models.User
	order []bson.ObjectID

	// Fail makes every call return ErrInjected.
	Fail bool
	// Lookups counts calls to FindByToken.
	Lookups int
}

func NewUsers() *Users {
	return &Users{byID: make(map[bson.ObjectID]models.User)}
}

var _ database.UserStore = (*Users)(nil)

// Put stores a user directly, bypassing any checks.
func (s *Users) Put(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	if _, ok := s.byID[u.ID]; !ok {
		s.order = append(s.order, u.ID)
	}
	s.byID[u.ID] = *cloneUser(u)
	return cloneUser(u)
}

// Get returns a copy of the stored user, or nil.
func (s *Users) Get(id bson.ObjectID) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

func (s *Users) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Users) find(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	for _, id := range s.order {
		if u, ok := s.byID[id]; ok && match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *Users) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.ID == id })
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *Users) FindByToken(_ context.Context, token string) (*models.User, error) {
	s.mu.Lock()
	s.Lookups++
	s.mu.Unlock()
	if token == "" {
		return nil, database.ErrNotFound
	}
	return s.find(func(u models.User) bool { return u.AuthToken != nil && *u.AuthToken == token })
}

func (s *Users) Insert(_ context.Context, user *models.User) (bson.ObjectID, error) {
	if s.Fail {
		return bson.NilObjectID, ErrInjected
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	s.Put(*user)
	return user.ID, nil
}

func (s *Users) Replace(_ context.Context, id bson.ObjectID, user *models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return 0, ErrInjected
	}
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	user.ID = id
	s.byID[id] = *cloneUser(*user)
	return 1, nil
}

func (s *Users) Delete(_ context.Context, id bson.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return 0, ErrInjected
	}
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	delete(s.byID, id)
	return 1, nil
}

func (s *Users) DeleteMany(ctx context.Context, ids []bson.ObjectID) (int64, error) {
	var n int64
	for _, id := range ids {
		d, err := s.Delete(ctx, id)
		if err != nil {
			return n, err
		}
		n += d
	}
	return n, nil
}

func (s *Users) List(_ context.Context, filter database.UserFilter, page, limit int) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, 0, ErrInjected
	}
	all := make([]models.User, 0)
	for _, id := range s.order {
		u, ok := s.byID[id]
		if !ok || (filter.Role != "" && u.Role != filter.Role) {
			continue
		}
		all = append(all, *cloneUser(u))
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (s *Users) SetRoleCreatedBetween(_ context.Context, from, to time.Time, role models.Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return 0, ErrInjected
	}
	var n int64
	for id, u := range s.byID {
		if inRange(u.CreatedAt, from, to) && u.Role != role {
			u.Role = role
			s.byID[id] = u
			n++
		}
	}
	return n, nil
}

func (s *Users) FindStudentsLastLoginBetween(_ context.Context, from, to time.Time) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	out := make([]models.User, 0)
	for _, id := range s.order {
		u, ok := s.byID[id]
		if ok && u.Role == models.RoleStudent && u.LastLogin != nil && inRange(*u.LastLogin, from, to) {
			out = append(out, *cloneUser(u))
		}
	}
	return out, nil
}

// Changelog is an in-memory database.Archiver.
type Changelog struct {
	mu      sync.Mutex
	Entries []models.ChangelogEntry
	Fail    bool
}

var _ database.Archiver = (*Changelog)(nil)

func (c *Changelog) Archive(_ context.Context, entry *models.ChangelogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail {
		return ErrInjected
	}
	c.Entries = append(c.Entries, *entry)
	return nil
}

// Readings is an in-memory database.ReadingStore.
type Readings struct {
	mu    sync.Mutex
	byID  map[bson.ObjectID]models.Reading
	order []bson.ObjectID

	Fail bool
	// LastSince records the lower bound passed to MaxPrecipitation.
	LastSince time.Time
}

func NewReadings() *Readings {
	return &Readings{byID: make(map[bson.ObjectID]models.Reading)}
}

var _ database.ReadingStore = (*Readings)(nil)

func (s *Readings) put(r models.Reading) bson.ObjectID {
	if r.ID.IsZero() {
		r.ID = bson.NewObjectID()
	}
	if _, ok := s.byID[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.byID[r.ID] = r
	return r.ID
}

func (s *Readings) Get(id bson.ObjectID) *models.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil
	}
	return &r
}

func (s *Readings) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Readings) Insert(_ context.Context, reading *models.Reading) (bson.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return bson.NilObjectID, ErrInjected
	}
	reading.ID = s.put(*reading)
	return reading.ID, nil
}

func (s *Readings) InsertMany(_ context.Context, readings []models.Reading) ([]bson.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	ids := make([]bson.ObjectID, len(readings))
	for i := range readings {
		readings[i].ID = s.put(readings[i])
		ids[i] = readings[i].ID
	}
	return ids, nil
}

func (s *Readings) FindByID(_ context.Context, id bson.ObjectID) (*models.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	r, ok := s.byID[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &r, nil
}

func (s *Readings) matching(match func(models.Reading) bool) []models.Reading {
	out := make([]models.Reading, 0)
	for _, id := range s.order {
		if r, ok := s.byID[id]; ok && match(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Readings) FindAt(_ context.Context, deviceName string, at time.Time) (*models.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	found := s.matching(func(r models.Reading) bool {
		return r.DeviceName == deviceName && r.Time.Equal(at)
	})
	if len(found) == 0 {
		return nil, database.ErrNotFound
	}
	return &found[0], nil
}

func (s *Readings) List(_ context.Context, f database.ReadingFilter, page, limit int) ([]models.Reading, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, 0, ErrInjected
	}
	all := s.matching(func(r models.Reading) bool {
		if f.DeviceName != "" && r.DeviceName != f.DeviceName {
			return false
		}
		if f.From != nil && r.Time.Before(*f.From) {
			return false
		}
		if f.To != nil && r.Time.After(*f.To) {
			return false
		}
		return true
	})
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time.After(all[j].Time) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (s *Readings) MaxPrecipitation(_ context.Context, deviceName string, since time.Time) (*models.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	s.LastSince = since
	var best *models.Reading
	for _, r := range s.matching(func(r models.Reading) bool {
		return r.DeviceName == deviceName && !r.Time.Before(since)
	}) {
		if best == nil || r.Precipitation > best.Precipitation {
			r := r
			best = &r
		}
	}
	if best == nil {
		return nil, database.ErrNotFound
	}
	return best, nil
}

func (s *Readings) MaxTemperatureByDevice(_ context.Context, from, to time.Time) ([]models.StationMax, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	best := make(map[string]models.StationMax)
	for _, r := range s.matching(func(r models.Reading) bool { return inRange(r.Time, from, to) }) {
		cur, ok := best[r.DeviceName]
		if !ok || r.Temperature > cur.Temperature {
			best[r.DeviceName] = models.StationMax{DeviceName: r.DeviceName, Temperature: r.Temperature, Time: r.Time}
		}
	}
	out := make([]models.StationMax, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceName < out[j].DeviceName })
	return out, nil
}

func (s *Readings) Replace(_ context.Context, id bson.ObjectID, reading *models.Reading) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return 0, ErrInjected
	}
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	reading.ID = id
	s.byID[id] = *reading
	return 1, nil
}

func (s *Readings) SetPrecipitation(_ context.Context, id bson.ObjectID, value float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return 0, ErrInjected
	}
	r, ok := s.byID[id]
	if !ok {
		return 0, nil
	}
	r.Precipitation = value
	s.byID[id] = r
	return 1, nil
}

func (s *Readings) Delete(_ context.Context, id bson.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return 0, ErrInjected
	}
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	delete(s.byID, id)
	return 1, nil
}

func paginate[T any](all []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(all) || start < 0 {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
