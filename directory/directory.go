// Package directory keeps the list of rooms players can browse and join, and
// the ways a room host pushes its occupancy into that list.
package directory

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
)

// Status is the lifecycle state advertised for a room
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
)

// Room defaults
const (
	DefaultRoomName   = "Local Room"
	DefaultMaxPlayers = 4
	MinMaxPlayers     = 2
	MaxMaxPlayers     = 8
	DefaultPing       = 1
)

// RoomInfo is one directory entry
type RoomInfo struct {
	RoomID      string `json:"roomId"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Region      string `json:"region"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Private     bool   `json:"private"`
	Status      Status `json:"status"`
	Ping        int    `json:"ping"`
}

// CreateRoomRequest is the body of POST /rooms
type CreateRoomRequest struct {
	Name       string `json:"name"`
	Region     string `json:"region"`
	MaxPlayers int    `json:"maxPlayers"`
	Private    bool   `json:"private"`
	AccessCode string `json:"accessCode"`
}

// CreateRoomResponse is returned by POST /rooms
type CreateRoomResponse struct {
	RoomID  string `json:"roomId"`
	Address string `json:"address"`
}

// Heartbeat is the occupancy a room host reports for one room
type Heartbeat struct {
	RoomID      string `json:"roomId"`
	Address     string `json:"address"`
	Region      string `json:"region"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Status      Status `json:"status"`
}

// Publisher receives room occupancy from a room host
type Publisher interface {
	Publish(ctx context.Context, hb Heartbeat) error
	Remove(ctx context.Context, roomID string) error
}

type entry struct {
	info       RoomInfo
	accessCode string
	updated    time.Time
}

// Directory is an in-memory room list safe for concurrent use
type Directory struct {
	mu      deadlock.RWMutex
	rooms   map[string]*entry
	address string
	region  string
	now     func() time.Time
}

// New creates a directory whose created rooms point at address in region
func New(address, region string) *Directory {
	return &Directory{
		rooms:   make(map[string]*entry),
		address: address,
		region:  region,
		now:     time.Now,
	}
}

// List returns every room sorted by name, then ID
func (d *Directory) List() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]RoomInfo, 0, len(d.rooms))
	for _, e := range d.rooms {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].RoomID < out[j].RoomID
	})
	return out
}

// Get returns one room
func (d *Directory) Get(id string) (RoomInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.rooms[id]
	if !ok {
		return RoomInfo{}, false
	}
	return e.info, true
}

// Create registers a new waiting room
func (d *Directory) Create(req CreateRoomRequest) CreateRoomResponse {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DefaultRoomName
	}
	region := strings.TrimSpace(req.Region)
	if region == "" {
		region = d.region
	}
	maxPlayers := req.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = DefaultMaxPlayers
	}
	maxPlayers = min(max(maxPlayers, MinMaxPlayers), MaxMaxPlayers)

	info := RoomInfo{
		RoomID:     uuid.NewString(),
		Name:       name,
		Address:    d.address,
		Region:     region,
		MaxPlayers: maxPlayers,
		Private:    req.Private,
		Status:     StatusWaiting,
		Ping:       DefaultPing,
	}

	d.mu.Lock()
	d.rooms[info.RoomID] = &entry{info: info, accessCode: req.AccessCode, updated: d.now()}
	d.mu.Unlock()

	return CreateRoomResponse{RoomID: info.RoomID, Address: info.Address}
}

// Delete removes a room and reports whether it existed
func (d *Directory) Delete(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[id]; !ok {
		return false
	}
	delete(d.rooms, id)
	return true
}

// Upsert stores info as is, replacing any entry with the same ID
func (d *Directory) Upsert(info RoomInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.rooms[info.RoomID]; ok {
		e.info = info
		e.updated = d.now()
		return
	}
	d.rooms[info.RoomID] = &entry{info: info, updated: d.now()}
}

// Heartbeat updates the occupancy of a room. A room the directory has not
// seen is added with default name and visibility.
func (d *Directory) Heartbeat(hb Heartbeat) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.rooms[hb.RoomID]
	if !ok {
		e = &entry{info: RoomInfo{
			RoomID:     hb.RoomID,
			Name:       DefaultRoomName,
			Address:    d.address,
			Region:     d.region,
			MaxPlayers: DefaultMaxPlayers,
			Ping:       DefaultPing,
		}}
		d.rooms[hb.RoomID] = e
	}
	if hb.Address != "" {
		e.info.Address = hb.Address
	}
	if hb.Region != "" {
		e.info.Region = hb.Region
	}
	if hb.MaxPlayers > 0 {
		e.info.MaxPlayers = hb.MaxPlayers
	}
	e.info.PlayerCount = hb.PlayerCount
	e.info.Status = hb.Status
	if e.info.Status == "" {
		e.info.Status = StatusWaiting
		if hb.PlayerCount > 0 {
			e.info.Status = StatusRunning
		}
	}
	e.updated = d.now()
}

// Prune removes rooms without a heartbeat or update for longer than maxAge
// and returns how many were removed.
func (d *Directory) Prune(maxAge time.Duration) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := d.now().Add(-maxAge)
	n := 0
	for id, e := range d.rooms {
		if e.updated.Before(cutoff) {
			delete(d.rooms, id)
			n++
		}
	}
	return n
}

// Run prunes stale rooms every interval until ctx is done
func (d *Directory) Run(ctx context.Context, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.Prune(maxAge); n > 0 {
				log.Printf("Pruned %d stale rooms", n)
			}
		}
	}
}

// Publish implements Publisher for a room host running in the same process
func (d *Directory) Publish(_ context.Context, hb Heartbeat) error {
	d.Heartbeat(hb)
	return nil
}

// Remove implements Publisher
func (d *Directory) Remove(_ context.Context, roomID string) error {
	d.Delete(roomID)
	return nil
}
