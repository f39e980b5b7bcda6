package realtime

import (
	"sync"
)

// Hub tracks live sessions and the rooms they belong to. A user may hold
// several sessions at once (phone and laptop); each session auto-joins the
// user's identity room on attach and joins conversation rooms explicitly.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	userSessions map[uint64]map[string]*Connection // userID -> sessionID -> connection
	rooms        map[string]map[string]*Connection // room -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of rooms
}

func NewHub() *Hub {
	return &Hub{
		sessions:     make(map[string]*Connection),
		userSessions: make(map[uint64]map[string]*Connection),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers an authenticated connection and joins it to the user's
// identity room.
func (h *Hub) Attach(conn *Connection) {
	h.mu.Lock()
	h.sessions[conn.ID] = conn
	byUser := h.userSessions[conn.UserID]
	if byUser == nil {
		byUser = make(map[string]*Connection)
		h.userSessions[conn.UserID] = byUser
	}
	byUser[conn.ID] = conn
	h.sessionRooms[conn.ID] = make(map[string]struct{})
	h.joinLocked(UserRoom(conn.UserID), conn)
	h.mu.Unlock()

	conn.Start()
}

// Detach removes a connection from every room it joined. Peers are not
// notified; disconnect handling is server-side cleanup only.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[conn.ID]; !ok {
		return
	}
	delete(h.sessions, conn.ID)

	if byUser, ok := h.userSessions[conn.UserID]; ok {
		delete(byUser, conn.ID)
		if len(byUser) == 0 {
			delete(h.userSessions, conn.UserID)
		}
	}

	for room := range h.sessionRooms[conn.ID] {
		h.leaveLocked(room, conn.ID)
	}
	delete(h.sessionRooms, conn.ID)
}

// Join adds the connection to a room. Authorization happens before this call;
// the hub only tracks membership.
func (h *Hub) Join(room string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[conn.ID]; !ok {
		return
	}
	h.joinLocked(room, conn)
}

// Leave removes the connection from a room.
func (h *Hub) Leave(room string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, conn.ID)
}

// InRoom reports whether the connection currently belongs to the room.
func (h *Hub) InRoom(room string, conn *Connection) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessionRooms[conn.ID][room]
	return ok
}

// Deliver writes payload once to every distinct session found across the given
// rooms, skipping sessions owned by excludeUser. Sessions present in more than
// one target room (identity room and conversation room) still receive exactly
// one copy. Returns the number of sessions written to.
func (h *Hub) Deliver(rooms []string, payload []byte, excludeUser uint64) int {
	h.mu.RLock()
	targets := make(map[string]*Connection)
	for _, room := range rooms {
		for id, conn := range h.rooms[room] {
			if excludeUser != 0 && conn.UserID == excludeUser {
				continue
			}
			targets[id] = conn
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Close terminates every tracked connection and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		conns = append(conns, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.userSessions = make(map[uint64]map[string]*Connection)
	h.rooms = make(map[string]map[string]*Connection)
	h.sessionRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close(1001, "server shutdown")
	}
}

func (h *Hub) joinLocked(room string, conn *Connection) {
	members := h.rooms[room]
	if members == nil {
		members = make(map[string]*Connection)
		h.rooms[room] = members
	}
	members[conn.ID] = conn
	h.sessionRooms[conn.ID][room] = struct{}{}
}

func (h *Hub) leaveLocked(room string, sessionID string) {
	members := h.rooms[room]
	if members == nil {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	if memberships, ok := h.sessionRooms[sessionID]; ok {
		delete(memberships, room)
	}
}
