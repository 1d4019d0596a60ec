package models

import "time"

// ServerGroup is a named group defined on the dashboard
type ServerGroup struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServerGroupItem pairs a group with the ids of its member servers
type ServerGroupItem struct {
	Group   ServerGroup `json:"group"`
	Servers []uint64    `json:"servers"`
}

// HasServer reports whether the server id is a member of the group
func (g ServerGroupItem) HasServer(id uint64) bool {
	for _, sid := range g.Servers {
		if sid == id {
			return true
		}
	}
	return false
}
