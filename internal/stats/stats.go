// Package stats derives dashboard counters from the bot's collections.
package stats

import (
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/rules"
)

// Stats is a point-in-time snapshot. It is always recomputed, never edited.
type Stats struct {
	ContactCount   int `json:"contactCount"`
	FriendCount    int `json:"friendCount"`
	GroupCount     int `json:"groupCount"`
	AutoReplyCount int `json:"autoReplyCount"`
}

// Compute counts contacts, friends, rooms and rules.
func Compute(contacts []protocol.Contact, rooms []protocol.Room, rs []rules.Rule) Stats {
	friends := 0
	for _, c := range contacts {
		if c.Friend {
			friends++
		}
	}
	return Stats{
		ContactCount:   len(contacts),
		FriendCount:    friends,
		GroupCount:     len(rooms),
		AutoReplyCount: len(rs),
	}
}
