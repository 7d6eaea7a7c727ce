package entity

import (
	"fmt"
	"sort"
	"time"
)

// NowUnixMilli returns current unix timestamp in milliseconds
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// GenDirectKey returns the order-independent key of a 1:1 conversation.
// Format: {min(userA,userB)}:{max(userA,userB)}
func GenDirectKey(userA, userB string) string {
	users := []string{userA, userB}
	sort.Strings(users)
	return fmt.Sprintf("%s:%s", users[0], users[1])
}

// WindowCutoff is the exclusive lower bound for timestamps inside window.
// Presence and typing both derive their state from it.
func WindowCutoff(now int64, window time.Duration) int64 {
	return now - window.Milliseconds()
}
