// Package lobby pairs connections into matches: the quick-match queue and private rooms.
package lobby

// Pairing is two connections about to share a session.
type Pairing struct {
	White string
	Black string
	Token string
}

// Queue holds at most one connection waiting for an anonymous opponent.
type Queue struct {
	waiting string
}

func NewQueue() *Queue {
	return &Queue{}
}

// Offer - pairs connID with the waiting connection, or makes it the waiting one.
// The connection that waited plays white.
func (that *Queue) Offer(connID string) (Pairing, bool) {
	if that.waiting == "" || that.waiting == connID {
		that.waiting = connID
		return Pairing{}, false
	}

	pairing := Pairing{White: that.waiting, Black: connID}
	that.waiting = ""

	return pairing, true
}

// Remove - drops connID if it is waiting.
func (that *Queue) Remove(connID string) bool {
	if that.waiting != connID || connID == "" {
		return false
	}

	that.waiting = ""

	return true
}

func (that *Queue) Waiting() (string, bool) {
	return that.waiting, that.waiting != ""
}
