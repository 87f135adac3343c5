package prf

import "fmt"

// Tag identifies the kind of a PRFMessage. The tag set is closed: decoders
// must reject any byte that does not map to one of the constants below
// rather than pass it through.
type Tag uint8

const (
	TagLeaderMs1 Tag = iota + 1
	TagFollowerMs1
	TagLeaderMs2
	TagFollowerMs2
	TagLeaderMs3
	TagLeaderKe1
	TagFollowerKe1
	TagLeaderKe2
	TagFollowerKe2
	TagLeaderCf1
	TagFollowerCf1
	TagLeaderCf2
	TagFollowerCf2
	TagLeaderSf1
	TagFollowerSf1
	TagLeaderSf2
	TagFollowerSf2
)

var tagNames = map[Tag]string{
	TagLeaderMs1:   "LeaderMs1",
	TagFollowerMs1: "FollowerMs1",
	TagLeaderMs2:   "LeaderMs2",
	TagFollowerMs2: "FollowerMs2",
	TagLeaderMs3:   "LeaderMs3",
	TagLeaderKe1:   "LeaderKe1",
	TagFollowerKe1: "FollowerKe1",
	TagLeaderKe2:   "LeaderKe2",
	TagFollowerKe2: "FollowerKe2",
	TagLeaderCf1:   "LeaderCf1",
	TagFollowerCf1: "FollowerCf1",
	TagLeaderCf2:   "LeaderCf2",
	TagFollowerCf2: "FollowerCf2",
	TagLeaderSf1:   "LeaderSf1",
	TagFollowerSf1: "FollowerSf1",
	TagLeaderSf2:   "LeaderSf2",
	TagFollowerSf2: "FollowerSf2",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Valid reports whether t is one of the seventeen known wire tags.
func (t Tag) Valid() bool {
	_, ok := tagNames[t]
	return ok
}

// Message is a single tagged unit on the wire between Leader and Follower.
// Payload shapes are fixed-size HMAC-SHA-256 intermediates and P-HASH
// outputs per TLS 1.2 section 5; this package does not interpret them.
type Message struct {
	Tag     Tag
	Payload []byte
}

func (m Message) String() string {
	return fmt.Sprintf("%s(%d bytes)", m.Tag, len(m.Payload))
}
