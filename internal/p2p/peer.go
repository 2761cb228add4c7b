package p2p

import "fmt"

// Peer is a static network address, compared structurally rather than
// by pointer so peer lists can de-duplicate by value — the Go
// counterpart of network/peer.py's Peer.__eq__/__hash__.
type Peer struct {
	Host string
	Port string
}

func (p Peer) String() string {
	return fmt.Sprintf("%s:%s", p.Host, p.Port)
}

// Address returns the host:port string suitable for net.Dial.
func (p Peer) Address() string {
	return p.String()
}
