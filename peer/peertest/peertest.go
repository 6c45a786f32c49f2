// Package peertest provides helpers for testing WIPC peers against
// each other without a real transport.
package peertest

import (
	"net"

	"github.com/JairusSW/wipc/codec"
	"github.com/JairusSW/wipc/peer"
)

// NewPair returns two started peers joined by an in-memory transport.
// Register handlers before sending; frames arriving for an
// unregistered type are dropped.
func NewPair(c codec.Codec) (*peer.Peer, *peer.Peer) {
	an, bn := net.Pipe()
	a := peer.New(an, c)
	b := peer.New(bn, c)
	a.Start(nil)
	b.Start(nil)
	return a, b
}
