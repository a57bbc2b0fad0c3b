// Package wire contains game message definitions and parsing methods, to be carried over the peer pubsub channel.
//
// Message interface definitions are sealed within this package.
//
// The channel provides no ordering or delivery guarantee and may duplicate;
// the codec only tags and packs. Staleness handling belongs to the sync layer,
// which uses the BallSync sequence number for it.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

type VersionMarker byte

const v1 = VersionMarker(0x1)

type MessageType byte

const (
	InputMessage          = MessageType(0x00)
	BallSyncMessage       = MessageType(0x01)
	ScoreSyncMessage      = MessageType(0x02)
	PingMessage           = MessageType(0x03)
	PongMessage           = MessageType(0x04)
	RematchRequestMessage = MessageType(0x05)
	RematchConfirmMessage = MessageType(0x06)
	QuitNoticeMessage     = MessageType(0x07)
)

// Wire layout: Version (1) + Type (1) + fixed-width little-endian payload.

type Message interface {
	MarshalWire() []byte

	// Debug returns a short lower-case description for logging.
	Debug() string
}

func header(t MessageType) []byte {
	return []byte{byte(v1), byte(t)}
}

// Input carries one paddle action from the peer that owns it.
type Input struct {
	Action uint8
}

func (i *Input) MarshalWire() []byte {
	return append(header(InputMessage), i.Action)
}

func (i *Input) Debug() string {
	return fmt.Sprintf("input action=%d", i.Action)
}

// BallSync is the host's authoritative ball sample.
//
// Seq increases by one per sample; receivers drop any sample whose Seq is not
// greater than the last applied one.
type BallSync struct {
	Seq uint64

	X, Y   float32
	VX, VY float32
}

func (b *BallSync) MarshalWire() []byte {
	buf := make([]byte, 2, 2+8+4*4)
	copy(buf, header(BallSyncMessage))
	buf = binary.LittleEndian.AppendUint64(buf, b.Seq)
	for _, f := range []float32{b.X, b.Y, b.VX, b.VY} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func (b *BallSync) Debug() string {
	return fmt.Sprintf("ballsync seq=%d pos=(%.1f,%.1f) vel=(%.1f,%.1f)", b.Seq, b.X, b.Y, b.VX, b.VY)
}

// ScoreSync is authoritative; receivers apply it unconditionally.
type ScoreSync struct {
	Left, Right uint32

	GameOver bool
}

func (s *ScoreSync) MarshalWire() []byte {
	buf := make([]byte, 2, 2+4+4+1)
	copy(buf, header(ScoreSyncMessage))
	buf = binary.LittleEndian.AppendUint32(buf, s.Left)
	buf = binary.LittleEndian.AppendUint32(buf, s.Right)
	var over byte
	if s.GameOver {
		over = 1
	}
	return append(buf, over)
}

func (s *ScoreSync) Debug() string {
	return fmt.Sprintf("scoresync left=%d right=%d over=%v", s.Left, s.Right, s.GameOver)
}

// Ping requests an echo for RTT measurement. TimestampMS is sender-local.
type Ping struct {
	TimestampMS uint64
}

func (p *Ping) MarshalWire() []byte {
	return binary.LittleEndian.AppendUint64(header(PingMessage), p.TimestampMS)
}

func (p *Ping) Debug() string {
	return fmt.Sprintf("ping ts=%d", p.TimestampMS)
}

// Pong echoes a Ping's timestamp back unchanged.
type Pong struct {
	TimestampMS uint64
}

func (p *Pong) MarshalWire() []byte {
	return binary.LittleEndian.AppendUint64(header(PongMessage), p.TimestampMS)
}

func (p *Pong) Debug() string {
	return fmt.Sprintf("pong ts=%d", p.TimestampMS)
}

// RematchRequest signals the sender wants a rematch after game over.
type RematchRequest struct{}

func (r *RematchRequest) MarshalWire() []byte {
	return header(RematchRequestMessage)
}

func (r *RematchRequest) Debug() string {
	return "rematch-request"
}

// RematchConfirm acknowledges a RematchRequest; both sides reset on it.
type RematchConfirm struct{}

func (r *RematchConfirm) MarshalWire() []byte {
	return header(RematchConfirmMessage)
}

func (r *RematchConfirm) Debug() string {
	return "rematch-confirm"
}

// QuitNotice is a graceful goodbye; the receiver ends the match.
type QuitNotice struct{}

func (q *QuitNotice) MarshalWire() []byte {
	return header(QuitNoticeMessage)
}

func (q *QuitNotice) Debug() string {
	return "quit-notice"
}
