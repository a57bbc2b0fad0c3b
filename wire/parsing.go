package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var errTooSmall = errors.New("wire message too small")

// ParseMessage decodes one framed message. Unknown versions and types are
// errors; the caller drops the payload and moves on.
func ParseMessage(pkt []byte) (Message, error) {
	if len(pkt) < 2 {
		return nil, errTooSmall
	}

	version := pkt[0]
	msgType := pkt[1]

	body := pkt[2:]

	if VersionMarker(version) != v1 {
		return nil, fmt.Errorf("invalid version: %x", version)
	}

	switch MessageType(msgType) {
	case InputMessage:
		return parseInput(body)
	case BallSyncMessage:
		return parseBallSync(body)
	case ScoreSyncMessage:
		return parseScoreSync(body)
	case PingMessage:
		ts, err := parseU64(body)
		return &Ping{TimestampMS: ts}, err
	case PongMessage:
		ts, err := parseU64(body)
		return &Pong{TimestampMS: ts}, err
	case RematchRequestMessage:
		return &RematchRequest{}, nil
	case RematchConfirmMessage:
		return &RematchConfirm{}, nil
	case QuitNoticeMessage:
		return &QuitNotice{}, nil
	default:
		return nil, fmt.Errorf("invalid message type: %x", msgType)
	}
}

func parseInput(b []byte) (*Input, error) {
	if len(b) < 1 {
		return nil, errTooSmall
	}

	return &Input{Action: b[0]}, nil
}

func parseBallSync(b []byte) (*BallSync, error) {
	if len(b) < 8+4*4 {
		return nil, errTooSmall
	}

	seq := binary.LittleEndian.Uint64(b[:8])
	b = b[8:]

	var f [4]float32
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}

	return &BallSync{Seq: seq, X: f[0], Y: f[1], VX: f[2], VY: f[3]}, nil
}

func parseScoreSync(b []byte) (*ScoreSync, error) {
	if len(b) < 4+4+1 {
		return nil, errTooSmall
	}

	return &ScoreSync{
		Left:     binary.LittleEndian.Uint32(b[:4]),
		Right:    binary.LittleEndian.Uint32(b[4:8]),
		GameOver: b[8] != 0,
	}, nil
}

func parseU64(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, errTooSmall
	}

	return binary.LittleEndian.Uint64(b[:8]), nil
}
