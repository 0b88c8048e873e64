package brain

import (
	"encoding/json"
	"errors"
	"fmt"

	"evotac/agent"
)

const CurrentCodecVersion = 1

var ErrVersionMismatch = errors.New("brain codec version mismatch")

type record struct {
	CodecVersion int      `json:"codec_version"`
	Network      *Network `json:"network"`
}

func (n *Network) MarshalBinary() ([]byte, error) {
	return json.Marshal(record{CodecVersion: CurrentCodecVersion, Network: n})
}

// Decode implements agent.Decoder for networks written by MarshalBinary.
func Decode(data []byte) (agent.Brain, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.CodecVersion != CurrentCodecVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, r.CodecVersion, CurrentCodecVersion)
	}
	if r.Network == nil {
		return nil, errors.New("brain record has no network")
	}
	if err := r.Network.validate(); err != nil {
		return nil, err
	}
	return r.Network, nil
}
