package blocks

import (
	"time"

	"bountyboard/engine/library"
)

// Kind of a block header event published by a clock oracle.
const Kind = 1517

type Block struct {
	Height     int64
	Hash       library.Sha256
	MedianTime time.Time
	MinerTime  time.Time
	Difficulty int64
	Oracle     library.Account
}

type Mapped map[int64]Block
