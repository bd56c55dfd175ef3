package utils

import (
	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

const connIDLength = 20

var connIDGen = mustGenerator(connIDLength)

func mustGenerator(length int) func() string {
	gen, err := nanoid.Standard(length)
	if err != nil {
		panic(err)
	}
	return gen
}

// NewID returns a fresh connection handle.
func NewID() string {
	return connIDGen()
}

// NewRoomID returns a fresh room identifier (UUID v4).
func NewRoomID() string {
	return uuid.NewString()
}
