package core

import "sync"

const (
	clientCommandBuffer = 16
	clientEventBuffer   = 64
)

// Client is one live connection as seen by the core layer.
// ID is the connection handle; the durable user is resolved through the Directory.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, clientCommandBuffer),
		Events:   make(chan *Event, clientEventBuffer),
	}
}

// closeCommands ends the command stream; the hub then runs the disconnect
// transition after every command already queued.
func (c *Client) closeCommands() {
	c.closeOnce.Do(func() {
		close(c.Commands)
	})
}
