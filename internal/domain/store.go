package domain

import "errors"

// ErrNotFound is returned by stores when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// LayoutStore is the persistence interface for layouts and their blocks.
type LayoutStore interface {
	LoadLayout(project string) (*Layout, error)
	SaveLayout(layout *Layout) error
	CreateBlock(project string, block *Block) error
	UpdateBlock(project string, block *Block) error
	DeleteBlock(project, blockID string) error
	ListProjects() ([]string, error)
}
