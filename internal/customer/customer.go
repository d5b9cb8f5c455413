package customer

import "errors"

var (
	ErrEmptyName     = errors.New("customer name cannot be empty")
	ErrDuplicateName = errors.New("customer already exists")
	ErrNotFound      = errors.New("customer not found")
)

// Customer is a billing recipient. Name is the registry key and is never
// case-folded.
type Customer struct {
	Name    string `json:"-"`
	Address string `json:"address"`
	Prefix  string `json:"prefix"`
}
