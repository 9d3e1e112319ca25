package romancist

import "errors"

type Romancist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

var (
	ErrNotFound      = errors.New("romancist not found")
	ErrAlreadyListed = errors.New("romancist already listed")
)

type CreateRomancistRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

type UpdateRomancistRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=200"`
}

// with pointers if optional, it will be nil
type ListRomancistsFilter struct {
	Name   *string
	Limit  int
	Offset int
}
