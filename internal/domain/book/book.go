package book

import "errors"

type Book struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Year        int    `json:"year"`
	RomancistID int64  `json:"romancist_id"`
}

var (
	ErrNotFound         = errors.New("book not found")
	ErrTitleTaken       = errors.New("book title already exists")
	ErrRomancistMissing = errors.New("romancist does not exist")
)

type CreateBookRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=300"`
	Year        int    `json:"year" binding:"required,min=1,max=2100"`
	RomancistID int64  `json:"romancist_id" binding:"required,min=1"`
}

type UpdateBookRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=300"`
	Year        *int    `json:"year" binding:"omitempty,min=1,max=2100"`
	RomancistID *int64  `json:"romancist_id" binding:"omitempty,min=1"`
}

type ListBooksFilter struct {
	Title  *string
	Year   *int
	Limit  int
	Offset int
}
