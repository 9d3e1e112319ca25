package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/JeanCalmon10/madr/internal/config"
	"github.com/JeanCalmon10/madr/internal/domain/book"
	"github.com/JeanCalmon10/madr/internal/utils"
	"github.com/gin-gonic/gin"
)

type BooksStore interface {
	Create(ctx context.Context, title string, year int, romancistID int64) (book.Book, error)
	GetByID(ctx context.Context, id int64) (book.Book, error)
	Update(ctx context.Context, id int64, title *string, year *int, romancistID *int64) (book.Book, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter book.ListBooksFilter) ([]book.Book, int, error)
}

type BooksHandler struct {
	store BooksStore
}

func NewBooksHandler(store BooksStore) *BooksHandler {
	return &BooksHandler{store: store}
}

const defaultBooksLimit = 20

func (h *BooksHandler) Create(ctx *gin.Context) {
	var req book.CreateBookRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	b, err := h.store.Create(cctx, utils.SanitizeName(req.Title), req.Year, req.RomancistID)

	if err != nil {
		switch {
		case errors.Is(err, book.ErrTitleTaken):
			RespondConflict(ctx, "Book already exists")
		case errors.Is(err, book.ErrRomancistMissing):
			RespondBadRequest(ctx, "Romancist does not exist", nil)
		default:
			RespondInternal(ctx, "Could not create book")
		}
		return
	}

	ctx.JSON(http.StatusCreated, b)
}

func (h *BooksHandler) Get(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	b, err := h.store.GetByID(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			RespondNotFound(ctx, "Book not found")
			return
		}
		RespondInternal(ctx, "Could not fetch book")
		return
	}

	ctx.JSON(http.StatusOK, b)
}

func (h *BooksHandler) Update(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req book.UpdateBookRequest

	if !BindJSON(ctx, &req) {
		return
	}

	var title *string

	if req.Title != nil {
		sanitized := utils.SanitizeName(*req.Title)
		title = &sanitized
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	b, err := h.store.Update(cctx, id, title, req.Year, req.RomancistID)

	if err != nil {
		switch {
		case errors.Is(err, book.ErrNotFound):
			RespondNotFound(ctx, "Book not found")
		case errors.Is(err, book.ErrTitleTaken):
			RespondConflict(ctx, "Book with this title already exists")
		case errors.Is(err, book.ErrRomancistMissing):
			RespondBadRequest(ctx, "Romancist does not exist. Cannot update book with non-existent romancist.", nil)
		default:
			RespondInternal(ctx, "Could not update book")
		}
		return
	}

	ctx.JSON(http.StatusOK, b)
}

func (h *BooksHandler) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.store.Delete(cctx, id); err != nil {
		if errors.Is(err, book.ErrNotFound) {
			RespondNotFound(ctx, "Book not found")
			return
		}
		RespondInternal(ctx, "Could not delete book")
		return
	}

	RespondMessage(ctx, "Book deleted successfully")
}

func (h *BooksHandler) List(ctx *gin.Context) {
	filter := book.ListBooksFilter{
		Limit:  queryInt(ctx, "limit", defaultBooksLimit),
		Offset: queryInt(ctx, "skip", 0),
	}

	if title := ctx.Query("title"); title != "" {
		filter.Title = &title
	}

	if yearStr := ctx.Query("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			filter.Year = &year
		}
	}

	books, _, err := h.store.List(ctx.Request.Context(), filter)

	if err != nil {
		RespondInternal(ctx, "Could not list books")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"books": books})
}
