package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/JeanCalmon10/madr/internal/config"
	"github.com/JeanCalmon10/madr/internal/domain/romancist"
	"github.com/JeanCalmon10/madr/internal/utils"
	"github.com/gin-gonic/gin"
)

type RomancistsStore interface {
	Create(ctx context.Context, name string) (romancist.Romancist, error)
	GetByID(ctx context.Context, id int64) (romancist.Romancist, error)
	Update(ctx context.Context, id int64, name *string) (romancist.Romancist, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter romancist.ListRomancistsFilter) ([]romancist.Romancist, int, error)
}

type RomancistsHandler struct {
	store RomancistsStore
}

func NewRomancistsHandler(store RomancistsStore) *RomancistsHandler {
	return &RomancistsHandler{store: store}
}

const defaultRomancistsLimit = 10

func (h *RomancistsHandler) Create(ctx *gin.Context) {
	var req romancist.CreateRomancistRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	rom, err := h.store.Create(cctx, utils.SanitizeName(req.Name))

	if err != nil {
		if errors.Is(err, romancist.ErrAlreadyListed) {
			RespondConflict(ctx, "Romancist is already listed in MADR")
			return
		}
		RespondInternal(ctx, "Could not create romancist")
		return
	}

	ctx.JSON(http.StatusCreated, rom)
}

func (h *RomancistsHandler) Get(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	rom, err := h.store.GetByID(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, romancist.ErrNotFound) {
			RespondNotFound(ctx, "Romancist is not listed in MADR")
			return
		}
		RespondInternal(ctx, "Could not fetch romancist")
		return
	}

	ctx.JSON(http.StatusOK, rom)
}

func (h *RomancistsHandler) Update(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req romancist.UpdateRomancistRequest

	if !BindJSON(ctx, &req) {
		return
	}

	var name *string

	if req.Name != nil {
		sanitized := utils.SanitizeName(*req.Name)
		name = &sanitized
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	rom, err := h.store.Update(cctx, id, name)

	if err != nil {
		switch {
		case errors.Is(err, romancist.ErrNotFound):
			RespondNotFound(ctx, "Romancist is not listed in MADR")
		case errors.Is(err, romancist.ErrAlreadyListed):
			RespondConflict(ctx, "Romancist is already listed in MADR")
		default:
			RespondInternal(ctx, "Could not update romancist")
		}
		return
	}

	ctx.JSON(http.StatusOK, rom)
}

func (h *RomancistsHandler) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.store.Delete(cctx, id); err != nil {
		if errors.Is(err, romancist.ErrNotFound) {
			RespondNotFound(ctx, "Romancist is not listed in MADR")
			return
		}
		RespondInternal(ctx, "Could not delete romancist")
		return
	}

	RespondMessage(ctx, "Romancist deleted successfully")
}

func (h *RomancistsHandler) List(ctx *gin.Context) {
	filter := romancist.ListRomancistsFilter{
		Limit:  queryInt(ctx, "limit", defaultRomancistsLimit),
		Offset: queryInt(ctx, "skip", 0),
	}

	if name := ctx.Query("name"); name != "" {
		filter.Name = &name
	}

	romancists, _, err := h.store.List(ctx.Request.Context(), filter)

	if err != nil {
		RespondInternal(ctx, "Could not list romancists")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"romancists": romancists})
}

func queryInt(ctx *gin.Context, key string, fallback int) int {
	v := ctx.Query(key)

	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)

	if err != nil || n < 0 {
		return fallback
	}

	return n
}
