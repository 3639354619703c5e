package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"github.com/rzbill/blocklog/internal/blobstore"
	"github.com/rzbill/blocklog/internal/wal"
	logpkg "github.com/rzbill/blocklog/pkg/log"
)

// CursorsController exposes the cursor store over HTTP. Versions travel in
// the ETag header; writes are conditional on If-None-Match or If-Match.
type CursorsController struct {
	store  *wal.CursorStore
	logger logpkg.Logger
}

// NewCursorsController creates a cursors controller.
func NewCursorsController(store *wal.CursorStore, logger logpkg.Logger) *CursorsController {
	return &CursorsController{store: store, logger: logger}
}

// RegisterRoutes registers the /v1/cursors routes.
func (c *CursorsController) RegisterRoutes(r chi.Router) {
	r.Route("/v1/cursors", func(r chi.Router) {
		r.Get("/", c.handleList)
		r.Get("/{name}", c.handleGet)
		r.Put("/{name}", c.handlePut)
	})
}

func (c *CursorsController) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := c.store.List(r.Context())
	if err != nil {
		c.writeStoreError(w, "list", err)
		return
	}
	resp := listCursorsResp{Cursors: make([]string, 0, len(names))}
	for _, n := range names {
		resp.Cursors = append(resp.Cursors, n.String())
	}
	writeJSON(w, resp)
}

func (c *CursorsController) handleGet(w http.ResponseWriter, r *http.Request) {
	name, ok := wal.NewCursorName(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cursor name")
		return
	}
	witness, err := c.store.Load(r.Context(), name)
	if err != nil {
		c.writeStoreError(w, "load", err)
		return
	}
	writeWitness(w, http.StatusOK, witness)
}

// handlePut initializes the cursor under If-None-Match: * and saves it under
// If-Match: <etag>. A PUT carrying neither is refused with 428.
func (c *CursorsController) handlePut(w http.ResponseWriter, r *http.Request) {
	name, ok := wal.NewCursorName(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cursor name")
		return
	}
	var cursor wal.Cursor
	if err := json.NewDecoder(r.Body).Decode(&cursor); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		witness wal.Witness
		err     error
		status  = http.StatusOK
	)
	switch ifMatch := r.Header.Get("If-Match"); {
	case r.Header.Get("If-None-Match") == "*":
		witness, err = c.store.Init(r.Context(), name, cursor)
		status = http.StatusCreated
	case ifMatch != "":
		witness, err = c.store.Save(r.Context(), name, cursor, wal.WitnessFromETag(parseETag(ifMatch), cursor))
	default:
		writeError(w, http.StatusPreconditionRequired, "If-Match or If-None-Match: * is required")
		return
	}
	if err != nil {
		c.writeStoreError(w, "put", err)
		return
	}
	writeWitness(w, status, witness)
}

func writeWitness(w http.ResponseWriter, status int, witness wal.Witness) {
	w.Header().Set("ETag", quoteETag(witness.ETag()))
	writeJSONStatus(w, status, witness.Cursor())
}

func (c *CursorsController) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, wal.ErrConflictOnCreate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, wal.ErrConflictOnUpdate):
		writeError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, blobstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "cursor not found")
	case errors.Is(err, wal.ErrCorruptCursor):
		c.logger.Error("corrupt cursor", logpkg.Str("op", op), logpkg.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		c.logger.Error("cursor request failed", logpkg.Str("op", op), logpkg.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
