package controllers

import (
	"github.com/go-chi/chi/v5"

	"github.com/rzbill/blocklog/internal/runtime"
	logpkg "github.com/rzbill/blocklog/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	cursors *CursorsController
}

// NewControllerRegistry initializes all controllers over rt.
func NewControllerRegistry(rt *runtime.Runtime, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		cursors: NewCursorsController(rt.CursorStore(), logger),
	}
}

// RegisterAllRoutes registers every controller's routes on r.
func (reg *ControllerRegistry) RegisterAllRoutes(r chi.Router) {
	reg.general.RegisterRoutes(r)
	reg.cursors.RegisterRoutes(r)
}
