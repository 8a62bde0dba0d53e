package routers

import (
	"maternity-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachResourceRoutes(router chi.Router, resourceController *controllers.ResourceController) {
	router.Post("/{resourceType}", resourceController.Create)
	router.Get("/{resourceType}", resourceController.Search)
	router.Get("/{resourceType}/{id}", resourceController.Read)
	router.Put("/{resourceType}/{id}", resourceController.Update)
	router.Delete("/{resourceType}/{id}", resourceController.Delete)
}
