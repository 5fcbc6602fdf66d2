package http_server

import (
	"context"
	"net/http"
	"time"
)

// GetTableColumnsHandler reads a table's columns back out of the engine
// catalog, so callers can inspect what a create materialized without holding
// on to the original response.
func (s *HTTPServer) GetTableColumnsHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*15)
	defer cancel()

	cols, err := s.provisioner.TableColumns(ctx, c.Param("name"))
	if err != nil {
		return s.provisionerError(c, err)
	}

	return c.JSON(http.StatusOK, cols)
}
