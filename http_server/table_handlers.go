package http_server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danthegoodman1/tabled/provisioner"
	"github.com/danthegoodman1/tabled/schema"
	"github.com/danthegoodman1/tabled/utils"
	"github.com/rs/zerolog"
)

type DropTableResponse struct {
	Ok bool `json:"ok"`
}

// CreateTableHandler accepts a table spec, provisions it, and returns the
// materialized schema with the injected system columns in final order.
func (s *HTTPServer) CreateTableHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*30)
	defer cancel()

	var reqBody schema.Table
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}

	created, err := s.provisioner.CreateTable(ctx, reqBody)
	if err != nil {
		return s.provisionerError(c, err)
	}

	return c.JSON(http.StatusOK, created)
}

// DropTableHandler removes a provisioned table by name.
func (s *HTTPServer) DropTableHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*15)
	defer cancel()

	if err := s.provisioner.DropTable(ctx, c.Param("name")); err != nil {
		return s.provisionerError(c, err)
	}

	return c.JSON(http.StatusOK, DropTableResponse{Ok: true})
}

// ListTablesHandler returns the names of every provisioned table.
func (s *HTTPServer) ListTablesHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*15)
	defer cancel()

	tables, err := s.provisioner.ListTables(ctx)
	if err != nil {
		return s.provisionerError(c, err)
	}

	return c.JSON(http.StatusOK, utils.ArrayOrEmpty(tables))
}

// provisionerError maps a classified provisioner failure onto a response:
// validation problems are the caller's fault (400), pool and execution
// failures report the classified description (500). Anything unclassified
// stays hidden behind the request ID.
func (s *HTTPServer) provisionerError(c *CustomContext, err error) error {
	var perr *provisioner.Error
	if !errors.As(err, &perr) {
		return c.InternalError(err, "unclassified provisioner error")
	}

	if perr.Kind == provisioner.KindValidation {
		return c.String(http.StatusBadRequest, perr.Error())
	}

	zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("kind", perr.Kind.String()).Msg("provisioning failed")
	return c.String(http.StatusInternalServerError, perr.Error())
}
