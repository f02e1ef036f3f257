package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academia-app/academia/core/agenda"
	"github.com/academia-app/academia/core/student"
)

type agendaApi struct {
	svc      agenda.ServiceInterface
	stdSvc   student.ServiceInterface
	validate *validator.Validate
}

func registerAgendaAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc agenda.ServiceInterface,
	stdSvc student.ServiceInterface,
	validate *validator.Validate,
) {
	api := agendaApi{
		svc:      svc,
		stdSvc:   stdSvc,
		validate: validate,
	}

	ag := g.Group("/students/me/agenda", jwt, studentMiddleware())
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.POST("/:id/complete", api.complete)
}

// Handlers

func (api *agendaApi) query(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.stdSvc)
	if err != nil {
		return err
	}

	var filter agenda.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	events, err := api.svc.Query(ctx.Request().Context(), st.ID, filter)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []agenda.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *agendaApi) create(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.stdSvc)
	if err != nil {
		return err
	}

	var data agenda.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Create(ctx.Request().Context(), st.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *agendaApi) update(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.stdSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data agenda.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Update(ctx.Request().Context(), st.ID, id, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *agendaApi) complete(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.stdSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	evt, err := api.svc.Complete(ctx.Request().Context(), st.ID, id)
	if err != nil {
		return errors.Wrap(err, "completing event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *agendaApi) destroy(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.stdSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), st.ID, id); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}
