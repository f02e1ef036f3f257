package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academia-app/academia/core/curriculum"
	"github.com/academia-app/academia/core/student"
)

type adminApi struct {
	currSvc  curriculum.ServiceInterface
	stdSvc   student.ServiceInterface
	validate *validator.Validate
}

func registerAdminAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	currSvc curriculum.ServiceInterface,
	stdSvc student.ServiceInterface,
	validate *validator.Validate,
) {
	api := adminApi{
		currSvc:  currSvc,
		stdSvc:   stdSvc,
		validate: validate,
	}

	ag := g.Group("/admin", jwt, adminMiddleware())

	pg := ag.Group("/programs")
	pg.POST("", api.createProgram)
	pg.GET("", api.queryPrograms)
	pg.GET("/:id", api.retrieveProgram)
	pg.GET("/:id/curriculum", api.queryCurriculum)
	pg.PUT("/:id/curriculum", api.upsertEntry)
	pg.DELETE("/:id/curriculum/:courseId", api.removeEntry)

	cg := ag.Group("/courses")
	cg.POST("", api.createCourse)
	cg.GET("", api.queryCourses)
	cg.GET("/:id", api.retrieveCourse)
	cg.GET("/:id/prerequisites", api.queryPrerequisites)
	cg.POST("/:id/prerequisites", api.addPrerequisite)
	cg.DELETE("/:id/prerequisites/:prereqId", api.removePrerequisite)

	ag.PUT("/students/:id/program", api.assignProgram)
}

// Handlers

func (api *adminApi) createProgram(ctx echo.Context) error {
	var data curriculum.NewProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prog, err := api.currSvc.CreateProgram(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	return ctx.JSON(http.StatusCreated, prog)
}

func (api *adminApi) queryPrograms(ctx echo.Context) error {
	progs, err := api.currSvc.QueryPrograms(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying programs")
	}
	if progs == nil {
		progs = []curriculum.Program{}
	}
	return ctx.JSON(http.StatusOK, progs)
}

func (api *adminApi) retrieveProgram(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	prog, err := api.currSvc.GetProgramByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting program")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *adminApi) queryCurriculum(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	activeOnly := ctx.QueryParam("active") == "true"

	entries, err := api.currSvc.Curriculum(ctx.Request().Context(), id, activeOnly)
	if err != nil {
		return errors.Wrap(err, "querying curriculum")
	}
	if entries == nil {
		entries = []curriculum.EntryView{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *adminApi) upsertEntry(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data curriculum.UpsertEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.currSvc.UpsertEntry(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "upserting curriculum entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *adminApi) removeEntry(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	courseID, err := intParam(ctx, "courseId")
	if err != nil {
		return err
	}

	if err := api.currSvc.RemoveEntry(ctx.Request().Context(), id, courseID); err != nil {
		return errors.Wrap(err, "removing curriculum entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) createCourse(ctx echo.Context) error {
	var data curriculum.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.currSvc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *adminApi) queryCourses(ctx echo.Context) error {
	courses, err := api.currSvc.QueryCourses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []curriculum.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *adminApi) retrieveCourse(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	crs, err := api.currSvc.GetCourseByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *adminApi) queryPrerequisites(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	if _, err := api.currSvc.GetCourseByID(reqCtx, id); err != nil {
		return errors.Wrap(err, "getting course")
	}
	prereqMap, err := api.currSvc.PrerequisitesFor(reqCtx, []int{id})
	if err != nil {
		return errors.Wrap(err, "querying prerequisites")
	}

	prereqs := prereqMap[id]
	if prereqs == nil {
		prereqs = []int{}
	}
	return ctx.JSON(http.StatusOK, PrerequisitesResponse{CourseID: id, Prerequisites: prereqs})
}

func (api *adminApi) addPrerequisite(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data AddPrerequisiteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddPrerequisiteRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	edge, err := api.currSvc.AddPrerequisite(ctx.Request().Context(), id, data.PrerequisiteID)
	if err != nil {
		return errors.Wrap(err, "adding prerequisite")
	}
	return ctx.JSON(http.StatusCreated, edge)
}

func (api *adminApi) removePrerequisite(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	prereqID, err := intParam(ctx, "prereqId")
	if err != nil {
		return err
	}

	if err := api.currSvc.RemovePrerequisite(ctx.Request().Context(), id, prereqID); err != nil {
		return errors.Wrap(err, "removing prerequisite")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) assignProgram(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data AssignProgramRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignProgramRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.stdSvc.AssignProgram(ctx.Request().Context(), id, data.ProgramID)
	if err != nil {
		return errors.Wrap(err, "assigning program")
	}
	return ctx.JSON(http.StatusOK, st)
}

type (
	AddPrerequisiteRequest struct {
		PrerequisiteID int `json:"prerequisite_id" validate:"required"`
	}

	PrerequisitesResponse struct {
		CourseID      int   `json:"course_id"`
		Prerequisites []int `json:"prerequisites"`
	}

	AssignProgramRequest struct {
		ProgramID int `json:"program_id" validate:"required"`
	}
)

func (ar *AddPrerequisiteRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}

func (ar *AssignProgramRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}
