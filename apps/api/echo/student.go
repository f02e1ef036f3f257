package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academia-app/academia/core/student"
	"github.com/academia-app/academia/core/user"
)

var contextStudentKey = "student"

type studentApi struct {
	svc      student.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc student.ServiceInterface,
	userSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := studentApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	sg := g.Group("/students/me", jwt, studentMiddleware())
	sg.GET("", api.retrieve)
	sg.GET("/curriculum", api.curriculum)
	sg.PUT("/curriculum/:courseId/status", api.updateCourseStatus)
	sg.POST("/courses/:courseId/grades", api.submitGrade)
	sg.GET("/courses/:courseId/grades", api.queryGrades)
}

// getContextStudent resolves the student record of the authenticated
// user, creating it on first contact.
func getContextStudent(ctx echo.Context, svc student.ServiceInterface) (student.Student, error) {
	if st, ok := ctx.Get(contextStudentKey).(student.Student); ok {
		return st, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting context claims")
	}
	st, err := svc.GetOrCreateByUser(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	ctx.Set(contextStudentKey, st)
	return st, nil
}

// Handlers

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) curriculum(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.svc)
	if err != nil {
		return err
	}

	view, err := api.svc.Curriculum(ctx.Request().Context(), st)
	if err != nil {
		return errors.Wrap(err, "resolving curriculum")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *studentApi) updateCourseStatus(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.svc)
	if err != nil {
		return err
	}
	courseID, err := intParam(ctx, "courseId")
	if err != nil {
		return err
	}

	var data student.UpdateCourseState
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourseState")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cs, err := api.svc.UpsertCourseStatus(ctx.Request().Context(), st, courseID, data)
	if err != nil {
		return errors.Wrap(err, "upserting course status")
	}
	return ctx.JSON(http.StatusOK, cs)
}

func (api *studentApi) submitGrade(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.svc)
	if err != nil {
		return err
	}
	courseID, err := intParam(ctx, "courseId")
	if err != nil {
		return err
	}

	var data student.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, cs, err := api.svc.SubmitGrade(ctx.Request().Context(), st, courseID, data)
	if err != nil {
		return errors.Wrap(err, "submitting grade")
	}
	return ctx.JSON(http.StatusCreated, GradeSubmissionResponse{Grade: entry, CourseState: cs})
}

func (api *studentApi) queryGrades(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.svc)
	if err != nil {
		return err
	}
	courseID, err := intParam(ctx, "courseId")
	if err != nil {
		return err
	}

	grades, err := api.svc.ListGrades(ctx.Request().Context(), st, courseID)
	if err != nil {
		return errors.Wrap(err, "listing grades")
	}
	if grades == nil {
		grades = []student.GradeEntry{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

type GradeSubmissionResponse struct {
	Grade       student.GradeEntry  `json:"grade"`
	CourseState student.CourseState `json:"course_state"`
}
