package echoapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/nwschool/clubreg/core"
	"github.com/nwschool/clubreg/core/registry"
)

// appJWTConfig is the default JWT auth middleware config.
var appJWTConfig = middleware.JWTConfig{
	SigningKey:    []byte(core.Conf.SecretKey),
	SigningMethod: middleware.AlgorithmHS256,
	ContextKey:    "sessionToken",
	Claims:        new(Claims),
}

// Claims represents the authorization claims transmitted via a JWT.
// Subject carries the teacher id for teacher sessions.
type Claims struct {
	jwt.StandardClaims
	Name      string `json:"name,omitempty"`
	IsTeacher bool   `json:"is_teacher,omitempty"` // -> TEACHER PORTAL
	IsAdmin   bool   `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
}

func GetTeacherClaims(t registry.Teacher) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   string(t.ID),
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:      t.Name,
		IsTeacher: true,
	}
}

func GetAdminClaims() *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   "admin",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		IsAdmin: true,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token)
	if !ok {
		return Claims{}, errUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		// the middleware accepted a token whose claims we did not mint:
		// the JWT config is broken, stop serving
		return Claims{}, core.NewShutdownError("session token claims have the wrong type")
	}
	return *claims, nil
}

// getContextActor resolves the mutation actor from the session claims.
func getContextActor(ctx echo.Context) (registry.Actor, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return registry.Actor{}, err
	}
	actor := registry.Actor{IsAdmin: claims.IsAdmin}
	if claims.IsTeacher {
		actor.TeacherID = registry.ID(claims.Subject)
	}
	return actor, nil
}

// Handlers

type authApi struct {
	svc      *registry.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, svc *registry.Service, validate *validator.Validate) {
	api := authApi{svc: svc, validate: validate}

	ag := g.Group("/auth")
	ag.POST("/teacher-login", api.teacherLogin)
	ag.POST("/admin-login", api.adminLogin)
}

type (
	teacherLoginInput struct {
		ID string `json:"id" validate:"required,teacher_id"`
	}

	adminLoginInput struct {
		Password string `json:"password" validate:"required"`
	}

	loginResponse struct {
		Token   string            `json:"token"`
		Teacher *registry.Teacher `json:"teacher,omitempty"`
	}
)

func (api *authApi) teacherLogin(ctx echo.Context) error {
	var data teacherLoginInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to teacherLoginInput")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	teacher, err := api.svc.AuthenticateTeacher(registry.ID(data.ID))
	if err != nil {
		return err
	}
	token, err := GenerateToken(GetTeacherClaims(teacher))
	if err != nil {
		return errors.Wrap(err, "generating teacher token")
	}
	return ctx.JSON(http.StatusOK, loginResponse{Token: token, Teacher: &teacher})
}

func (api *authApi) adminLogin(ctx echo.Context) error {
	var data adminLoginInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to adminLoginInput")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if err := api.svc.AuthenticateAdmin(data.Password); err != nil {
		return err
	}
	token, err := GenerateToken(GetAdminClaims())
	if err != nil {
		return errors.Wrap(err, "generating admin token")
	}
	return ctx.JSON(http.StatusOK, loginResponse{Token: token})
}
