package controller

import (
	"errors"
	"log"
	"reflect"
	"strconv"
	"strings"

	"intern_certify_v1/model/response"
	"intern_certify_v1/repository"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(response.ResponseModel{
		RetCode: strconv.Itoa(status),
		Message: message,
		Data:    data,
	})
}

// parseBody decodes and validates the request body into req. On failure the
// 400 response has already been written and ok is false.
func parseBody(c *fiber.Ctx, req interface{}) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := validate.Struct(req); err != nil {
		return false, validationError(c, err)
	}
	return true, nil
}

func validationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return respond(c, fiber.StatusBadRequest, "Invalid input", nil)
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return respond(c, fiber.StatusBadRequest, "Validation failed", fields)
}

// storeError maps repository errors onto status codes. Anything unexpected is
// logged and reported as a generic 500 so driver details never reach clients.
func storeError(c *fiber.Ctx, err error, notFound string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return respond(c, fiber.StatusNotFound, notFound, nil)
	case errors.Is(err, repository.ErrAlreadyExists):
		return respond(c, fiber.StatusBadRequest, "A record with the same unique value already exists", nil)
	case errors.Is(err, repository.ErrInUse):
		return respond(c, fiber.StatusConflict, "Record is still referenced by other records", nil)
	case errors.Is(err, repository.ErrInvalidTransition):
		return respond(c, fiber.StatusConflict, "Status change not allowed", nil)
	}
	log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	return respond(c, fiber.StatusInternalServerError, "Database error", nil)
}

func paramID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func invalidID(c *fiber.Ctx) error {
	return respond(c, fiber.StatusBadRequest, "Invalid ID", nil)
}
