package controller

import (
	"intern_certify_v1/model"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func hashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

// CoordinatorHandler is the admin's coordinator management.
type CoordinatorHandler struct {
	coordinators CoordinatorStore
}

func NewCoordinatorHandler(coordinators CoordinatorStore) *CoordinatorHandler {
	return &CoordinatorHandler{coordinators: coordinators}
}

type CreateCoordinatorRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Department string `json:"department"`
	IsActive   *bool  `json:"isActive"`
}

// UpdateCoordinatorRequest is partial. Setting Password resets the account
// to require a password change on next use.
type UpdateCoordinatorRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Password   *string `json:"password" validate:"omitempty,min=8"`
	Department *string `json:"department"`
	IsActive   *bool   `json:"isActive"`
}

func (h *CoordinatorHandler) List(c *fiber.Ctx) error {
	list, err := h.coordinators.List(c.UserContext())
	if err != nil {
		return storeError(c, err, "")
	}
	return respond(c, fiber.StatusOK, "Coordinators retrieved", list)
}

func (h *CoordinatorHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	coord, err := h.coordinators.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Coordinator not found")
	}
	return respond(c, fiber.StatusOK, "Coordinator retrieved", coord)
}

func (h *CoordinatorHandler) Create(c *fiber.Ctx) error {
	var req CreateCoordinatorRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return respond(c, fiber.StatusInternalServerError, "Error hashing password", nil)
	}
	coord := &model.Coordinator{
		Name:               req.Name,
		Email:              req.Email,
		Password:           hash,
		Department:         req.Department,
		IsActive:           req.IsActive == nil || *req.IsActive,
		MustChangePassword: true,
	}
	if err := h.coordinators.Create(c.UserContext(), coord); err != nil {
		return storeError(c, err, "")
	}
	return respond(c, fiber.StatusCreated, "Coordinator created", coord)
}

func (h *CoordinatorHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var req UpdateCoordinatorRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	columns := map[string]any{}
	if req.Name != nil {
		columns["name"] = *req.Name
	}
	if req.Email != nil {
		columns["email"] = *req.Email
	}
	if req.Department != nil {
		columns["department"] = *req.Department
	}
	if req.IsActive != nil {
		columns["is_active"] = *req.IsActive
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return respond(c, fiber.StatusInternalServerError, "Error hashing password", nil)
		}
		columns["password"] = hash
		columns["must_change_password"] = true
	}
	if len(columns) == 0 {
		return respond(c, fiber.StatusBadRequest, "Nothing to update", nil)
	}

	if err := h.coordinators.Update(c.UserContext(), id, columns); err != nil {
		return storeError(c, err, "Coordinator not found")
	}
	coord, err := h.coordinators.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Coordinator not found")
	}
	return respond(c, fiber.StatusOK, "Coordinator updated", coord)
}

// Delete refuses coordinators that still own interns.
func (h *CoordinatorHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.coordinators.Delete(c.UserContext(), id); err != nil {
		return storeError(c, err, "Coordinator not found")
	}
	return respond(c, fiber.StatusOK, "Coordinator deleted", nil)
}
