package rest

import (
	"errors"

	"github.com/begrat/storefront-backend/internal/application"
	"github.com/begrat/storefront-backend/internal/application/dto"
	"github.com/begrat/storefront-backend/internal/application/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Server struct {
	handlers *application.Handlers
}

func NewServer(handlers *application.Handlers) *Server {
	return &Server{handlers: handlers}
}

func RegisterHandlers(app *fiber.App, s *Server) {
	api := app.Group("/api")
	api.Get("/domains/check", s.CheckDomain)

	tenants := api.Group("/tenants/:tenantID")
	tenants.Get("/domain", s.GetDomain)
	tenants.Put("/domain", s.UpdateDomain)
	tenants.Post("/domain/verify", s.VerifyDomain)
	tenants.Post("/subdomain", s.ProvisionSubdomain)
}

func (s *Server) GetDomain(c *fiber.Ctx) error {
	tenantID, err := tenantIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	resp, err := s.handlers.GetDomain.Query(c.UserContext(), tenantID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) UpdateDomain(c *fiber.Ctx) error {
	tenantID, err := tenantIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	var req dto.UpdateDomainRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	if err := s.handlers.UpdateDomain.Execute(c.UserContext(), tenantID, req); err != nil {
		return errorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// VerifyDomain is the on-demand "verify now" trigger, independent of
// the scheduled cycle.
func (s *Server) VerifyDomain(c *fiber.Ctx) error {
	tenantID, err := tenantIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	result, err := s.handlers.VerifyDomain.Execute(c.UserContext(), tenantID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (s *Server) ProvisionSubdomain(c *fiber.Ctx) error {
	tenantID, err := tenantIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	var req dto.ProvisionSubdomainRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	resp, err := s.handlers.ProvisionSubdomain.Execute(c.UserContext(), tenantID, req.Subdomain)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (s *Server) CheckDomain(c *fiber.Ctx) error {
	domain := c.Query("domain")
	if domain == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "domain query parameter is required"})
	}

	available, err := s.handlers.CheckDomain.Query(c.UserContext(), domain)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.DomainAvailability{Available: available})
}

func tenantIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("tenantID"))
}

func errorResponse(c *fiber.Ctx, err error) error {
	var configErr errs.ConfigError
	if errors.As(err, &configErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: configErr.Error()})
	}
	var notFound errs.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: notFound.Error()})
	}
	var registrarErr errs.RegistrarError
	if errors.As(err, &registrarErr) {
		// registrar details stay server-side
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "could not provision domain, try again"})
	}
	var retryable errs.RetryableError
	if errors.As(err, &retryable) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "could not record the result, try again"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
}
