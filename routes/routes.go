package routes

import (
	"intern_certify_v1/certificate"
	"intern_certify_v1/controller"
	"intern_certify_v1/middleware"
	"intern_certify_v1/model/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles everything AppRoutes mounts.
type Handlers struct {
	Auth         *controller.AuthHandler
	Interns      *controller.InternHandler
	Activity     *controller.ActivityHandler
	Coordinators *controller.CoordinatorHandler
	Templates    *controller.TemplateHandler
	AdminInterns *controller.AdminInternHandler
	Public       *controller.PublicHandler
	Sweep        *controller.SweepHandler
	Reset        *controller.PasswordResetHandler

	// CertificatesDir is served at /certificates.
	CertificatesDir string
}

func AppRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(response.ResponseModel{RetCode: "200", Message: "ok"})
	})

	// Generated PDFs
	app.Static("/"+certificate.PublicDir, h.CertificatesDir)

	// Verification links printed on certificates
	public := app.Group("/public")
	public.Get("/:segment/:internEmployeeId", h.Public.VerifyCertificate)
	public.Get("/:segment/:internEmployeeId/download", h.Public.DownloadCertificate)

	// Intern coordinators
	coordinator := middleware.JWTMiddleware(middleware.RoleCoordinator)
	passwordChanged := h.Auth.RequirePasswordChanged()

	ic := app.Group("/intern-coordinator")
	ic.Post("/login", h.Auth.CoordinatorLogin)
	ic.Post("/forgot-password", h.Reset.ForgotPassword)
	ic.Post("/verify-code", h.Reset.VerifyResetCode)
	ic.Post("/reset-password", h.Reset.ResetPassword)
	ic.Post("/logout", coordinator, h.Auth.Logout)
	ic.Get("/me", coordinator, h.Auth.Me)
	ic.Put("/change-password", coordinator, h.Auth.ChangePassword)
	ic.Put("/fcm-token", coordinator, h.Auth.SaveFCMToken)

	ic.Get("/interns", coordinator, h.Interns.List)
	ic.Get("/interns/:id", coordinator, h.Interns.Get)
	ic.Post("/interns", coordinator, passwordChanged, h.Interns.Create)
	ic.Put("/interns/:id", coordinator, passwordChanged, h.Interns.Update)
	ic.Delete("/interns/:id", coordinator, passwordChanged, h.Interns.Delete)

	ic.Get("/activity-logs", coordinator, h.Activity.Mine)

	// Admin
	admin := middleware.JWTMiddleware(middleware.RoleAdmin)

	ad := app.Group("/admin")
	ad.Post("/login", h.Auth.AdminLogin)
	ad.Post("/logout", admin, h.Auth.Logout)

	ad.Get("/coordinators", admin, h.Coordinators.List)
	ad.Post("/coordinators", admin, h.Coordinators.Create)
	ad.Get("/coordinators/:id", admin, h.Coordinators.Get)
	ad.Put("/coordinators/:id", admin, h.Coordinators.Update)
	ad.Delete("/coordinators/:id", admin, h.Coordinators.Delete)

	ad.Get("/certificate-templates", admin, h.Templates.List)
	ad.Post("/certificate-templates", admin, h.Templates.Create)
	ad.Get("/certificate-templates/:id", admin, h.Templates.Get)
	ad.Put("/certificate-templates/:id", admin, h.Templates.Update)
	ad.Delete("/certificate-templates/:id", admin, h.Templates.Delete)
	ad.Put("/certificate-templates/:id/activate", admin, h.Templates.Activate)
	ad.Get("/certificate-templates/:id/preview", admin, h.Templates.Preview)

	ad.Get("/interns", admin, h.AdminInterns.GetAllInterns)
	ad.Get("/interns/export", admin, h.AdminInterns.ExportDataToPDF)

	ad.Get("/activity-logs", admin, h.Activity.All)
	ad.Post("/completion-sweep", admin, h.Sweep.Run)
}
