package router

import (
	"io/fs"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"lab-inventory/internal/cache"
	"lab-inventory/internal/database"
	"lab-inventory/internal/handler"
	"lab-inventory/internal/handler/admin"
	"lab-inventory/internal/handler/auth"
	"lab-inventory/internal/handler/equipment"
	"lab-inventory/internal/handler/users"
	"lab-inventory/internal/middleware"
	"lab-inventory/internal/service"
	"lab-inventory/internal/uploads"
)

// Deps 路由需要的共用元件
type Deps struct {
	DB        database.DB
	Cache     cache.Cache
	Tokens    *service.TokenManager
	Images    *uploads.Store
	Invites   *users.Invites
	BackupDir string
	Web       fs.FS
	Log       *zap.Logger
}

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, d Deps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	requireAuth := middleware.RequireAuth(d.Tokens, d.Cache)

	api := e.Group("/api")

	// 健康檢查（需登入）
	api.GET("/ping", handler.PingHandler(d.DB, d.Cache), requireAuth)

	// 登入與帳號開通
	apiAuth := api.Group("/auth")
	apiAuth.POST("/login", auth.LoginHandler(d.DB, d.Tokens))
	apiAuth.GET("/setup-info", auth.SetupInfoHandler(d.DB))
	apiAuth.POST("/setup-password", auth.SetupPasswordHandler(d.DB))
	apiAuth.GET("/verify", auth.VerifyHandler(), requireAuth)
	apiAuth.POST("/logout", auth.LogoutHandler(d.Cache), requireAuth)
	apiAuth.PUT("/password", auth.ChangePasswordHandler(d.DB), requireAuth)

	// 設備 CRUD，依實驗室授權過濾
	apiEquipment := api.Group("/equipment", requireAuth)
	apiEquipment.GET("", equipment.ListEquipmentHandler(d.DB))
	apiEquipment.POST("", equipment.CreateEquipmentHandler(d.DB, d.Images))
	apiEquipment.GET("/report", equipment.ReportHandler(d.DB), middleware.RequireAdmin)
	apiEquipment.GET("/:id", equipment.GetEquipmentHandler(d.DB))
	apiEquipment.PUT("/:id", equipment.UpdateEquipmentHandler(d.DB, d.Images))
	apiEquipment.PUT("/:id/image", equipment.UpdateImageHandler(d.DB))
	apiEquipment.DELETE("/:id", equipment.DeleteEquipmentHandler(d.DB, d.Images))
	apiEquipment.GET("/:id/qrcode", equipment.QRCodeHandler(d.DB))
	apiEquipment.GET("/:id/barcode", equipment.BarcodeHandler(d.DB))
	api.GET("/images", equipment.ListImagesHandler(d.Images), requireAuth)

	// 管理員專屬：使用者管理與備份維護
	apiAdmin := api.Group("/admin", requireAuth, middleware.RequireAdmin)
	apiAdmin.GET("/users", users.ListUsersHandler(d.DB))
	apiAdmin.POST("/users", users.CreateUserHandler(d.DB, d.Invites))
	apiAdmin.GET("/users/:id", users.GetUserHandler(d.DB))
	apiAdmin.PUT("/users/:id", users.UpdateUserHandler(d.DB))
	apiAdmin.DELETE("/users/:id", users.DeleteUserHandler(d.DB))
	apiAdmin.POST("/users/:id/reset-setup", users.ResetSetupHandler(d.DB, d.Invites))
	apiAdmin.POST("/backup", admin.BackupHandler(d.DB, d.Images, d.BackupDir, log))
	apiAdmin.GET("/backups", admin.ListBackupsHandler(d.BackupDir))
	apiAdmin.GET("/backups/:name", admin.DownloadBackupHandler(d.BackupDir))
	apiAdmin.POST("/restore", admin.RestoreHandler(d.DB, d.Images, log))
	apiAdmin.POST("/clear", admin.ClearHandler(d.DB, log))

	// 上傳的圖片與前端頁面
	if d.Images != nil {
		e.Static("/uploads", d.Images.Dir())
	}
	if d.Web != nil {
		e.StaticFS("/", d.Web)
	}
}
