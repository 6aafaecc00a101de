package admin

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"lab-inventory/internal/api"
	"lab-inventory/internal/database"
	"lab-inventory/internal/inventory"
	"lab-inventory/internal/middleware"
	"lab-inventory/internal/store"
	"lab-inventory/internal/uploads"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var (
	createBackup       = inventory.CreateBackup
	listBackups        = inventory.ListBackups
	backupPath         = inventory.BackupPath
	restoreInventory   = inventory.Restore
	deleteAllEquipment = store.DeleteAllEquipment
)

// MaxRestoreSize 還原檔上限 (含圖片的 zip)
const MaxRestoreSize = 512 << 20

// ClearResponse 清空設備後的筆數
// swagger:model admin.ClearResponse
type ClearResponse struct {
	Message string `json:"message" example:"All equipment deleted"`
	Deleted int64  `json:"deleted" example:"42"`
}

// BackupHandler 建立 zip 備份
// @Summary     Create backup
// @Description 將所有設備與 uploads 圖片打包為 zip 存入備份目錄
// @Tags        admin
// @Produce     json
// @Success     201 {object} inventory.BackupResult
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/backup [post]
func BackupHandler(db database.DB, images *uploads.Store, backupDir string, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := createBackup(c.Request().Context(), db, images, backupDir, log)
		if err != nil {
			log.Error("backup failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Backup failed"})
		}
		return c.JSON(http.StatusCreated, res)
	}
}

// ListBackupsHandler 列出備份檔
// @Summary     List backups
// @Tags        admin
// @Produce     json
// @Success     200 {array}  inventory.BackupFile
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/backups [get]
func ListBackupsHandler(backupDir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		files, err := listBackups(backupDir)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Error reading backup directory"})
		}
		return c.JSON(http.StatusOK, files)
	}
}

// DownloadBackupHandler 下載備份檔
// @Summary     Download backup
// @Tags        admin
// @Produce     application/zip
// @Param       name path string true "備份檔名"
// @Success     200  {file}   binary
// @Failure     400  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/backups/{name} [get]
func DownloadBackupHandler(backupDir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")
		path, err := backupPath(backupDir, name)
		if errors.Is(err, inventory.ErrInvalidBackupName) {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Invalid backup name"})
		}
		if errors.Is(err, fs.ErrNotExist) {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "Backup not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Error reading backup directory"})
		}
		return c.Attachment(path, name)
	}
}

// RestoreHandler 由上傳的備份還原設備與圖片
// @Summary     Restore backup
// @Description 上傳 zip 備份、完整備份 JSON 或設備陣列；clear=true 先清空現有設備
// @Tags        admin
// @Accept      multipart/form-data
// @Produce     json
// @Param       file  formData file   true  "備份檔"
// @Param       clear formData bool   false "還原前清空設備"
// @Success     200   {object} inventory.RestoreResult
// @Failure     400   {object} api.ErrorResponse
// @Failure     500   {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/restore [post]
func RestoreHandler(db database.DB, images *uploads.Store, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Backup file required"})
		}
		if fh.Size > MaxRestoreSize {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Backup file too large"})
		}
		src, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Backup file required"})
		}
		defer src.Close()
		data, err := io.ReadAll(io.LimitReader(src, MaxRestoreSize))
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "failed to read backup file"})
		}

		clearFirst, _ := strconv.ParseBool(c.FormValue("clear"))
		opts := inventory.RestoreOptions{Clear: clearFirst}
		if claims := middleware.Claims(c); claims != nil {
			opts.CreatedBy = &claims.ID
		}

		res, err := restoreInventory(c.Request().Context(), db, data, images, opts, log)
		var verr *inventory.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: fmt.Sprintf("Validation failed: %s", verr.Error())})
		case errors.Is(err, inventory.ErrInvalidFormat):
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Invalid backup file format"})
		case err != nil:
			log.Error("restore failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Restore failed"})
		}
		return c.JSON(http.StatusOK, res)
	}
}

// ClearHandler 清空所有設備
// @Summary     Clear equipment
// @Description 刪除所有設備並重設編號
// @Tags        admin
// @Produce     json
// @Success     200 {object} ClearResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/clear [post]
func ClearHandler(db database.DB, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		n, err := deleteAllEquipment(c.Request().Context(), db)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}
		log.Warn("all equipment cleared", zap.Int64("deleted", n))
		return c.JSON(http.StatusOK, ClearResponse{Message: "All equipment deleted", Deleted: n})
	}
}
