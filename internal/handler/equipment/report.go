package equipment

import (
	"net/http"

	"lab-inventory/internal/api"
	"lab-inventory/internal/database"
	"lab-inventory/internal/inventory"
	"lab-inventory/internal/uploads"

	"github.com/labstack/echo/v4"
)

var buildReport = inventory.BuildReport

// ReportHandler 統計各狀態與實驗室的設備數量
// @Summary     Inventory report
// @Description 各狀態與實驗室的設備數量
// @Tags        equipment
// @Produce     json
// @Success     200 {object} inventory.Report
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /equipment/report [get]
func ReportHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		report, err := buildReport(c.Request().Context(), db)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}
		return c.JSON(http.StatusOK, report)
	}
}

// ListImagesHandler 列出已上傳的圖片
// @Summary     List uploaded images
// @Description 列出 uploads 目錄中的圖片，最新的在前
// @Tags        equipment
// @Produce     json
// @Success     200 {array}  uploads.Image
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /images [get]
func ListImagesHandler(images *uploads.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := images.ListImages()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Error reading images directory"})
		}
		return c.JSON(http.StatusOK, list)
	}
}
