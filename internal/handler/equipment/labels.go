package equipment

import (
	"net/http"
	"strconv"

	"lab-inventory/internal/api"
	"lab-inventory/internal/database"
	"lab-inventory/internal/labels"

	"github.com/labstack/echo/v4"
)

var (
	renderQRCode  = labels.QRCode
	renderBarcode = labels.Barcode
)

func intQuery(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 0 || n > 2048 {
		return 0
	}
	return n
}

// QRCodeHandler 產生設備 QR code 標籤
// @Summary     Equipment QR code
// @Description 以 PNG 回傳設備摘要的 QR code
// @Tags        labels
// @Produce     png
// @Param       id   path  int true  "設備 ID"
// @Param       size query int false "邊長 (px)"
// @Success     200  {file} binary
// @Failure     403  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /equipment/{id}/qrcode [get]
func QRCodeHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, acc, err := access(c)
		if err != nil {
			return err
		}
		e, ok, err := loadAllowed(c, db, acc, "Access denied to this equipment")
		if !ok {
			return err
		}
		png, err := renderQRCode(*e, intQuery(c, "size"))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to render QR code"})
		}
		return c.Blob(http.StatusOK, "image/png", png)
	}
}

// BarcodeHandler 產生序號條碼標籤
// @Summary     Equipment barcode
// @Description 以 PNG 回傳序號的 Code128 條碼
// @Tags        labels
// @Produce     png
// @Param       id     path  int true  "設備 ID"
// @Param       width  query int false "寬度 (px)"
// @Param       height query int false "高度 (px)"
// @Success     200    {file} binary
// @Failure     403    {object} api.ErrorResponse
// @Failure     404    {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /equipment/{id}/barcode [get]
func BarcodeHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, acc, err := access(c)
		if err != nil {
			return err
		}
		e, ok, err := loadAllowed(c, db, acc, "Access denied to this equipment")
		if !ok {
			return err
		}
		png, err := renderBarcode(e.SerialNumber, intQuery(c, "width"), intQuery(c, "height"))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to render barcode"})
		}
		return c.Blob(http.StatusOK, "image/png", png)
	}
}
