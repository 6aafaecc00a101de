package equipment

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lab-inventory/internal/api"
	"lab-inventory/internal/database"
	"lab-inventory/internal/middleware"
	"lab-inventory/internal/model"
	"lab-inventory/internal/service"
	"lab-inventory/internal/store"
	"lab-inventory/internal/uploads"

	"github.com/labstack/echo/v4"
)

var (
	listEquipment        = store.ListEquipment
	getEquipment         = store.GetEquipment
	createEquipment      = store.CreateEquipment
	updateEquipment      = store.UpdateEquipment
	updateEquipmentImage = store.UpdateEquipmentImage
	deleteEquipment      = store.DeleteEquipment
	timeNow              = time.Now
)

var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "access token required")

func access(c echo.Context) (*service.CustomClaims, service.LabAccess, error) {
	claims := middleware.Claims(c)
	if claims == nil {
		return nil, service.LabAccess{}, errUnauthorized
	}
	return claims, claims.Access(), nil
}

func parseID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// loadAllowed 讀取設備並確認使用者可存取其實驗室；失敗時已寫出回應
func loadAllowed(c echo.Context, db database.DB, acc service.LabAccess, denied string) (*model.Equipment, bool, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, false, c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid equipment ID"})
	}
	e, err := getEquipment(c.Request().Context(), db, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "Equipment not found"})
	}
	if err != nil {
		return nil, false, c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
	}
	if !acc.Allows(e.Lab) {
		return nil, false, c.JSON(http.StatusForbidden, api.ErrorResponse{Message: denied})
	}
	return e, true, nil
}

// bindEquipment 綁定並驗證表單，回傳待寫入的設備；失敗時已寫出回應
func bindEquipment(c echo.Context, req *api.EquipmentRequest) (*model.Equipment, bool, error) {
	if err := c.Validate(req); err != nil {
		return nil, false, c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: api.ValidationMessage(err, api.MissingEquipmentFields)})
	}
	e, problems := req.Item().Equipment()
	if len(problems) > 0 {
		return nil, false, c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: strings.Join(problems, "; ")})
	}
	return e, true, nil
}

// saveUpload 只處理 multipart 請求中的 image 欄位，未附檔時回傳 nil
func saveUpload(c echo.Context, images *uploads.Store) (*string, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	path, err := images.SaveImage(fh)
	if err != nil {
		return nil, err
	}
	return &path, nil
}

func uploadError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, uploads.ErrNotImage):
		return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Only image files are allowed"})
	case errors.Is(err, uploads.ErrTooLarge):
		return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "File too large. Maximum size is 10MB."})
	default:
		return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to save image"})
	}
}

// discard 寫入失敗時移除剛上傳的檔案
func discard(c echo.Context, images *uploads.Store, path *string) {
	if path == nil {
		return
	}
	if err := images.Remove(*path); err != nil {
		c.Logger().Warnf("remove orphaned upload %s: %v", *path, err)
	}
}

// ListEquipmentHandler 依授權實驗室列出設備
// @Summary     List equipment
// @Description 依使用者授權的實驗室過濾，支援 lab、status 與關鍵字搜尋
// @Tags        equipment
// @Produce     json
// @Param       lab    query    string false "實驗室代碼"
// @Param       status query    string false "設備狀態"
// @Param       search query    string false "名稱、品牌、型號、序號、FIU ID 或備註"
// @Success     200    {array}  api.EquipmentResponse
// @Failure     401    {object} api.ErrorResponse
// @Failure     403    {object} api.ErrorResponse
// @Failure     500    {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /equipment [get]
func ListEquipmentHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, acc, err := access(c)
		if err != nil {
			return err
		}

		lab := c.QueryParam("lab")
		if lab != "" && !acc.Allows(lab) {
			return c.JSON(http.StatusForbidden, api.ErrorResponse{Message: "Access denied to this lab"})
		}
		if !acc.Unrestricted() && len(acc.Labs) == 0 {
			return c.JSON(http.StatusOK, []api.EquipmentResponse{})
		}

		items, err := listEquipment(c.Request().Context(), db, acc.Filter(lab, c.QueryParam("status"), c.QueryParam("search")))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}
		return c.JSON(http.StatusOK, api.NewEquipmentList(items, timeNow()))
	}
}

// GetEquipmentHandler 取得單筆設備
// @Summary     Get equipment by ID
// @Tags        equipment
// @Produce     json
// @Param       id  path     int true "設備 ID"
// @Success     200 {object} api.EquipmentResponse
// @Failure     403 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /equipment/{id} [get]
func GetEquipmentHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, acc, err := access(c)
		if err != nil {
			return err
		}
		e, ok, err := loadAllowed(c, db, acc, "Access denied to this equipment")
		if !ok {
			return err
		}
		return c.JSON(http.StatusOK, api.NewEquipmentResponse(*e, timeNow()))
	}
}

// CreateEquipmentHandler 新增設備，可附帶圖片
// @Summary     Create equipment
// @Description multipart 表單或 JSON；image 欄位為選填圖片 (最大 10MB)
// @Tags        equipment
// @Accept      multipart/form-data
// @Accept      json
// @Produce     json
// @Param       body  body     api.EquipmentRequest true  "設備資料"
// @Param       image formData file                 false "設備圖片"
// @Success     201   {object} api.EquipmentResponse
// @Failure     400   {object} api.ErrorResponse
// @Failure     403   {object} api.ErrorResponse
// @Failure     500   {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /equipment [post]
func CreateEquipmentHandler(db database.DB, images *uploads.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, acc, err := access(c)
		if err != nil {
			return err
		}

		var req api.EquipmentRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if req.Lab != "" && !acc.Allows(req.Lab) {
			return c.JSON(http.StatusForbidden, api.ErrorResponse{Message: "Access denied to add equipment to this lab"})
		}
		e, ok, err := bindEquipment(c, &req)
		if !ok {
			return err
		}

		image, err := saveUpload(c, images)
		if err != nil {
			return uploadError(c, err)
		}
		e.Image = image
		e.CreatedBy = &claims.ID
		e.UpdatedBy = &claims.ID

		ctx := c.Request().Context()
		created, err := createEquipment(ctx, db, e)
		if err != nil {
			discard(c, images, image)
			if errors.Is(err, store.ErrConflict) {
				return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Serial number already exists"})
			}
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}

		if full, err := getEquipment(ctx, db, created.ID); err == nil {
			created = full
		}
		return c.JSON(http.StatusCreated, api.NewEquipmentResponse(*created, timeNow()))
	}
}

// UpdateEquipmentHandler 更新設備欄位與圖片
// @Summary     Update equipment
// @Description 上傳新圖片會取代原圖；keepImage=true 時保留目前圖片，否則清除
// @Tags        equipment
// @Accept      multipart/form-data
// @Accept      json
// @Produce     json
// @Param       id    path     int                  true  "設備 ID"
// @Param       body  body     api.EquipmentRequest true  "設備資料"
// @Param       image formData file                 false "設備圖片"
// @Success     200   {object} api.EquipmentResponse
// @Failure     400   {object} api.ErrorResponse
// @Failure     403   {object} api.ErrorResponse
// @Failure     404   {object} api.ErrorResponse
// @Failure     500   {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /equipment/{id} [put]
func UpdateEquipmentHandler(db database.DB, images *uploads.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, acc, err := access(c)
		if err != nil {
			return err
		}
		existing, ok, err := loadAllowed(c, db, acc, "Access denied to modify this equipment")
		if !ok {
			return err
		}

		var req api.EquipmentRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if req.Lab != "" && req.Lab != existing.Lab && !acc.Allows(req.Lab) {
			return c.JSON(http.StatusForbidden, api.ErrorResponse{Message: "Access denied to move equipment to this lab"})
		}
		e, ok, err := bindEquipment(c, &req)
		if !ok {
			return err
		}

		uploaded, err := saveUpload(c, images)
		if err != nil {
			return uploadError(c, err)
		}
		switch {
		case uploaded != nil:
			e.Image = uploaded
		case bool(req.KeepImage):
			e.Image = existing.Image
			if e.Image == nil && req.CurrentImage != "" {
				if _, err := uploads.FileName(req.CurrentImage); err == nil {
					e.Image = &req.CurrentImage
				}
			}
		}
		e.ID = existing.ID
		e.UpdatedBy = &claims.ID

		ctx := c.Request().Context()
		err = updateEquipment(ctx, db, e)
		switch {
		case errors.Is(err, store.ErrConflict):
			discard(c, images, uploaded)
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Serial number already exists"})
		case errors.Is(err, store.ErrNotFound):
			discard(c, images, uploaded)
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "Equipment not found"})
		case err != nil:
			discard(c, images, uploaded)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}

		updated, err := getEquipment(ctx, db, existing.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}
		return c.JSON(http.StatusOK, api.NewEquipmentResponse(*updated, timeNow()))
	}
}

// UpdateImageHandler 只更新設備圖片路徑
// @Summary     Update equipment image
// @Description 只更新圖片路徑 (還原圖片時使用)；空字串清除圖片
// @Tags        equipment
// @Accept      json
// @Produce     json
// @Param       id   path     int              true "設備 ID"
// @Param       body body     api.ImageRequest true "圖片路徑"
// @Success     200  {object} api.MessageResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     403  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /equipment/{id}/image [put]
func UpdateImageHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, acc, err := access(c)
		if err != nil {
			return err
		}
		existing, ok, err := loadAllowed(c, db, acc, "Access denied to modify this equipment")
		if !ok {
			return err
		}

		var req api.ImageRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		var image *string
		if req.Image != "" {
			if _, err := uploads.FileName(req.Image); err != nil {
				return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "image must be a path under " + model.UploadsPrefix})
			}
			image = &req.Image
		}

		err = updateEquipmentImage(c.Request().Context(), db, existing.ID, image, &claims.ID)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "Equipment not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "Image updated successfully"})
	}
}

// DeleteEquipmentHandler 刪除設備與其圖片
// @Summary     Delete equipment
// @Description 刪除設備並移除 uploads 目錄中的圖片，圖片不存在不視為錯誤
// @Tags        equipment
// @Produce     json
// @Param       id  path     int true "設備 ID"
// @Success     200 {object} api.MessageResponse
// @Failure     403 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /equipment/{id} [delete]
func DeleteEquipmentHandler(db database.DB, images *uploads.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, acc, err := access(c)
		if err != nil {
			return err
		}
		existing, ok, err := loadAllowed(c, db, acc, "Access denied to delete this equipment")
		if !ok {
			return err
		}

		err = deleteEquipment(c.Request().Context(), db, existing.ID)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "Equipment not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}

		if existing.Image != nil {
			if err := images.Remove(*existing.Image); err != nil {
				c.Logger().Warnf("remove image %s: %v", *existing.Image, err)
			}
		}
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "Equipment deleted successfully"})
	}
}
