package controllers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oguzkagan/beyanname-takip/models"
	"github.com/oguzkagan/beyanname-takip/utils"
	"gorm.io/gorm"
)

const defaultDeclarationPageSize = 20

// Tek sayfada istenebilecek en fazla kayıt; daha büyük limit değerleri
// sessizce buraya indirilir.
const maxPageSize = 100

// Kimlik kümesiyle toplu müşteri sorgusunun parça boyutu
const customerBatchSize = 30

// UnknownCustomerName artık var olmayan bir müşteriye işaret eden
// beyannameler için yer tutucu addır.
const UnknownCustomerName = "Bilinmeyen Müşteri"

type DeclarationController struct {
	DB *gorm.DB
}

func NewDeclarationController(db *gorm.DB) *DeclarationController {
	return &DeclarationController{DB: db}
}

// CreateDeclaration -> POST /declarations
// Defter türü çözümü: istekte varsa o kullanılır; yoksa müşteri kaydından
// kopyalanır; ikisi de yoksa kayıt oluşturulmaz (veri bütünlüğü hatası).
func (dc *DeclarationController) CreateDeclaration(c *gin.Context) {
	type reqBody struct {
		CustomerID string `json:"customer_id"`
		Type       string `json:"type"`
		Month      int    `json:"month"`
		Year       int    `json:"year"`
		LedgerType string `json:"ledger_type"`
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.CustomerID == "" || req.Type == "" || req.Month == 0 || req.Year == 0 {
		utils.RespondError(c, http.StatusBadRequest, ErrMissingDeclarationFields)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidMonth)
		return
	}

	ledgerType := req.LedgerType
	if ledgerType == "" {
		var customer models.Customer
		err := dc.DB.First(&customer, "id = ?", req.CustomerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && customer.LedgerType == "") {
			utils.ErrorLogger.Printf("Integrity failure creating declaration: customer %s missing or without ledger_type", req.CustomerID)
			utils.RespondError(c, http.StatusInternalServerError, ErrLedgerUnresolved)
			return
		}
		if err != nil {
			utils.ErrorLogger.Printf("Error looking up customer %s: %v", req.CustomerID, err)
			utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to add declaration", err)
			return
		}
		ledgerType = customer.LedgerType
	}

	declaration := models.Declaration{
		CustomerID: req.CustomerID,
		Type:       req.Type,
		Month:      req.Month,
		Year:       req.Year,
		Status:     models.StatusPending,
		Note:       "",
		LedgerType: ledgerType,
	}
	if err := dc.DB.Create(&declaration).Error; err != nil {
		utils.ErrorLogger.Printf("Error adding declaration: %v", err)
		utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to add declaration", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": declaration.ID})
}

// GetDeclarations -> GET /declarations?limit=&lastVisible=&month=&year=&type=&status=&ledger=
// Filtreler eşitlik koşuludur ve VE ile birleşir; boş parametre sorguya
// hiç eklenmez. Sıralama created_at DESC, id DESC. İmleç bir önceki
// sayfanın son kaydının kimliğidir; kayıt bulunamaz veya created_at alanı
// geçersizse istek düşürülmez, ilk sayfadan devam edilir (istemci kimliğe
// göre tekilleştirme yapmakla yükümlüdür).
func (dc *DeclarationController) GetDeclarations(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultDeclarationPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultDeclarationPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	query := dc.DB.Model(&models.Declaration{})

	if v := c.Query("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, ErrInvalidMonth)
			return
		}
		query = query.Where("month = ?", month)
	}
	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, &CustomError{"year must be an integer"})
			return
		}
		query = query.Where("year = ?", year)
	}
	if v := c.Query("type"); v != "" {
		query = query.Where("type = ?", v)
	}
	if v := c.Query("status"); v != "" {
		query = query.Where("status = ?", v)
	}
	// Defter filtresi beyannamedeki denormalize kopya üzerinden çalışır;
	// müşteri koleksiyonuna gidip kimlik kümesiyle sorgulamak "in"
	// kapasite sınırına takıldığından terk edildi.
	if v := c.Query("ledger"); v != "" {
		query = query.Where("ledger_type = ?", v)
	}

	query = query.Order("created_at DESC").Order("id DESC")

	if lastVisible := c.Query("lastVisible"); lastVisible != "" {
		var cursor models.Declaration
		if err := dc.DB.First(&cursor, "id = ?", lastVisible).Error; err != nil {
			utils.InfoLogger.Printf("lastVisible declaration %s not found, fetching first page", lastVisible)
		} else if cursor.CreatedAt.IsZero() {
			utils.InfoLogger.Printf("lastVisible declaration %s has an invalid created_at, fetching first page", lastVisible)
		} else {
			query = query.Where("created_at < ? OR (created_at = ? AND id < ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
	}

	declarations := make([]models.Declaration, 0, limit)
	if err := query.Limit(limit).Find(&declarations).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching declarations: %v", err)
		utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to fetch declarations", err)
		return
	}
	if len(declarations) == 0 {
		c.JSON(http.StatusOK, gin.H{"declarations": declarations, "lastVisible": nil})
		return
	}

	if err := dc.attachCustomerNames(declarations); err != nil {
		utils.ErrorLogger.Printf("Error resolving customer names: %v", err)
		utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to fetch declarations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"declarations": declarations,
		"lastVisible":  declarations[len(declarations)-1].ID,
	})
}

// attachCustomerNames sayfadaki beyannamelere müşteri adını ekler.
// Müşteriler kimlik kümesiyle en fazla customerBatchSize kayıtlık
// parçalar halinde topluca çekilir; bulunamayan müşteri yer tutucu adla
// gösterilir, istek düşürülmez.
func (dc *DeclarationController) attachCustomerNames(declarations []models.Declaration) error {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(declarations))
	for _, d := range declarations {
		if d.CustomerID == "" {
			continue
		}
		if _, ok := seen[d.CustomerID]; ok {
			continue
		}
		seen[d.CustomerID] = struct{}{}
		ids = append(ids, d.CustomerID)
	}

	names := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += customerBatchSize {
		end := start + customerBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		var customers []models.Customer
		if err := dc.DB.Where("id IN ?", ids[start:end]).Find(&customers).Error; err != nil {
			return err
		}
		for _, cu := range customers {
			names[cu.ID] = cu.Name
		}
	}

	for i := range declarations {
		if name, ok := names[declarations[i].CustomerID]; ok {
			declarations[i].CustomerName = name
		} else {
			declarations[i].CustomerName = UnknownCustomerName
		}
	}
	return nil
}

// GetDeclarationTypes -> GET /declarations/types
// Store'da görülen beyanname türlerinin tekil ve sıralı listesi.
// İstemci bu listeyi kendi yerel türleriyle birleştirir.
func (dc *DeclarationController) GetDeclarationTypes(c *gin.Context) {
	var types []string
	if err := dc.DB.Model(&models.Declaration{}).Distinct().Pluck("type", &types).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching declaration types: %v", err)
		utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to fetch declaration types", err)
		return
	}
	sort.Strings(types)
	c.JSON(http.StatusOK, gin.H{"types": types})
}

// UpdateDeclaration -> PUT /declarations/:id
// Kısmi güncelleme yoktur: status, completed_at ve note her çağrıda
// birlikte yazılır. Completed'a geçişte completed_at verilmemişse sunucu
// zaman damgası atanır.
func (dc *DeclarationController) UpdateDeclaration(c *gin.Context) {
	id := c.Param("id")

	type reqBody struct {
		Status      string `json:"status"`
		CompletedAt string `json:"completed_at"`
		Note        string `json:"note"`
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Status != models.StatusPending && req.Status != models.StatusCompleted {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidStatus)
		return
	}

	updates := map[string]interface{}{
		"status": req.Status,
		"note":   req.Note,
	}
	switch {
	case req.CompletedAt != "":
		completedAt, err := parseTimestamp(req.CompletedAt)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, ErrInvalidCompletedAt)
			return
		}
		updates["completed_at"] = completedAt
	case req.Status == models.StatusCompleted:
		updates["completed_at"] = time.Now()
	default:
		updates["completed_at"] = nil
	}

	if err := dc.DB.Model(&models.Declaration{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		utils.ErrorLogger.Printf("Error updating declaration %s: %v", id, err)
		utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to update declaration", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": id})
}

// DeleteDeclaration -> DELETE /declarations/:id
// Var olmayan bir kaydın silinmesi de başarı döner (idempotent).
func (dc *DeclarationController) DeleteDeclaration(c *gin.Context) {
	id := c.Param("id")

	if err := dc.DB.Delete(&models.Declaration{}, "id = ?", id).Error; err != nil {
		utils.ErrorLogger.Printf("Error deleting declaration %s: %v", id, err)
		utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to delete declaration", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// parseTimestamp RFC3339 veya YYYY-MM-DD biçimini kabul eder (istemci
// tamamlanma tarihini yalnızca gün olarak da gönderebilir).
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
