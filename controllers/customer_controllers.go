package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/oguzkagan/beyanname-takip/models"
	"github.com/oguzkagan/beyanname-takip/utils"
	"gorm.io/gorm"
)

const defaultCustomerPageSize = 15

type CustomerController struct {
	DB *gorm.DB
}

func NewCustomerController(db *gorm.DB) *CustomerController {
	return &CustomerController{DB: db}
}

// CreateCustomer -> POST /customers
func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	type reqBody struct {
		Name       string `json:"name"`
		TaxNo      string `json:"tax_no"`
		LedgerType string `json:"ledger_type"`
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" || req.TaxNo == "" || req.LedgerType == "" {
		utils.RespondError(c, http.StatusBadRequest, ErrMissingCustomerFields)
		return
	}

	customer := models.Customer{
		Name:       req.Name,
		TaxNo:      req.TaxNo,
		LedgerType: req.LedgerType,
	}
	if err := cc.DB.Create(&customer).Error; err != nil {
		utils.ErrorLogger.Printf("Error adding customer: %v", err)
		utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to add customer", err)
		return
	}

	utils.InfoLogger.Printf("New customer created (id=%s)", customer.ID)
	c.JSON(http.StatusCreated, gin.H{"id": customer.ID})
}

// GetCustomers -> GET /customers?limit=&lastVisible=
// Ada göre artan sıralı, imleçli sayfalama. İmleç bir önceki sayfanın son
// kaydının kimliğidir; kayıt bulunamazsa ilk sayfadan devam edilir.
func (cc *CustomerController) GetCustomers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultCustomerPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultCustomerPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	query := cc.DB.Model(&models.Customer{}).Order("name ASC").Order("id ASC")

	if lastVisible := c.Query("lastVisible"); lastVisible != "" {
		var cursor models.Customer
		if err := cc.DB.First(&cursor, "id = ?", lastVisible).Error; err == nil {
			query = query.Where("name > ? OR (name = ? AND id > ?)", cursor.Name, cursor.Name, cursor.ID)
		} else {
			utils.InfoLogger.Printf("lastVisible customer %s not found, fetching first page", lastVisible)
		}
	}

	customers := make([]models.Customer, 0, limit)
	if err := query.Limit(limit).Find(&customers).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching customers: %v", err)
		utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to fetch customers", err)
		return
	}

	var newLastVisible interface{}
	if len(customers) > 0 {
		newLastVisible = customers[len(customers)-1].ID
	}
	c.JSON(http.StatusOK, gin.H{
		"customers":   customers,
		"lastVisible": newLastVisible,
	})
}

// GetCustomerCount -> GET /customers/count
func (cc *CustomerController) GetCustomerCount(c *gin.Context) {
	var count int64
	if err := cc.DB.Model(&models.Customer{}).Count(&count).Error; err != nil {
		utils.ErrorLogger.Printf("Error counting customers: %v", err)
		utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to count customers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// DeleteCustomer -> DELETE /customers/:id
// Önce müşteriye ait tüm beyannameler tek bir toplu silme ile, ardından
// müşteri kaydı silinir. İki adım tek bir transaction içinde değildir;
// adımlar arasında çökülürse beyannameleri silinmiş ama kendisi duran bir
// müşteri kalabilir. Aynı çağrının tekrarı bu durumu toparlar.
func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	id := c.Param("id")

	if err := cc.DB.Where("customer_id = ?", id).Delete(&models.Declaration{}).Error; err != nil {
		utils.ErrorLogger.Printf("Error deleting declarations of customer %s: %v", id, err)
		utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to delete customer", err)
		return
	}
	if err := cc.DB.Delete(&models.Customer{}, "id = ?", id).Error; err != nil {
		utils.ErrorLogger.Printf("Error deleting customer %s: %v", id, err)
		utils.RespondErrorDetails(c, http.StatusInternalServerError, "Failed to delete customer", err)
		return
	}

	utils.InfoLogger.Printf("Customer %s and associated declarations deleted", id)
	c.JSON(http.StatusOK, gin.H{
		"deleted": id,
		"message": "Customer and associated declarations deleted.",
	})
}
