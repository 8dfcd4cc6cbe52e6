package client_test

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oguzkagan/beyanname-takip/client"
	"github.com/oguzkagan/beyanname-takip/models"
	"github.com/oguzkagan/beyanname-takip/router"
	"github.com/oguzkagan/beyanname-takip/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestServer -> gerçek router + SQLite in-memory üzerinde bir test sunucusu
func newTestServer(t *testing.T) (*gorm.DB, *client.Client) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Customer{}, &models.Declaration{}); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	srv := httptest.NewServer(router.SetupRouter(db))
	t.Cleanup(srv.Close)
	return db, client.New(srv.URL)
}

func seedCustomers(db *gorm.DB, names ...string) []models.Customer {
	out := make([]models.Customer, 0, len(names))
	for _, n := range names {
		cu := models.Customer{Name: n, TaxNo: "111", LedgerType: models.LedgerIsletme}
		db.Create(&cu)
		out = append(out, cu)
	}
	return out
}

func TestCustomerFeedIncrementalLoad(t *testing.T) {
	db, api := newTestServer(t)
	seedCustomers(db, "Ayse", "Berk", "Cem", "Derya", "Ege")

	feed := client.NewCustomerFeed(api, 2)
	assert.NoError(t, feed.LoadFirstPage())
	assert.Len(t, feed.Items(), 2)
	assert.True(t, feed.HasMore())
	assert.Equal(t, client.StateLoaded, feed.State())

	assert.NoError(t, feed.LoadMore())
	assert.Len(t, feed.Items(), 4)
	assert.True(t, feed.HasMore())

	assert.NoError(t, feed.LoadMore())
	assert.Len(t, feed.Items(), 5)
	assert.False(t, feed.HasMore())

	// hasMore kapalıyken LoadMore sessizce düşer
	assert.NoError(t, feed.LoadMore())
	assert.Len(t, feed.Items(), 5)

	names := make([]string, 0, 5)
	for _, cu := range feed.Items() {
		names = append(names, cu.Name)
	}
	assert.Equal(t, []string{"Ayse", "Berk", "Cem", "Derya", "Ege"}, names)
}

func TestDeclarationFeedFilterChangeReloads(t *testing.T) {
	db, api := newTestServer(t)
	customers := seedCustomers(db, "Acme")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		db.Create(&models.Declaration{
			CustomerID: customers[0].ID,
			Type:       "KDV",
			Month:      i + 1,
			Year:       2024,
			Status:     models.StatusPending,
			LedgerType: customers[0].LedgerType,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}

	feed := client.NewDeclarationFeed(api, 10)
	assert.NoError(t, feed.LoadFirstPage())
	assert.Len(t, feed.Items(), 4)

	assert.NoError(t, feed.SetFilter(client.DeclarationFilter{Month: 2}))
	items := feed.Items()
	assert.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Month)
	assert.False(t, feed.HasMore())
}

func TestDeclarationFeedDedupesOverlappingPages(t *testing.T) {
	// İmleç kaymasını taklit eden sahte sunucu: ikinci sayfa ilk
	// sayfanın son kaydını tekrar içerir.
	pageOne := []models.Declaration{{ID: "a", Type: "KDV"}, {ID: "b", Type: "KDV"}}
	pageTwo := []models.Declaration{{ID: "b", Type: "KDV"}, {ID: "c", Type: "KDV"}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		page := pageOne
		if r.URL.Query().Get("lastVisible") != "" {
			page = pageTwo
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"declarations": page,
			"lastVisible":  page[len(page)-1].ID,
		})
	}))
	defer srv.Close()

	feed := client.NewDeclarationFeed(client.New(srv.URL), 2)
	assert.NoError(t, feed.LoadFirstPage())
	assert.NoError(t, feed.LoadMore())

	ids := make([]string, 0)
	for _, d := range feed.Items() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestDeclarationFeedSingleFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		started <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"declarations": []models.Declaration{},
			"lastVisible":  nil,
		})
	}))
	defer srv.Close()

	feed := client.NewDeclarationFeed(client.New(srv.URL), 5)

	done := make(chan error, 1)
	go func() { done <- feed.LoadFirstPage() }()
	<-started

	// ilk istek yoldayken gelen ikinci istek kuyruklanmaz, düşürülür
	assert.NoError(t, feed.LoadMore())
	assert.NoError(t, feed.LoadFirstPage())

	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, 1, requests)
}

func TestOptimisticStatusUpdateSuccess(t *testing.T) {
	db, api := newTestServer(t)
	customers := seedCustomers(db, "Acme")
	d := models.Declaration{
		CustomerID: customers[0].ID,
		Type:       "KDV",
		Month:      1,
		Year:       2024,
		Status:     models.StatusPending,
		LedgerType: customers[0].LedgerType,
		CreatedAt:  time.Now().Add(-time.Hour),
	}
	db.Create(&d)

	feed := client.NewDeclarationFeed(api, 10)
	assert.NoError(t, feed.LoadFirstPage())

	assert.NoError(t, feed.UpdateStatus(d.ID, models.StatusCompleted))

	items := feed.Items()
	assert.Equal(t, models.StatusCompleted, items[0].Status)
	assert.NotNil(t, items[0].CompletedAt)

	var stored models.Declaration
	db.First(&stored, "id = ?", d.ID)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
}

func TestOptimisticStatusUpdateRollback(t *testing.T) {
	d := models.Declaration{ID: "d1", Type: "KDV", Status: models.StatusPending, Note: "eski not"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Failed to update declaration"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"declarations": []models.Declaration{d},
			"lastVisible":  d.ID,
		})
	}))
	defer srv.Close()

	feed := client.NewDeclarationFeed(client.New(srv.URL), 10)
	assert.NoError(t, feed.LoadFirstPage())

	err := feed.UpdateStatus("d1", models.StatusCompleted)
	assert.Error(t, err)

	// kayıt, güncelleme öncesi haline döner
	items := feed.Items()
	assert.Equal(t, models.StatusPending, items[0].Status)
	assert.Nil(t, items[0].CompletedAt)
	assert.Equal(t, "eski not", items[0].Note)

	var apiErr *client.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestOptimisticUpdateMissingItemAborts(t *testing.T) {
	puts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"declarations": []models.Declaration{},
			"lastVisible":  nil,
		})
	}))
	defer srv.Close()

	feed := client.NewDeclarationFeed(client.New(srv.URL), 10)
	assert.NoError(t, feed.LoadFirstPage())

	err := feed.UpdateStatus("listede-yok", models.StatusCompleted)
	assert.ErrorIs(t, err, client.ErrItemNotFound)
	// kör yazma yapılmadı
	assert.Equal(t, 0, puts)
}

func TestConcurrentMutationsForSameDeclarationRejected(t *testing.T) {
	d := models.Declaration{ID: "d1", Type: "KDV", Status: models.StatusPending}
	putStarted := make(chan struct{})
	putRelease := make(chan struct{})
	puts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
			putStarted <- struct{}{}
			<-putRelease
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"updated": "d1"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"declarations": []models.Declaration{d},
			"lastVisible":  d.ID,
		})
	}))
	defer srv.Close()

	feed := client.NewDeclarationFeed(client.New(srv.URL), 10)
	assert.NoError(t, feed.LoadFirstPage())

	done := make(chan error, 1)
	go func() { done <- feed.UpdateStatus("d1", models.StatusCompleted) }()
	<-putStarted

	// ilk güncelleme yoldayken aynı kayıt için ikincisi reddedilir
	err := feed.UpdateNote("d1", "araya giren not")
	assert.ErrorIs(t, err, client.ErrMutationInFlight)

	close(putRelease)
	assert.NoError(t, <-done)
	assert.Equal(t, 1, puts)

	// reddedilen not yerelde de uygulanmamıştır
	assert.Equal(t, "", feed.Items()[0].Note)
}

func TestOptimisticNoteUpdate(t *testing.T) {
	db, api := newTestServer(t)
	customers := seedCustomers(db, "Acme")
	d := models.Declaration{
		CustomerID: customers[0].ID,
		Type:       "KDV",
		Month:      1,
		Year:       2024,
		Status:     models.StatusPending,
		LedgerType: customers[0].LedgerType,
		CreatedAt:  time.Now(),
	}
	db.Create(&d)

	feed := client.NewDeclarationFeed(api, 10)
	assert.NoError(t, feed.LoadFirstPage())

	assert.NoError(t, feed.UpdateNote(d.ID, "takip edilecek"))
	assert.Equal(t, "takip edilecek", feed.Items()[0].Note)

	var stored models.Declaration
	db.First(&stored, "id = ?", d.ID)
	assert.Equal(t, "takip edilecek", stored.Note)
	// not güncellemesi durumu değiştirmez
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestReplaceForCustomer(t *testing.T) {
	db, api := newTestServer(t)
	customers := seedCustomers(db, "Acme")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		db.Create(&models.Declaration{
			CustomerID: customers[0].ID,
			Type:       "KDV",
			Month:      i + 1,
			Year:       2024,
			Status:     models.StatusPending,
			LedgerType: customers[0].LedgerType,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}

	feed := client.NewDeclarationFeed(api, 10)
	assert.NoError(t, feed.LoadFirstPage())
	assert.Len(t, feed.Items(), 3)

	err := feed.ReplaceForCustomer(customers[0].ID, 2024, map[string][]int{
		"Muhtasar": {1, 2},
	})
	assert.NoError(t, err)

	items := feed.Items()
	assert.Len(t, items, 2)
	for _, d := range items {
		assert.Equal(t, "Muhtasar", d.Type)
		assert.Equal(t, customers[0].ID, d.CustomerID)
		// defter türü müşteriden kopyalanır
		assert.Equal(t, models.LedgerIsletme, d.LedgerType)
	}
}
