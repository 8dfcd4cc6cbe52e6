package client

import (
	"errors"
	"sync"
	"time"

	"github.com/oguzkagan/beyanname-takip/models"
)

// ListState sayfalı bir listenin yaşam döngüsü durumudur.
type ListState int

const (
	StateIdle ListState = iota
	StateLoadingFirstPage
	StateLoadingMore
	StateLoaded
	StateError
)

var (
	// ErrItemNotFound: iyimser güncelleme uygulanacak kayıt yerel
	// listede yok; sunucuya kör yazma yapılmaz.
	ErrItemNotFound = errors.New("declaration not found in local list")
	// ErrMutationInFlight: aynı beyanname için bir güncelleme zaten
	// yolda; geri alma anlık görüntülerinin yarışmaması için ikincisi
	// reddedilir.
	ErrMutationInFlight = errors.New("another update for this declaration is in flight")
)

// CustomerFeed müşteri listesinin artımlı yüklenmesini yönetir.
// Sayfa istekleri liste başına tek uçuşludur: biri yoldayken gelen yenisi
// kuyruklanmaz, düşürülür.
type CustomerFeed struct {
	api      *Client
	pageSize int

	mu       sync.Mutex
	fetching bool
	state    ListState
	items    []models.Customer
	cursor   string
	hasMore  bool
	lastErr  error
}

func NewCustomerFeed(api *Client, pageSize int) *CustomerFeed {
	if pageSize <= 0 {
		pageSize = 15
	}
	return &CustomerFeed{api: api, pageSize: pageSize, hasMore: true}
}

// LoadFirstPage listeyi baştan yükler. Eskisi, yenisi hazır olana kadar
// yerinde kalır (görünür bir boşalma olmaz).
func (f *CustomerFeed) LoadFirstPage() error {
	f.mu.Lock()
	if f.fetching {
		f.mu.Unlock()
		return nil
	}
	f.fetching = true
	f.state = StateLoadingFirstPage
	f.mu.Unlock()

	page, err := f.api.Customers(f.pageSize, "")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetching = false
	if err != nil {
		f.state = StateError
		f.lastErr = err
		return err
	}
	f.items = page.Customers
	f.cursor = page.LastVisible
	f.hasMore = len(page.Customers) >= f.pageSize
	f.state = StateLoaded
	f.lastErr = nil
	return nil
}

// LoadMore bir sonraki sayfayı mevcut listeye ekler. Sunucu imleci
// kaydıysa sayfalar çakışabilir; kimliğe göre tekilleştirilir.
func (f *CustomerFeed) LoadMore() error {
	f.mu.Lock()
	if f.fetching || !f.hasMore {
		f.mu.Unlock()
		return nil
	}
	f.fetching = true
	f.state = StateLoadingMore
	cursor := f.cursor
	f.mu.Unlock()

	page, err := f.api.Customers(f.pageSize, cursor)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetching = false
	if err != nil {
		f.state = StateError
		f.lastErr = err
		return err
	}
	seen := make(map[string]struct{}, len(f.items))
	for _, cu := range f.items {
		seen[cu.ID] = struct{}{}
	}
	for _, cu := range page.Customers {
		if _, ok := seen[cu.ID]; ok {
			continue
		}
		f.items = append(f.items, cu)
	}
	f.cursor = page.LastVisible
	f.hasMore = len(page.Customers) >= f.pageSize
	f.state = StateLoaded
	f.lastErr = nil
	return nil
}

func (f *CustomerFeed) Items() []models.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Customer, len(f.items))
	copy(out, f.items)
	return out
}

func (f *CustomerFeed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

func (f *CustomerFeed) State() ListState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *CustomerFeed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// DeclarationFeed beyanname listesinin artımlı yüklenmesi ile durum/not
// güncellemelerinin iyimser uygulanmasını yönetir.
type DeclarationFeed struct {
	api      *Client
	pageSize int

	mu       sync.Mutex
	fetching bool
	state    ListState
	items    []models.Declaration
	cursor   string
	hasMore  bool
	lastErr  error
	filter   DeclarationFilter
	mutating map[string]struct{}
}

func NewDeclarationFeed(api *Client, pageSize int) *DeclarationFeed {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &DeclarationFeed{
		api:      api,
		pageSize: pageSize,
		hasMore:  true,
		mutating: make(map[string]struct{}),
	}
}

// SetFilter aktif filtreyi değiştirir ve listeyi baştan yükler; eski
// imleç atılır.
func (f *DeclarationFeed) SetFilter(filter DeclarationFilter) error {
	f.mu.Lock()
	f.filter = filter
	f.cursor = ""
	f.hasMore = true
	f.mu.Unlock()
	return f.LoadFirstPage()
}

func (f *DeclarationFeed) Filter() DeclarationFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter
}

// LoadFirstPage listeyi aktif filtreyle baştan yükler. Birikmiş kayıtlar
// ancak yeni sayfa geldikten sonra değiştirilir.
func (f *DeclarationFeed) LoadFirstPage() error {
	f.mu.Lock()
	if f.fetching {
		f.mu.Unlock()
		return nil
	}
	f.fetching = true
	f.state = StateLoadingFirstPage
	filter := f.filter
	f.mu.Unlock()

	page, err := f.api.Declarations(f.pageSize, "", filter)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetching = false
	if err != nil {
		f.state = StateError
		f.lastErr = err
		return err
	}
	f.items = page.Declarations
	f.cursor = page.LastVisible
	f.hasMore = len(page.Declarations) >= f.pageSize
	f.state = StateLoaded
	f.lastErr = nil
	return nil
}

// LoadMore bir sonraki sayfayı kimliğe göre tekilleştirerek ekler.
// İmleç sunucuda bulunamayıp sayfalama baştan başladıysa gelen çakışan
// kayıtlar burada elenir.
func (f *DeclarationFeed) LoadMore() error {
	f.mu.Lock()
	if f.fetching || !f.hasMore {
		f.mu.Unlock()
		return nil
	}
	f.fetching = true
	f.state = StateLoadingMore
	cursor := f.cursor
	filter := f.filter
	f.mu.Unlock()

	page, err := f.api.Declarations(f.pageSize, cursor, filter)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetching = false
	if err != nil {
		f.state = StateError
		f.lastErr = err
		return err
	}
	seen := make(map[string]struct{}, len(f.items))
	for _, d := range f.items {
		seen[d.ID] = struct{}{}
	}
	for _, d := range page.Declarations {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		f.items = append(f.items, d)
	}
	f.cursor = page.LastVisible
	f.hasMore = len(page.Declarations) >= f.pageSize
	f.state = StateLoaded
	f.lastErr = nil
	return nil
}

func (f *DeclarationFeed) Items() []models.Declaration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Declaration, len(f.items))
	copy(out, f.items)
	return out
}

func (f *DeclarationFeed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

func (f *DeclarationFeed) State() ListState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *DeclarationFeed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// UpdateStatus durumu önce yerelde uygular, sonra sunucuya yazar.
// Yazma başarısız olursa kayıt, güncelleme öncesi anlık görüntüsüne
// geri döndürülür. Başarıda yeniden çekim yapılmaz.
func (f *DeclarationFeed) UpdateStatus(id, newStatus string) error {
	f.mu.Lock()
	if _, busy := f.mutating[id]; busy {
		f.mu.Unlock()
		return ErrMutationInFlight
	}
	idx := f.indexOf(id)
	if idx < 0 {
		f.mu.Unlock()
		return ErrItemNotFound
	}
	snapshot := f.items[idx]

	f.items[idx].Status = newStatus
	var completedAt string
	if newStatus == models.StatusCompleted {
		now := time.Now()
		f.items[idx].CompletedAt = &now
		completedAt = now.Format(time.RFC3339)
	} else {
		f.items[idx].CompletedAt = nil
	}
	note := f.items[idx].Note
	f.mutating[id] = struct{}{}
	f.mu.Unlock()

	err := f.api.UpdateDeclaration(id, newStatus, completedAt, note)

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mutating, id)
	if err != nil {
		if idx := f.indexOf(id); idx >= 0 {
			f.items[idx] = snapshot
		}
		return err
	}
	return nil
}

// UpdateNote notu iyimser uygular; kurallar UpdateStatus ile aynıdır.
func (f *DeclarationFeed) UpdateNote(id, note string) error {
	f.mu.Lock()
	if _, busy := f.mutating[id]; busy {
		f.mu.Unlock()
		return ErrMutationInFlight
	}
	idx := f.indexOf(id)
	if idx < 0 {
		f.mu.Unlock()
		return ErrItemNotFound
	}
	snapshot := f.items[idx]

	f.items[idx].Note = note
	status := f.items[idx].Status
	var completedAt string
	if f.items[idx].CompletedAt != nil {
		completedAt = f.items[idx].CompletedAt.Format(time.RFC3339)
	}
	f.mutating[id] = struct{}{}
	f.mu.Unlock()

	err := f.api.UpdateDeclaration(id, status, completedAt, note)

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mutating, id)
	if err != nil {
		if idx := f.indexOf(id); idx >= 0 {
			f.items[idx] = snapshot
		}
		return err
	}
	return nil
}

// ReplaceForCustomer bir müşterinin yerelde görünen beyannamelerini siler
// ve verilen yıl için seçilen (tür -> aylar) kümesini yeniden oluşturur
// (düzenleme ekranının kaydetme akışı).
func (f *DeclarationFeed) ReplaceForCustomer(customerID string, year int, selection map[string][]int) error {
	for _, d := range f.Items() {
		if d.CustomerID != customerID {
			continue
		}
		if err := f.api.DeleteDeclaration(d.ID); err != nil {
			return err
		}
	}
	for declType, months := range selection {
		for _, month := range months {
			_, err := f.api.CreateDeclaration(DeclarationInput{
				CustomerID: customerID,
				Type:       declType,
				Month:      month,
				Year:       year,
			})
			if err != nil {
				return err
			}
		}
	}
	return f.LoadFirstPage()
}

// çağıranın kilidi tutması gerekir
func (f *DeclarationFeed) indexOf(id string) int {
	for i := range f.items {
		if f.items[i].ID == id {
			return i
		}
	}
	return -1
}
