// Package client beyanname-takip sunucusu için Go istemcisidir:
// tip güvenli REST çağrıları, artımlı sayfa yükleme ve iyimser
// güncelleme akışı burada yaşar.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/oguzkagan/beyanname-takip/models"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New bir API istemcisi döner. İsteklere zaman aşımı konmaz; yavaş bir
// istek yalnızca ilgili durum geçişini geciktirir.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
	}
}

// APIError sunucunun {error, details} gövdesiyle döndüğü başarısız çağrıdır.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

type CustomerPage struct {
	Customers   []models.Customer `json:"customers"`
	LastVisible string            `json:"lastVisible"`
}

type DeclarationPage struct {
	Declarations []models.Declaration `json:"declarations"`
	LastVisible  string               `json:"lastVisible"`
}

// DeclarationFilter sıfır değerli alanları sorguya eklenmeyen eşitlik
// filtreleridir.
type DeclarationFilter struct {
	Month  int
	Year   int
	Type   string
	Status string
	Ledger string
}

func (f DeclarationFilter) query() url.Values {
	q := url.Values{}
	if f.Month != 0 {
		q.Set("month", strconv.Itoa(f.Month))
	}
	if f.Year != 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Ledger != "" {
		q.Set("ledger", f.Ledger)
	}
	return q
}

type DeclarationInput struct {
	CustomerID string `json:"customer_id"`
	Type       string `json:"type"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	LedgerType string `json:"ledger_type,omitempty"`
}

func (cl *Client) CreateCustomer(name, taxNo, ledgerType string) (string, error) {
	body := map[string]string{"name": name, "tax_no": taxNo, "ledger_type": ledgerType}
	var resp struct {
		ID string `json:"id"`
	}
	if err := cl.do(http.MethodPost, "/customers", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (cl *Client) Customers(limit int, lastVisible string) (CustomerPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if lastVisible != "" {
		q.Set("lastVisible", lastVisible)
	}
	var page CustomerPage
	err := cl.do(http.MethodGet, "/customers", q, nil, &page)
	return page, err
}

func (cl *Client) CustomerCount() (int64, error) {
	var resp struct {
		Count int64 `json:"count"`
	}
	err := cl.do(http.MethodGet, "/customers/count", nil, nil, &resp)
	return resp.Count, err
}

func (cl *Client) DeleteCustomer(id string) error {
	return cl.do(http.MethodDelete, "/customers/"+id, nil, nil, nil)
}

func (cl *Client) CreateDeclaration(in DeclarationInput) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := cl.do(http.MethodPost, "/declarations", nil, in, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (cl *Client) Declarations(limit int, lastVisible string, filter DeclarationFilter) (DeclarationPage, error) {
	q := filter.query()
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if lastVisible != "" {
		q.Set("lastVisible", lastVisible)
	}
	var page DeclarationPage
	err := cl.do(http.MethodGet, "/declarations", q, nil, &page)
	return page, err
}

// UpdateDeclaration her çağrıda üçlünün tamamını yazar; kısmi güncelleme
// yoktur.
func (cl *Client) UpdateDeclaration(id, status, completedAt, note string) error {
	body := map[string]string{
		"status":       status,
		"completed_at": completedAt,
		"note":         note,
	}
	return cl.do(http.MethodPut, "/declarations/"+id, nil, body, nil)
}

func (cl *Client) DeleteDeclaration(id string) error {
	return cl.do(http.MethodDelete, "/declarations/"+id, nil, nil, nil)
}

func (cl *Client) DeclarationTypes() ([]string, error) {
	var resp struct {
		Types []string `json:"types"`
	}
	err := cl.do(http.MethodGet, "/declarations/types", nil, nil, &resp)
	return resp.Types, err
}

func (cl *Client) do(method, path string, query url.Values, body, out interface{}) error {
	endpoint := cl.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := cl.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
