// Package catalog предоставляет клиент для удалённого каталога контейнеров.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmeshcher/skip-selection/internal/model"
	"github.com/mmeshcher/skip-selection/internal/validation"
)

const maxBodySize = 4 << 20

// Client инкапсулирует HTTP-взаимодействие с сервисом каталога.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// skipRecord описывает запись каталога в формате ответа сервиса.
// Поля-указатели позволяют отличить отсутствующее поле от нулевого значения.
type skipRecord struct {
	ID               *int64   `json:"id"`
	Size             *int     `json:"size"`
	HirePeriodDays   *int     `json:"hire_period_days"`
	PriceBeforeVAT   *float64 `json:"price_before_vat"`
	VAT              *float64 `json:"vat"`
	AllowedOnRoad    *bool    `json:"allowed_on_road"`
	AllowsHeavyWaste *bool    `json:"allows_heavy_waste"`
}

// NewClient создаёт клиент каталога для указанного адреса.
// Нулевой timeout означает отсутствие ограничения времени запроса.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchCatalog запрашивает список вариантов контейнеров для указанной локации.
// Повторные попытки не выполняются.
func (c *Client) FetchCatalog(ctx context.Context, loc model.Location) ([]model.SkipOption, error) {
	if c == nil || c.endpoint == "" {
		return nil, &FetchError{Kind: KindNetwork, Err: errors.New("catalog client not configured")}
	}

	base := c.endpoint
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: fmt.Errorf("create request: %w", err)}
	}

	// Параметры локации дополняют запрос, уже заданный в адресе каталога.
	query := u.Query()
	query.Set("postcode", loc.Postcode)
	query.Set("area", loc.Area)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, &FetchError{Kind: KindUnavailable, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: fmt.Errorf("read response: %w", err)}
	}
	if len(body) > maxBodySize {
		return nil, &FetchError{Kind: KindMalformed, Err: fmt.Errorf("response exceeds %d bytes", maxBodySize)}
	}

	options, err := decodeCatalog(body)
	if err != nil {
		return nil, &FetchError{Kind: KindMalformed, Err: err}
	}

	return options, nil
}

func decodeCatalog(body []byte) ([]model.SkipOption, error) {
	var records []skipRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if records == nil {
		return nil, errors.New("decode response: expected array, got null")
	}

	options := make([]model.SkipOption, 0, len(records))
	for i, r := range records {
		opt, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if err := validation.ValidateSkipOption(opt); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		options = append(options, opt)
	}

	return options, nil
}

func (r skipRecord) toModel() (model.SkipOption, error) {
	var missing []string
	if r.ID == nil {
		missing = append(missing, "id")
	}
	if r.Size == nil {
		missing = append(missing, "size")
	}
	if r.HirePeriodDays == nil {
		missing = append(missing, "hire_period_days")
	}
	if r.PriceBeforeVAT == nil {
		missing = append(missing, "price_before_vat")
	}
	if r.VAT == nil {
		missing = append(missing, "vat")
	}
	if r.AllowedOnRoad == nil {
		missing = append(missing, "allowed_on_road")
	}
	if r.AllowsHeavyWaste == nil {
		missing = append(missing, "allows_heavy_waste")
	}
	if len(missing) > 0 {
		return model.SkipOption{}, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	return model.SkipOption{
		ID:               *r.ID,
		Size:             *r.Size,
		HirePeriodDays:   *r.HirePeriodDays,
		PriceBeforeVAT:   *r.PriceBeforeVAT,
		VATPercent:       *r.VAT,
		AllowedOnRoad:    *r.AllowedOnRoad,
		AllowsHeavyWaste: *r.AllowsHeavyWaste,
	}, nil
}
