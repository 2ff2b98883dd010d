// Package model содержит доменные сущности шага выбора контейнера.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Location описывает ключ локации, для которой запрашивается каталог.
type Location struct {
	Postcode string
	Area     string
}

// SkipOption описывает один вариант контейнера из удалённого каталога.
type SkipOption struct {
	ID               int64   `json:"id"`
	Size             int     `json:"size"`
	HirePeriodDays   int     `json:"hire_period_days"`
	PriceBeforeVAT   float64 `json:"price_before_vat"`
	VATPercent       float64 `json:"vat"`
	AllowedOnRoad    bool    `json:"allowed_on_road"`
	AllowsHeavyWaste bool    `json:"allows_heavy_waste"`
}

// VATAmount возвращает сумму НДС для варианта.
func (s SkipOption) VATAmount() float64 {
	return s.PriceBeforeVAT * (s.VATPercent / 100)
}

// TotalPrice возвращает итоговую цену с учётом НДС.
func (s SkipOption) TotalPrice() float64 {
	return s.PriceBeforeVAT * (1 + s.VATPercent/100)
}

// Status описывает стадию загрузки каталога.
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusLoading Status = "LOADING"
	StatusReady   Status = "READY"
	StatusFailed  Status = "FAILED"
)

// SortKey задаёт порядок сортировки проекции каталога.
type SortKey string

const (
	SortBySize  SortKey = "size"
	SortByPrice SortKey = "price"
)

// RoadFilter задаёт фильтр по возможности установки на дороге.
type RoadFilter string

const (
	RoadAny        RoadFilter = "all"
	RoadAllowed    RoadFilter = "true"
	RoadDisallowed RoadFilter = "false"
)

// Snapshot является копией состояния выбора на момент чтения.
type Snapshot struct {
	Catalog      []SkipOption
	Selected     *SkipOption
	Status       Status
	ErrorMessage string
	// Version увеличивается при каждой успешной замене каталога.
	Version uint64
}

// Booking описывает черновик бронирования, передаваемый на следующий шаг.
type Booking struct {
	ID         uuid.UUID
	Postcode   string
	Area       string
	Skip       SkipOption
	TotalPrice float64
	CreatedAt  time.Time
}
