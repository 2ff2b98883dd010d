// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/mmeshcher/skip-selection/internal/model"
)

var (
	// ErrInvalidSkip возвращается, если запись каталога нарушает ограничения модели.
	ErrInvalidSkip = errors.New("invalid skip option")
	// ErrInvalidLocation возвращается при некорректном почтовом индексе или районе.
	ErrInvalidLocation = errors.New("invalid location")
)

// ValidateSkipOption проверяет, что запись каталога имеет допустимые значения.
func ValidateSkipOption(s model.SkipOption) error {
	switch {
	case s.Size <= 0:
		return fmt.Errorf("%w: id %d: size must be positive, got %d", ErrInvalidSkip, s.ID, s.Size)
	case s.HirePeriodDays <= 0:
		return fmt.Errorf("%w: id %d: hire period must be positive, got %d", ErrInvalidSkip, s.ID, s.HirePeriodDays)
	case !isNonNegative(s.PriceBeforeVAT):
		return fmt.Errorf("%w: id %d: price before vat must be non-negative, got %v", ErrInvalidSkip, s.ID, s.PriceBeforeVAT)
	case !isNonNegative(s.VATPercent):
		return fmt.Errorf("%w: id %d: vat must be non-negative, got %v", ErrInvalidSkip, s.ID, s.VATPercent)
	}
	return nil
}

func isNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// ValidateLocation проверяет почтовый индекс и район.
// Индекс допускает буквы, цифры и один пробел между частями.
func ValidateLocation(loc model.Location) error {
	postcode := strings.TrimSpace(loc.Postcode)
	if postcode == "" || len(postcode) > 8 {
		return fmt.Errorf("%w: postcode %q", ErrInvalidLocation, loc.Postcode)
	}

	spaces := 0
	for _, ch := range postcode {
		switch {
		case ch == ' ':
			spaces++
		case ch > unicode.MaxASCII || !(unicode.IsLetter(ch) || unicode.IsDigit(ch)):
			return fmt.Errorf("%w: postcode %q", ErrInvalidLocation, loc.Postcode)
		}
	}
	if spaces > 1 || !unicode.IsLetter(rune(postcode[0])) {
		return fmt.Errorf("%w: postcode %q", ErrInvalidLocation, loc.Postcode)
	}

	if strings.TrimSpace(loc.Area) == "" {
		return fmt.Errorf("%w: empty area", ErrInvalidLocation)
	}

	return nil
}
