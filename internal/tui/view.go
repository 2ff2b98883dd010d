package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmeshcher/skip-selection/internal/model"
)

var (
	colorAccent = lipgloss.Color("33")
	colorMuted  = lipgloss.Color("245")
	colorError  = lipgloss.Color("196")
	colorDone   = lipgloss.Color("42")

	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	doneStyle     = lipgloss.NewStyle().Foreground(colorDone)
	currentStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(colorDone).Bold(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(colorError)
	errorStyle    = lipgloss.NewStyle().
			Foreground(colorError).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(0, 1)
)

var wizardSteps = []string{"Postcode", "Waste Type", "Select Skip", "Permit Check", "Choose Date", "Payment"}

const currentStep = 2

// View отрисовывает состояние шага выбора контейнера.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(renderStepper())
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("Choose Your Skip Size"))
	b.WriteString("\n")
	loc := m.store.Location()
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s, %s. All prices include VAT.", loc.Postcode, loc.Area)))
	b.WriteString("\n\n")

	switch m.snap.Status {
	case model.StatusFailed:
		b.WriteString(errorStyle.Render("Error loading skip options: " + m.snap.ErrorMessage + "\nPress r to try again."))
		b.WriteString("\n")
	case model.StatusLoading, model.StatusIdle:
		b.WriteString(m.spinner.View() + " Loading skip options...")
		b.WriteString("\n")
	}

	// Ранее загруженный каталог остаётся на экране во время обновления и после ошибки.
	if m.snap.Status == model.StatusReady || len(m.snap.Catalog) > 0 {
		if m.snap.Status != model.StatusReady {
			b.WriteString("\n")
		}
		b.WriteString(m.renderControls())
		b.WriteString("\n\n")
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func renderStepper() string {
	parts := make([]string, 0, len(wizardSteps))
	for i, step := range wizardSteps {
		switch {
		case i < currentStep:
			parts = append(parts, doneStyle.Render("✓ "+step))
		case i == currentStep:
			parts = append(parts, currentStyle.Render("● "+step))
		default:
			parts = append(parts, mutedStyle.Render("○ "+step))
		}
	}
	return strings.Join(parts, mutedStyle.Render(" › "))
}

func (m *Model) renderControls() string {
	sortLabel := "Sort by Size"
	if m.sortKey == model.SortByPrice {
		sortLabel = "Sort by Price"
	}
	return mutedStyle.Render(fmt.Sprintf("%s · %s", sortLabel, roadFilterLabel(m.roadFilter)))
}

func roadFilterLabel(f model.RoadFilter) string {
	switch f {
	case model.RoadAllowed:
		return "Road placement allowed"
	case model.RoadDisallowed:
		return "Private property only"
	default:
		return "All locations"
	}
}

func (m *Model) renderList() string {
	view := m.view()
	if len(view) == 0 {
		return mutedStyle.Render("No skips match the current filter.") + "\n"
	}

	var b strings.Builder
	for i, s := range view {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}

		line := fmt.Sprintf("%2d Yard Skip  %2d day hire  £%8.2f  (exc VAT £%.2f, VAT £%.2f)  %s · %s",
			s.Size, s.HirePeriodDays, s.TotalPrice(), s.PriceBeforeVAT, s.VATAmount(),
			roadLabel(s), wasteLabel(s))

		if m.snap.Selected != nil && m.snap.Selected.ID == s.ID {
			line = selectedStyle.Render(line + "  ✓ Selected")
		}

		b.WriteString(cursor + line + "\n")
	}
	return b.String()
}

func roadLabel(s model.SkipOption) string {
	if s.AllowedOnRoad {
		return "Road placement allowed"
	}
	return "Private property only"
}

func wasteLabel(s model.SkipOption) string {
	if s.AllowsHeavyWaste {
		return "Heavy waste allowed"
	}
	return "Light waste only"
}

func (m *Model) renderFooter() string {
	var b strings.Builder

	if sel := m.snap.Selected; sel != nil {
		b.WriteString(fmt.Sprintf("Selected: %d Yard Skip (£%.2f)", sel.Size, sel.TotalPrice()))
		b.WriteString("  ")
		b.WriteString(currentStyle.Render("[c] Continue"))
	} else {
		b.WriteString(mutedStyle.Render("Continue is available once a skip is selected"))
	}
	b.WriteString("\n")

	if m.booking != nil {
		b.WriteString(doneStyle.Render(fmt.Sprintf("Booking %s created for %d Yard Skip, £%.2f",
			m.booking.ID, m.booking.Skip.Size, m.booking.TotalPrice)))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	help := make([]string, 0, len(m.keys.ShortHelp()))
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(mutedStyle.Render(strings.Join(help, " · ")))

	return b.String()
}
