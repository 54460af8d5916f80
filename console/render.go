package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/MarshTheBacca/dotto/game/service"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Renderer draws boards, scores and settings for a particular output. Colour
// is only used when that output is a terminal.
type Renderer struct {
	cells     map[engine.Cell]lipgloss.Style
	label     lipgloss.Style
	title     lipgloss.Style
	faint     lipgloss.Style
	players   map[engine.PlayerID]lipgloss.Style
	box       lipgloss.Style
	header    lipgloss.Style
	tableEdge lipgloss.Style
}

// NewRenderer creates a renderer for w
func NewRenderer(w io.Writer) *Renderer {
	re := lipgloss.NewRenderer(w)
	player1 := re.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true)
	player2 := re.NewStyle().Foreground(lipgloss.Color("#ff44ff")).Bold(true)

	return &Renderer{
		cells: map[engine.Cell]lipgloss.Style{
			engine.Open:         re.NewStyle().Foreground(lipgloss.Color("#555577")),
			engine.Void:         re.NewStyle(),
			engine.Player1Dot:   player1,
			engine.Player2Dot:   player2,
			engine.Barrier:      re.NewStyle().Foreground(lipgloss.Color("#888888")).Bold(true),
			engine.Powerup:      re.NewStyle().Foreground(lipgloss.Color("#ffcc00")).Bold(true),
			engine.Crumbly:      re.NewStyle().Foreground(lipgloss.Color("#A0772B")),
			engine.PortalMarker: re.NewStyle().Foreground(lipgloss.Color("#44aaff")).Bold(true),
		},
		label: re.NewStyle().Foreground(lipgloss.Color("#888888")),
		title: re.NewStyle().Foreground(lipgloss.Color("#ff8844")).Bold(true),
		faint: re.NewStyle().Foreground(lipgloss.Color("#888888")),
		players: map[engine.PlayerID]lipgloss.Style{
			engine.Player1: player1,
			engine.Player2: player2,
		},
		box: re.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1),
		header:    re.NewStyle().Foreground(lipgloss.Color("#ff8844")).Bold(true).Padding(0, 1),
		tableEdge: re.NewStyle().Foreground(lipgloss.Color("#444466")),
	}
}

// Banner is the main menu title
func (r *Renderer) Banner() string {
	return r.title.Render("===========================\n     Welcome To Dotto!     \n===========================")
}

// Board renders the grid with row letters down the side and column numbers
// underneath, tab separated like the plain text view.
func (r *Renderer) Board(snap *engine.Snapshot) string {
	var b strings.Builder
	b.WriteString("\n")
	for row, symbols := range snap.Rows {
		b.WriteString(r.label.Render(engine.RowLabel(row)))
		for i := 0; i < len(symbols); i++ {
			cell := engine.Cell(symbols[i])
			b.WriteString("\t")
			if style, ok := r.cells[cell]; ok {
				b.WriteString(style.Render(cell.String()))
			} else {
				b.WriteString(cell.String())
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for col := 0; col < snap.Width; col++ {
		b.WriteString("\t")
		b.WriteString(r.label.Render(engine.ColumnLabel(col, snap.Width)))
	}
	b.WriteString("\n")
	return b.String()
}

// TurnHeader renders whose turn it is and what they have left
func (r *Renderer) TurnHeader(snap *engine.Snapshot) string {
	style := r.players[snap.Turn]
	line := style.Render(fmt.Sprintf("%s's Turn", snap.Turn)) + fmt.Sprintf("\t\t\tTurn: %d", snap.TurnNumber)

	state, ok := snap.PlayerState(snap.Turn)
	if !ok {
		return line
	}
	powerups := "none"
	if len(state.Inventory) > 0 {
		names := make([]string, 0, len(state.Inventory))
		for _, k := range state.Inventory {
			names = append(names, string(k))
		}
		powerups = strings.Join(names, ", ")
	}
	return line + "\n" + r.faint.Render(fmt.Sprintf("Dots: %d  Deletes: %d  Creates: %d  Powerups: %s",
		len(state.Dots), state.Deletes, state.Creates, powerups))
}

// Winner renders the end of game line
func (r *Renderer) Winner(winner engine.PlayerID, turns int) string {
	return r.players[winner].Render(fmt.Sprintf("%s has won in %d turns!", winner, turns))
}

// Settings renders settings two to a line
func (r *Renderer) Settings(s engine.Settings) string {
	body := fmt.Sprintf("Length: %d\tWidth: %d\n"+
		"Number of dots: %d\tNumber of powerups: %d\n"+
		"Powerup frequency: %d\tNumber of crumblies: %d\n"+
		"Barrier density: %s\tNumber of deletes: %d\n"+
		"Number of creates: %d",
		s.Length, s.Width,
		s.NumDots, s.NumPowerups,
		s.PowerupFrequency, s.NumCrumblies,
		engine.DensityLabel(s.BarrierDensity), s.NumDeletes,
		s.NumCreates)
	return r.title.Render("Settings:") + "\n" + r.box.Render(body)
}

// Scores renders the score ledger as a table
func (r *Renderer) Scores(records []service.ScoreRecord) string {
	if len(records) == 0 {
		return r.faint.Render("No scores have been saved yet")
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Name,
			fmt.Sprint(rec.Length),
			fmt.Sprint(rec.Width),
			fmt.Sprint(rec.Dots),
			fmt.Sprint(rec.Turns),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.tableEdge).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.header
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("Name", "Length", "Width", "Dots", "Turns").
		Rows(rows...)
	return t.String()
}

// Presets renders the preset list shown before choosing one
func (r *Renderer) Presets(presets []*service.PresetInfo) []string {
	out := make([]string, 0, len(presets))
	for _, p := range presets {
		line := fmt.Sprintf("%s (%dx%d, %d dots, %s)", p.Name, p.Length, p.Width, p.NumDots, p.Density)
		if p.Description != "" {
			line += " - " + p.Description
		}
		out = append(out, line)
	}
	return out
}
