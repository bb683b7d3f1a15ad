package pipelines

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/cuetext/internal/core"
	"github.com/JonMunkholm/cuetext/internal/sheet"
)

func init() {
	core.Register(core.Pipeline{
		Key:            "B",
		Label:          "Overig",
		DefaultOutName: "cue_overig.txt",
		Notebook:       "pipeline_b.ipynb",
		Template:       "Invulbestand_amateursport_overig.xlsx",
		TemplateHeader: []string{"Thuis", "Uit", "HS", "AS"},
		Build:          BuildOverig,
	})
}

// role is the meaning guessed for a column.
type role int

const (
	roleHome role = iota
	roleAway
	roleHomeScore
	roleAwayScore
	roleCount
)

// roleProbe lists the accepted header labels for a role, in priority order.
type roleProbe struct {
	role    role
	aliases []string
}

var roleProbes = []roleProbe{
	{roleHome, []string{"thuis", "home", "team1", "team a", "team_a", "team-a"}},
	{roleAway, []string{"uit", "away", "team2", "team b", "team_b", "team-b"}},
	{roleHomeScore, []string{"hs", "homescore", "score1", "h", "goals home", "goals_home"}},
	{roleAwayScore, []string{"as", "awayscore", "score2", "a", "goals away", "goals_away"}},
}

// resolution is the outcome of one probe: the value found, and whether any
// alias matched a non-blank cell.
type resolution struct {
	role     role
	value    string
	resolved bool
}

// headerIndex maps lower-cased, trimmed labels to column positions. A label
// that appears twice maps to its last column.
type headerIndex map[string]int

func newHeaderIndex(columns []string) headerIndex {
	idx := make(headerIndex, len(columns))
	for i, label := range columns {
		idx[strings.ToLower(strings.TrimSpace(label))] = i
	}
	return idx
}

func (h headerIndex) resolve(p roleProbe, cells []string) resolution {
	for _, alias := range p.aliases {
		col, ok := h[alias]
		if !ok || col >= len(cells) {
			continue
		}
		if v := strings.TrimSpace(cells[col]); v != "" {
			return resolution{role: p.role, value: v, resolved: true}
		}
	}
	return resolution{role: p.role}
}

// BuildOverig converts a workbook of unknown layout into one line per row.
// Data problems never fail the conversion; when no line can be made, the
// text explains what was parsed instead.
func BuildOverig(data []byte) (string, error) {
	wb, err := sheet.Open(data)
	if err != nil {
		return "", err
	}

	t, err := wb.FirstNonEmpty()
	if errors.Is(err, sheet.ErrEmptyWorkbook) {
		t = &sheet.Table{}
	} else if err != nil {
		return "", err
	}

	return renderOverig(t), nil
}

func renderOverig(t *sheet.Table) string {
	idx := newHeaderIndex(t.Columns)

	var lines []string
	for _, r := range t.Rows {
		if line := rowLine(idx, r.Cells); line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return diagnostic(t)
	}
	return strings.Join(lines, "\n")
}

// rowLine builds "home - away score" from aliased columns, or falls back to
// the row's non-blank values when no column could be identified.
func rowLine(idx headerIndex, cells []string) string {
	var found [roleCount]string
	for _, p := range roleProbes {
		if res := idx.resolve(p, cells); res.resolved {
			found[res.role] = res.value
		}
	}

	home, away := found[roleHome], found[roleAway]
	hs, as := found[roleHomeScore], found[roleAwayScore]

	score := ""
	if hs != "" || as != "" {
		score = strings.Trim(hs+"-"+as, "-")
	}

	if home == "" && away == "" && score == "" {
		return positionalLine(cells)
	}

	var parts []string
	if teams := strings.Trim(home+" - "+away, " -"); teams != "" {
		parts = append(parts, teams)
	}
	if score != "" {
		parts = append(parts, score)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func positionalLine(cells []string) string {
	var values []string
	for _, c := range cells {
		if v := strings.TrimSpace(c); v != "" {
			values = append(values, v)
		}
	}

	switch {
	case len(values) >= 3:
		return fmt.Sprintf("%s - %s %s", values[0], values[1], values[2])
	case len(values) == 2:
		return fmt.Sprintf("%s - %s", values[0], values[1])
	case len(values) == 1:
		return values[0]
	}
	return ""
}

func diagnostic(t *sheet.Table) string {
	labels := t.Labels(6)
	if labels == "" {
		labels = "(geen)"
	}
	return "(WAARSCHUWING) Er zijn geen regels gegenereerd.\n" +
		fmt.Sprintf("Geparst blad had %d rijen × %d kolommen.\n", t.Len(), t.Width()) +
		fmt.Sprintf("Kolommen (eerste 6): %s\n", labels) +
		"Controleer of je het juiste invulbestand gebruikt en of rijen niet volledig leeg zijn."
}
