package pipelines

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/cuetext/internal/core"
	"github.com/JonMunkholm/cuetext/internal/sheet"
)

func init() {
	core.Register(core.Pipeline{
		Key:            "A",
		Label:          "Voetbal",
		DefaultOutName: "cue_voetbal.txt",
		Notebook:       "pipeline_a.ipynb",
		Template:       "Invulbestand_amateursport_voetbal.xlsx",
		TemplateHeader: []string{"Nr", "Thuisclub", "", "Uitclub", "", "TG", "", "UG", "RT", "", "RU", "Doelpuntenmakers"},
		Build:          BuildVoetbal,
	})
}

// Fixed column positions of the football results template.
const (
	colHome   = 1
	colAway   = 3
	colHomeFT = 5
	colAwayFT = 7
	colHomeHT = 8
	colAwayHT = 10
)

// maxScorerSamples bounds how many values per column the free-text
// detection looks at.
const maxScorerSamples = 500

var scorerKeywords = []string{"doelpunt", "makers", "scorer"}

// columnProbe locates a column in a table.
type columnProbe func(t *sheet.Table) (col int, ok bool)

// scorerProbes are tried in order; the first hit is the scorer column.
var scorerProbes = []columnProbe{scorerByHeader, scorerByFreeText}

// scorerByHeader finds the first column whose header mentions scorers.
func scorerByHeader(t *sheet.Table) (int, bool) {
	for i, label := range t.Columns {
		l := strings.ToLower(label)
		for _, k := range scorerKeywords {
			if strings.Contains(l, k) {
				return i, true
			}
		}
	}
	return 0, false
}

// scorerByFreeText picks, right of the half-time columns, the column with
// the most values that are not numbers. Ties keep the leftmost column.
func scorerByFreeText(t *sheet.Table) (int, bool) {
	best, bestCount := -1, -1
	for c := colAwayHT + 1; c < t.Width(); c++ {
		count, sampled := 0, 0
		for _, v := range t.Column(c) {
			if v == "" {
				continue
			}
			if sampled == maxScorerSamples {
				break
			}
			sampled++
			if _, ok := parseNumber(v); !ok {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = c, count
		}
	}
	return best, best >= 0
}

func scorerColumn(t *sheet.Table) (int, bool) {
	for _, probe := range scorerProbes {
		if col, ok := probe(t); ok {
			return col, true
		}
	}
	return 0, false
}

// BuildVoetbal converts a football results workbook with the fixed template
// layout into CUE text.
func BuildVoetbal(data []byte) (string, error) {
	wb, err := sheet.Open(data)
	if err != nil {
		return "", err
	}
	t, err := wb.Normalized()
	if err != nil {
		return "", err
	}
	return renderVoetbal(t), nil
}

// matchWriter accumulates the output of one conversion. It lives for a
// single call.
type matchWriter struct {
	lines      []string
	division   string
	divEmitted bool
}

func (w *matchWriter) setDivision(label string) {
	w.division = strings.ToUpper(label)
	w.divEmitted = false
}

func (w *matchWriter) match(subhead, facts string) {
	if w.division != "" && !w.divEmitted {
		w.lines = append(w.lines, "<subhead_lead>"+w.division+"</subhead_lead>")
		w.divEmitted = true
	}
	w.lines = append(w.lines,
		"<subhead>"+subhead+"</subhead>",
		"<howto_facts>",
		facts,
		"</howto_facts>",
	)
}

func renderVoetbal(t *sheet.Table) string {
	w := &matchWriter{lines: []string{"<body>"}}
	if header := t.Header(colHome); looksLikeDivision(header) {
		w.setDivision(header)
	}

	scorerCol, hasScorers := scorerColumn(t)

	for i := range t.Rows {
		home := t.Cell(i, colHome)
		away := t.Cell(i, colAway)

		if looksLikeDivision(home) {
			w.setDivision(home)
			continue
		}
		if home == "" || away == "" {
			continue
		}

		facts := ""
		if hasScorers {
			facts = t.Cell(i, scorerCol)
		}

		rawFT := t.Cell(i, colHomeFT)
		if isPostponed(rawFT) {
			w.match(fmt.Sprintf("%s - %s %s", home, away, rawFT), facts)
			continue
		}

		hg, hok := parseScore(rawFT)
		ag, aok := parseScore(t.Cell(i, colAwayFT))
		if hok && aok && hg == 0 && ag == 0 {
			facts = " "
		}
		hht, _ := parseScore(t.Cell(i, colHomeHT))
		aht, _ := parseScore(t.Cell(i, colAwayHT))

		w.match(fmt.Sprintf("%s - %s %d-%d (%d-%d)", home, away, hg, ag, hht, aht), facts)
	}

	w.lines = append(w.lines, "</body>")
	return strings.Join(w.lines, "\n")
}
