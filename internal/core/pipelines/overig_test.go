package pipelines

import (
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/cuetext/internal/core"
	"github.com/JonMunkholm/cuetext/internal/sheet/sheettest"
)

func buildOverig(t *testing.T, sheets ...sheettest.Sheet) string {
	t.Helper()
	out, err := BuildOverig(sheettest.Build(t, sheets...))
	if err != nil {
		t.Fatalf("BuildOverig() error = %v", err)
	}
	return out
}

func TestBuildOverig(t *testing.T) {
	tests := []struct {
		name string
		rows [][]any
		want string
	}{
		{
			name: "aliased columns",
			rows: [][]any{
				sheettest.Row("Thuis", "Uit", "HS", "AS"),
				sheettest.Row("A", "B", "3", "1"),
			},
			want: "A - B 3-1",
		},
		{
			name: "aliases are case insensitive",
			rows: [][]any{
				sheettest.Row(" HOME ", "Away", "Goals Home", "goals_away"),
				sheettest.Row("Hockey Club", "HC Uit", "4", "2"),
			},
			want: "Hockey Club - HC Uit 4-2",
		},
		{
			name: "positional fallback with three values",
			rows: [][]any{
				sheettest.Row("Kolom1", "Kolom2", "Kolom3"),
				sheettest.Row("X", "Y", "2-0"),
			},
			want: "X - Y 2-0",
		},
		{
			name: "positional fallback uses first three values",
			rows: [][]any{
				sheettest.Row("a1", "b1", "c1", "d1", "e1"),
				sheettest.Row("", "X", "", "Y", "Z", "W"),
			},
			want: "X - Y Z",
		},
		{
			name: "positional fallback with two and one values",
			rows: [][]any{
				sheettest.Row("Wedstrijd", "Opmerking"),
				sheettest.Row("X", "Y"),
				sheettest.Row("Alleen"),
			},
			want: "X - Y\nAlleen",
		},
		{
			name: "missing away score trims hyphen",
			rows: [][]any{
				sheettest.Row("Thuis", "Uit", "HS", "AS"),
				sheettest.Row("A", "B", "3", ""),
			},
			want: "A - B 3",
		},
		{
			name: "missing home team",
			rows: [][]any{
				sheettest.Row("Thuis", "Uit", "HS", "AS"),
				sheettest.Row("", "B", "3", "1"),
			},
			want: "B 3-1",
		},
		{
			name: "earlier alias wins",
			rows: [][]any{
				sheettest.Row("Home", "Thuis", "Away"),
				sheettest.Row("Engels", "Nederlands", "Gast"),
			},
			want: "Nederlands - Gast",
		},
		{
			name: "blank aliased cell falls through to next alias",
			rows: [][]any{
				sheettest.Row("Thuis", "Home", "Uit"),
				sheettest.Row("", "Home Team", "Gast"),
			},
			want: "Home Team - Gast",
		},
		{
			name: "blank rows are dropped",
			rows: [][]any{
				sheettest.Row("Thuis", "Uit"),
				sheettest.Row("A", "B"),
				nil,
				sheettest.Row("C", "D"),
			},
			want: "A - B\nC - D",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildOverig(t, sheettest.Sheet{Name: "Blad1", Rows: tt.rows})
			if got != tt.want {
				t.Errorf("BuildOverig() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildOverig_FirstNonEmptySheet(t *testing.T) {
	got := buildOverig(t,
		sheettest.Sheet{Name: "Leeg", Rows: [][]any{sheettest.Row("Thuis", "Uit")}},
		sheettest.Sheet{Name: "Data", Rows: [][]any{sheettest.Row("Thuis", "Uit"), sheettest.Row("A", "B")}},
		sheettest.Sheet{Name: "Later", Rows: [][]any{sheettest.Row("Thuis", "Uit"), sheettest.Row("C", "D")}},
	)
	if got != "A - B" {
		t.Errorf("BuildOverig() = %q, want %q", got, "A - B")
	}
}

func TestBuildOverig_Diagnostic(t *testing.T) {
	got := buildOverig(t, sheettest.Sheet{Name: "Leeg", Rows: [][]any{sheettest.Row("Thuis", "Uit")}})

	want := strings.Join([]string{
		"(WAARSCHUWING) Er zijn geen regels gegenereerd.",
		"Geparst blad had 0 rijen × 0 kolommen.",
		"Kolommen (eerste 6): (geen)",
		"Controleer of je het juiste invulbestand gebruikt en of rijen niet volledig leeg zijn.",
	}, "\n")
	if got != want {
		t.Errorf("BuildOverig() =\n%s\nwant\n%s", got, want)
	}
}

func TestRowLine_NoValues(t *testing.T) {
	idx := newHeaderIndex([]string{"Thuis", "Uit"})
	if got := rowLine(idx, []string{"", " "}); got != "" {
		t.Errorf("rowLine() = %q, want empty", got)
	}
}

func TestHeaderIndex_Resolve(t *testing.T) {
	idx := newHeaderIndex([]string{"Team A", "HS"})

	res := idx.resolve(roleProbes[roleHome], []string{"Ajax", "2"})
	if !res.resolved || res.role != roleHome || res.value != "Ajax" {
		t.Errorf("resolve(home) = %+v", res)
	}

	res = idx.resolve(roleProbes[roleAway], []string{"Ajax", "2"})
	if res.resolved {
		t.Errorf("resolve(away) = %+v, want unresolved", res)
	}
}

func TestBuildOverig_Unreadable(t *testing.T) {
	if _, err := BuildOverig([]byte("PK not really")); !errors.Is(err, core.ErrUnreadableWorkbook) {
		t.Errorf("BuildOverig() error = %v, want ErrUnreadableWorkbook", err)
	}
}
