package dashboard

import (
	"fmt"
	"time"

	"dashkit/internal/errors"
	"dashkit/internal/handy"
)

// Figure is a Plotly-shaped figure for SetPlot outputs
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

type Trace struct {
	Type string `json:"type"`
	Name string `json:"name"`
	X    []any  `json:"x"`
	Y    []any  `json:"y"`
}

type Layout struct {
	Height     int    `json:"height,omitempty"`
	ShowLegend bool   `json:"showlegend"`
	BarMode    string `json:"barmode,omitempty"`
	Margin     Margin `json:"margin"`
}

type Margin struct {
	L          int  `json:"l"`
	R          int  `json:"r"`
	T          int  `json:"t"`
	B          int  `json:"b"`
	AutoExpand bool `json:"autoexpand"`
}

var defaultMargin = Margin{L: 30, R: 10, T: 10, B: 30}

// MakePlot draws one line per column against indexCol
func MakePlot(f *handy.Frame, indexCol string, height int) (*Figure, error) {
	traces, err := buildTraces(f, indexCol, "scatter")
	if err != nil {
		return nil, err
	}
	return &Figure{
		Data:   traces,
		Layout: Layout{Height: height, Margin: defaultMargin},
	}, nil
}

// MakeBarPlot draws one bar series per column against indexCol
func MakeBarPlot(f *handy.Frame, indexCol string, stacked bool) (*Figure, error) {
	traces, err := buildTraces(f, indexCol, "bar")
	if err != nil {
		return nil, err
	}
	layout := Layout{ShowLegend: true, Margin: defaultMargin}
	if stacked {
		layout.BarMode = "stack"
	}
	return &Figure{Data: traces, Layout: layout}, nil
}

func buildTraces(f *handy.Frame, indexCol, kind string) ([]Trace, error) {
	idx := f.ColumnIndex(indexCol)
	if idx < 0 {
		return nil, errors.NotFound(fmt.Sprintf("index column %q", indexCol))
	}

	x := make([]any, len(f.Rows))
	for i, row := range f.Rows {
		x[i] = naiveTime(row[idx])
	}

	var out []Trace
	for j, col := range f.Columns {
		if j == idx {
			continue
		}
		y := make([]any, len(f.Rows))
		for i, row := range f.Rows {
			y[i] = row[j]
		}
		out = append(out, Trace{Type: kind, Name: col, X: x, Y: y})
	}
	return out, nil
}

// naiveTime drops the zone so Plotly shows wall-clock time
func naiveTime(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02 15:04:05")
	}
	return v
}
