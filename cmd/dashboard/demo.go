package main

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dashkit/domain/callback"
	"dashkit/domain/core"
	"dashkit/internal/config"
	"dashkit/internal/dashboard"
	"dashkit/internal/errors"
	"dashkit/internal/handy"
	"dashkit/ports"
)

const about = `
### Load monitor

Synthetic readings arrive every three hours. Pick how many hours to show and how
gaps on the hourly grid are filled. *Export* writes the view to Excel.
`

type registration struct {
	on, set, using []callback.Dependency
	to             callback.Handler
	opts           []dashboard.DoOption
}

func dashboardHost() (string, error) {
	return handy.GetHost()
}

// setupDemo lays out the monitor page and registers its callbacks
func setupDemo(app *dashboard.App, cfg config.DashboardConfig, faults ports.FaultRepository) error {
	menu := dashboard.Menu("Controls",
		dashboard.MenuItem("Hours", dashboard.NumInput("hours", "48")),
		dashboard.MenuItem("Fill gaps", dashboard.Dropdown("fill", "none", dashboard.MakeOptions(
			[]string{"forward", "backward"},
			[]any{string(handy.FillForward), string(handy.FillBackward)},
		))),
		dashboard.MenuItem("",
			dashboard.Btn("export", "Export"),
			dashboard.Btn("download", "Download", dashboard.Color("secondary"), dashboard.AsLink(true)),
		),
		dashboard.MenuItem("Upload", dashboard.Upload("upload", "Upload CSV", true)),
	)

	rows := []dashboard.Node{
		dashboard.Row(dashboard.Box("Load", 8, dashboard.Graph("plot")), dashboard.Box("Summary", 4, dashboard.Table("summary", "fixed"))),
		dashboard.Row(dashboard.Box("Status", 4, dashboard.Div("status")), dashboard.Box("Uploads", 8, dashboard.Div("uploads"))),
		dashboard.Row(dashboard.Box("About", 12, dashboard.Markdown("about", about))),
	}
	if faults != nil {
		rows = append(rows, dashboard.Row(dashboard.Box("Faults", 12,
			dashboard.Form("fault-form", dashboard.FormItem("Fault id", dashboard.TextInput("fault-id", ""), "paste an id from the list", 6)),
			dashboard.Div("fault-trace"),
			dashboard.Table("faults", "scroll"),
		)))
	}
	rows = append(rows, dashboard.Clock("tick", time.Minute))
	app.SetLayout(dashboard.Page(cfg.Title, menu, dashboard.Body(rows...)))

	regs := []registration{
		{
			on:   dashboard.Many(dashboard.On("hours"), dashboard.On("fill"), dashboard.OnTick("tick")),
			set:  dashboard.Many(dashboard.SetPlot("plot"), dashboard.SetTable("summary"), dashboard.SetContent("status")),
			to:   refresh,
			opts: []dashboard.DoOption{dashboard.RunInitial(), dashboard.Named("refresh")},
		},
		{
			on:    dashboard.OnClick("export"),
			set:   dashboard.Many(dashboard.SetLink("download"), dashboard.SetClass("download")),
			to:    exportTo(cfg.DownloadDir),
			using: dashboard.Many(dashboard.ValueOf("hours"), dashboard.ValueOf("fill")),
			opts:  []dashboard.DoOption{dashboard.Named("export")},
		},
		{
			on:   dashboard.OnUpload("upload"),
			set:  dashboard.SetContent("uploads"),
			to:   saveUploads(cfg.DownloadDir),
			opts: []dashboard.DoOption{dashboard.Named("save_uploads")},
		},
	}
	if faults != nil {
		regs = append(regs,
			registration{
				on:   dashboard.OnTick("tick"),
				set:  dashboard.SetTable("faults"),
				to:   listFaults(faults),
				opts: []dashboard.DoOption{dashboard.RunInitial(), dashboard.Named("list_faults")},
			},
			registration{
				on:   dashboard.On("fault-id"),
				set:  dashboard.SetContent("fault-trace"),
				to:   showFault(faults),
				opts: []dashboard.DoOption{dashboard.Named("show_fault")},
			},
		)
	}

	for _, r := range regs {
		if _, err := app.Do(r.on, r.set, r.to, r.using, r.opts...); err != nil {
			return err
		}
	}
	return nil
}

func hoursOf(v any) int {
	switch h := v.(type) {
	case float64:
		if h >= 1 {
			return int(h)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && n >= 1 {
			return n
		}
	}
	return 48
}

// loadFrame builds hourly readings for the last hours, filled as asked
func loadFrame(hours int, fill handy.FillMethod) (*handy.Frame, error) {
	t1 := handy.Rtm(0, time.Hour)
	t0 := t1.Add(-time.Duration(hours) * time.Hour)

	raw := handy.NewFrame("time", "load", "forecast")
	for t := t0; !t.After(t1); t = t.Add(3 * time.Hour) {
		x := float64(t.Hour()) / 24 * 2 * math.Pi
		if err := raw.Append(t, 50+30*math.Sin(x), 50+28*math.Sin(x+0.2)); err != nil {
			return nil, err
		}
	}
	return handy.Complete(raw, "time", t0, t1, time.Hour, fill)
}

func summaryTable(f *handy.Frame) (*dashboard.Element, error) {
	out := handy.NewFrame("column", "count", "mean", "std", "min", "median", "max")
	for _, s := range handy.Describe(f) {
		var std any
		if s.Std != nil {
			std = *s.Std
		}
		if err := out.Append(s.Column, s.Count, s.Mean, std, s.Min, s.Median, s.Max); err != nil {
			return nil, err
		}
	}
	return dashboard.MakeTable(out, true), nil
}

func refresh(_ context.Context, in *callback.Inputs) (any, error) {
	fill := handy.FillMethod(in.String("fill"))
	frame, err := loadFrame(hoursOf(in.Value("hours")), fill)
	if err != nil {
		return nil, err
	}
	fig, err := dashboard.MakePlot(frame, "time", 350)
	if err != nil {
		return nil, err
	}
	table, err := summaryTable(frame)
	if err != nil {
		return nil, err
	}

	status := dashboard.RagGreen("Complete")
	if fill == handy.FillNone {
		status = dashboard.RagAmber("Gaps shown")
	}
	if in.Changed("tick.n_intervals") {
		status = dashboard.RagGreen("Refreshed " + time.Now().In(handy.CET).Format("15:04"))
	}
	return []any{fig, table, status}, nil
}

func exportTo(folder string) callback.Handler {
	return func(_ context.Context, in *callback.Inputs) (any, error) {
		frame, err := loadFrame(hoursOf(in.Value("hours")), handy.FillMethod(in.String("fill")))
		if err != nil {
			return nil, err
		}
		name := "load.xlsx"
		if err := handy.WriteExcel(frame, filepath.Join(folder, name), "load"); err != nil {
			return nil, err
		}
		return []any{"/download/" + name, dashboard.ClassDefault}, nil
	}
}

func saveUploads(folder string) callback.Handler {
	return func(ctx context.Context, in *callback.Inputs) (any, error) {
		var items []dashboard.Node
		for _, file := range dashboard.GetUpload(in, "upload") {
			ok, err := dashboard.SaveFile(folder, file)
			if err != nil {
				return nil, err
			}
			if !ok {
				items = append(items, dashboard.RagRed(file.Name))
				continue
			}
			path := filepath.Join(folder, filepath.Base(file.Name))
			tail, err := handy.ReadTail(path, 2048, ',')
			if err != nil {
				return nil, err
			}
			items = append(items, dashboard.Box(file.Name, 12, dashboard.MakeTable(tail, false)))
		}
		if user := dashboard.GetUser(ctx); user != "" {
			items = append(items, dashboard.Text("uploaded by "+user))
		}
		return dashboard.Div("", items...), nil
	}
}

func listFaults(repo ports.FaultRepository) callback.Handler {
	return func(ctx context.Context, _ *callback.Inputs) (any, error) {
		recent, err := repo.ListRecent(ctx, "", 20)
		if err != nil {
			return nil, err
		}
		f := handy.NewFrame("id", "callback", "message", "occurred")
		for _, fault := range recent {
			if err := f.Append(fault.ID.String(), fault.Callback, fault.Message, fault.OccurredAt.In(handy.CET)); err != nil {
				return nil, err
			}
		}
		return dashboard.MakeTable(f, true), nil
	}
}

func showFault(repo ports.FaultRepository) callback.Handler {
	return func(ctx context.Context, in *callback.Inputs) (any, error) {
		raw := in.String("fault-id")
		if raw == "" {
			return "", nil
		}
		id, err := core.ParseFaultID(strings.TrimSpace(raw))
		if err != nil {
			return err.Error(), nil
		}
		fault, err := repo.GetByID(ctx, id)
		if errors.HasCode(err, errors.CodeNotFound) {
			return err.Error(), nil
		}
		if err != nil {
			return nil, err
		}
		return dashboard.El("pre", "", dashboard.Text(fmt.Sprintf("%s\n\n%s", fault.Error(), fault.Trace))), nil
	}
}
