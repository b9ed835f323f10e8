package dashboard

import "dashkit/domain/callback"

// URLComponent is the id of the location component tracking the page path
const URLComponent = "_url"

func triggers(id string, props ...string) []callback.Dependency {
	deps := make([]callback.Dependency, len(props))
	for i, p := range props {
		deps[i] = callback.Trigger(id, p)
	}
	return deps
}

func states(id string, props ...string) []callback.Dependency {
	deps := make([]callback.Dependency, len(props))
	for i, p := range props {
		deps[i] = callback.Auxiliary(id, p)
	}
	return deps
}

// Many concatenates dependency lists, e.g. Many(On("a"), OnClick("go"))
func Many(lists ...[]callback.Dependency) []callback.Dependency {
	var out []callback.Dependency
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// On-functions: changes of these run the callback

func On(id string) []callback.Dependency          { return triggers(id, "value") }
func Ons(id string) []callback.Dependency         { return triggers(id, "values") }
func OnDate(id string) []callback.Dependency      { return triggers(id, "date") }
func OnContent(id string) []callback.Dependency   { return triggers(id, "children") }
func OnClick(id string) []callback.Dependency     { return triggers(id, "n_clicks") }
func OnTick(id string) []callback.Dependency      { return triggers(id, "n_intervals") }
func OnZoom(id string) []callback.Dependency      { return triggers(id, "relayoutData") }
func OnHover(id string) []callback.Dependency     { return triggers(id, "hoverData") }
func OnPlotClick(id string) []callback.Dependency { return triggers(id, "clickData") }
func OnURL() []callback.Dependency                { return triggers(URLComponent, "pathname") }
func OnRows(id string) []callback.Dependency {
	return triggers(id, "selected_row_indices", "rows")
}
func OnUpload(id string) []callback.Dependency {
	return triggers(id, "contents", "filename", "last_modified")
}

// Set-functions: where the callback result goes

func SetValue(id string) []callback.Dependency   { return outputs(id, "value") }
func SetContent(id string) []callback.Dependency { return outputs(id, "children") }
func SetDate(id string) []callback.Dependency    { return outputs(id, "date") }
func SetOptions(id string) []callback.Dependency { return outputs(id, "options") }
func SetPlot(id string) []callback.Dependency    { return outputs(id, "figure") }
func SetTable(id string) []callback.Dependency   { return SetContent(id) }
func SetClass(id string) []callback.Dependency   { return outputs(id, "className") }
func SetURL() []callback.Dependency              { return outputs(URLComponent, "pathname") }
func SetLink(id string) []callback.Dependency    { return outputs(id, "href") }
func SetDataTable(id string) []callback.Dependency {
	return outputs(id, "rows")
}
func SetRows(id string) []callback.Dependency { return SetDataTable(id) }

func outputs(id string, props ...string) []callback.Dependency {
	deps := make([]callback.Dependency, len(props))
	for i, p := range props {
		deps[i] = callback.Output(id, p)
	}
	return deps
}

// Using-functions: values read when the callback runs

func ValueOf(id string) []callback.Dependency   { return states(id, "value") }
func ValuesOf(id string) []callback.Dependency  { return states(id, "values") }
func DateOf(id string) []callback.Dependency    { return states(id, "date") }
func ContentOf(id string) []callback.Dependency { return states(id, "children") }
func URLOf() []callback.Dependency              { return states(URLComponent, "pathname") }
func RowsOf(id string) []callback.Dependency {
	return states(id, "selected_row_indices", "rows")
}
