package dashboard

import (
	"fmt"
	"html"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"time"

	"dashkit/internal/handy"
)

// Class names used to show and hide components through SetClass
const (
	ClassHidden  = "d-none"
	ClassDefault = ""
)

// Node is anything that renders into the page
type Node interface {
	render(b *strings.Builder)
}

// Text is escaped character data
type Text string

func (t Text) render(b *strings.Builder) {
	b.WriteString(html.EscapeString(string(t)))
}

// RawHTML is trusted markup inserted as is
type RawHTML string

func (r RawHTML) render(b *strings.Builder) {
	b.WriteString(string(r))
}

// Element is one HTML element with its children
type Element struct {
	Tag      string            `json:"type"`
	ID       string            `json:"id,omitempty"`
	Class    string            `json:"className,omitempty"`
	Attrs    map[string]string `json:"props,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

var voidTags = map[string]bool{"input": true, "link": true, "br": true, "meta": true, "img": true}

func (e *Element) render(b *strings.Builder) {
	if e == nil {
		return
	}
	b.WriteString("<" + e.Tag)
	if e.ID != "" {
		writeAttr(b, "id", e.ID)
	}
	if e.Class != "" {
		writeAttr(b, "class", e.Class)
	}
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeAttr(b, k, e.Attrs[k])
	}
	b.WriteString(">")
	if voidTags[e.Tag] {
		return
	}
	for _, child := range e.Children {
		if child != nil {
			child.render(b)
		}
	}
	b.WriteString("</" + e.Tag + ">")
}

func writeAttr(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, ` %s="%s"`, key, html.EscapeString(value))
}

// Render turns a node tree into markup
func Render(n Node) template.HTML {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.render(&b)
	return template.HTML(b.String())
}

// El builds an element
func El(tag, class string, children ...Node) *Element {
	return &Element{Tag: tag, Class: class, Children: compact(children)}
}

// WithID sets the element id
func (e *Element) WithID(id string) *Element {
	e.ID = id
	return e
}

// With sets one attribute
func (e *Element) With(key, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[key] = value
	return e
}

// compact drops nil children so optional parts can be passed inline
func compact(nodes []Node) []Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if e, ok := n.(*Element); ok && e == nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Page layout

// Page wraps header, optional menu column and body into the standard layout
func Page(title string, menu Node, body ...Node) *Element {
	bodyClass := "col-sm-10"
	var menuCol Node
	if menu == nil {
		bodyClass = "col-sm-12"
	} else {
		menuCol = El("div", "col-sm-2", menu)
	}
	return El("div", "",
		El("link", "").With("rel", "stylesheet").With("href", "/dashboard/bootstrap.min.css"),
		El("link", "").With("rel", "stylesheet").With("href", "/dashboard/dashboard.css"),
		Head(title),
		El("div", "container-fluid mt-3", El("div", "row", menuCol, El("div", bodyClass, body...))),
		Location(),
	)
}

func Head(title string) *Element {
	return El("nav", "navbar", El("h3", "font-weight-normal", Text(title)))
}

func Menu(title string, content ...Node) *Element {
	var header Node
	if title != "" {
		header = El("div", "card-header", El("strong", "", Text(title)))
	}
	card := El("div", "card menu-card", header, El("div", "card-body", content...))
	return El("div", "row", El("div", "d-inline-block mt-3 col-sm-12", card))
}

func MenuItem(title string, content ...Node) *Element {
	var label Node
	if title != "" {
		label = MenuHead(title)
	}
	return El("div", "form-group mb-0", label, El("div", "d-block", content...))
}

func MenuHead(title string) *Element {
	return El("label", "font-weight-bold", Text(title))
}

func Body(content ...Node) *Element {
	return El("div", "row", El("div", "col-sm-12", content...))
}

func Row(content ...Node) *Element {
	return El("div", "row", content...)
}

// Box is a titled card of the given bootstrap column width
func Box(title string, width int, content ...Node) *Element {
	var header Node
	if title != "" {
		header = El("div", "card-header", El("strong", "", Text(title)))
	}
	card := El("div", "card", header, El("div", "card-body", content...))
	return El("div", "d-inline-block mt-3 col-sm-"+strconv.Itoa(width), card)
}

func Block(width int, center bool, content ...Node) *Element {
	classes := []string{}
	if center {
		classes = append(classes, "mx-auto")
	}
	classes = append(classes, "col-sm-"+strconv.Itoa(width), "d-inline-block")
	return El("div", strings.Join(classes, " "), content...)
}

// Simple components

func Form(id string, content ...Node) *Element {
	return El("form", "", El("div", "form-row", content...).WithID(id))
}

func FormItem(label string, item Node, note string, width int) *Element {
	var labelNode, noteNode Node
	if label != "" {
		labelNode = El("label", "form-label", Text(label))
	}
	if note != "" {
		noteNode = El("small", "form-text text-muted", Text(note))
	}
	return El("div", "form-group col-md-"+strconv.Itoa(width), labelNode, El("div", "", item), noteNode)
}

func Hidden(id string) *Element {
	return El("div", ClassHidden).WithID(id)
}

func Div(id string, children ...Node) *Element {
	return El("div", "", children...).WithID(id)
}

// BtnOption customizes Btn
type BtnOption func(*btnOptions)

type btnOptions struct {
	color  string
	link   bool
	newTab bool
}

// Color picks the bootstrap color: primary, secondary, success, danger, warning, info, light, dark, link
func Color(color string) BtnOption {
	return func(o *btnOptions) { o.color = color }
}

// AsLink renders an <a> so SetLink can change its href
func AsLink(newTab bool) BtnOption {
	return func(o *btnOptions) {
		o.link = true
		o.newTab = newTab
	}
}

// Btn renders a button labelled name, or id when name is empty
func Btn(id, name string, opts ...BtnOption) *Element {
	o := btnOptions{color: "primary", newTab: true}
	for _, opt := range opts {
		opt(&o)
	}
	if name == "" {
		name = id
	}
	class := "btn btn-" + o.color + " mr-2"
	if o.link {
		target := ""
		if o.newTab {
			target = "_blank"
		}
		return El("a", class, Text(name)).WithID(id).With("href", "").With("target", target)
	}
	return El("button", class, Text(name)).WithID(id).With("type", "button")
}

func rag(kind, title string) *Element {
	return El("h1", "", El("span", "badge badge-pill badge-"+kind, Text(title)))
}

func RagGreen(title string) *Element { return rag("success", title) }
func RagAmber(title string) *Element { return rag("warning", title) }
func RagRed(title string) *Element   { return rag("danger", title) }

func NumInput(id, placeholder string) *Element {
	return El("input", "form-control").WithID(id).With("type", "number").With("placeholder", placeholder)
}

func TextInput(id, placeholder string) *Element {
	return El("input", "form-control").WithID(id).With("type", "text").With("placeholder", placeholder)
}

func TextArea(id string) *Element {
	return El("textarea", "form-control").WithID(id)
}

// Option is one dropdown entry
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// MakeOptions pairs labels with values; nil values reuse the labels
func MakeOptions(labels []string, values []any) []Option {
	n := len(labels)
	if values != nil {
		n = min(n, len(values))
	}
	opts := make([]Option, n)
	for i := 0; i < n; i++ {
		opts[i] = Option{Label: labels[i], Value: labels[i]}
		if values != nil {
			opts[i].Value = values[i]
		}
	}
	return opts
}

func Dropdown(id, placeholder string, options []Option) *Element {
	children := []Node{El("option", "", Text(placeholder)).With("value", "")}
	for _, o := range options {
		children = append(children, El("option", "", Text(o.Label)).With("value", fmt.Sprint(o.Value)))
	}
	return El("select", "form-control", children...).WithID(id)
}

// Upload renders a file picker styled as a button
func Upload(id, name string, multiple bool) *Element {
	input := El("input", ClassHidden).WithID(id).With("type", "file")
	if multiple {
		input.With("multiple", "multiple")
	}
	return El("label", "btn btn-primary mr-2", Text(name), input)
}

// Location tracks the page path under URLComponent
func Location() *Element {
	return Hidden(URLComponent).With("data-refresh", "true")
}

// Clock fires n_intervals every interval
func Clock(id string, interval time.Duration) *Element {
	return Hidden(id).With("data-interval-ms", strconv.FormatInt(interval.Milliseconds(), 10))
}

// Graph is a plot container updated through SetPlot
func Graph(id string) *Element {
	return El("div", "graph").WithID(id)
}

// Complex components

// Table is a container updated through SetTable; layout is "", "fixed" or "scroll"
func Table(id, layout string) *Element {
	class := ""
	if layout != "" {
		class = "table-" + layout
	}
	return El("div", class).WithID(id)
}

// MakeTable renders a frame as an HTML table. With format, floats get two decimals and
// times are shown to the minute.
func MakeTable(f *handy.Frame, format bool) *Element {
	header := make([]Node, len(f.Columns))
	for i, c := range f.Columns {
		header[i] = El("th", "", Text(c))
	}
	rows := make([]Node, len(f.Rows))
	for i, row := range f.Rows {
		cells := make([]Node, len(row))
		for j, v := range row {
			cells[j] = El("td", "", Text(formatCell(v, format)))
		}
		rows[i] = El("tr", "", cells...)
	}
	return El("table", "table",
		El("thead", "", El("tr", "", header...)),
		El("tbody", "", rows...),
	)
}

func formatCell(v any, format bool) string {
	if v == nil {
		return ""
	}
	if format {
		switch t := v.(type) {
		case float64:
			return fmt.Sprintf("%.2f", t)
		case float32:
			return fmt.Sprintf("%.2f", t)
		case time.Time:
			return t.Format("2006-01-02 15:04")
		}
	}
	return fmt.Sprint(v)
}
