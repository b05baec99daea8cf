// Package report renders resolved parameters as console tables and sweep workbooks.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/ad-params/internal/ad"
	"github.com/ducminhle1904/ad-params/pkg/params"
)

func newWriter(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

// Fields prints the registry of both scopes
func Fields(w io.Writer, reg *ad.Registry) {
	t := newWriter(w, "AD PARAMETER FIELDS")
	t.AppendHeader(table.Row{"Scope", "Field", "Kind", "Default", "Constraint", "Description"})
	for i, s := range ad.Scopes() {
		if i > 0 {
			t.AppendSeparator()
		}
		for _, spec := range reg.Table(s).Specs() {
			t.AppendRow(table.Row{s, spec.Name, spec.Kind, spec.Default, spec.Constraint(), spec.Doc})
		}
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 6, WidthMax: 50},
	})
	t.Render()
}

// Params prints a resolved pair with the layer each value came from
func Params(w io.Writer, p ad.Params) {
	key := p.Strategy.Key()
	t := newWriter(w, fmt.Sprintf("AD PARAMETERS %s %s", key.Symbol, key.Timeframe))
	t.AppendHeader(table.Row{"Scope", "Field", "Value", "Origin"})
	appendSet(t, ad.ScopeIndicator, p.Indicator)
	t.AppendSeparator()
	appendSet(t, ad.ScopeStrategy, p.Strategy)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

func appendSet(t table.Writer, s ad.Scope, ps *params.ParameterSet) {
	for _, f := range ps.Fields() {
		v, _ := ps.Get(f)
		t.AppendRow(table.Row{s, f, v, ps.Origin(f)})
	}
}

// Layers prints the contributing layers of one scope, lowest first
func Layers(w io.Writer, s ad.Scope, layers []params.NamedLayer) {
	t := newWriter(w, strings.ToUpper(string(s))+" LAYERS")
	t.AppendHeader(table.Row{"Layer", "Fields"})
	for _, l := range layers {
		parts := make([]string, 0, len(l.Values))
		for _, f := range l.Values.Fields() {
			parts = append(parts, fmt.Sprintf("%s=%s", f, l.Values[f]))
		}
		t.AppendRow(table.Row{l.Origin, strings.Join(parts, " ")})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 80},
	})
	t.Render()
}

// SweepSummary prints the swept ranges and the sweep size
func SweepSummary(w io.Writer, s *ad.Sweep) {
	t := newWriter(w, "SWEEP")
	t.AppendHeader(table.Row{"Scope", "Field", "Range", "Points"})
	for _, scope := range ad.Scopes() {
		sw := s.Strategy
		if scope == ad.ScopeIndicator {
			sw = s.Indicator
		}
		ranges := sw.Ranges()
		for _, f := range sw.Fields() {
			r := ranges[f]
			t.AppendRow(table.Row{scope, f, r.String(), r.Count()})
		}
	}
	t.AppendFooter(table.Row{"", "", "Total", s.Len()})
	t.Render()
}
