package dashboard

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"PremiumScreener/internal/model"
)

const (
	width      = 16 * vg.Inch
	height     = 12 * vg.Inch
	histBins   = 15
	topSignals = 10
)

var (
	rsiFill = color.RGBA{R: 0xFF, G: 0x6B, B: 0x6B, A: 0xB3}
	bbFill  = color.RGBA{R: 0x4E, G: 0xCD, B: 0xC4, A: 0xB3}
	atrFill = color.RGBA{R: 0x95, G: 0xE1, B: 0xD3, A: 0xB3}
	strFill = color.RGBA{R: 0xF3, G: 0xC6, B: 0x23, A: 0xB3}
	red     = color.RGBA{R: 0xD6, G: 0x27, B: 0x28, A: 0xFF}
	blue    = color.RGBA{R: 0x1F, G: 0x77, B: 0xB4, A: 0xFF}
	gray    = color.Gray{Y: 0x80}
)

// FileName returns the dashboard image name for a scan date.
func FileName(date time.Time) string {
	return "signal_analysis_" + date.Format("20060102") + ".png"
}

// Render draws the 3x3 analysis grid of records and saves it as a PNG.
func Render(records []model.SignalRecord, title, path string) error {
	stats, err := ComputeStats(records)
	if err != nil {
		return err
	}

	top, err := strengthRanking(records)
	if err != nil {
		return err
	}
	strength, err := histogram("Signal Strength Distribution", "Signal Strength", pluck(records, func(r model.SignalRecord) float64 { return float64(r.SignalStrength) }), strFill, refLine{stats.AvgStrength, blue, fmt.Sprintf("Mean: %.1f", stats.AvgStrength)})
	if err != nil {
		return err
	}
	rsi, err := histogram("RSI Distribution", "RSI Value", pluck(records, func(r model.SignalRecord) float64 { return r.RSI }), rsiFill,
		refLine{stats.AvgRSI, blue, fmt.Sprintf("Mean: %.1f", stats.AvgRSI)},
		refLine{30, red, "Oversold (30)"})
	if err != nil {
		return err
	}
	bbMean := mean(pluck(records, func(r model.SignalRecord) float64 { return r.BBPosition }))
	bb, err := histogram("Bollinger Band Position", "BB Position (0=Lower, 1=Upper)", pluck(records, func(r model.SignalRecord) float64 { return r.BBPosition }), bbFill,
		refLine{0.5, gray, "Middle (0.5)"},
		refLine{bbMean, red, fmt.Sprintf("Mean: %.2f", bbMean)})
	if err != nil {
		return err
	}
	atr, err := histogram("Average True Range (Volatility)", "ATR as % of Price", pluck(records, func(r model.SignalRecord) float64 { return r.ATRPct }), atrFill,
		refLine{stats.AvgATRPct, red, fmt.Sprintf("Mean: %.1f%%", stats.AvgATRPct)})
	if err != nil {
		return err
	}
	vol, err := scatter(records, "Volume Surge vs Signal Quality", "Volume Surge Ratio", "Signal Strength",
		func(r model.SignalRecord) (float64, float64) { return r.VolSurge, float64(r.SignalStrength) },
		refLine{1.5, red, "1.5x threshold"})
	if err != nil {
		return err
	}
	trend, err := priceVsTrend(records)
	if err != nil {
		return err
	}
	support, err := scatter(records, "Proximity to Support Level", "Distance to Support (%)", "Signal Strength",
		func(r model.SignalRecord) (float64, float64) { return r.DistanceToSupportPct, float64(r.SignalStrength) },
		refLine{5, red, "5% threshold"})
	if err != nil {
		return err
	}

	plots := [][]*plot.Plot{
		{top, strength, nil},
		{rsi, bb, atr},
		{vol, trend, support},
	}

	img := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseBackgroundColor(color.White))
	dc := draw.New(img)

	titleStyle := textStyle(plot.DefaultFont, 16, draw.XCenter)
	dc.FillText(titleStyle, vg.Point{X: dc.Center().X, Y: dc.Max.Y - vg.Points(10)}, title)
	grid := draw.Crop(dc, 0, 0, 0, -vg.Points(36))

	tiles := draw.Tiles{
		Rows: 3, Cols: 3,
		PadX: vg.Millimeter * 8, PadY: vg.Millimeter * 8,
		PadLeft: vg.Millimeter * 4, PadRight: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 4,
	}
	canvases := plot.Align(plots, tiles, grid)
	for j := range plots {
		for i, p := range plots[j] {
			if p != nil {
				p.Draw(canvases[j][i])
			}
		}
	}

	panel := canvases[0][2]
	mono := font.Font{Typeface: "Liberation", Variant: "Mono"}
	panel.FillText(textStyle(mono, 11, draw.XLeft), vg.Point{X: panel.Min.X + vg.Points(12), Y: panel.Max.Y - vg.Points(6)}, stats.Summary())

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dashboard dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("encode dashboard: %w", err)
	}
	return f.Close()
}

type refLine struct {
	x     float64
	color color.Color
	label string
}

func textStyle(fnt font.Font, size float64, align text.XAlignment) text.Style {
	return text.Style{
		Color:   color.Black,
		Font:    font.From(fnt, vg.Points(size)),
		XAlign:  align,
		YAlign:  draw.YTop,
		Handler: plot.DefaultTextHandler,
	}
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

// strengthRanking is a horizontal bar per record among the most oversold,
// colored by strength.
func strengthRanking(records []model.SignalRecord) (*plot.Plot, error) {
	ranked := MostOversoldRanked(records, topSignals)
	p := newPlot(fmt.Sprintf("Top %d Signals by Strength (100 = Highest Quality)", len(ranked)), "Signal Strength Score", "")
	names := make([]string, len(ranked))
	for i, r := range ranked {
		bar, err := plotter.NewBarChart(plotter.Values{float64(r.SignalStrength)}, vg.Points(14))
		if err != nil {
			return nil, err
		}
		bar.Horizontal = true
		bar.XMin = float64(i)
		bar.Color = strengthColor(float64(r.SignalStrength))
		p.Add(bar)
		names[i] = r.Ticker
	}
	p.NominalY(names...)
	p.X.Min, p.X.Max = 0, 100
	return p, nil
}

func histogram(title, xLabel string, values plotter.Values, fill color.Color, refs ...refLine) (*plot.Plot, error) {
	p := newPlot(title, xLabel, "Frequency")
	h, err := plotter.NewHist(values, histBins)
	if err != nil {
		return nil, err
	}
	h.FillColor = fill
	p.Add(h)

	top := 1.0
	for _, b := range h.Bins {
		if b.Weight > top {
			top = b.Weight
		}
	}
	if err := addRefLines(p, 0, top, refs); err != nil {
		return nil, err
	}
	return p, nil
}

func scatter(records []model.SignalRecord, title, xLabel, yLabel string, xy func(model.SignalRecord) (float64, float64), refs ...refLine) (*plot.Plot, error) {
	p := newPlot(title, xLabel, yLabel)
	pts := make(plotter.XYs, len(records))
	for i, r := range records {
		pts[i].X, pts[i].Y = xy(r)
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  strengthColor(float64(records[i].SignalStrength)),
			Radius: vg.Points(4),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(s)
	if err := addRefLines(p, 0, 100, refs); err != nil {
		return nil, err
	}
	return p, nil
}

func priceVsTrend(records []model.SignalRecord) (*plot.Plot, error) {
	p, err := scatter(records, "Price vs Long-term Trend", "200-Day SMA ($)", "Current Price ($)",
		func(r model.SignalRecord) (float64, float64) { return r.SMA200, r.Price })
	if err != nil {
		return nil, err
	}
	lo, hi := records[0].Price, records[0].Price
	for _, r := range records {
		for _, v := range []float64{r.Price, r.SMA200} {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	diag, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, err
	}
	diag.Color = red
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(diag)
	p.Legend.Add("Price = SMA", diag)
	return p, nil
}

func addRefLines(p *plot.Plot, y0, y1 float64, refs []refLine) error {
	for _, ref := range refs {
		l, err := plotter.NewLine(plotter.XYs{{X: ref.x, Y: y0}, {X: ref.x, Y: y1}})
		if err != nil {
			return err
		}
		l.Color = ref.color
		l.Width = vg.Points(1.5)
		l.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(l)
		p.Legend.Add(ref.label, l)
	}
	return nil
}

// strengthColor maps 0..100 onto a red-yellow-green ramp.
func strengthColor(v float64) color.Color {
	t := v / 100
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if t < 0.5 {
		return color.RGBA{R: 0xD7, G: uint8(0x30 + t*2*(0xD0-0x30)), B: 0x27, A: 0xFF}
	}
	return color.RGBA{R: uint8(0xD7 - (t-0.5)*2*(0xD7-0x1A)), G: 0xC0, B: 0x3A, A: 0xFF}
}

func pluck(records []model.SignalRecord, f func(model.SignalRecord) float64) plotter.Values {
	vs := make(plotter.Values, len(records))
	for i, r := range records {
		vs[i] = f(r)
	}
	return vs
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
