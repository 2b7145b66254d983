package repository

import "fmt"

// Window is a chart range plus bar interval, e.g. 1mo of 1d bars.
type Window struct {
	Range    string
	Interval string
}

var (
	Window5d  = Window{Range: "5d", Interval: "1d"}
	Window1mo = Window{Range: "1mo", Interval: "1d"}
	Window3mo = Window{Range: "3mo", Interval: "1d"}
)

var validRanges = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true, "1y": true,
}

var validIntervals = map[string]bool{
	"1m": true, "5m": true, "15m": true, "1h": true, "1d": true, "1wk": true,
}

// IsValidWindow returns true if w is a supported range/interval pair.
func IsValidWindow(w Window) bool {
	return validRanges[w.Range] && validIntervals[w.Interval]
}

// DefaultWindow returns the default window.
func DefaultWindow() Window { return Window5d }

// NormalizeWindow returns w when valid, otherwise the default.
func NormalizeWindow(w Window) Window {
	if IsValidWindow(w) {
		return w
	}
	return DefaultWindow()
}

// String renders the window as "range/interval".
func (w Window) String() string {
	return fmt.Sprintf("%s/%s", w.Range, w.Interval)
}

// RowsWindow renders a row-count window for CSV providers.
func RowsWindow(n int) string {
	return fmt.Sprintf("%d rows", n)
}
