package render

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samuelfneumann/gowarehouse/experiment/trackers"
	ts "github.com/samuelfneumann/gowarehouse/timestep"
	"github.com/samuelfneumann/gowarehouse/utils/floatutils"
)

// WriteReturnChart writes an HTML page with a line chart of the
// episodic returns of each named run. The subtitle names the best
// episode of the first run.
func WriteReturnChart(w io.Writer, title string, names []string,
	returns ...[]float64) error {
	if len(names) != len(returns) {
		return fmt.Errorf("writeReturnChart: %d names for %d runs", len(names),
			len(returns))
	}

	episodes := 0
	for _, r := range returns {
		if len(r) > episodes {
			episodes = len(r)
		}
	}
	if episodes == 0 {
		return fmt.Errorf("writeReturnChart: no episodes to plot")
	}

	subtitle := ""
	if len(returns[0]) > 0 {
		best, indices := floatutils.MaxSlice(returns[0])
		subtitle = fmt.Sprintf("best return %.2f in episode %d", best,
			indices[0])
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Return"}),
	)

	xAxis := make([]string, episodes)
	for i := range xAxis {
		xAxis[i] = strconv.Itoa(i)
	}
	line.SetXAxis(xAxis)

	for i, r := range returns {
		items := make([]opts.LineData, 0, len(r))
		for _, value := range r {
			items = append(items, opts.LineData{Value: value})
		}
		line.AddSeries(names[i], items)
	}

	page := components.NewPage()
	page.AddCharts(line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("writeReturnChart: %w", err)
	}
	return nil
}

// ReturnChart is a Tracker which tracks episodic returns and saves them
// as an HTML line chart
type ReturnChart struct {
	*trackers.Return
	path  string
	title string
}

// NewReturnChart returns a new ReturnChart saving its chart to path
func NewReturnChart(path, title string) *ReturnChart {
	return &ReturnChart{
		Return: trackers.NewReturn(""),
		path:   path,
		title:  title,
	}
}

// Track tracks the reward of a timestep
func (r *ReturnChart) Track(step ts.TimeStep) {
	r.Return.Track(step)
}

// Save writes the chart of all finished episodes. If no episode has
// finished, no chart is written.
func (r *ReturnChart) Save() error {
	if len(r.Returns()) == 0 {
		return nil
	}

	file, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("save: could not create chart file: %w", err)
	}

	err = WriteReturnChart(file, r.title, []string{"return"}, r.Returns())
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
