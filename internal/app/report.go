package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"chartink-gateway/internal/alert"
	"chartink-gateway/internal/monitor"
)

const defaultReportPoints = 500

type perfPoint struct {
	At     time.Time
	Sample monitor.PerformanceSample
}

// Report summarizes exit monitor cycles. Without --csv or --png the
// recent samples are printed as a table; with them the series is
// exported for offline inspection.
func (a *App) Report(ctx context.Context, opts ReportOptions) error {
	perfPath := opts.PerfPath
	if perfPath == "" {
		perfPath = a.Config.Monitor.PerformancePath
	}

	if opts.MaxPoints <= 0 {
		opts.MaxPoints = defaultReportPoints
	}

	samples, err := monitor.ReadSamples(perfPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.Logger.Info().Str("path", perfPath).Msg("no performance samples found")
			return nil
		}
		return err
	}
	if len(samples) == 0 {
		a.Logger.Info().Str("path", perfPath).Msg("no performance samples found")
		return nil
	}

	points := make([]perfPoint, 0, len(samples))
	skipped := 0
	for _, sample := range samples {
		at, err := time.ParseInLocation(alert.TimestampLayout, sample.Timestamp, time.Local)
		if err != nil {
			skipped++
			continue
		}
		points = append(points, perfPoint{At: at, Sample: sample})
	}
	if skipped > 0 {
		a.Logger.Warn().Int("skipped", skipped).Msg("dropped samples with unparseable timestamps")
	}
	if len(points) == 0 {
		a.Logger.Info().Str("path", perfPath).Msg("no usable performance samples")
		return nil
	}

	downsampled := downsamplePerf(points, opts.MaxPoints)
	a.Logger.Info().Int("total", len(points)).Int("reported", len(downsampled)).Msg("reporting monitor cycles")

	if opts.CSVPath == "" && opts.PNGPath == "" {
		printPerfTable(downsampled)
		return nil
	}

	if opts.CSVPath != "" {
		if err := writePerfCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writePerfPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsamplePerf(points []perfPoint, max int) []perfPoint {
	if max <= 0 || len(points) <= max {
		return points
	}
	if max == 1 {
		return points[len(points)-1:]
	}

	result := make([]perfPoint, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func printPerfTable(points []perfPoint) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time\tTrades\tExits\tDuration (ms)")

	for _, point := range points {
		fmt.Fprintf(
			writer,
			"%s\t%d\t%d\t%d\n",
			point.At.Format(alert.TimestampLayout),
			point.Sample.Trades,
			point.Sample.Exits,
			point.Sample.DurationMS,
		)
	}

	writer.Flush()
}

func writePerfCSV(path string, points []perfPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"timestamp", "open_trades", "exits", "duration_ms"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, point := range points {
		record := []string{
			point.At.Format(time.RFC3339),
			strconv.Itoa(point.Sample.Trades),
			strconv.Itoa(point.Sample.Exits),
			strconv.FormatInt(point.Sample.DurationMS, 10),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writePerfPNG(path string, points []perfPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	duration := make([]float64, len(points))
	trades := make([]float64, len(points))
	exits := make([]float64, len(points))

	for i, point := range points {
		x[i] = point.At
		duration[i] = float64(point.Sample.DurationMS)
		trades[i] = float64(point.Sample.Trades)
		exits[i] = float64(point.Sample.Exits)
	}

	countFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Cycle Duration (ms)",
			ValueFormatter: countFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Open Trades",
			ValueFormatter: countFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Duration (ms)",
				XValues: x,
				YValues: duration,
			},
			chart.TimeSeries{
				Name:    "Open Trades",
				XValues: x,
				YValues: trades,
				YAxis:   chart.YAxisSecondary,
			},
			chart.TimeSeries{
				Name:    "Exits",
				XValues: x,
				YValues: exits,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
