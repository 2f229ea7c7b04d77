package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/alexivanou/forecast-widget/internal/config"
	"github.com/alexivanou/forecast-widget/internal/network"
	"github.com/alexivanou/forecast-widget/internal/weatherapi"
	"github.com/alexivanou/forecast-widget/internal/widget"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

func main() {
	var (
		location = flag.String("q", "", "Location to look up (defaults to WEATHER_DEFAULT_LOCATION)")
		locale   = flag.String("locale", "", "Locale for date labels (defaults to WEATHER_LOCALE)")
		asJSON   = flag.Bool("json", false, "Print the rendered view as JSON")
		offline  = flag.Bool("offline", false, "Behave as if the network were unavailable")
		verbose  = flag.Bool("v", false, "Log fetch diagnostics")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}
	defer logger.Sync()

	monitor := network.NewMonitor(network.Static(!*offline))
	monitor.Start()
	defer monitor.Close()

	if !monitor.IsOnline() {
		fmt.Println("Offline")
		os.Exit(1)
	}

	if *locale == "" {
		*locale = cfg.Weather.Locale
	}
	dates := widget.NewDateFormatter(*locale)

	client := weatherapi.New(cfg.Weather.APIKey, cfg.Weather.Timeout, weatherapi.WithBaseURL(cfg.Weather.BaseURL))
	vm := widget.New(client,
		widget.WithLogger(logger),
		widget.WithDefaultLocation(cfg.Weather.DefaultLocation),
	)
	defer vm.Close()

	vm.Subscribe(func(st widget.State) {
		if st.Phase == widget.PhaseLoading && !*asJSON {
			fmt.Fprintln(os.Stderr, widget.LoadingMessage)
		}
	})
	vm.Mount(*location)

	st, err := vm.Wait(context.Background())
	if err != nil {
		logger.Fatal("Failed to wait for forecast", zap.Error(err))
	}
	view := widget.Render(st, dates)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			logger.Fatal("Failed to encode view", zap.Error(err))
		}
	} else {
		printView(os.Stdout, view, cases.Title(dates.Locale()))
	}

	if view.Kind != widget.ViewForecast {
		os.Exit(1)
	}
}

func printView(out io.Writer, v widget.View, title cases.Caser) {
	if v.Kind != widget.ViewForecast {
		fmt.Fprintln(out, v.Message)
		return
	}

	c := v.Current
	fmt.Fprintln(out, c.Name)
	if loc := c.Location(); loc != "" {
		fmt.Fprintln(out, loc)
	}
	fmt.Fprintf(out, "Updated %s\n\n", c.LastUpdated)
	fmt.Fprintf(out, "%d°C  %s  (feels like %d°C, %s)\n", c.Temp, title.String(c.Condition), c.FeelsLike, c.Band)
	fmt.Fprintf(out, "Wind: %v km/h  Humidity: %d%%  UV: %v  Vis: %v km\n\n", c.WindKph, c.Humidity, c.UV, c.VisKm)

	fmt.Fprintln(out, "Forecast")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, d := range v.Days {
		fmt.Fprintf(tw, "%s\t%s\t%d° / %d°\tRain: %d%%\n",
			d.Label, title.String(d.Condition), d.MaxTemp, d.MinTemp, d.ChanceOfRain)
	}
	tw.Flush()
}
