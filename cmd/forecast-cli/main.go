package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

type CommandLineOptions struct {
	Query       string        `short:"q" long:"query" description:"city name or lat,lon (default: last searched city)"`
	Granularity string        `short:"g" long:"granularity" default:"daily" choice:"hourly" choice:"daily" choice:"weekly" choice:"monthly" choice:"yearly" description:"bucket size"`
	APIKey      string        `long:"api-key" env:"OPENWEATHER_API_KEY" description:"OpenWeatherMap API key"`
	Settings    string        `long:"settings" env:"SETTINGS_PATH" default:"data/settings.yml" description:"settings file holding the last searched city"`
	Timeout     time.Duration `long:"timeout" default:"15s" description:"overall request timeout"`
	JSON        bool          `long:"json" description:"print the aggregated view as JSON"`
	Verbose     bool          `short:"v" long:"verbose" description:"debug logging"`
}

func readCommandLineOptions() CommandLineOptions {
	opts := CommandLineOptions{}
	_, err := flags.Parse(&opts)

	switch errt := err.(type) {
	case *flags.Error:
		if errt.Type == flags.ErrHelp {
			os.Exit(0)
		}
	}

	if err != nil {
		log.WithError(err).Fatal("could not parse command line arguments")
	}

	return opts
}

func main() {
	_ = godotenv.Load()
	opts := readCommandLineOptions()
	if opts.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	g, err := weather.ParseGranularity(opts.Granularity)
	if err != nil {
		log.WithError(err).Fatal("invalid granularity")
	}

	client := &http.Client{Timeout: opts.Timeout}
	service := weather.NewService(
		store.NewMemoryStore(0),
		store.NewFileSettings(opts.Settings),
		[]weather.Provider{
			providers.NewOpenWeatherProvider(client, opts.APIKey, ""),
			providers.NewOpenMeteoProvider(client, ""),
		},
		nil,
	)

	query := opts.Query
	if query == "" {
		query = service.LastCity()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	view, err := service.Forecast(ctx, query, g)
	if err != nil {
		log.WithError(err).WithField("query", query).Fatal("no forecast available")
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			log.WithError(err).Fatal("could not encode forecast")
		}
		return
	}
	printView(os.Stdout, view)
}

func printView(w io.Writer, view weather.ForecastView) {
	fmt.Fprintf(w, "%s, %s (GMT %+g) via %s\n\n", view.Location.Name, view.Location.Country,
		float64(view.Location.TimezoneOffset)/3600, view.Provider)

	st := view.Stats
	fmt.Fprintf(w, "min %d°C  max %d°C  max precip %d%%  max humidity %d%%\n\n",
		st.MinTemperature, st.MaxTemperature, st.MaxPrecipProb, st.MaxHumidity)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tTEMP\tFEELS\tHUM\tHPA\tPOP\tRAIN\tWIND\tCONDITION")
	for _, p := range view.Points {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d%%\t%.1f\t%.1f\t%s\n",
			p.Label, p.Temperature, p.FeelsLike, p.Humidity, p.Pressure, p.PrecipProb, p.RainMm, p.WindSpeed, p.Condition)
	}
	tw.Flush()

	fmt.Fprintln(w)
	for _, c := range view.Conditions {
		fmt.Fprintf(w, "%-14s %d\n", c.Condition, c.Count)
	}
}
