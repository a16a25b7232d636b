package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"
	_ "time/tzdata"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/ibad-al-rahman/azan/internal/astronomy"
	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/engine"
	"github.com/ibad-al-rahman/azan/internal/locale"
	"github.com/ibad-al-rahman/azan/internal/metrics"
	"github.com/ibad-al-rahman/azan/internal/prayer"
	"github.com/ibad-al-rahman/azan/internal/server"
	"github.com/ibad-al-rahman/azan/internal/ui"
	"github.com/ibad-al-rahman/azan/internal/worker"
)

// options holds the parsed command line.
type options struct {
	version   bool
	debug     bool
	envFile   string
	print     bool
	storePass bool
	tray      bool
	request   string

	lat, lon  float64
	hasCoords bool
	method    string
	madhab    string
	date      string
	tz        string
	lang      string
}

// main is the application entry point.
// runMain returns the exit code so that deferred calls (like closing the log
// file) run before os.Exit.
func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout))
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
func runMain(args []string, stdout io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		return config.ExitCodeUsage
	}

	if opts.version {
		printVersion(stdout)
		return config.ExitCodeSuccess
	}

	// One-shot modes keep stdout for their own output.
	console := stdout
	if opts.print || opts.storePass {
		console = os.Stderr
	}
	logCloser := setupLogging(opts.debug, console)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close()
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, stdout); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	if !opts.print && !opts.storePass {
		slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	}
	return config.ExitCodeSuccess
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.BoolVar(&o.version, config.FlagVersion, false, config.FlagDescVersion)
	fs.BoolVar(&o.debug, config.FlagDebug, false, config.FlagDescDebug)
	fs.StringVar(&o.envFile, config.FlagEnvFile, "", config.FlagDescEnvFile)
	fs.BoolVar(&o.print, config.FlagPrint, false, config.FlagDescPrint)
	fs.BoolVar(&o.storePass, config.FlagStorePass, false, config.FlagDescStorePass)
	fs.BoolVar(&o.tray, config.FlagTray, false, config.FlagDescTray)
	fs.StringVar(&o.request, config.FlagRequest, "", config.FlagDescRequest)
	fs.Float64Var(&o.lat, config.FlagLatitude, 0, config.FlagDescLatitude)
	fs.Float64Var(&o.lon, config.FlagLongitude, 0, config.FlagDescLongitude)
	fs.StringVar(&o.method, config.FlagMethod, "", config.FlagDescMethod)
	fs.StringVar(&o.madhab, config.FlagMadhab, "", config.FlagDescMadhab)
	fs.StringVar(&o.date, config.FlagDate, "", config.FlagDescDate)
	fs.StringVar(&o.tz, config.FlagTimezone, "", config.FlagDescTimezone)
	fs.StringVar(&o.lang, config.FlagLanguage, "", config.FlagDescLanguage)
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == config.FlagLatitude || f.Name == config.FlagLongitude {
			o.hasCoords = true
		}
	})
	return o, nil
}

// run loads the configuration and dispatches to the selected mode.
func run(ctx context.Context, opts options, stdout io.Writer) error {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return err
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	if opts.storePass {
		if err := engine.StorePassword(settings.Username, settings.Password); err != nil {
			return err
		}
		slog.Info(config.MsgPassStored,
			config.LogKeyComponent, config.CompConfig,
			config.LogKeyUser, settings.Username,
		)
		return nil
	}

	tr, err := locale.New()
	if err != nil {
		return err
	}

	if opts.print {
		return printSchedule(opts, settings, tr, engine.RealClock{}, os.Stdin, stdout)
	}

	logStartupInfo()
	return serve(ctx, settings, tr, opts.tray)
}

// serve wires the feed generator, the refresh worker and the HTTP server. In
// tray mode it also runs the desktop UI, whose saved preferences override
// settings on every refresh, and returns once the UI quits.
func serve(ctx context.Context, settings config.Settings, tr *locale.Translator, tray bool) error {
	params, err := engine.ResolveParameters(settings.Method, settings.Madhab, settings.HighLatitudeRule)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrSettings, err)
	}

	var loc *time.Location
	if settings.Timezone != "" {
		if loc, err = engine.ParseTimeZone(settings.Timezone); err != nil {
			return fmt.Errorf("%s: %w", config.ErrSettings, err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	current := func() config.Settings { return settings }
	var gui *ui.AzanApp
	if tray {
		gui = ui.New(app.NewWithID(config.AppID), ctx, tr, settings)
		current = gui.Settings
	}
	language := func() string { return tr.Match(current().Language) }

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	srv := server.NewCalendarServer(settings.BindAddr, settings.Port)
	srv.Translator = tr
	srv.Metrics = collector
	srv.Gatherer = reg
	srv.DefaultMethod = settings.Method
	srv.Location = loc
	srv.RateLimit = rate.Limit(settings.RateLimit)
	srv.RateBurst = settings.RateBurst

	gen := &engine.Generator{
		Clock:         engine.RealClock{},
		Fetcher:       engine.NewHTTPFetcher(),
		Metrics:       collector,
		CalendarName:  tr.CalendarName(language()),
		FormatSummary: buildSummaryFormatter(tr, language),
		FormatReminder: func(p prayer.Prayer, ref time.Time) string {
			lang := language()
			return tr.Reminder(lang, tr.PrayerName(lang, p, ref))
		},
	}

	var publisher worker.Publisher = srv
	if gui != nil {
		publisher = gui.Forward(srv)
	}

	w := &worker.Worker{
		Syncer:    gen,
		Publisher: publisher,
		Config:    func() engine.SyncConfig { return loadSyncConfig(current(), params, loc) },
		Interval:  settings.RefreshInterval,
		Location:  loc,
	}

	if gui != nil {
		gui.Source = w
	}

	workerErr := make(chan error, config.ChannelBufferSize)
	go func() { workerErr <- w.Run(ctx) }()

	if gui == nil {
		if err := srv.Start(ctx); err != nil {
			return err
		}
		return <-workerErr
	}

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := srv.Start(ctx); err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err,
			)
			fyne.Do(func() {
				gui.App.SendNotification(fyne.NewNotification(
					config.TitleStartupError,
					fmt.Sprintf(config.MsgPortBusy, settings.Port)))
			})
		}
	}()

	gui.Run()
	cancel()
	<-serverDone
	return <-workerErr
}

// loadSyncConfig assembles the engine configuration from the settings and the
// keyring. Settings whose calculation parameters no longer resolve keep
// fallback.
func loadSyncConfig(s config.Settings, fallback prayer.Parameters, loc *time.Location) engine.SyncConfig {
	params, err := engine.ResolveParameters(s.Method, s.Madhab, s.HighLatitudeRule)
	if err != nil {
		params = fallback
	}
	return engine.SyncConfig{
		Mode:            s.SourceMode,
		LocalPath:       s.LocalPath,
		WebURL:          s.CardDAVURL,
		WebUser:         s.Username,
		WebPass:         engine.Password(s.Username, s.Password),
		ReminderTrigger: s.Reminder,
		Parameters:      params,
		Days:            s.Days,
		Location:        loc,
	}
}

// buildSummaryFormatter returns a closure that localizes the event summary in
// the language current at the time of the call.
func buildSummaryFormatter(tr *locale.Translator, language func() string) func(prayer.Prayer, time.Time, string) string {
	return func(p prayer.Prayer, ref time.Time, place string) string {
		lang := language()
		return tr.EventSummary(lang, tr.PrayerName(lang, p, ref), place)
	}
}

// printSchedule writes one day of prayer times to out. The query comes from
// the -request JSON when given, from the flags and settings otherwise.
func printSchedule(opts options, s config.Settings, tr *locale.Translator, clock engine.Clock, in io.Reader, out io.Writer) error {
	tz := opts.tz
	if tz == "" {
		tz = s.Timezone
	}
	loc := time.UTC
	if tz != "" {
		var err error
		if loc, err = engine.ParseTimeZone(tz); err != nil {
			return err
		}
	}

	var q engine.Query
	var err error
	if opts.request != "" {
		q, err = readQuery(opts.request, in, clock)
	} else {
		q, err = queryFromFlags(opts, s, clock, loc)
	}
	if err != nil {
		return err
	}

	times, err := q.Calculate()
	if err != nil {
		return err
	}

	lang := opts.lang
	if lang == "" {
		lang = s.Language
	}
	lang = tr.Match(lang)
	ref := q.Date.Time()

	if _, err := fmt.Fprintf(out, config.FormatPrintHead, q.Date, q.Coordinates, q.Parameters.Method()); err != nil {
		return err
	}
	for _, p := range prayer.All() {
		if p == prayer.FajrTomorrow {
			continue
		}
		line := fmt.Sprintf(config.FormatPrintLine, tr.PrayerName(lang, p, ref), times.Time(p).In(loc).Format(config.TimeFormatPrint))
		if _, err := io.WriteString(out, line); err != nil {
			return err
		}
	}
	return nil
}

// queryFromFlags builds the query of the -lat, -lon, -method, -madhab and
// -date flags. Method and madhab fall back to the settings.
func queryFromFlags(opts options, s config.Settings, clock engine.Clock, loc *time.Location) (engine.Query, error) {
	method := opts.method
	if method == "" {
		method = s.Method
	}
	madhab := opts.madhab
	if madhab == "" {
		madhab = s.Madhab
	}
	params, err := engine.ResolveParameters(method, madhab, s.HighLatitudeRule)
	if err != nil {
		return engine.Query{}, err
	}

	date := engine.Today(clock, loc)
	if opts.date != "" {
		if date, err = prayer.ParseDate(opts.date); err != nil {
			return engine.Query{}, err
		}
	}

	if !opts.hasCoords {
		return engine.Query{}, fmt.Errorf("%w (missing coordinates)", prayer.ErrIncomplete)
	}
	coords, err := astronomy.NewCoordinates(opts.lat, opts.lon)
	if err != nil {
		return engine.Query{}, err
	}
	return engine.Query{Date: date, Coordinates: coords, Parameters: params}, nil
}

// readQuery decodes a JSON request from the file at path, or from in when
// path is "-".
func readQuery(path string, in io.Reader, clock engine.Clock) (engine.Query, error) {
	if path != config.StdinPath {
		f, err := os.Open(path)
		if err != nil {
			return engine.Query{}, err
		}
		defer func() {
			_ = f.Close()
		}()
		in = f
	}
	return engine.ParseRequest(in, clock)
}

// printVersion outputs the build information.
func printVersion(out io.Writer) {
	_, _ = fmt.Fprintf(out, config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger: JSON to console and to a
// log file in the user's cache directory.
func setupLogging(debugMode bool, console io.Writer) io.Closer {
	writers := []io.Writer{console}
	var logFile *os.File

	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts)))

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
