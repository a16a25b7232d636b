package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Azan/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Azan"
	AppID             = "com.github.ibad-al-rahman.azan"
	KeyringService    = "com.github.ibad-al-rahman.azan"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "azan.log"
	DefaultEnvFile    = ".env"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	ExitCodeUsage   = 2
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion   = "version"
	FlagDebug     = "debug"
	FlagEnvFile   = "env"
	FlagPrint     = "print"
	FlagLatitude  = "lat"
	FlagLongitude = "lon"
	FlagMethod    = "method"
	FlagMadhab    = "madhab"
	FlagDate      = "date"
	FlagTimezone  = "tz"
	FlagLanguage  = "lang"
	FlagStorePass = "store-password"
	FlagTray      = "tray"
	FlagRequest   = "request"

	FlagDescVersion   = "Show application version and exit"
	FlagDescDebug     = "Enable debug logging to stdout"
	FlagDescEnvFile   = "Path to an optional .env file"
	FlagDescPrint     = "Print the prayer times for one day and exit"
	FlagDescLatitude  = "Latitude in degrees (print mode)"
	FlagDescLongitude = "Longitude in degrees (print mode)"
	FlagDescMethod    = "Calculation method, e.g. MuslimWorldLeague"
	FlagDescMadhab    = "Madhab for Asr: Shafi or Hanafi"
	FlagDescDate      = "Date as YYYY-MM-DD (defaults to today)"
	FlagDescTimezone  = "IANA time zone used to display times"
	FlagDescLanguage  = "Language for prayer names"
	FlagDescStorePass = "Save AZAN_PASSWORD in the OS keyring for AZAN_USERNAME and exit"
	FlagDescTray      = "Run with a system tray menu showing the current prayer of each place"
	FlagDescRequest   = "Read the print mode query as JSON from a file, or - for stdin"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
	FormatPrintLine  = "%-8s %s\n"
	FormatPrintHead  = "%s (%s, %s)\n"
	TimeFormatPrint  = "15:04"
	StdinPath        = "-"
)

// -----------------------------------------------------------------------------
// UI Constants & Preferences
// -----------------------------------------------------------------------------

const (
	SettingsWindowWidth = 480

	// TrayRefreshTick is how often the tray labels are recomputed.
	TrayRefreshTick = time.Minute

	// FormatRemaining renders hours and minutes, e.g. "2h09".
	FormatRemaining = "%dh%02d"

	// FormatReminderTrigger turns reminder minutes into an ISO8601 alarm offset.
	FormatReminderTrigger = "-PT%dM"

	// Preference Keys
	PrefLanguage        = "language"
	PrefMethod          = "method"
	PrefMadhab          = "madhab"
	PrefHighLatRule     = "high_latitude_rule"
	PrefReminderMinutes = "reminder_minutes"
	PrefUsername        = "username"

	// PrefUnset marks an integer preference that was never saved.
	PrefUnset = -1
)

// -----------------------------------------------------------------------------
// UI Places Window Constants
// -----------------------------------------------------------------------------

const (
	PlacesWinWidth  = 640
	PlacesWinHeight = 400

	// Table Column IDs
	ColIDName     = 0
	ColIDTimezone = 1
	ColIDCurrent  = 2
	ColIDNext     = 3
	ColCount      = 4

	// Table Layout
	ColWidthName     = 200
	ColWidthTimezone = 140
	ColWidthCurrent  = 110
	ColWidthNext     = 160

	TablePlaceholder = "Cell Content"
	NoValue          = "-"
	LogMsgOpenWin    = "Opening places window"
	LogMsgSorted     = "Places sorted"

	// Sorting Indicators
	SortIconAsc  = " ▲"
	SortIconDesc = " ▼"

	LayoutColumnsDouble = 2
)

// -----------------------------------------------------------------------------
// Environment Variables
// -----------------------------------------------------------------------------

const (
	EnvPort        = "AZAN_PORT"
	EnvBindAddr    = "AZAN_BIND_ADDR"
	EnvSourceMode  = "AZAN_SOURCE_MODE"
	EnvLocalPath   = "AZAN_LOCAL_PATH"
	EnvCardDAVURL  = "AZAN_CARDDAV_URL"
	EnvUsername    = "AZAN_USERNAME"
	EnvPassword    = "AZAN_PASSWORD"
	EnvMethod      = "AZAN_METHOD"
	EnvMadhab      = "AZAN_MADHAB"
	EnvHighLatRule = "AZAN_HIGH_LATITUDE_RULE"
	EnvLanguage    = "AZAN_LANGUAGE"
	EnvRefreshMin  = "AZAN_REFRESH_MINUTES"
	EnvDays        = "AZAN_DAYS"
	EnvReminder    = "AZAN_REMINDER"
	EnvRateLimit   = "AZAN_RATE_LIMIT"
	EnvRateBurst   = "AZAN_RATE_BURST"
	EnvDefaultTZ   = "AZAN_TIMEZONE"
)

// SupportedLanguages lists the embedded locales (ISO 639-1).
var SupportedLanguages = []string{"en", "fr", "ar"}

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyFajr         = "prayer_fajr"
	TKeySunrise      = "prayer_sunrise"
	TKeyDhuhr        = "prayer_dhuhr"
	TKeyJumua        = "prayer_jumua"
	TKeyAsr          = "prayer_asr"
	TKeyMaghrib      = "prayer_maghrib"
	TKeyIshaa        = "prayer_ishaa"
	TKeyQiyam        = "prayer_qiyam"
	TKeyEvtSummary   = "event_summary"  // Requires Prayer, Place
	TKeyEvtReminder  = "event_reminder" // Requires Prayer
	TKeyCalendarName = "calendar_name"

	TKeyWinSettings  = "win_settings_title"
	TKeyWinPlaces    = "win_places_title"
	TKeyMenuRefresh  = "menu_refresh"
	TKeyMenuPlaces   = "menu_places"
	TKeyMenuSettings = "menu_settings"
	TKeyTrayStatus   = "tray_status"   // Requires Place, Current, Next, Remaining
	TKeyTrayUpcoming = "tray_upcoming" // Requires Place, Next, Remaining
	TKeyTrayError    = "tray_error"    // Requires Place
	TKeyTrayEmpty    = "tray_empty"
	TKeyNextIn       = "next_in"       // Requires Next, Remaining
	TKeyNotifStart   = "notif_sync_start"
	TKeyNotifSuccess = "notif_sync_success"
	TKeyNotifError   = "notif_err_sync"
	TKeyLblGeneral   = "lbl_general"
	TKeyLblLanguage  = "lbl_language"
	TKeyLblMethod    = "lbl_method"
	TKeyLblMadhab    = "lbl_madhab"
	TKeyLblHighLat   = "lbl_high_latitude"
	TKeyLblReminder  = "lbl_reminder"
	TKeyLblMinutes   = "lbl_minutes_suffix"
	TKeyHelpReminder = "help_reminder"
	TKeyLblAccount   = "lbl_account"
	TKeyLblUser      = "lbl_user"
	TKeyLblPass      = "lbl_pass"
	TKeyBtnSave      = "btn_save"
	TKeyBtnCancel    = "btn_cancel"
	TKeyLblFooter    = "lbl_footer" // Requires Version
	TKeyColName      = "col_name"
	TKeyColTimezone  = "col_timezone"
	TKeyColCurrent   = "col_current"
	TKeyColNext      = "col_next"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceModeWeb     = "web"
	SourceModeLocal   = "local"
	DefaultPort       = "18081"
	DefaultRefreshMin = 60
	DefaultDays       = 7
	MaxDays           = 60
	DefaultLanguage   = "en"
	DefaultMethod     = "MuslimWorldLeague"
	DefaultMadhab     = "Shafi"
	DefaultRateLimit  = 5.0
	DefaultRateBurst  = 20
	UIDSalt           = "azan-v1-" // Salt for deterministic UID generation
	DisabledInterval  = 0

	// EventDuration is the length given to each prayer event in the feed.
	EventDuration = 15 * time.Minute

	// DailyRefreshAt is the wall-clock time of the day-rollover refresh.
	DailyRefreshAt = "00:05"

	// RateLimiterIdleTTL is how long a client limiter survives without requests.
	RateLimiterIdleTTL = 10 * time.Minute
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Azan//Prayer Times//EN"
	ICalCalName   = "Prayer Times"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "azan"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTEnd       = "DTEND"
	PropDTStamp     = "DTSTAMP"
	PropLocation    = "LOCATION"
	PropGeo         = "GEO"
	PropCategories  = "CATEGORIES"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	VCardFN  = "FN"
	VCardN   = "N"
	VCardGEO = "GEO"
	VCardTZ  = "TZ"
	VCardUID = "UID"

	GeoURIPrefix = "geo:"
	GeoFormat    = "%.6f;%.6f"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	DateFormatISO = "2006-01-02"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	UIDHashLength   = 12
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s-%s-%s@%s"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	AllowedMethodsAPI   = "GET, POST"
	MaxHTTPResponseSize = 64 * 1024 * 1024 // 64MB
	MaxRequestBodySize  = 64 * 1024
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"

	RouteRoot     = "/"
	RouteCalendar = "/calendar.ics"
	RouteTimes    = "/times"
	RouteMetrics  = "/metrics"
	RouteHealth   = "/healthz"

	// RouteUnmatched labels requests that matched no route.
	RouteUnmatched = "unmatched"

	QueryLat      = "lat"
	QueryLon      = "lon"
	QueryMethod   = "method"
	QueryMadhab   = "mazhab"
	QueryDate     = "date"
	QueryTimezone = "tz"
	QueryLanguage = "lang"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderAcceptLanguage  = "Accept-Language"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeVCard           = "text/vcard, text/x-vcard;q=0.9, */*;q=0.5"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrInvalidCoordinates = "invalid coordinates"
	ErrNoCrossing         = "sun does not reach the requested altitude"
	ErrInvalidDate        = "invalid calendar date"
	ErrIncomplete         = "Required information is needed in order to calculate the prayer times."
	ErrUnknownMethod      = "unknown calculation method"
	ErrUnknownMadhab      = "unknown madhab"
	ErrUnknownRule        = "unknown high latitude rule"
	ErrUnknownRounding    = "unknown rounding policy"
	ErrUnknownTwilight    = "unknown twilight variant"
	ErrUnknownPrayer      = "unknown prayer"
	ErrSchedule           = "failed to calculate prayer times"
	ErrScheduleOrder      = "high latitude fallback puts prayers out of order"
	ErrRequestDecode      = "failed to decode request body"
	ErrRequestInvalid     = "invalid request"
	ErrTimezone           = "unknown time zone"
	ErrGeoParse           = "unable to parse GEO property"

	ErrLocalPathEmpty = "configuration error: local path is empty"
	ErrWebURLEmpty    = "configuration error: web URL is empty"
	ErrFetcherMissing = "internal error: network fetcher is not initialized"
	ErrModeUnsupport  = "configuration error: unsupported source mode"
	ErrSettings       = "configuration error: invalid settings"
	ErrServerStartup  = "server startup failed"
	ErrServerShutdown = "server shutdown failed"
	ErrPortRequired   = "server port is required"
	ErrPortNumber     = "server port must be a number"
	ErrPortRange      = "server port must be between 1 and 65535"
	ErrInvalidURL     = "invalid URL structure"
	ErrProtocol       = "unsupported protocol scheme (http/https only)"
	ErrFetchStatus    = "server returned unexpected status"
	ErrVCardParse     = "failed to parse vCard stream"
	ErrICalEncode     = "failed to encode iCalendar data"
	ErrLogFile        = "failed to open log file"
	ErrCacheDir       = "could not determine user cache dir"
	ErrCreateDir      = "could not create app cache dir"
	ErrAppFailed      = "application failed unexpectedly"
	ErrWriteResp      = "failed to write response body"
	ErrLocalesAccess  = "failed to access embedded locales"
	ErrLocaleLoad     = "failed to load locale file"
	ErrEnvFile        = "failed to load env file"
	ErrWorkerSchedule = "failed to schedule refresh job"
	ErrSyncFailed     = "synchronization failed"
	ErrKeyringUser    = "keyring error: a username is required"
	ErrKeyringStore   = "failed to save credentials to keyring"

	ErrTrayNotSupported = "system tray not supported on this platform/driver"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
	HTTPMsgTooMany      = "Too many requests, please retry later."
	HTTPMsgOK           = "ok"
)

// -----------------------------------------------------------------------------
// Fallbacks & Messages
// -----------------------------------------------------------------------------

const (
	FallbackSummary = "%s - %s"
	FallbackName    = "Unknown"

	FallbackTrayStatus = "%s: %s"
	TitleStartupError  = "Startup Error"
	TitleSyncError     = "Azan: Sync Error"
	MsgPortBusy        = "Port %s is busy or unavailable."

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgSyncStarted   = "Synchronization started"
	MsgSyncFinished  = "Synchronization finished"
	MsgWorkerStart   = "Background worker started"
	MsgWorkerStop    = "Worker stopping due to context cancellation"
	MsgWorkerRun     = "Scheduled refresh triggered"
	MsgAppStop       = "Application stopped gracefully"
	MsgSkippedCard   = "Skipping malformed vCard"
	MsgSkippedGeo    = "Skipping place without usable GEO"
	MsgSkippedDay    = "Skipping day without a complete schedule"
	MsgBadTimezone   = "Ignoring unknown time zone"
	MsgGenSuccess    = "Calendar generation successful"
	MsgAppStarting   = "Starting application"
	MsgServerListen  = "HTTP server listening"
	MsgServerStop    = "Shutting down HTTP server..."
	MsgCacheUpdated  = "Calendar cache updated"
	MsgLocaleSkip    = "Skipping non-locale file"
	MsgLocaleBadName = "Skipping malformed locale filename"
	MsgLocaleLoaded  = "Locale loaded successfully"
	MsgTransMissing  = "Missing translation key"
	MsgPassFail      = "Password retrieval failed (might be empty)"
	MsgPassStored    = "Password saved to keyring"
	MsgLogWarning    = "Warning: %s at %s: %v\n"
	MsgEnvLoaded     = "Environment file loaded"
	MsgRateLimited   = "Rate limit exceeded"
	MsgTimesServed   = "Prayer times served"
	MsgTimesFailed   = "Prayer times request failed"
	MsgFetchStart    = "Initiating vCard download"
	MsgFetchBadCode  = "Server returned error status"
	MsgFetchOK       = "vCards downloading"
	MsgSyncReq       = "Refresh requested from tray"
	MsgSavingPrefs   = "Saving preferences"
	MsgOpenSettings  = "Opening settings window"
	MsgFocusWindow   = "Window already open, requesting focus"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeyInterval  = "interval"
	LogKeyUser      = "user"
	LogKeyTotal     = "total_cards"
	LogKeyPlaces    = "places"
	LogKeyEvents    = "events"
	LogKeySkipped   = "days_skipped"
	LogKeySizeBytes = "size_bytes"
	LogKeyLength    = "content_length"
	LogKeyETag      = "etag"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyName      = "name"
	LogKeyDate      = "date"
	LogKeyMethod    = "method"
	LogKeyCoords    = "coordinates"
	LogKeyClient    = "client"
	LogKeyRoute     = "route"
	LogKeyDuration  = "duration_ms"
	LogKeyDailyAt   = "daily_at"
	LogKeyCount     = "count"
	LogKeySortCol   = "sort_col"
	LogKeySortAsc   = "sort_asc"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine  = "engine"
	CompServer  = "server"
	CompFetcher = "fetcher"
	CompWorker  = "worker"
	CompMain    = "main"
	CompI18n    = "i18n"
	CompConfig  = "config"
	CompUI      = "ui"
	CompUISet   = "ui_settings"
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

const (
	MetricsNamespace = "azan"

	LabelResult = "result"
	LabelRoute  = "route"
	LabelStatus = "status_code"
	LabelReason = "reason"

	ResultSuccess = "success"
	ResultFailure = "failure"

	ReasonNoCrossing = "no_crossing"
	ReasonInvalid    = "invalid_input"
)
