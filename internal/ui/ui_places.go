package ui

import (
	"log/slog"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ibad-al-rahman/azan/internal/config"
)

// ShowPlacesWindow displays every place of the feed with its current and
// next prayer, sorted by the time left until the next one. If the window is
// already open, it requests focus.
func (app *AzanApp) ShowPlacesWindow() {
	if app.placesWindow != nil {
		app.placesWindow.RequestFocus()
		return
	}

	lang := app.Language()
	app.placesWindow = app.App.NewWindow(app.Translator.Msg(lang, config.TKeyWinPlaces, nil))
	app.placesWindow.Resize(fyne.NewSize(config.PlacesWinWidth, config.PlacesWinHeight))

	rows := app.Statuses()

	slog.Info(config.LogMsgOpenWin,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyCount, len(rows))

	currentSortCol := config.ColIDNext
	sortAsc := true

	var refreshTable func()

	performSort := func() {
		sortStatuses(rows, currentSortCol, sortAsc)

		slog.Debug(config.LogMsgSorted,
			config.LogKeyComponent, config.CompUI,
			config.LogKeySortCol, currentSortCol,
			config.LogKeySortAsc, sortAsc)
	}
	performSort()

	table := widget.NewTable(
		func() (int, int) {
			return len(rows), config.ColCount
		},
		func() fyne.CanvasObject {
			return widget.NewLabel(config.TablePlaceholder)
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			if id.Row >= len(rows) {
				return
			}
			o.(*widget.Label).SetText(app.cellText(lang, rows[id.Row], id.Col))
		},
	)

	table.ShowHeaderRow = true

	table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewButton("Header", func() {})
	}

	table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		btn := o.(*widget.Button)

		var titleKey string
		switch id.Col {
		case config.ColIDName:
			titleKey = config.TKeyColName
		case config.ColIDTimezone:
			titleKey = config.TKeyColTimezone
		case config.ColIDCurrent:
			titleKey = config.TKeyColCurrent
		case config.ColIDNext:
			titleKey = config.TKeyColNext
		}

		text := app.Translator.Msg(lang, titleKey, nil)
		if id.Col == currentSortCol {
			if sortAsc {
				text += config.SortIconAsc
			} else {
				text += config.SortIconDesc
			}
		}
		btn.SetText(text)

		btn.OnTapped = func() {
			if currentSortCol == id.Col {
				sortAsc = !sortAsc
			} else {
				currentSortCol = id.Col
				sortAsc = true
			}
			refreshTable()
		}
	}

	table.SetColumnWidth(config.ColIDName, config.ColWidthName)
	table.SetColumnWidth(config.ColIDTimezone, config.ColWidthTimezone)
	table.SetColumnWidth(config.ColIDCurrent, config.ColWidthCurrent)
	table.SetColumnWidth(config.ColIDNext, config.ColWidthNext)

	refreshTable = func() {
		performSort()
		table.Refresh()
	}

	app.placesWindow.SetContent(container.NewBorder(nil, nil, nil, nil, table))
	app.placesWindow.SetOnClosed(func() {
		app.placesWindow = nil
	})
	app.placesWindow.Show()
}

// cellText is the content of column col for st.
func (app *AzanApp) cellText(lang string, st PlaceStatus, col int) string {
	tr := app.Translator

	switch col {
	case config.ColIDName:
		return st.Place.Name
	case config.ColIDTimezone:
		if tz := st.Place.TimeZone(); tz != "" {
			return tz
		}
		return config.NoValue
	case config.ColIDCurrent:
		if st.Err != nil || !st.HasCurrent {
			return config.NoValue
		}
		return tr.PrayerName(lang, st.Current, st.CurrentAt)
	case config.ColIDNext:
		if st.Err != nil {
			return config.NoValue
		}
		return tr.Msg(lang, config.TKeyNextIn, map[string]any{
			"Next":      tr.PrayerName(lang, st.Next, st.NextAt),
			"Remaining": FormatRemaining(st.Remaining),
		})
	}
	return ""
}

// sortStatuses orders rows by column col. Places whose schedule failed go
// last in ascending order, and ties fall back to the name.
func sortStatuses(rows []PlaceStatus, col int, asc bool) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		nameLess := strings.ToLower(a.Place.Name) < strings.ToLower(b.Place.Name)

		var less bool
		switch {
		case col == config.ColIDName:
			less = nameLess
		case col == config.ColIDTimezone:
			if a.Place.TimeZone() == b.Place.TimeZone() {
				less = nameLess
			} else {
				less = a.Place.TimeZone() < b.Place.TimeZone()
			}
		case (a.Err != nil) != (b.Err != nil):
			less = b.Err != nil
		case col == config.ColIDCurrent:
			switch {
			case a.HasCurrent != b.HasCurrent:
				less = a.HasCurrent
			case a.Current == b.Current:
				less = nameLess
			default:
				less = a.Current < b.Current
			}
		default: // config.ColIDNext
			if a.Remaining == b.Remaining {
				less = nameLess
			} else {
				less = a.Remaining < b.Remaining
			}
		}

		if !asc {
			return !less
		}
		return less
	})
}
