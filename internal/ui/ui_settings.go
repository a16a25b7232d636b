package ui

import (
	"fmt"
	"log/slog"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/engine"
	"github.com/ibad-al-rahman/azan/internal/prayer"
)

// settingsWidgets holds references to UI elements to simplify data retrieval during save.
type settingsWidgets struct {
	langSelect    *widget.Select
	methodSelect  *widget.Select
	madhabSelect  *widget.Select
	ruleSelect    *widget.Select
	entryReminder *NumericalEntry
	userEntry     *widget.Entry
	passEntry     *widget.Entry
}

// ShowSettingsWindow displays the configuration dialog.
func (app *AzanApp) ShowSettingsWindow() {
	if app.settingsWindow != nil {
		slog.Debug(config.MsgFocusWindow, config.LogKeyComponent, config.CompUISet)
		app.settingsWindow.RequestFocus()
		return
	}

	slog.Info(config.MsgOpenSettings, config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.msg(config.TKeyWinSettings, nil))
	app.settingsWindow = w

	sw := app.newSettingsWidgets()

	// --- Calculation ---
	itemReminder := widget.NewFormItem(app.msg(config.TKeyLblReminder, nil),
		container.NewBorder(nil, nil, nil, widget.NewLabel(app.msg(config.TKeyLblMinutes, nil)), sw.entryReminder))
	itemReminder.HintText = app.msg(config.TKeyHelpReminder, nil)

	generalForm := widget.NewForm(
		widget.NewFormItem(app.msg(config.TKeyLblLanguage, nil), sw.langSelect),
		widget.NewFormItem(app.msg(config.TKeyLblMethod, nil), sw.methodSelect),
		widget.NewFormItem(app.msg(config.TKeyLblMadhab, nil), sw.madhabSelect),
		widget.NewFormItem(app.msg(config.TKeyLblHighLat, nil), sw.ruleSelect),
		itemReminder,
	)
	generalCard := widget.NewCard(app.msg(config.TKeyLblGeneral, nil), "", generalForm)

	// --- Account ---
	accountForm := widget.NewForm(
		widget.NewFormItem(app.msg(config.TKeyLblUser, nil), sw.userEntry),
		widget.NewFormItem(app.msg(config.TKeyLblPass, nil), sw.passEntry),
	)
	accountCard := widget.NewCard(app.msg(config.TKeyLblAccount, nil), "", accountForm)

	// --- Actions ---
	btnSave := widget.NewButtonWithIcon(app.msg(config.TKeyBtnSave, nil), theme.DocumentSaveIcon(), func() {
		app.saveSettings(sw)
		w.Close()
		go app.refreshInBackground(true)
	})
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.msg(config.TKeyBtnCancel, nil), theme.CancelIcon(), func() { w.Close() })

	footerLabel := widget.NewLabel(app.msg(config.TKeyLblFooter, map[string]any{"Version": config.Version}))
	footerLabel.Alignment = fyne.TextAlignCenter
	footerLabel.TextStyle = fyne.TextStyle{Italic: true}

	content := container.NewPadded(container.NewVBox(
		generalCard,
		accountCard,
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
		footerLabel,
	))

	w.SetContent(content)
	w.Resize(fyne.NewSize(config.SettingsWindowWidth, content.MinSize().Height))
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.settingsWindow = nil })
	w.Show()
}

// newSettingsWidgets builds the form controls, filled from the current settings.
func (app *AzanApp) newSettingsWidgets() *settingsWidgets {
	s := app.Settings()
	sw := &settingsWidgets{}

	sw.langSelect = widget.NewSelect(app.Translator.Languages(), nil)
	sw.langSelect.SetSelected(app.Translator.Match(s.Language))

	// Other has no angles of its own and is only usable with custom parameters.
	methods := make([]string, 0, len(prayer.Methods()))
	for _, m := range prayer.Methods() {
		if m != prayer.Other {
			methods = append(methods, m.String())
		}
	}
	sw.methodSelect = widget.NewSelect(methods, nil)
	sw.madhabSelect = widget.NewSelect([]string{prayer.Shafi.String(), prayer.Hanafi.String()}, nil)
	sw.ruleSelect = widget.NewSelect([]string{
		prayer.MiddleOfTheNight.String(),
		prayer.SeventhOfTheNight.String(),
		prayer.TwilightAngle.String(),
	}, nil)

	// Show the effective values, including the method's own defaults.
	if params, err := engine.ResolveParameters(s.Method, s.Madhab, s.HighLatitudeRule); err == nil {
		sw.methodSelect.SetSelected(params.Method().String())
		sw.madhabSelect.SetSelected(params.Madhab().String())
		sw.ruleSelect.SetSelected(params.HighLatitudeRule().String())
	}

	sw.entryReminder = NewNumericalEntry()
	if m, ok := reminderMinutes(s.Reminder); ok {
		sw.entryReminder.SetText(strconv.Itoa(m))
	}

	sw.userEntry = widget.NewEntry()
	sw.userEntry.SetText(s.Username)
	sw.passEntry = widget.NewPasswordEntry()

	return sw
}

// reminderMinutes reads back a trigger written with FormatReminderTrigger.
func reminderMinutes(trigger string) (int, bool) {
	var m int
	if _, err := fmt.Sscanf(trigger, config.FormatReminderTrigger, &m); err != nil || m <= 0 {
		return 0, false
	}
	return m, true
}

// saveSettings persists the form. An empty reminder disables alarms. The
// password goes to the OS keyring, never to the preferences.
func (app *AzanApp) saveSettings(sw *settingsWidgets) {
	slog.Info(config.MsgSavingPrefs, config.LogKeyComponent, config.CompUISet)

	p := app.Preferences
	p.SetString(config.PrefLanguage, sw.langSelect.Selected)
	p.SetString(config.PrefMethod, sw.methodSelect.Selected)
	p.SetString(config.PrefMadhab, sw.madhabSelect.Selected)
	p.SetString(config.PrefHighLatRule, sw.ruleSelect.Selected)
	p.SetInt(config.PrefReminderMinutes, sw.entryReminder.Int())
	p.SetString(config.PrefUsername, sw.userEntry.Text)

	if sw.userEntry.Text != "" && sw.passEntry.Text != "" {
		if err := engine.StorePassword(sw.userEntry.Text, sw.passEntry.Text); err != nil {
			slog.Error(config.ErrKeyringStore,
				config.LogKeyComponent, config.CompUISet,
				config.LogKeyError, err)
		}
	}

	app.UpdateTray()
}
