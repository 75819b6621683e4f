// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"imgedit/internal/app"
	"imgedit/internal/compositor"
	"imgedit/internal/editor"
	"imgedit/internal/image"
	"imgedit/internal/overlay"
	"imgedit/internal/version"
	"imgedit/internal/view"
	"imgedit/pkg/colorutil"
	"imgedit/ui/canvas"
	"imgedit/ui/prefs"
)

const (
	appTitle     = "Image Editor"
	maxBrushSize = 100
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	state  *app.State
	prefs  *prefs.Prefs
	canvas *canvas.ImageCanvas

	statusBar   *widget.Label
	zoomLabel   *widget.Label
	zoomSlider  *widget.Slider
	brushLabel  *widget.Label
	brushSlider *widget.Slider
	toolRadio   *widget.RadioGroup
	backend     *widget.Select
	textSelect  *widget.Select

	// syncing is set while controls are updated from state so their callbacks
	// do not feed the change back.
	syncing bool
}

// New creates the main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.restorePreferences()

	w := float32(p.FloatWithFallback(prefs.KeyWindowWidth, 1024))
	h := float32(p.FloatWithFallback(prefs.KeyWindowHeight, 768))
	mw.Resize(fyne.NewSize(w, h))
	mw.SetOnClosed(mw.SavePreferences)
	mw.SetOnDropped(mw.onDropped)

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewImageCanvas(mw.state)
	mw.statusBar = widget.NewLabel("Open an image to start editing")

	content := container.NewBorder(
		mw.createToolbar(),                // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.canvas,                         // center
	)
	mw.SetContent(content)
}

// createToolbar creates the tool, brush, zoom and text controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	tools := []string{toolLabel(editor.ToolDraw), toolLabel(editor.ToolErase), toolLabel(editor.ToolPan)}
	mw.toolRadio = widget.NewRadioGroup(tools, func(s string) {
		if mw.syncing || s == "" {
			return
		}
		tool, err := editor.ParseTool(s)
		if err != nil {
			return
		}
		mw.state.Handle(editor.SelectTool{Tool: tool})
	})
	mw.toolRadio.Horizontal = true
	mw.toolRadio.Required = true
	mw.toolRadio.SetSelected(toolLabel(editor.ToolDraw))

	mw.brushLabel = widget.NewLabel("")
	mw.brushSlider = widget.NewSlider(editor.MinBrushSize, maxBrushSize)
	mw.brushSlider.Step = 1
	mw.brushSlider.SetValue(editor.DefaultBrushSize)
	mw.setBrushLabel(editor.DefaultBrushSize)
	mw.brushSlider.OnChanged = func(v float64) {
		mw.state.Handle(editor.SetBrushSize{Size: v})
		mw.setBrushLabel(v)
		mw.prefs.SetFloat(prefs.KeyBrushSize, v)
	}

	mw.zoomLabel = widget.NewLabel("100%")
	mw.zoomSlider = widget.NewSlider(view.MinScale*100, view.MaxScale*100)
	mw.zoomSlider.Step = 1
	mw.zoomSlider.SetValue(100)
	mw.zoomSlider.OnChanged = func(v float64) {
		if mw.syncing {
			return
		}
		mw.state.Handle(editor.SetZoom{Percent: v})
	}

	mw.backend = widget.NewSelect(compositor.Names(), func(name string) {
		if mw.syncing {
			return
		}
		if err := mw.state.SetBackend(name); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.SetString(prefs.KeyBackend, name)
	})
	mw.syncing = true
	mw.backend.SetSelected(mw.state.Backend())
	mw.syncing = false

	mw.textSelect = widget.NewSelect(nil, nil)
	mw.textSelect.PlaceHolder = "(no text)"

	return container.NewVBox(
		container.NewHBox(
			mw.toolRadio,
			widget.NewSeparator(),
			widget.NewButton("Color", mw.onPickColor),
			widget.NewLabel("Size:"),
			container.NewGridWrap(fyne.NewSize(140, mw.brushSlider.MinSize().Height), mw.brushSlider),
			mw.brushLabel,
			widget.NewSeparator(),
			widget.NewLabel("Backend:"),
			mw.backend,
		),
		container.NewHBox(
			widget.NewLabel("Zoom:"),
			widget.NewButton("-", func() { mw.state.Handle(editor.ZoomOut{}) }),
			container.NewGridWrap(fyne.NewSize(200, mw.zoomSlider.MinSize().Height), mw.zoomSlider),
			widget.NewButton("+", func() { mw.state.Handle(editor.ZoomIn{}) }),
			mw.zoomLabel,
			widget.NewButton("Reset", func() { mw.state.Handle(editor.ResetView{}) }),
			widget.NewSeparator(),
			widget.NewButton("Add Text", mw.onAddText),
			mw.textSelect,
			widget.NewButton("Edit", mw.onEditText),
			widget.NewButton("Remove", mw.onRemoveText),
		),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PNG...", func() { mw.onExport(".png") }),
		fyne.NewMenuItem("Export SVG...", func() { mw.onExport(".svg") }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.state.Handle(editor.ZoomIn{}) }),
		fyne.NewMenuItem("Zoom Out", func() { mw.state.Handle(editor.ZoomOut{}) }),
		fyne.NewMenuItem("Actual Size", func() { mw.state.Handle(editor.ResetView{}) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		if base, ok := data.(*image.BaseImage); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(base.Path))
			mw.updateStatus(fmt.Sprintf("Loaded %s (%d×%d)", filepath.Base(base.Path), base.Width(), base.Height()))
		}
		mw.refreshTexts()
	})

	mw.state.On(app.EventViewChanged, func(data interface{}) {
		if v, ok := data.(view.ViewState); ok {
			mw.syncZoom(v.Percent())
		}
	})

	mw.state.On(app.EventToolChanged, func(data interface{}) {
		if tool, ok := data.(editor.Tool); ok {
			mw.syncing = true
			mw.toolRadio.SetSelected(toolLabel(tool))
			mw.syncing = false
		}
	})

	mw.state.On(app.EventBackendChanged, func(data interface{}) {
		if name, ok := data.(string); ok {
			mw.syncing = true
			mw.backend.SetSelected(name)
			mw.syncing = false
		}
	})

	mw.state.On(app.EventOverlaysChanged, func(interface{}) {
		mw.refreshTexts()
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		title := mw.Title()
		modified, _ := data.(bool)
		switch {
		case modified && !strings.HasSuffix(title, " *"):
			mw.SetTitle(title + " *")
		case !modified:
			mw.SetTitle(strings.TrimSuffix(title, " *"))
		}
	})

	mw.state.On(app.EventExported, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.updateStatus("Exported " + path)
		}
	})
}

// restorePreferences applies saved brush and backend settings.
func (mw *MainWindow) restorePreferences() {
	c := mw.prefs.BrushColor(colorutil.Black)
	mw.state.Handle(editor.SetBrushColor{Color: c})

	if size := mw.prefs.Float(prefs.KeyBrushSize); size >= editor.MinBrushSize {
		mw.brushSlider.SetValue(size)
	}
	if name := mw.prefs.String(prefs.KeyBackend); name != "" {
		if err := mw.state.SetBackend(name); err != nil {
			log.Printf("Preferences: ignoring backend %q: %v", name, err)
		}
	}
}

// SavePreferences writes the preferences to disk.
func (mw *MainWindow) SavePreferences() {
	size := mw.Canvas().Size()
	if size.Width > 0 && size.Height > 0 {
		mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
		mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	}
	if err := mw.prefs.Save(); err != nil {
		log.Printf("Preferences: save failed: %v", err)
	}
}

// LoadImage opens path as the new base image.
func (mw *MainWindow) LoadImage(path string) {
	if err := mw.state.LoadImage(path); err != nil {
		log.Printf("Image: failed to load %s: %v", path, err)
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.saveLastDir(path)
}

// onDropped opens the first dropped file that looks like an image.
func (mw *MainWindow) onDropped(_ fyne.Position, uris []fyne.URI) {
	for _, u := range uris {
		if image.IsSupportedFormat(u.Path()) {
			mw.LoadImage(u.Path())
			return
		}
	}
	mw.updateStatus("Dropped file is not a supported image")
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// toolLabel returns the radio label for a tool.
func toolLabel(t editor.Tool) string {
	name := t.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

func (mw *MainWindow) setBrushLabel(size float64) {
	mw.brushLabel.SetText(fmt.Sprintf("%.0fpx", size))
}

func (mw *MainWindow) syncZoom(percent int) {
	mw.syncing = true
	mw.zoomSlider.SetValue(float64(percent))
	mw.syncing = false
	mw.zoomLabel.SetText(fmt.Sprintf("%d%%", percent))
}

// refreshTexts rebuilds the overlay picker from the current overlays.
func (mw *MainWindow) refreshTexts() {
	texts := mw.state.Texts()
	options := make([]string, len(texts))
	for i, t := range texts {
		options[i] = textOption(t)
	}
	selected := mw.textSelect.Selected
	mw.textSelect.SetOptions(options)
	for _, o := range options {
		if o == selected {
			return
		}
	}
	mw.textSelect.ClearSelected()
	if len(options) > 0 {
		mw.textSelect.SetSelected(options[len(options)-1])
	}
}

// textOptionRunes is how much of an overlay's content the picker shows.
const textOptionRunes = 24

func textOption(t overlay.Text) string {
	content := t.Content
	if r := []rune(content); len(r) > textOptionRunes {
		content = string(r[:textOptionRunes]) + "…"
	}
	return fmt.Sprintf("#%d %s", t.ID, content)
}

// selectedText returns the overlay chosen in the picker.
func (mw *MainWindow) selectedText() (overlay.Text, bool) {
	for _, t := range mw.state.Texts() {
		if textOption(t) == mw.textSelect.Selected {
			return t, true
		}
	}
	return overlay.Text{}, false
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(filePath))
}

// Action handlers

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		mw.LoadImage(reader.URI().Path())
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(image.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExport(ext string) {
	if !mw.state.HasImage() {
		// nothing to export
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if !strings.EqualFold(filepath.Ext(path), ext) {
			path += ext
		}
		mw.saveLastDir(path)

		var exportErr error
		if ext == ".svg" {
			exportErr = mw.state.ExportSVG(path)
		} else {
			exportErr = mw.state.Export(context.Background(), path)
		}
		if exportErr != nil {
			log.Printf("Export: %s: %v", path, exportErr)
			dialog.ShowError(exportErr, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName(strings.TrimSuffix(image.DefaultExportName, filepath.Ext(image.DefaultExportName)) + ext)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onPickColor() {
	picker := dialog.NewColorPicker("Brush Color", "Choose the brush color", func(c color.Color) {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		mw.state.Handle(editor.SetBrushColor{Color: rgba})
		mw.prefs.SetBrushColor(rgba)
	}, mw.Window)
	picker.Advanced = true
	picker.SetColor(mw.state.Brush().Color)
	picker.Show()
}

func (mw *MainWindow) onAddText() {
	if !mw.state.HasImage() {
		return
	}
	mw.promptText("Add Text", overlay.DefaultContent, func(content string) {
		mw.state.Handle(editor.AddText{Content: content})
	})
}

func (mw *MainWindow) onEditText() {
	t, ok := mw.selectedText()
	if !ok {
		return
	}
	mw.promptText("Edit Text", t.Content, func(content string) {
		mw.state.Handle(editor.EditText{ID: t.ID, Content: content})
	})
}

func (mw *MainWindow) onRemoveText() {
	if t, ok := mw.selectedText(); ok {
		mw.state.Handle(editor.RemoveText{ID: t.ID})
	}
}

func (mw *MainWindow) promptText(title, initial string, apply func(string)) {
	entry := widget.NewEntry()
	entry.SetText(initial)
	dialog.ShowForm(title, "OK", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(ok bool) {
			if ok {
				apply(entry.Text)
			}
		}, mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Draw, erase and annotate images, then export them as PNG or SVG.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
