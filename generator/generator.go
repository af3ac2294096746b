// Package generator runs one CV generation end to end: fetch every source
// concurrently, lay out the page and render it to PDF.
package generator

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/scholarcv/binding"
	"github.com/ByLCY/scholarcv/config"
	"github.com/ByLCY/scholarcv/cv"
	"github.com/ByLCY/scholarcv/cvdata"
	"github.com/ByLCY/scholarcv/fonts"
	"github.com/ByLCY/scholarcv/layout"
	canvasrenderer "github.com/ByLCY/scholarcv/renderer/canvas"
)

// WatermarkWidth is the width the watermark is scaled to, in points.
const WatermarkWidth = 300.0

var (
	// ErrBusy is returned when another generation is still running.
	ErrBusy = errors.New("generator: a generation is already in progress")
	// ErrUnsupportedLanguage is returned for a language without configs.
	ErrUnsupportedLanguage = errors.New("generator: unsupported language")
)

// Request selects what to generate.
type Request struct {
	// Lang defaults to the configured language, then to the site's
	// defaultLanguage, then to English.
	Lang string
}

// Output is one finished generation.
type Output struct {
	PDF      []byte
	Result   *layout.Result
	Filename string
	// Warnings collects dropped sections, a dropped watermark and layout
	// warnings such as page overflow.
	Warnings []string
}

// Generator owns the configuration and data source and allows one
// generation at a time.
type Generator struct {
	cfg    *config.Config
	source cvdata.Source
	logger *log.Logger
	now    func() time.Time

	mu sync.Mutex
}

// Option customises a Generator.
type Option func(*Generator)

// WithSource replaces the source derived from config.Data.
func WithSource(src cvdata.Source) Option { return func(g *Generator) { g.source = src } }

// WithLogger sets the logger; log.Default is used otherwise.
func WithLogger(l *log.Logger) Option { return func(g *Generator) { g.logger = l } }

// WithClock sets the clock used for the "generated on" stamp and the PDF
// creation date.
func WithClock(now func() time.Time) Option { return func(g *Generator) { g.now = now } }

// New validates cfg and builds a Generator.
func New(cfg *config.Config, opts ...Option) (*Generator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{cfg: cfg, logger: log.Default(), now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	if g.source == nil {
		g.source = cvdata.NewSource(cfg.Data, cfg.Timeout)
	}
	return g, nil
}

// Config returns the configuration the generator was built with.
func (g *Generator) Config() *config.Config { return g.cfg }

// checkLang rejects an explicitly named language that has no configs.
func checkLang(lang string) error {
	if lang != "" && !slices.Contains(cvdata.Languages, lang) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	return nil
}

// lang resolves the language of one run. In single language mode the site
// serves its default language only.
func (g *Generator) lang(requested string, site cvdata.Site) (string, error) {
	lang := cmp.Or(requested, g.cfg.Lang, site.DefaultLanguage, "en")
	if err := checkLang(lang); err != nil {
		return "", err
	}
	if site.SingleLanguageMode && site.DefaultLanguage != "" && lang != site.DefaultLanguage {
		return "", fmt.Errorf("%w: %q (site serves %q only)", ErrUnsupportedLanguage, lang, site.DefaultLanguage)
	}
	return lang, nil
}

// Generate produces the CV PDF. A call made while another is running returns
// ErrBusy immediately.
func (g *Generator) Generate(ctx context.Context, req Request) (*Output, error) {
	if !g.mu.TryLock() {
		return nil, ErrBusy
	}
	defer g.mu.Unlock()

	if err := checkLang(cmp.Or(req.Lang, g.cfg.Lang)); err != nil {
		return nil, err
	}
	// 在抓取任何数据之前确认绘图库可用
	if _, err := canvasrenderer.New(canvasrenderer.Options{}); err != nil {
		return nil, err
	}
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	site := g.loader().Site(ctx)
	lang, err := g.lang(req.Lang, site)
	if err != nil {
		return nil, err
	}

	var (
		data      *cvdata.Data
		fontBlobs [4][]byte
		watermark *layout.ImageBox
		wmWarning string
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		data, err = g.loader().Load(gctx, lang)
		return err
	})
	for v := layout.Regular; v <= layout.BoldItalic; v++ {
		eg.Go(func() error {
			blob, err := g.fontBytes(gctx, v)
			if err != nil {
				return fmt.Errorf("font %s: %w", v, err)
			}
			fontBlobs[v] = blob
			return nil
		})
	}
	if loc := g.cfg.Watermark; loc != "" {
		eg.Go(func() error {
			box, err := g.watermark(gctx, loc)
			if err != nil {
				wmWarning = fmt.Sprintf("watermark dropped: %v", err)
				g.logger.Printf("generator: %s", wmWarning)
				return nil
			}
			watermark = box
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	data.Site = site

	styles, err := g.cfg.Styles(layout.DefaultStyleSet())
	if err != nil {
		return nil, err
	}
	blobs := make(map[string][]byte, len(fontBlobs))
	for v := layout.Regular; v <= layout.BoldItalic; v++ {
		styles = styles.WithFontSource(v, "built-in:"+v.String())
		blobs[v.String()] = fontBlobs[v]
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Fonts: blobs})

	margin, err := g.cfg.Margin()
	if err != nil {
		return nil, err
	}
	now := g.now()
	var stamp string
	if g.cfg.Stamp {
		stamp = cv.LabelsFor(lang).StampText(now)
	}
	res, err := cv.Build(data, cv.Options{
		Lang:      lang,
		Measurer:  r,
		Styles:    styles,
		Margin:    margin,
		Subline:   g.cfg.Subline,
		Watermark: watermark,
		Stamp:     stamp,
		Logger:    g.logger,
	})
	if err != nil {
		return nil, err
	}
	res.Meta.Created = now
	pdf, err := r.Render(res)
	if err != nil {
		return nil, err
	}

	warnings := append([]string(nil), data.Warnings...)
	if wmWarning != "" {
		warnings = append(warnings, wmWarning)
	}
	warnings = append(warnings, res.Warnings...)
	return &Output{
		PDF:      pdf,
		Result:   res,
		Filename: g.filename(lang, data.Info),
		Warnings: warnings,
	}, nil
}

func (g *Generator) loader() *cvdata.Loader {
	policy := cvdata.Strict
	if g.cfg.LenientSections {
		policy = cvdata.Lenient
	}
	return &cvdata.Loader{Source: g.source, Policy: policy, Logger: g.logger}
}

// fontBytes returns the configured face for v, or the embedded one.
func (g *Generator) fontBytes(ctx context.Context, v layout.Variant) ([]byte, error) {
	src := g.cfg.Fonts.ByVariant(v)
	switch {
	case src == "":
		return fonts.Load(v.String())
	case strings.HasPrefix(src, "embed:"):
		return fonts.Load(src)
	default:
		return cvdata.ReadAsset(ctx, g.source, src)
	}
}

// watermark fetches and sizes the watermark image, keeping its aspect ratio.
func (g *Generator) watermark(ctx context.Context, location string) (*layout.ImageBox, error) {
	raw, err := cvdata.ReadAsset(ctx, g.source, location)
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", location, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image %s has no size", location)
	}
	return &layout.ImageBox{
		Name:   filepath.Base(location),
		Bytes:  raw,
		Width:  WatermarkWidth,
		Height: WatermarkWidth * float64(cfg.Height) / float64(cfg.Width),
	}, nil
}

func (g *Generator) filename(lang string, info cvdata.Info) string {
	name := binding.Expand(g.cfg.OutputName, map[string]any{
		"lang": lang,
		"name": info.Name,
	})
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "cv_" + lang + ".pdf"
	}
	return name
}
