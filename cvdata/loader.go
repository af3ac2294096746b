package cvdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"reflect"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Policy decides what happens when a section source fails.
type Policy int

const (
	// Strict aborts the whole load on any failing required source.
	Strict Policy = iota
	// Lenient turns a failing section into an empty one and records a warning.
	// info stays required either way.
	Lenient
)

// Languages the homepage ships configs for.
var Languages = []string{"en", "zh"}

// Source names, also used as schema names.
const (
	SourceInfo       = "info"
	SourceEducation  = "education"
	SourceEmployment = "employment"
	SourcePapers     = "papers"
	SourcePatents    = "patents"
	SourceTeaching   = "teaching"
	SourceHonors     = "honors"
	SourceReviewer   = "reviewer"
	SourceConfig     = "config"
)

// SourcePath returns the path of a language's source file:
// configs/en/<name>.json, or configs/<lang>/<name>_<lang>.json otherwise.
func SourcePath(lang, name string) string {
	if name == SourceConfig {
		return "configs/config.json"
	}
	if lang == "" || lang == "en" {
		return "configs/en/" + name + ".json"
	}
	return fmt.Sprintf("configs/%s/%s_%s.json", lang, name, lang)
}

// Loader fetches every source of one language concurrently.
type Loader struct {
	Source Source
	Policy Policy
	Logger *log.Logger
}

// Load fetches info and every section in parallel and joins them before
// returning. No fetch depends on another's result. The site config is read
// separately by Site, since it decides which language to load.
func (l *Loader) Load(ctx context.Context, lang string) (*Data, error) {
	if l.Source == nil {
		return nil, errors.New("cvdata: loader has no source")
	}
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	data := &Data{Lang: lang}
	var (
		mu       sync.Mutex
		patents  PatentList
		warnings []string
	)

	g, ctx := errgroup.WithContext(ctx)
	section := func(name string, dst any) func() error {
		return func() error {
			err := l.fetch(ctx, name, SourcePath(lang, name), dst)
			if err == nil || l.Policy != Lenient {
				return err
			}
			reflect.ValueOf(dst).Elem().SetZero()
			logger.Printf("cvdata: dropping section %s: %v", name, err)
			mu.Lock()
			warnings = append(warnings, err.Error())
			mu.Unlock()
			return nil
		}
	}

	g.Go(func() error {
		if err := l.fetchInfo(ctx, lang, &data.Info); err != nil {
			return err
		}
		if err := validateStruct(SourceInfo, data.Info); err != nil {
			return &SourceError{Name: SourceInfo, Path: SourcePath(lang, SourceInfo), Cause: err}
		}
		return nil
	})
	g.Go(section(SourceEducation, &data.Education))
	g.Go(section(SourceEmployment, &data.Employment))
	g.Go(section(SourcePapers, &data.Papers))
	g.Go(section(SourcePatents, &patents))
	g.Go(section(SourceTeaching, &data.Teaching))
	g.Go(section(SourceHonors, &data.Honors))
	g.Go(section(SourceReviewer, &data.Reviewers))

	if err := g.Wait(); err != nil {
		return nil, err
	}
	data.Patents = patents.Patents
	sort.Strings(warnings)
	data.Warnings = warnings
	return data, nil
}

// Site reads configs/config.json. The file is optional: a missing or broken
// file yields the zero Site.
func (l *Loader) Site(ctx context.Context) Site {
	var site Site
	if l.Source == nil {
		return site
	}
	if err := l.fetch(ctx, SourceConfig, SourcePath("", SourceConfig), &site); err != nil {
		logger := l.Logger
		if logger == nil {
			logger = log.Default()
		}
		logger.Printf("cvdata: using default site config: %v", err)
		return Site{}
	}
	return site
}

// fetchInfo tries info_<lang>.json first and then info.json, because the
// homepage stores the non-English info under both names.
func (l *Loader) fetchInfo(ctx context.Context, lang string, dst *Info) error {
	primary := SourcePath(lang, SourceInfo)
	err := l.fetch(ctx, SourceInfo, primary, dst)
	if err == nil || lang == "" || lang == "en" || !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return l.fetch(ctx, SourceInfo, fmt.Sprintf("configs/%s/info.json", lang), dst)
}

func (l *Loader) fetch(ctx context.Context, name, path string, dst any) error {
	wrap := func(err error) error { return &SourceError{Name: name, Path: path, Cause: err} }

	rc, err := l.Source.Open(ctx, path)
	if err != nil {
		return wrap(err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return wrap(err)
	}
	if err := ValidateDocument(name, raw); err != nil {
		return wrap(err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(dst); err != nil {
		return wrap(fmt.Errorf("decode: %w", err))
	}
	return nil
}
