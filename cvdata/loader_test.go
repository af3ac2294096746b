package cvdata

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() fstest.MapFS {
	return fstest.MapFS{
		"configs/config.json":        {Data: []byte(`{"defaultLanguage":"zh","singleLanguageMode":false}`)},
		"configs/en/info.json":       {Data: []byte(`{"name":"Constantine Chen","address":"Beijing","institution":"Tsinghua","email":"c@example.com"}`)},
		"configs/en/education.json":  {Data: []byte(`[{"school":"Tsinghua","details":[{"degree":"PhD","major":"CS","time":"2020-2025","tutor":"Prof. X"}]}]`)},
		"configs/en/employment.json": {Data: []byte(`[{"company":"Lab","details":[{"position":"Intern","department":"AI","time":"2023"}]}]`)},
		"configs/en/papers.json": {Data: []byte(`{
			"2021": [{"authors":"<b>C. Chen</b>","title":"A","type":"Conference","conference":"C"}],
			"2023": [{"authors":"X","title":"B","type":"Journal","journal":"J","volume":12}],
			"2022": [{"authors":"X","title":"Misc","type":"Blog post"}]
		}`)},
		"configs/en/patents.json":  {Data: []byte(`{"patents":[{"title":"P","authors":"C. Chen","type":"Invention","number":"CN1","date":"2024"}]}`)},
		"configs/en/teaching.json": {Data: []byte(`[{"identity":"TA","season":"Fall","year":2023,"code":"CS101","course":"Intro","school":"Tsinghua"}]`)},
		"configs/en/honors.json":   {Data: []byte(`[{"award":"Best Paper","unit":"C","time":"2023"}]`)},
		"configs/en/reviewer.json": {Data: []byte(`[{"conference":"X","year":"2021"},{"journal":"Y","year":2020}]`)},
		"configs/zh/info.json":     {Data: []byte(`{"name":"陈"}`)},
		"configs/zh/education_zh.json":  {Data: []byte(`[]`)},
		"configs/zh/employment_zh.json": {Data: []byte(`[]`)},
		"configs/zh/papers_zh.json":     {Data: []byte(`{}`)},
		"configs/zh/patents_zh.json":    {Data: []byte(`{"patents":[]}`)},
		"configs/zh/teaching_zh.json":   {Data: []byte(`[]`)},
		"configs/zh/honors_zh.json":     {Data: []byte(`[]`)},
		"configs/zh/reviewer_zh.json":   {Data: []byte(`[]`)},
	}
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newLoader(tree fstest.MapFS, p Policy) *Loader {
	return &Loader{Source: &DirSource{FS: tree, Root: "mem"}, Policy: p, Logger: quietLogger()}
}

func TestLoadAllSources(t *testing.T) {
	data, err := newLoader(sampleTree(), Strict).Load(context.Background(), "en")
	require.NoError(t, err)

	assert.Equal(t, "Constantine Chen", data.Info.Name)
	require.Len(t, data.Education, 1)
	assert.Equal(t, "Prof. X", data.Education[0].Details[0].Tutor)
	require.Len(t, data.Employment, 1)
	assert.Len(t, data.Papers, 3)
	require.Len(t, data.Patents, 1)
	require.Len(t, data.Teaching, 1)
	assert.Equal(t, FlexString("2023"), data.Teaching[0].Year)
	assert.Len(t, data.Honors, 1)
	require.Len(t, data.Reviewers, 2)
	assert.Equal(t, FlexString("2020"), data.Reviewers[1].Year)
	assert.Empty(t, data.Warnings)
}

func TestLoadChineseFallsBackToPlainInfo(t *testing.T) {
	data, err := newLoader(sampleTree(), Strict).Load(context.Background(), "zh")
	require.NoError(t, err)
	assert.Equal(t, "陈", data.Info.Name)
	assert.Empty(t, data.Education)
}

func TestLoadStrictAbortsOnMissingSection(t *testing.T) {
	tree := sampleTree()
	delete(tree, "configs/en/education.json")

	_, err := newLoader(tree, Strict).Load(context.Background(), "en")
	require.Error(t, err)
	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, SourceEducation, se.Name)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadLenientDropsSection(t *testing.T) {
	tree := sampleTree()
	delete(tree, "configs/en/education.json")
	tree["configs/en/honors.json"] = &fstest.MapFile{Data: []byte(`[{"award": 3}]`)}

	data, err := newLoader(tree, Lenient).Load(context.Background(), "en")
	require.NoError(t, err)
	assert.Empty(t, data.Education)
	assert.Empty(t, data.Honors)
	assert.Len(t, data.Warnings, 2)
	assert.Len(t, data.Employment, 1)
}

func TestLoadInfoAlwaysRequired(t *testing.T) {
	tree := sampleTree()
	tree["configs/en/info.json"] = &fstest.MapFile{Data: []byte(`{"name":""}`)}

	_, err := newLoader(tree, Lenient).Load(context.Background(), "en")
	require.Error(t, err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, SourceInfo, ve.Source)
}

func TestSiteReadsConfig(t *testing.T) {
	site := newLoader(sampleTree(), Strict).Site(context.Background())
	assert.Equal(t, Site{DefaultLanguage: "zh"}, site)
}

func TestSiteMissingOrBrokenKeepsDefaults(t *testing.T) {
	tree := sampleTree()
	delete(tree, "configs/config.json")
	assert.Equal(t, Site{}, newLoader(tree, Strict).Site(context.Background()))

	tree["configs/config.json"] = &fstest.MapFile{Data: []byte(`{"singleLanguageMode":"yes"}`)}
	assert.Equal(t, Site{}, newLoader(tree, Strict).Site(context.Background()))

	_, err := newLoader(tree, Strict).Load(context.Background(), "en")
	assert.NoError(t, err, "a broken site config never blocks a load")
}

func TestLoadKeepsUntypedPapers(t *testing.T) {
	tree := sampleTree()
	tree["configs/en/papers.json"] = &fstest.MapFile{Data: []byte(`{
		"2024": [
			{"authors":"<b>C. Chen</b>","title":"Typed","type":"Conference","conference":"C"},
			{"title":"Untyped talk"}
		]
	}`)}

	data, err := newLoader(tree, Strict).Load(context.Background(), "en")
	require.NoError(t, err)
	require.Len(t, data.Papers["2024"], 2)

	groups := data.Papers.ByYear()
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Papers, 1)
	assert.Equal(t, "Typed", groups[0].Papers[0].Title)
}

func TestValidateDocumentReportsFields(t *testing.T) {
	err := ValidateDocument(SourcePapers, []byte(`{"2020":[{"type":"Journal"}]}`))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.NotEmpty(t, ve.Errors)
	assert.Contains(t, ve.Error(), "papers validation failed")

	assert.NoError(t, ValidateDocument(SourceReviewer, []byte(`[{"journal":"J","year":2020}]`)))
	assert.Error(t, ValidateDocument(SourceReviewer, []byte(`[{"year":2020}]`)))
}

func TestSourcePath(t *testing.T) {
	assert.Equal(t, "configs/en/papers.json", SourcePath("en", SourcePapers))
	assert.Equal(t, "configs/zh/papers_zh.json", SourcePath("zh", SourcePapers))
	assert.Equal(t, "configs/config.json", SourcePath("zh", SourceConfig))
}

func TestHTTPSourceBypassesCache(t *testing.T) {
	var gotQuery, gotCache string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/site/configs/en/info.json" {
			gotQuery = r.URL.Query().Get("t")
			gotCache = r.Header.Get("Cache-Control")
			_, _ = w.Write([]byte(`{"name":"N"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/site", 0)
	rc, err := src.Open(context.Background(), "configs/en/info.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.JSONEq(t, `{"name":"N"}`, string(body))
	assert.NotEmpty(t, gotQuery)
	assert.Equal(t, "no-cache", gotCache)

	_, err = src.Open(context.Background(), "configs/en/missing.json")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReadAssetRelative(t *testing.T) {
	tree := fstest.MapFS{"assets/wm.png": {Data: []byte("png")}}
	b, err := ReadAsset(context.Background(), &DirSource{FS: tree}, "assets/wm.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), b)

	_, err = ReadAsset(context.Background(), nil, "assets/wm.png")
	assert.Error(t, err)
}
