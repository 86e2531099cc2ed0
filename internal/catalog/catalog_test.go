package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/book-expert/speechkit/internal/catalog"
	"github.com/book-expert/speechkit/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetVoices(t *testing.T) {
	t.Parallel()

	require.Len(t, catalog.DatasetVoices, 43)

	seen := make(map[string]bool)

	for _, name := range catalog.DatasetVoices {
		assert.True(t, strings.HasPrefix(name, "en-US-"), name)
		assert.True(t, strings.HasSuffix(name, "Neural"), name)
		assert.False(t, seen[name], "duplicate voice %s", name)
		seen[name] = true
	}
}

func TestFilterByLocale(t *testing.T) {
	t.Parallel()

	voices := []core.Voice{
		{Name: "en-US-AvaNeural", Locale: "en-US"},
		{Name: "ja-JP-NanamiNeural", Locale: "ja-JP"},
		{Name: "en-US-GuyNeural", Locale: "en-US"},
	}

	filtered := catalog.FilterByLocale(voices, "EN-us")
	require.Len(t, filtered, 2)
	assert.Equal(t, "en-US-GuyNeural", filtered[1].Name)

	assert.Equal(t, voices, catalog.FilterByLocale(voices, ""))
	assert.Empty(t, catalog.FilterByLocale(voices, "fr-FR"))
}

func TestPrintVoices(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	catalog.PrintVoices(&out, "japaneast", []core.Voice{
		{Name: "en-US-AvaNeural", Locale: "en-US", Gender: "Female"},
		{Name: "ja-JP-KeitaNeural", Locale: "ja-JP", Gender: "Male"},
	})

	expected := "Voices in region 'japaneast': 2\n" +
		" - en-US-AvaNeural | locale=en-US | gender=Female\n" +
		" - ja-JP-KeitaNeural | locale=ja-JP | gender=Male\n"

	assert.Equal(t, expected, out.String())
}

func TestLocaleOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "en-US", catalog.LocaleOf("en-US-AvaMultilingualNeural"))
	assert.Equal(t, "zh-CN", catalog.LocaleOf("zh-CN-XiaoxiaoNeural"))
	assert.Empty(t, catalog.LocaleOf("Ava"))
}

var errRegionDown = errors.New("region unavailable")

type fakeLister struct {
	voices        []core.Voice
	err           error
	requestedLang string
}

func (f *fakeLister) ListVoices(_ context.Context, locale string) ([]core.Voice, error) {
	f.requestedLang = locale

	return f.voices, f.err
}

func TestShowVoices(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{voices: []core.Voice{
		{Name: "en-US-AvaNeural", Locale: "en-US", Gender: "Female"},
		{Name: "ja-JP-KeitaNeural", Locale: "ja-JP", Gender: "Male"},
	}}

	var out bytes.Buffer

	err := catalog.ShowVoices(context.Background(), lister, &out, "eastus", "ja-jp")
	require.NoError(t, err)
	assert.Empty(t, lister.requestedLang, "all locales are fetched and filtered locally")
	assert.Equal(t, "Voices in region 'eastus': 1\n - ja-JP-KeitaNeural | locale=ja-JP | gender=Male\n", out.String())
}

func TestShowVoices_ListerError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := catalog.ShowVoices(context.Background(), &fakeLister{err: errRegionDown}, &out, "eastus", "")
	require.ErrorIs(t, err, errRegionDown)
	assert.Empty(t, out.String())
}
