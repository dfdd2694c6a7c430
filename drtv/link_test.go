package drtv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/drtvd/drtv"
)

func newSite(t *testing.T, base string) *drtv.Site {
	t.Helper()
	site, err := drtv.NewSite(base)
	require.NoError(t, err)
	return site
}

func TestSiteClassify(t *testing.T) {
	t.Parallel()

	site := newSite(t, "https://service.example/drtv")

	t.Run("shows", func(t *testing.T) {
		t.Parallel()

		tests := []string{
			"https://service.example/drtv/serie/show_123/season_1/episode_45_999",
			"https://service.example/drtv/saeson/show-saeson-2_456",
			"https://service.example/drtv/serie/matador_1234",
		}
		for _, test := range tests {
			kind, err := site.Classify(test)
			require.NoError(t, err, test)
			assert.Equal(t, drtv.KindShow, kind, test)
		}
	})

	t.Run("items", func(t *testing.T) {
		t.Parallel()

		tests := []string{
			"https://service.example/drtv/episode/matador_-1-_12345",
			"https://service.example/drtv/se/matador_12345",
		}
		for _, test := range tests {
			kind, err := site.Classify(test)
			require.NoError(t, err, test)
			assert.Equal(t, drtv.KindItem, kind, test)
		}
	})

	t.Run("unrecognized", func(t *testing.T) {
		t.Parallel()

		_, err := site.Classify("https://service.example/drtv/kategori/drama_123")
		require.ErrorIs(t, err, drtv.ErrUnrecognizedKind)
	})

	t.Run("host_markers_are_ignored", func(t *testing.T) {
		t.Parallel()

		_, err := site.Classify("https://service.example/drtv/kanal/dr1_20875")
		require.ErrorIs(t, err, drtv.ErrUnrecognizedKind)
	})

	t.Run("foreign_host", func(t *testing.T) {
		t.Parallel()

		_, err := site.Classify("https://other.example/drtv/serie/x_1")
		require.ErrorIs(t, err, drtv.ErrUnverifiedURL)
	})
}

func TestSiteVerify(t *testing.T) {
	t.Parallel()

	site := newSite(t, drtv.DefaultSiteBaseURL)

	valid := []string{
		"https://www.dr.dk/drtv/serie/matador_1234",
		"http://www.dr.dk/drtv/episode/matador_-1-_12345",
	}
	for _, test := range valid {
		assert.NoError(t, site.Verify(test), test)
	}

	invalid := []string{
		"https://www.dr.dk/drtv/serie/matador",
		"https://www.example.com/drtv/serie/matador_1234",
		"ftp://www.dr.dk/drtv/serie/matador_1234",
		"https://www.dr.dk/nyheder/matador_1234",
		"https://wwwXdrXdk/drtv/serie/matador_1234",
		"",
	}
	for _, test := range invalid {
		assert.ErrorIs(t, site.Verify(test), drtv.ErrUnverifiedURL, test)
	}
}

func TestSiteItemURL(t *testing.T) {
	t.Parallel()

	site := newSite(t, "https://service.example/drtv/")
	assert.Equal(t, "https://service.example/drtv", site.Root())
	assert.Equal(t, "https://service.example/drtv/a_1", site.ItemURL("/a_1"))
	assert.Equal(t, "https://service.example/drtv/episode/b_2", site.ItemURL("episode/b_2"))
}

func TestNewSiteInvalid(t *testing.T) {
	t.Parallel()

	_, err := drtv.NewSite("not a url")
	require.Error(t, err)
}

func TestSanitizeLink(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://x/y_1", drtv.SanitizeLink("https://x/y_1\r\n"))
	assert.Equal(t, "https://x/y_1", drtv.SanitizeLink("https://x/y_1\n"))
	assert.Equal(t, "https://x/y_1", drtv.SanitizeLink("https://x/y_1"))
}
