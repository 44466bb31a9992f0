package papers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchPaperTextExtractsTitleAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>A Great Paper</title><style>.x{}</style></head>
<body><nav>menu</nav><p>Reproducibility   matters   a lot.</p><footer>copyright</footer></body></html>`))
	}))
	defer srv.Close()

	title, text, err := FetchPaperText(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "A Great Paper", title)
	require.Equal(t, "Reproducibility matters a lot.", text)
	require.NotContains(t, text, "menu")
	require.NotContains(t, text, "copyright")
}

func TestFetchPaperTextReturnsErrorOnNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := FetchPaperText(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestFetchPaperTextReturnsErrorOnUnreachableHost(t *testing.T) {
	_, _, err := FetchPaperText(context.Background(), "http://127.0.0.1:0")
	require.Error(t, err)
}
