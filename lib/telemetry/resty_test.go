package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestRequestBodyAttribute(t *testing.T) {
	testCases := []struct {
		name     string
		getBody  func() (io.ReadCloser, error)
		expected string
	}{
		{name: "no body func", expected: ""},
		{
			name:     "nil body",
			getBody:  func() (io.ReadCloser, error) { return nil, nil },
			expected: "",
		},
		{
			name: "form body",
			getBody: func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader("week=1&student%5Bpassword%5D=hunter2")), nil
			},
			expected: "week=1&student%5Bpassword%5D=[redacted]",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.GetBody = test.getBody
			require.Equal(t, test.expected, requestBodyAttribute(req).Value.AsString())
		})
	}
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	client := resty.New().SetBaseURL(server.URL)
	InstrumentResty(client, "test:telemetry/resty")

	res, err := client.R().Get("/admin")
	require.NoError(t, err)
	require.Equal(t, "ok", res.String())

	res, err = client.R().
		SetFormData(map[string]string{"id": "0", "parent_id": "21"}).
		Post("/admin")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())

	res, err = client.R().Get("/missing")
	require.NoError(t, err)
	require.True(t, res.IsError())
}
