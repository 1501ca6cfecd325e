package netx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadPresigned(t *testing.T) {
	body := []byte("id,first_name\n1,Jane\n")

	t.Run("success", func(t *testing.T) {
		var gotMethod, gotCT string
		var gotBody []byte

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		err := UploadPresigned(context.Background(), ts.Client(), ts.URL+"/exports/leads.csv?X-Amz-Signature=abc", "text/csv", body)
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "text/csv", gotCT)
		assert.Equal(t, body, gotBody)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("SignatureDoesNotMatch"))
		}))
		defer ts.Close()

		err := UploadPresigned(context.Background(), nil, ts.URL, "text/csv", body)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")
		assert.Contains(t, err.Error(), "SignatureDoesNotMatch")
	})

	t.Run("bad url", func(t *testing.T) {
		err := UploadPresigned(context.Background(), nil, "://bad", "text/csv", body)
		require.Error(t, err)
	})
}
