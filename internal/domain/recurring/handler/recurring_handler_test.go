package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billwatch/billwatch/internal/domain/ingest/service"
	"github.com/billwatch/billwatch/internal/domain/recurring"
)

const sampleCSV = `Posted Date,Payee,Debit
01/05/2024,NETFLIX.COM,15.49
02/05/2024,NETFLIX.COM,15.49
03/05/2024,NETFLIX.COM,15.49
01/10/2024,ONE OFF SHOP,42.00
`

func newTestHandler() *RecurringHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRecurringHandler(service.NewParseService(logger), logger, 1<<20, recurring.Options{})
}

func multipartRequest(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/recurring/detect", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestDetect_EndToEnd(t *testing.T) {
	req := multipartRequest(t, map[string]string{"min_count": "3"}, map[string]string{"jan.csv": sampleCSV})
	rec := httptest.NewRecorder()

	newTestHandler().Detect(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DetectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", resp.RunID.String())
	assert.Equal(t, 4, resp.RowsTotal)
	assert.Equal(t, 0, resp.RowsDropped)
	require.Len(t, resp.Groups, 1)

	g := resp.Groups[0]
	assert.Equal(t, "Netflix Com", g.Merchant)
	assert.Equal(t, recurring.CadenceMonthly, g.Cadence)
	assert.Equal(t, 3, g.Count)
	require.NotNil(t, g.UsualDayOfMonth)
	assert.Equal(t, 5, *g.UsualDayOfMonth)
}

func TestDetect_NoFiles(t *testing.T) {
	req := multipartRequest(t, nil, nil)
	rec := httptest.NewRecorder()

	newTestHandler().Detect(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetect_UnmappableHeaders(t *testing.T) {
	csv := "Foo,Bar,Amount Posted\n1,2,3\n"
	req := multipartRequest(t, nil, map[string]string{"odd.csv": csv})
	rec := httptest.NewRecorder()

	newTestHandler().Detect(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
