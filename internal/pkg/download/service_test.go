package download

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sorajate/craig/internal/pkg/api"
	"github.com/sorajate/craig/internal/pkg/persistence"
	"github.com/sorajate/craig/internal/pkg/store"
	"github.com/sorajate/craig/internal/pkg/test"
	"github.com/sorajate/craig/internal/pkg/test/mocks"
	"github.com/sorajate/craig/internal/pkg/transcript"
	"github.com/sorajate/craig/internal/pkg/transcription"
)

var (
	storeMock *mocks.Store
	trMock    *mocks.Transcripts
	tData     *Data
	tEcho     *echo.Echo
)

func initTest(t *testing.T) {
	storeMock = &mocks.Store{}
	trMock = &mocks.Transcripts{}
	tData = &Data{}
	tData.Store = storeMock
	tData.Transcripts = trMock
	tEcho = initRoutes(tData)
	rec := &persistence.Recording{ID: "abc123", AccessKey: "secretK", DeleteKey: "delK",
		Guild: "g1", Channel: "c1", Requester: "req", StartTime: "2023-01-01T10:00:00Z"}
	storeMock.On("Get", mock.Anything, "abc123").Return(rec, store.Found, nil)
	storeMock.On("Get", mock.Anything, "gone1").Return(nil, store.Deleted, nil)
	storeMock.On("Get", mock.Anything, "nope1").Return(nil, store.Missing, nil)
}

func TestHead(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodHead, "/recording/abc123?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Equal(t, "", test.RStr(t, resp.Body))
}

func TestHead_NoKey(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodHead, "/recording/abc123", nil)
	test.Code(t, tEcho, req, http.StatusForbidden)
}

func TestHead_BadID(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodHead, "/recording/a*b?key=secretK", nil)
	test.Code(t, tEcho, req, http.StatusBadRequest)
	storeMock.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestInfo(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/recording/abc123?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	body := test.RStr(t, resp.Body)
	assert.Contains(t, body, `"ok":true`)
	assert.Contains(t, body, `"id":"abc123"`)
	assert.NotContains(t, body, "delK", "delete key leaked")
	assert.NotContains(t, body, `"delete"`)
}

func TestInfo_WrongKey(t *testing.T) {
	initTest(t)
	for _, key := range []string{"secret", "secretKK", "SECRETK", "delK"} {
		req := httptest.NewRequest(http.MethodGet, "/recording/abc123?key="+key, nil)
		resp := test.Code(t, tEcho, req, http.StatusForbidden)
		res := test.Decode[api.ErrorResponse](t, resp.Body)
		assert.Equal(t, api.ErrCodeInvalidKey, res.Code)
	}
}

func TestInfo_Deleted(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/recording/gone1?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusGone)
	res := test.Decode[api.ErrorResponse](t, resp.Body)
	assert.Equal(t, api.ErrCodeRecordingDeleted, res.Code)
}

func TestInfo_NotFound(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/recording/nope1?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusNotFound)
	res := test.Decode[api.ErrorResponse](t, resp.Body)
	assert.Equal(t, api.ErrCodeRecordingNotFound, res.Code)
}

func TestUsers(t *testing.T) {
	initTest(t)
	storeMock.On("GetUsers", mock.Anything, "abc123").Return([]persistence.Track{
		{ID: "1", Name: "Alice", Discrim: "0001"}}, nil)
	req := httptest.NewRequest(http.MethodGet, "/recording/abc123/users?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	res := test.Decode[api.UsersResponse](t, resp.Body)
	assert.True(t, res.OK)
	assert.Len(t, res.Users, 1)
	assert.Equal(t, "Alice", res.Users[0].Name)
}

func TestUsers_Empty(t *testing.T) {
	initTest(t)
	storeMock.On("GetUsers", mock.Anything, "abc123").Return(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/recording/abc123/users?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Contains(t, test.RStr(t, resp.Body), `"users":[]`)
}

func TestText(t *testing.T) {
	initTest(t)
	storeMock.On("GetUsers", mock.Anything, "abc123").Return([]persistence.Track{
		{ID: "1", Name: "Alice", Discrim: "0001"},
		{ID: "2", Username: "bob", Discriminator: "0002"}}, nil)
	storeMock.On("GetNotes", mock.Anything, "abc123").Return(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/recording/abc123/.txt?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Equal(t, "attachment; filename=abc123-info.txt",
		resp.Header().Get(echo.HeaderContentDisposition))
	body := test.RStr(t, resp.Body)
	assert.Contains(t, body, "Recording abc123")
	assert.Contains(t, body, "\tAlice#0001 (1)")
	assert.Contains(t, body, "\tbob#0002 (2)")
	assert.NotContains(t, body, "Notes:")
}

func TestText_WithNotes(t *testing.T) {
	initTest(t)
	storeMock.On("GetUsers", mock.Anything, "abc123").Return(nil, nil)
	storeMock.On("GetNotes", mock.Anything, "abc123").Return([]persistence.Note{
		{Time: "754003", Note: "olia"}}, nil)
	req := httptest.NewRequest(http.MethodGet, "/recording/abc123/.txt?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	body := test.RStr(t, resp.Body)
	assert.Contains(t, body, "Notes:")
	assert.Contains(t, body, "\t12:34.003: olia")
}

func TestText_StoreFails(t *testing.T) {
	initTest(t)
	storeMock.On("GetUsers", mock.Anything, "abc123").Return(nil, errors.New("olia"))
	req := httptest.NewRequest(http.MethodGet, "/recording/abc123/.txt?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusInternalServerError)
	res := test.Decode[api.ErrorResponse](t, resp.Body)
	assert.Equal(t, api.ErrCodeInternal, res.Code)
}

func TestRaw(t *testing.T) {
	initTest(t)
	storeMock.On("RawStream", mock.Anything, "abc123").
		Return(io.NopCloser(strings.NewReader("h1h2dd")), nil)
	req := httptest.NewRequest(http.MethodGet, "/recording/abc123/raw?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Equal(t, "attachment; filename=abc123.ogg",
		resp.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "audio/ogg", resp.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "h1h2dd", test.RStr(t, resp.Body))
}

func TestDelete(t *testing.T) {
	initTest(t)
	storeMock.On("Delete", mock.Anything, "abc123").Return(nil)
	req := httptest.NewRequest(http.MethodDelete, "/recording/abc123?key=secretK&delete=delK", nil)
	test.Code(t, tEcho, req, http.StatusNoContent)
	storeMock.AssertCalled(t, "Delete", mock.Anything, "abc123")
}

func TestDelete_NoDeleteKey(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodDelete, "/recording/abc123?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusForbidden)
	res := test.Decode[api.ErrorResponse](t, resp.Body)
	assert.Equal(t, api.ErrCodeInvalidDeleteKey, res.Code)
	storeMock.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_WrongDeleteKey(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodDelete, "/recording/abc123?key=secretK&delete=wrong", nil)
	resp := test.Code(t, tEcho, req, http.StatusForbidden)
	res := test.Decode[api.ErrorResponse](t, resp.Body)
	assert.Equal(t, api.ErrCodeInvalidDeleteKey, res.Code)
	storeMock.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_WrongAccessKey(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodDelete, "/recording/abc123?key=wrong&delete=delK", nil)
	resp := test.Code(t, tEcho, req, http.StatusForbidden)
	res := test.Decode[api.ErrorResponse](t, resp.Body)
	assert.Equal(t, api.ErrCodeInvalidKey, res.Code)
	storeMock.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestTranscript(t *testing.T) {
	initTest(t)
	trMock.On("Get", mock.Anything, "abc123").Return("Transcript: hi", nil)
	req := httptest.NewRequest(http.MethodGet, "/recording/abc123/transcript?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Equal(t, "Transcript: hi", test.RStr(t, resp.Body))
}

func TestTranscript_NotFound(t *testing.T) {
	initTest(t)
	trMock.On("Get", mock.Anything, "abc123").Return("", transcript.ErrNotFound)
	req := httptest.NewRequest(http.MethodGet, "/recording/abc123/transcript?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusNotFound)
	res := test.Decode[api.ErrorResponse](t, resp.Body)
	assert.Equal(t, api.ErrCodeTranscriptNotFound, res.Code)
}

func TestPostTranscript(t *testing.T) {
	initTest(t)
	trMock.On("Create", mock.Anything, "abc123").Return("Transcript: hi\n\nSummary: short", nil)
	req := httptest.NewRequest(http.MethodPost, "/recording/abc123/transcript?key=secretK", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Equal(t, "Transcript: hi\n\nSummary: short", test.RStr(t, resp.Body))
}

func TestPostTranscript_Fails(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code api.ErrCode
	}{
		{name: "no credential", err: transcription.ErrNoCredential, code: api.ErrCodeTranscriptionKeyMissing},
		{name: "audio prepare", err: transcription.ErrAudioPrepare, code: api.ErrCodeAudioPreparationFailed},
		{name: "service", err: transcription.ErrService, code: api.ErrCodeTranscriptionFailed},
		{name: "other", err: errors.New("olia"), code: api.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initTest(t)
			trMock.On("Create", mock.Anything, "abc123").Return("", tt.err)
			req := httptest.NewRequest(http.MethodPost, "/recording/abc123/transcript?key=secretK", nil)
			resp := test.Code(t, tEcho, req, http.StatusInternalServerError)
			res := test.Decode[api.ErrorResponse](t, resp.Body)
			assert.Equal(t, tt.code, res.Code)
		})
	}
}

func TestLive(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	test.Code(t, tEcho, req, http.StatusOK)
}
