package download

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/pkg/errors"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sorajate/craig/internal/pkg/access"
	"github.com/sorajate/craig/internal/pkg/api"
	"github.com/sorajate/craig/internal/pkg/persistence"
	"github.com/sorajate/craig/internal/pkg/store"
	"github.com/sorajate/craig/internal/pkg/transcript"
	"github.com/sorajate/craig/internal/pkg/transcription"
)

// Store provides recording lookup and data access
type Store interface {
	Get(ctx context.Context, id string) (*persistence.Recording, store.State, error)
	GetUsers(ctx context.Context, id string) ([]persistence.Track, error)
	GetNotes(ctx context.Context, id string) ([]persistence.Note, error)
	RawStream(ctx context.Context, id string) (io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

// Transcripts provides transcript lookup and generation
type Transcripts interface {
	Get(ctx context.Context, id string) (string, error)
	Create(ctx context.Context, id string) (string, error)
}

// Counter records usage events
type Counter interface {
	Inc(ctx context.Context, recordingID string) error
}

// Reporter sends collaborator failures to the telemetry sink
type Reporter interface {
	Report(recordingID string, err error)
}

// Data keeps data required for service work
type Data struct {
	Port  int
	Store Store
	// Transcripts must be set, Usage and Reporter may be nil
	Transcripts Transcripts
	Usage       Counter
	Reporter    Reporter
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Int("port", data.Port).Msg("Starting CRAIG download service")
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 30 * time.Second
	// transcription requests stay open until the external service answers
	e.Server.WriteTimeout = 15 * time.Minute

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.Store == nil {
		return errors.New("no recording store")
	}
	if data.Transcripts == nil {
		return errors.New("no transcript provider")
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("craig_download", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.HEAD("/recording/:id", head(data))
	e.GET("/recording/:id", getInfo(data))
	e.GET("/recording/:id/.txt", getText(data))
	e.GET("/recording/:id/users", getUsers(data))
	e.GET("/recording/:id/raw", getRaw(data))
	e.DELETE("/recording/:id", deleteRecording(data))
	e.GET("/recording/:id/transcript", getTranscript(data))
	e.POST("/recording/:id/transcript", postTranscript(data))
	e.GET("/live", live(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func sendError(c echo.Context, status int, code api.ErrCode, msg string) error {
	return c.JSON(status, api.ErrorResponse{OK: false, Error: msg, Code: code})
}

// validID guards file path construction, recording ids are plain tokens
func validID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// authorize runs the shared preamble: id and key validation before any
// collaborator call, tri-state lookup, constant time key check, usage event.
// When done is true the response was already written.
func authorize(c echo.Context, data *Data, needDelete bool) (rec *persistence.Recording, done bool, err error) {
	id := c.Param("id")
	if !validID(id) {
		return nil, true, sendError(c, http.StatusBadRequest, api.ErrCodeInvalidID, "Invalid ID")
	}
	key := c.QueryParam("key")
	if key == "" {
		return nil, true, sendError(c, http.StatusForbidden, api.ErrCodeInvalidKey, "Invalid key")
	}
	if needDelete && c.QueryParam("delete") == "" {
		return nil, true, sendError(c, http.StatusForbidden, api.ErrCodeInvalidDeleteKey, "Invalid delete key")
	}

	rec, state, err := data.Store.Get(c.Request().Context(), id)
	if err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Send()
		report(data, id, err)
		return nil, true, sendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "Internal error")
	}
	switch state {
	case store.Deleted:
		return nil, true, sendError(c, http.StatusGone, api.ErrCodeRecordingDeleted, "Recording was deleted")
	case store.Missing:
		return nil, true, sendError(c, http.StatusNotFound, api.ErrCodeRecordingNotFound, "Recording not found")
	}
	if !access.KeyMatches(rec, key) {
		return nil, true, sendError(c, http.StatusForbidden, api.ErrCodeInvalidKey, "Invalid key")
	}
	onRequest(data, id)
	return rec, false, nil
}

// onRequest dispatches the usage event without blocking the request
func onRequest(data *Data, id string) {
	if data.Usage == nil {
		return
	}
	go func() {
		ctx, cf := context.WithTimeout(context.Background(), 10*time.Second)
		defer cf()
		if err := data.Usage.Inc(ctx, id); err != nil {
			goapp.Log.Warn().Err(err).Str("ID", id).Msg("can't save usage event")
		}
	}()
}

func report(data *Data, id string, err error) {
	if data.Reporter == nil {
		return
	}
	data.Reporter.Report(id, err)
}

func head(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		_, done, err := authorize(c, data, false)
		if done {
			return err
		}
		return c.NoContent(http.StatusOK)
	}
}

func getInfo(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("info method")()
		rec, done, err := authorize(c, data, false)
		if done {
			return err
		}
		return c.JSON(http.StatusOK, api.InfoResponse{OK: true, Info: api.NewRecordingInfo(rec)})
	}
}

func getText(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("text method")()
		rec, done, err := authorize(c, data, false)
		if done {
			return err
		}
		ctx := c.Request().Context()
		users, err := data.Store.GetUsers(ctx, rec.ID)
		if err != nil {
			goapp.Log.Error().Err(err).Str("ID", rec.ID).Send()
			report(data, rec.ID, err)
			return sendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "Internal error")
		}
		notes, err := data.Store.GetNotes(ctx, rec.ID)
		if err != nil {
			goapp.Log.Error().Err(err).Str("ID", rec.ID).Send()
			report(data, rec.ID, err)
			return sendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "Internal error")
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+rec.ID+"-info.txt")
		return c.Blob(http.StatusOK, echo.MIMETextPlain, []byte(composeInfoText(rec, users, notes)))
	}
}

func getUsers(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("users method")()
		rec, done, err := authorize(c, data, false)
		if done {
			return err
		}
		users, err := data.Store.GetUsers(c.Request().Context(), rec.ID)
		if err != nil {
			goapp.Log.Error().Err(err).Str("ID", rec.ID).Send()
			report(data, rec.ID, err)
			return sendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "Internal error")
		}
		if users == nil {
			users = []persistence.Track{}
		}
		return c.JSON(http.StatusOK, api.UsersResponse{OK: true, Users: users})
	}
}

func getRaw(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("raw method")()
		rec, done, err := authorize(c, data, false)
		if done {
			return err
		}
		r, err := data.Store.RawStream(c.Request().Context(), rec.ID)
		if err != nil {
			goapp.Log.Error().Err(err).Str("ID", rec.ID).Send()
			report(data, rec.ID, err)
			return sendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "Internal error")
		}
		defer r.Close()
		c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+rec.ID+".ogg")
		return c.Stream(http.StatusOK, "audio/ogg", r)
	}
}

func deleteRecording(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("delete method")()
		rec, done, err := authorize(c, data, true)
		if done {
			return err
		}
		if !access.DeleteKeyMatches(rec, c.QueryParam("delete")) {
			return sendError(c, http.StatusForbidden, api.ErrCodeInvalidDeleteKey, "Invalid delete key")
		}
		if err := data.Store.Delete(c.Request().Context(), rec.ID); err != nil {
			goapp.Log.Error().Err(err).Str("ID", rec.ID).Send()
			report(data, rec.ID, err)
			return sendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "Internal error")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func getTranscript(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("transcript get method")()
		rec, done, err := authorize(c, data, false)
		if done {
			return err
		}
		text, err := data.Transcripts.Get(c.Request().Context(), rec.ID)
		if err != nil {
			if errors.Is(err, transcript.ErrNotFound) {
				return sendError(c, http.StatusNotFound, api.ErrCodeTranscriptNotFound, "Transcript not found")
			}
			goapp.Log.Error().Err(err).Str("ID", rec.ID).Send()
			report(data, rec.ID, err)
			return sendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "Error reading transcript")
		}
		return c.String(http.StatusOK, text)
	}
}

func postTranscript(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("transcript post method")()
		rec, done, err := authorize(c, data, false)
		if done {
			return err
		}
		text, err := data.Transcripts.Create(c.Request().Context(), rec.ID)
		if err != nil {
			goapp.Log.Error().Err(err).Str("ID", rec.ID).Send()
			switch {
			case errors.Is(err, transcription.ErrNoCredential):
				return sendError(c, http.StatusInternalServerError,
					api.ErrCodeTranscriptionKeyMissing, "Transcription key is missing")
			case errors.Is(err, transcription.ErrAudioPrepare):
				report(data, rec.ID, err)
				return sendError(c, http.StatusInternalServerError,
					api.ErrCodeAudioPreparationFailed, "Audio file preparation failed for transcription")
			case errors.Is(err, transcription.ErrService):
				report(data, rec.ID, err)
				return sendError(c, http.StatusInternalServerError,
					api.ErrCodeTranscriptionFailed, "Transcription failed due to API error")
			}
			report(data, rec.ID, err)
			return sendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "Internal error")
		}
		return c.String(http.StatusOK, text)
	}
}
