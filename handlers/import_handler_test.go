package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Dosada05/tournament-registration/middleware"
	"github.com/Dosada05/tournament-registration/models"
	"github.com/Dosada05/tournament-registration/services"
	"github.com/Dosada05/tournament-registration/spreadsheet"
)

type fakeEntryImporter struct {
	contentID int
	rows      []models.RawRow
	single    []models.ValidatedSingleEntry
	double    []models.ValidatedDoubleEntry
	err       error
}

func (f *fakeEntryImporter) PreviewSingle(_ context.Context, contentID int, rows []models.RawRow) (*models.PreviewResult[models.ValidatedSingleEntry], error) {
	f.contentID, f.rows = contentID, rows
	if f.err != nil {
		return nil, f.err
	}
	return &models.PreviewResult[models.ValidatedSingleEntry]{Valid: true, ImportID: "imp-1"}, nil
}

func (f *fakeEntryImporter) ConfirmSingle(_ context.Context, contentID int, entries []models.ValidatedSingleEntry) (*models.ConfirmResult, error) {
	f.contentID, f.single = contentID, entries
	if f.err != nil {
		return nil, f.err
	}
	return &models.ConfirmResult{CreatedCount: len(entries), CreatedIDs: []int{101}}, nil
}

func (f *fakeEntryImporter) PreviewDouble(_ context.Context, contentID int, rows []models.RawRow) (*models.PreviewResult[models.ValidatedDoubleEntry], error) {
	f.contentID, f.rows = contentID, rows
	if f.err != nil {
		return nil, f.err
	}
	return &models.PreviewResult[models.ValidatedDoubleEntry]{Valid: true}, nil
}

func (f *fakeEntryImporter) ConfirmDouble(_ context.Context, contentID int, entries []models.ValidatedDoubleEntry) (*models.ConfirmResult, error) {
	f.contentID, f.double = contentID, entries
	if f.err != nil {
		return nil, f.err
	}
	return &models.ConfirmResult{CreatedCount: len(entries)}, nil
}

type fakeTeamImporter struct {
	tournamentID int
	importerID   int
	teamRows     []models.RawRow
	memberRows   []models.RawRow
	batches      []models.RosterTeamBatch
	err          error
}

func (f *fakeTeamImporter) PreviewTeams(_ context.Context, tournamentID int, teamRows, memberRows []models.RawRow, importerID int) (*models.PreviewResult[models.RosterTeamBatch], error) {
	f.tournamentID, f.importerID, f.teamRows, f.memberRows = tournamentID, importerID, teamRows, memberRows
	if f.err != nil {
		return nil, f.err
	}
	return &models.PreviewResult[models.RosterTeamBatch]{Valid: true}, nil
}

func (f *fakeTeamImporter) ConfirmTeams(_ context.Context, tournamentID, importerID int, batches []models.RosterTeamBatch) (*models.TeamConfirmResult, error) {
	f.tournamentID, f.importerID, f.batches = tournamentID, importerID, batches
	if f.err != nil {
		return nil, f.err
	}
	return &models.TeamConfirmResult{CreatedTeams: len(batches)}, nil
}

type fakeSheetLoader struct {
	requested string
}

func (f *fakeSheetLoader) Load(_ context.Context, id string) (*spreadsheet.Workbook, error) {
	f.requested = id
	return spreadsheet.FromValues("Sheet1", [][]string{{"name", "email"}, {"An", "an@example.com"}}), nil
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withUser(r *http.Request, userID int) *http.Request {
	ctx := middleware.WithClaims(r.Context(), jwt.MapClaims{"user_id": float64(userID)})
	return r.WithContext(ctx)
}

func multipartRequest(t *testing.T, url string, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPreviewSingleFromCSV(t *testing.T) {
	entries := &fakeEntryImporter{}
	h := NewImportHandler(entries, &fakeTeamImporter{}, nil, 1<<20)

	csv := "name,email\nAn,an@example.com\nBinh,binh@example.com\n"
	req := multipartRequest(t, "/", "players.csv", []byte(csv), nil)
	req = withURLParam(req, "contentID", "7")
	rec := httptest.NewRecorder()

	h.PreviewSingle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, entries.contentID)
	require.Len(t, entries.rows, 3)
	assert.Equal(t, "binh@example.com", entries.rows[2].Cell(1))

	body := decodeBody(t, rec)
	preview := body["preview"].(map[string]interface{})
	assert.Equal(t, "imp-1", preview["import_id"])
}

func TestPreviewSingleFromGoogleSheets(t *testing.T) {
	entries := &fakeEntryImporter{}
	loader := &fakeSheetLoader{}
	h := NewImportHandler(entries, &fakeTeamImporter{}, loader, 1<<20)

	req := multipartRequest(t, "/", "", nil, map[string]string{"spreadsheet_id": "sheet-abc"})
	req = withURLParam(req, "contentID", "7")
	rec := httptest.NewRecorder()

	h.PreviewSingle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sheet-abc", loader.requested)
	assert.Len(t, entries.rows, 2)
}

func TestPreviewSingleSheetsDisabled(t *testing.T) {
	h := NewImportHandler(&fakeEntryImporter{}, &fakeTeamImporter{}, nil, 1<<20)

	req := multipartRequest(t, "/", "", nil, map[string]string{"spreadsheet_id": "sheet-abc"})
	req = withURLParam(req, "contentID", "7")
	rec := httptest.NewRecorder()

	h.PreviewSingle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewSingleRejectsBadInput(t *testing.T) {
	h := NewImportHandler(&fakeEntryImporter{}, &fakeTeamImporter{}, nil, 1<<20)

	t.Run("missing file", func(t *testing.T) {
		req := multipartRequest(t, "/", "", nil, nil)
		req = withURLParam(req, "contentID", "7")
		rec := httptest.NewRecorder()
		h.PreviewSingle(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		req := multipartRequest(t, "/", "players.pdf", []byte("%PDF"), nil)
		req = withURLParam(req, "contentID", "7")
		rec := httptest.NewRecorder()
		h.PreviewSingle(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "unsupported file type")
	})

	t.Run("bad content id", func(t *testing.T) {
		req := multipartRequest(t, "/", "players.csv", []byte("name,email\n"), nil)
		req = withURLParam(req, "contentID", "abc")
		rec := httptest.NewRecorder()
		h.PreviewSingle(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPreviewServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrContentNotFound, http.StatusNotFound},
		{services.ErrContentTypeMismatch, http.StatusBadRequest},
		{fmt.Errorf("%w: no data rows", services.ErrInvalidImportFile), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := NewImportHandler(&fakeEntryImporter{err: tc.err}, &fakeTeamImporter{}, nil, 1<<20)
			req := multipartRequest(t, "/", "pairs.csv", []byte("player1_name\n"), nil)
			req = withURLParam(req, "contentID", "3")
			rec := httptest.NewRecorder()

			h.PreviewDouble(rec, req)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestConfirmSingle(t *testing.T) {
	entries := &fakeEntryImporter{}
	h := NewImportHandler(entries, &fakeTeamImporter{}, nil, 1<<20)

	body := `{"entries":[{"name":"An","user_id":5,"email":"an@example.com","team_id":null,"row":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = withURLParam(req, "contentID", "7")
	rec := httptest.NewRecorder()

	h.ConfirmSingle(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, entries.single, 1)
	assert.Equal(t, 5, entries.single[0].UserID)
	result := decodeBody(t, rec)["result"].(map[string]interface{})
	assert.EqualValues(t, 1, result["created_count"])
}

func TestConfirmSingleRejectsUnknownFields(t *testing.T) {
	h := NewImportHandler(&fakeEntryImporter{}, &fakeTeamImporter{}, nil, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rows":[]}`))
	req = withURLParam(req, "contentID", "7")
	rec := httptest.NewRecorder()

	h.ConfirmSingle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmDoubleStaleReturnsErrors(t *testing.T) {
	stale := &services.RevalidationError{Errors: []models.ValidationError{
		{Row: 2, Field: "player1_email", Message: "player is already registered in this content"},
	}}
	h := NewImportHandler(&fakeEntryImporter{err: stale}, &fakeTeamImporter{}, nil, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"entries":[]}`))
	req = withURLParam(req, "contentID", "7")
	rec := httptest.NewRecorder()

	h.ConfirmDouble(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, services.ErrImportStale.Error(), body["error"])
	errs := body["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, "player1_email", errs[0].(map[string]interface{})["field"])
}

func TestConfirmRepeatedRowIsBadRequest(t *testing.T) {
	err := fmt.Errorf("%w: 2", services.ErrDuplicateConfirmRow)
	h := NewImportHandler(&fakeEntryImporter{err: err}, &fakeTeamImporter{}, nil, 1<<20)

	body := `{"entries":[{"name":"A","user_id":1,"email":"a@x.com","team_id":null,"row":2},{"name":"B","user_id":2,"email":"b@x.com","team_id":null,"row":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = withURLParam(req, "contentID", "7")
	rec := httptest.NewRecorder()

	h.ConfirmSingle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "repeats a row number")
}

func TestConfirmConflictAfterPersistFailure(t *testing.T) {
	err := fmt.Errorf("%w: %w", services.ErrImportPersistFailed, services.ErrRegistrationConflict)
	h := NewImportHandler(&fakeEntryImporter{err: err}, &fakeTeamImporter{}, nil, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"entries":[]}`))
	req = withURLParam(req, "contentID", "7")
	rec := httptest.NewRecorder()

	h.ConfirmSingle(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func teamsWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Teams"))
	require.NoError(t, f.SetSheetRow("Teams", "A1", &[]interface{}{"name", "description"}))
	require.NoError(t, f.SetSheetRow("Teams", "A2", &[]interface{}{"Falcons", "club"}))

	_, err := f.NewSheet("Members")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Members", "A1", &[]interface{}{"team", "name", "role", "email"}))
	require.NoError(t, f.SetSheetRow("Members", "A2", &[]interface{}{"Falcons", "An", "manager", "an@example.com"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestPreviewTeams(t *testing.T) {
	teams := &fakeTeamImporter{}
	h := NewImportHandler(&fakeEntryImporter{}, teams, nil, 1<<20)

	req := multipartRequest(t, "/", "teams.xlsx", teamsWorkbook(t), nil)
	req = withUser(withURLParam(req, "tournamentID", "10"), 42)
	rec := httptest.NewRecorder()

	h.PreviewTeams(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, teams.tournamentID)
	assert.Equal(t, 42, teams.importerID)
	assert.Len(t, teams.teamRows, 2)
	require.Len(t, teams.memberRows, 2)
	assert.Equal(t, "manager", teams.memberRows[1].Cell(2))
}

func TestPreviewTeamsMissingSheet(t *testing.T) {
	h := NewImportHandler(&fakeEntryImporter{}, &fakeTeamImporter{}, nil, 1<<20)

	req := multipartRequest(t, "/", "teams.csv", []byte("name\nFalcons\n"), nil)
	req = withUser(withURLParam(req, "tournamentID", "10"), 42)
	rec := httptest.NewRecorder()

	h.PreviewTeams(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "required sheet is missing")
}

func TestTeamsRequireUser(t *testing.T) {
	h := NewImportHandler(&fakeEntryImporter{}, &fakeTeamImporter{}, nil, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"teams":[]}`))
	req = withURLParam(req, "tournamentID", "10")
	rec := httptest.NewRecorder()

	h.ConfirmTeams(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConfirmTeams(t *testing.T) {
	teams := &fakeTeamImporter{}
	h := NewImportHandler(&fakeEntryImporter{}, teams, nil, 1<<20)

	body := `{"teams":[{"name":"Falcons","members":[{"user_id":42,"role":"team_manager","email":"an@example.com","name":"An","row":2}],"row":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = withUser(withURLParam(req, "tournamentID", "10"), 42)
	rec := httptest.NewRecorder()

	h.ConfirmTeams(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, teams.batches, 1)
	assert.Equal(t, models.RoleTeamManager, teams.batches[0].Members[0].Role)
	assert.Equal(t, 42, teams.importerID)
}
