package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-registration/middleware"
	"github.com/Dosada05/tournament-registration/models"
	"github.com/Dosada05/tournament-registration/spreadsheet"
)

// EntryImporter - предпросмотр и подтверждение одиночных и парных заявок.
type EntryImporter interface {
	PreviewSingle(ctx context.Context, contentID int, rows []models.RawRow) (*models.PreviewResult[models.ValidatedSingleEntry], error)
	ConfirmSingle(ctx context.Context, contentID int, entries []models.ValidatedSingleEntry) (*models.ConfirmResult, error)
	PreviewDouble(ctx context.Context, contentID int, rows []models.RawRow) (*models.PreviewResult[models.ValidatedDoubleEntry], error)
	ConfirmDouble(ctx context.Context, contentID int, entries []models.ValidatedDoubleEntry) (*models.ConfirmResult, error)
}

type TeamImporter interface {
	PreviewTeams(ctx context.Context, tournamentID int, teamRows, memberRows []models.RawRow, importerID int) (*models.PreviewResult[models.RosterTeamBatch], error)
	ConfirmTeams(ctx context.Context, tournamentID, importerID int, batches []models.RosterTeamBatch) (*models.TeamConfirmResult, error)
}

// SheetLoader загружает таблицу Google Sheets по её id.
type SheetLoader interface {
	Load(ctx context.Context, spreadsheetID string) (*spreadsheet.Workbook, error)
}

var errGoogleSheetsDisabled = errors.New("google sheets import is not configured")

type ImportHandler struct {
	entries   EntryImporter
	teams     TeamImporter
	sheets    SheetLoader
	maxUpload int64
}

// NewImportHandler: sheets может быть nil, тогда принимаются только файлы.
func NewImportHandler(entries EntryImporter, teams TeamImporter, sheets SheetLoader, maxUpload int64) *ImportHandler {
	return &ImportHandler{
		entries:   entries,
		teams:     teams,
		sheets:    sheets,
		maxUpload: maxUpload,
	}
}

// readWorkbook принимает multipart-поле file (xlsx/csv) или spreadsheet_id.
func (h *ImportHandler) readWorkbook(w http.ResponseWriter, r *http.Request) (*spreadsheet.Workbook, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	if id := strings.TrimSpace(r.FormValue("spreadsheet_id")); id != "" {
		if h.sheets == nil {
			return nil, errGoogleSheetsDisabled
		}
		return h.sheets.Load(r.Context(), id)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("failed to get import file from form: %w", err)
	}
	defer file.Close()

	return spreadsheet.ReadWorkbook(file, header.Filename)
}

func (h *ImportHandler) firstSheet(w http.ResponseWriter, r *http.Request) ([]models.RawRow, bool) {
	wb, err := h.readWorkbook(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return nil, false
	}
	rows, err := wb.First()
	if err != nil {
		badRequestResponse(w, r, err)
		return nil, false
	}
	return rows, true
}

// PreviewSingle godoc
// @Summary Предпросмотр импорта одиночных заявок
// @Tags imports
// @Description Проверяет строки файла и ничего не записывает. Колонки: name, email.
// @Accept multipart/form-data
// @Produce json
// @Param contentID path int true "Content ID"
// @Param file formData file false "Файл xlsx или csv"
// @Param spreadsheet_id formData string false "ID таблицы Google Sheets"
// @Success 200 {object} map[string]interface{} "Результат предпросмотра"
// @Failure 400 {object} map[string]string "Некорректный файл или тип раздела"
// @Failure 404 {object} map[string]string "Раздел не найден"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /contents/{contentID}/imports/single/preview [post]
func (h *ImportHandler) PreviewSingle(w http.ResponseWriter, r *http.Request) {
	contentID, err := getIDFromURL(r, "contentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rows, ok := h.firstSheet(w, r)
	if !ok {
		return
	}

	preview, err := h.entries.PreviewSingle(r.Context(), contentID, rows)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"preview": preview}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmSingle godoc
// @Summary Подтвердить импорт одиночных заявок
// @Tags imports
// @Description Повторно проверяет заявки и записывает их одной транзакцией.
// @Accept json
// @Produce json
// @Param contentID path int true "Content ID"
// @Param body body object true "{\"entries\": [...]} из предпросмотра"
// @Success 201 {object} map[string]interface{} "Заявки созданы"
// @Failure 400 {object} map[string]string "Ошибка входных данных"
// @Failure 409 {object} map[string]interface{} "Данные устарели или конфликт регистрации"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /contents/{contentID}/imports/single/confirm [post]
func (h *ImportHandler) ConfirmSingle(w http.ResponseWriter, r *http.Request) {
	contentID, err := getIDFromURL(r, "contentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Entries []models.ValidatedSingleEntry `json:"entries"`
	}
	if err := readJSON(w, r, &input, h.maxUpload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.entries.ConfirmSingle(r.Context(), contentID, input.Entries)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PreviewDouble godoc
// @Summary Предпросмотр импорта парных заявок
// @Tags imports
// @Description Колонки: player1_name, player1_email, player2_name, player2_email.
// @Accept multipart/form-data
// @Produce json
// @Param contentID path int true "Content ID"
// @Param file formData file false "Файл xlsx или csv"
// @Param spreadsheet_id formData string false "ID таблицы Google Sheets"
// @Success 200 {object} map[string]interface{} "Результат предпросмотра"
// @Failure 400 {object} map[string]string "Некорректный файл или тип раздела"
// @Failure 404 {object} map[string]string "Раздел не найден"
// @Security BearerAuth
// @Router /contents/{contentID}/imports/double/preview [post]
func (h *ImportHandler) PreviewDouble(w http.ResponseWriter, r *http.Request) {
	contentID, err := getIDFromURL(r, "contentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rows, ok := h.firstSheet(w, r)
	if !ok {
		return
	}

	preview, err := h.entries.PreviewDouble(r.Context(), contentID, rows)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"preview": preview}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmDouble godoc
// @Summary Подтвердить импорт парных заявок
// @Tags imports
// @Accept json
// @Produce json
// @Param contentID path int true "Content ID"
// @Param body body object true "{\"entries\": [...]} из предпросмотра"
// @Success 201 {object} map[string]interface{} "Пары созданы"
// @Failure 409 {object} map[string]interface{} "Данные устарели или конфликт регистрации"
// @Security BearerAuth
// @Router /contents/{contentID}/imports/double/confirm [post]
func (h *ImportHandler) ConfirmDouble(w http.ResponseWriter, r *http.Request) {
	contentID, err := getIDFromURL(r, "contentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Entries []models.ValidatedDoubleEntry `json:"entries"`
	}
	if err := readJSON(w, r, &input, h.maxUpload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.entries.ConfirmDouble(r.Context(), contentID, input.Entries)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PreviewTeams godoc
// @Summary Предпросмотр импорта команд
// @Tags imports
// @Description Книга с листами Teams (name, description) и Members (team, name, role, email).
// @Accept multipart/form-data
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param file formData file false "Файл xlsx"
// @Param spreadsheet_id formData string false "ID таблицы Google Sheets"
// @Success 200 {object} map[string]interface{} "Результат предпросмотра"
// @Failure 400 {object} map[string]string "Некорректный файл"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/imports/teams/preview [post]
func (h *ImportHandler) PreviewTeams(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	importerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	wb, err := h.readWorkbook(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamRows, err := wb.Sheet(spreadsheet.TeamsSheet...)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	memberRows, err := wb.Sheet(spreadsheet.MembersSheet...)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	preview, err := h.teams.PreviewTeams(r.Context(), tournamentID, teamRows, memberRows, importerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"preview": preview}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmTeams godoc
// @Summary Подтвердить импорт команд
// @Tags imports
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body object true "{\"teams\": [...]} из предпросмотра"
// @Success 201 {object} map[string]interface{} "Команды созданы"
// @Failure 409 {object} map[string]interface{} "Данные устарели или конфликт"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/imports/teams/confirm [post]
func (h *ImportHandler) ConfirmTeams(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	importerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	var input struct {
		Teams []models.RosterTeamBatch `json:"teams"`
	}
	if err := readJSON(w, r, &input, h.maxUpload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.teams.ConfirmTeams(r.Context(), tournamentID, importerID, input.Teams)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
