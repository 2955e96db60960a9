package handler_test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, path string, field string, files map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestFileManagerUploadDownloadDeleteOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	teacher := seedUser(t, db, "fteacher", "teacher")

	resp, err := app.Test(asUser(postJSON("/api/kaksha/create", `{"name":"Lab Files"}`), teacher))
	require.NoError(t, err)
	created := decodeResponse(t, resp)
	classroomID := uint(dataField(t, created, "id").(float64))

	folderPath := fmt.Sprintf("/api/kaksha/files/create-folder?kakshaId=%d", classroomID)
	resp, err = app.Test(asUser(postJSON(folderPath, `{"name":"Week 1"}`), teacher))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	treePath := fmt.Sprintf("/api/kaksha/files/file-tree?kakshaId=%d", classroomID)
	resp, err = app.Test(asUser(httptest.NewRequest(http.MethodGet, treePath, nil), teacher))
	require.NoError(t, err)
	tree := decodeResponse(t, resp)
	folders, ok := tree.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, folders, 1)
	folderID, _ := folders[0].(map[string]interface{})["id"].(string)
	require.NotEmpty(t, folderID)

	uploadPath := fmt.Sprintf("/api/kaksha/files/folder/upload-file?kakshaId=%d&folderId=%s", classroomID, folderID)
	resp, err = app.Test(asUser(multipartRequest(t, uploadPath, "file", map[string]string{"notes.txt": "week one notes"}), teacher))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	uploaded := decodeResponse(t, resp)
	fileID, _ := dataField(t, uploaded, "id").(string)
	require.NotEmpty(t, fileID)

	locator := fmt.Sprintf("kakshaId=%d&folderId=%s&fileId=%s", classroomID, folderID, fileID)

	resp, err = app.Test(asUser(httptest.NewRequest(http.MethodGet, "/api/kaksha/files/folder/file/download-file?"+locator, nil), teacher))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "notes.txt")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "week one notes", string(body))

	resp, err = app.Test(asUser(httptest.NewRequest(http.MethodDelete, "/api/kaksha/files/folder/file/delete-file?"+locator, nil), teacher))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Deleted file must be gone for good.
	resp, err = app.Test(asUser(httptest.NewRequest(http.MethodGet, "/api/kaksha/files/folder/file/download-file?"+locator, nil), teacher))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAssignmentCreateAndSubmitOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	teacher := seedUser(t, db, "ahteacher", "teacher")
	student := seedUser(t, db, "ahstudent", "student")

	resp, err := app.Test(asUser(postJSON("/api/kaksha/create", `{"name":"Projects"}`), teacher))
	require.NoError(t, err)
	created := decodeResponse(t, resp)
	classroomID := dataField(t, created, "id").(float64)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", "Final Project"))
	require.NoError(t, writer.WriteField("kaksha_id", fmt.Sprintf("%.0f", classroomID)))
	part, err := writer.CreateFormFile("files", "brief.md")
	require.NoError(t, err)
	_, err = part.Write([]byte("# Brief"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/kaksha/assignment/create", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err = app.Test(asUser(req, teacher))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assignment := decodeResponse(t, resp)
	assignmentID := uint(dataField(t, assignment, "id").(float64))

	submitPath := fmt.Sprintf("/api/kaksha/assignment/submit?assignmentId=%d", assignmentID)
	resp, err = app.Test(asUser(multipartRequest(t, submitPath, "submissionFiles", map[string]string{"work.zip": "zipped work"}), student))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// A second submission from the same student conflicts.
	resp, err = app.Test(asUser(multipartRequest(t, submitPath, "submissionFiles", map[string]string{"work2.zip": "more work"}), student))
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	listPath := fmt.Sprintf("/api/kaksha/assignment/list-submissions?assignmentId=%d", assignmentID)
	resp, err = app.Test(asUser(httptest.NewRequest(http.MethodGet, listPath, nil), teacher))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeResponse(t, resp)
	submissions, ok := dataField(t, listed, "submissions").([]interface{})
	require.True(t, ok)
	require.Len(t, submissions, 1)

	// Unknown attachment id yields a clean 404, not a broken stream.
	missingPath := fmt.Sprintf("/api/kaksha/assignment/attachment/nope?assignmentId=%d", assignmentID)
	resp, err = app.Test(asUser(httptest.NewRequest(http.MethodGet, missingPath, nil), student))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
