package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-pilot/internal/pipeline"
	"github.com/jonathan/apply-pilot/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	orch := pipeline.New(pipeline.Config{Store: st, Registry: pipeline.NewRegistry()})
	return New(Config{Port: 0}, st, orch, nil), st
}

func addJob(t *testing.T, st *store.Memory, url string) *store.JobRecord {
	t.Helper()
	rec, created, err := st.Insert(context.Background(), store.InsertInput{
		URL: url, Company: "acme", RoleTitle: "Engineer",
	})
	require.NoError(t, err)
	require.True(t, created)
	return rec
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rr := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestAddJob(t *testing.T) {
	s, st := newTestServer(t)

	rr := doJSON(t, s.Handler(), http.MethodPost, "/jobs", AddJobRequest{
		URL: "https://jobs.lever.co/acme/1", Company: "acme", RoleTitle: "Engineer",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var job store.JobRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &job))
	assert.Equal(t, store.StateScraped, job.State)
	assert.Equal(t, "lever", string(job.Platform))
	assert.Equal(t, "manual", job.Source)

	// Duplicate URL returns the existing record with 200.
	rr = doJSON(t, s.Handler(), http.MethodPost, "/jobs", AddJobRequest{URL: "https://jobs.lever.co/acme/1"})
	assert.Equal(t, http.StatusOK, rr.Code)

	jobs, err := st.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestAddJobValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s.Handler(), http.MethodPost, "/jobs", AddJobRequest{URL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, s.Handler(), http.MethodPost, "/jobs", AddJobRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListJobs(t *testing.T) {
	s, st := newTestServer(t)
	rec := addJob(t, st, "https://jobs.lever.co/acme/1")
	addJob(t, st, "https://jobs.lever.co/acme/2")

	_, err := s.orch.Approve(context.Background(), rec.ID)
	require.NoError(t, err)

	rr := doJSON(t, s.Handler(), http.MethodGet, "/jobs", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp ListJobsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	rr = doJSON(t, s.Handler(), http.MethodGet, "/jobs?state=approved", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	rr = doJSON(t, s.Handler(), http.MethodGet, "/jobs?state=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetJob(t *testing.T) {
	s, st := newTestServer(t)
	rec := addJob(t, st, "https://jobs.lever.co/acme/1")

	rr := doJSON(t, s.Handler(), http.MethodGet, "/jobs/"+rec.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, s.Handler(), http.MethodGet, "/jobs/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, s.Handler(), http.MethodGet, "/jobs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestApproveSkipReject(t *testing.T) {
	s, st := newTestServer(t)

	t.Run("approve", func(t *testing.T) {
		rec := addJob(t, st, "https://jobs.lever.co/acme/approve")
		rr := doJSON(t, s.Handler(), http.MethodPost, fmt.Sprintf("/jobs/%s/approve", rec.ID), nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var job store.JobRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &job))
		assert.Equal(t, store.StateApproved, job.State)

		// Approving twice is an invalid transition.
		rr = doJSON(t, s.Handler(), http.MethodPost, fmt.Sprintf("/jobs/%s/approve", rec.ID), nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("skip", func(t *testing.T) {
		rec := addJob(t, st, "https://jobs.lever.co/acme/skip")
		rr := doJSON(t, s.Handler(), http.MethodPost, fmt.Sprintf("/jobs/%s/skip", rec.ID), nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var job store.JobRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &job))
		assert.Equal(t, store.StateSkipped, job.State)
	})

	t.Run("reject with reason", func(t *testing.T) {
		rec := addJob(t, st, "https://jobs.lever.co/acme/reject")
		rr := doJSON(t, s.Handler(), http.MethodPost, fmt.Sprintf("/jobs/%s/reject", rec.ID), RejectRequest{Reason: "not remote"})
		require.Equal(t, http.StatusOK, rr.Code)
		var job store.JobRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &job))
		assert.Equal(t, store.StateRejected, job.State)
		assert.Equal(t, "not remote", job.LastError)
	})
}

func TestStats(t *testing.T) {
	s, st := newTestServer(t)
	addJob(t, st, "https://jobs.lever.co/acme/1")
	rec := addJob(t, st, "https://jobs.lever.co/acme/2")
	_, err := s.orch.Approve(context.Background(), rec.ID)
	require.NoError(t, err)

	rr := doJSON(t, s.Handler(), http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.States[store.StateScraped])
	assert.Equal(t, 1, resp.States[store.StateApproved])
	assert.Zero(t, resp.SuccessRate)
}
