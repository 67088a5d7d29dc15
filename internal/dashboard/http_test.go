package dashboard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestGetSidebarParsesHasJobcardParam(t *testing.T) {
	repo := &fakeRepo{}
	handler := NewHandler(dashboardFixture(repo))

	r := chi.NewRouter()
	handler.Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/sidebar?tab=inspections&has_jobcard=true", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	// The today and recent listings carry the parsed filter through.
	withFilter := 0
	for _, q := range repo.inspectionQueries {
		if q.HasJobCard != nil && *q.HasJobCard {
			withFilter++
		}
	}
	require.Equal(t, 2, withFilter)
}

func TestGetSidebarUnknownTab(t *testing.T) {
	handler := NewHandler(dashboardFixture(&fakeRepo{}))

	r := chi.NewRouter()
	handler.Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/sidebar?tab=bogus", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
