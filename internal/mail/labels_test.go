package mail

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func TestListLabels(t *testing.T) {
	f := newFakeGmail(t)
	f.mux.HandleFunc("GET "+apiPrefix+"/labels", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, &gmail.ListLabelsResponse{Labels: []*gmail.Label{
			{Id: "INBOX", Name: "INBOX", Type: "system"},
			{Id: "Label_1", Name: "Receipts", Type: "user"},
		}})
	})

	labels, err := f.client(t).ListLabels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Label{
		{ID: "INBOX", Name: "INBOX", Type: LabelTypeSystem},
		{ID: "Label_1", Name: "Receipts", Type: LabelTypeUser},
	}, labels)
}

func TestCreateLabel(t *testing.T) {
	f := newFakeGmail(t)
	f.mux.HandleFunc("POST "+apiPrefix+"/labels", func(w http.ResponseWriter, r *http.Request) {
		var req gmail.Label
		decodeJSON(t, r, &req)
		assert.Equal(t, "Travel", req.Name)
		assert.Equal(t, "labelShow", req.LabelListVisibility)
		assert.Equal(t, "show", req.MessageListVisibility)
		writeJSON(t, w, &gmail.Label{Id: "Label_7", Name: "Travel", Type: "user"})
	})

	c := f.client(t)
	label, err := c.CreateLabel(context.Background(), "Travel")
	require.NoError(t, err)
	assert.Equal(t, Label{ID: "Label_7", Name: "Travel", Type: LabelTypeUser}, label)

	_, err = c.CreateLabel(context.Background(), "  ")
	assert.Error(t, err)
}

func TestDeleteLabel_NoContent(t *testing.T) {
	f := newFakeGmail(t)
	f.mux.HandleFunc("DELETE "+apiPrefix+"/labels/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Label_7", r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, f.client(t).DeleteLabel(context.Background(), "Label_7"))
	assert.Equal(t, 1, f.count("DELETE "+apiPrefix+"/labels/Label_7"))
}

func TestCreateFilter(t *testing.T) {
	f := newFakeGmail(t)
	f.mux.HandleFunc("POST "+apiPrefix+"/settings/filters", func(w http.ResponseWriter, r *http.Request) {
		var req gmail.Filter
		decodeJSON(t, r, &req)
		require.NotNil(t, req.Criteria)
		require.NotNil(t, req.Action)
		assert.Equal(t, "boss@example.com", req.Criteria.From)
		assert.Empty(t, req.Criteria.Subject)
		assert.Equal(t, []string{"Label_1"}, req.Action.AddLabelIds)
		writeJSON(t, w, &gmail.Filter{Id: "f1"})
	})

	c := f.client(t)
	require.NoError(t, c.CreateFilter(context.Background(), FilterCriteria{From: "boss@example.com"}, []string{"Label_1"}))

	assert.Error(t, c.CreateFilter(context.Background(), FilterCriteria{}, []string{"Label_1"}))
	assert.Error(t, c.CreateFilter(context.Background(), FilterCriteria{Query: "x"}, nil))
	assert.Equal(t, 1, f.count("POST "+apiPrefix+"/settings/filters"))
}

func TestListAndDeleteFilters(t *testing.T) {
	f := newFakeGmail(t)
	f.mux.HandleFunc("GET "+apiPrefix+"/settings/filters", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, &gmail.ListFiltersResponse{Filter: []*gmail.Filter{
			{
				Id:       "f1",
				Criteria: &gmail.FilterCriteria{Subject: "invoice"},
				Action:   &gmail.FilterAction{AddLabelIds: []string{"Label_1"}},
			},
			{Id: "f2"},
		}})
	})
	f.mux.HandleFunc("DELETE "+apiPrefix+"/settings/filters/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c := f.client(t)
	filters, err := c.ListFilters(context.Background())
	require.NoError(t, err)
	require.Len(t, filters, 2)
	assert.Equal(t, "invoice", filters[0].Criteria.Subject)
	assert.Equal(t, []string{"Label_1"}, filters[0].AddLabelIDs)
	assert.True(t, filters[1].Criteria.Empty())

	require.NoError(t, c.DeleteFilter(context.Background(), "f1"))
}

func TestDisplayLabelIDs(t *testing.T) {
	got := DisplayLabelIDs([]string{"CATEGORY_PERSONAL", "IMPORTANT"})
	assert.Equal(t, []string{"IMPORTANT"}, got)

	assert.Empty(t, DisplayLabelIDs(nil))
	assert.Equal(t, []string{"INBOX", "Label_1"},
		DisplayLabelIDs([]string{"INBOX", "CATEGORY_UPDATES", "Label_1", "CATEGORY_SOCIAL"}))
}

func TestLabelName(t *testing.T) {
	labels := []Label{{ID: "Label_1", Name: "Receipts", Type: LabelTypeUser}}

	assert.Equal(t, "Receipts", LabelName(labels, "Label_1"))
	assert.Equal(t, "Label_404", LabelName(labels, "Label_404"), "dangling ids render as themselves")
}

func TestUserLabels(t *testing.T) {
	labels := []Label{
		{ID: "INBOX", Type: LabelTypeSystem},
		{ID: "Label_1", Type: LabelTypeUser},
		{ID: "STARRED", Type: LabelTypeSystem},
		{ID: "Label_2", Type: LabelTypeUser},
	}

	got := UserLabels(labels)
	require.Len(t, got, 2)
	assert.Equal(t, "Label_1", got[0].ID)
	assert.Equal(t, "Label_2", got[1].ID)
}

func TestApplyLabelDelta(t *testing.T) {
	tests := []struct {
		name             string
		ids, add, remove []string
		want             []string
	}{
		{name: "add", ids: []string{"INBOX"}, add: []string{"L"}, want: []string{"INBOX", "L"}},
		{name: "add existing", ids: []string{"INBOX", "L"}, add: []string{"L"}, want: []string{"INBOX", "L"}},
		{name: "remove", ids: []string{"INBOX", "L"}, remove: []string{"INBOX"}, want: []string{"L"}},
		{name: "add then remove same id", ids: []string{"INBOX"}, add: []string{"L"}, remove: []string{"L"}, want: []string{"INBOX"}},
		{name: "remove missing", ids: []string{"INBOX"}, remove: []string{"X"}, want: []string{"INBOX"}},
		{name: "empty", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := append([]string(nil), tt.ids...)
			got := ApplyLabelDelta(tt.ids, tt.add, tt.remove)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, orig, tt.ids, "input must not be modified")
		})
	}
}
