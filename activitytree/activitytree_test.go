package activitytree

import (
	"reflect"
	"testing"

	"github.com/d2lgrab/d2lgrab"
)

func strPtr(s string) *string { return &s }

func sampleForest() []d2lgrab.Folder {
	return []d2lgrab.Folder{
		{
			ID:        "f1",
			Name:      "Week 1",
			SortOrder: 1,
			Contents: []d2lgrab.Item{
				d2lgrab.HTMLActivity{
					ActivityBase: d2lgrab.ActivityBase{ID: "a1", Name: "Intro", FolderID: "f1", SortOrder: 1},
					Content:      "<p>hi</p>",
				},
				d2lgrab.Folder{
					ID:        "f2",
					Name:      "Readings",
					SortOrder: 2,
					Contents: []d2lgrab.Item{
						d2lgrab.WebEmbedActivity{
							ActivityBase: d2lgrab.ActivityBase{ID: "a2", Name: "Article", FolderID: "f2", SortOrder: 1},
							URL:          "https://example.com",
						},
					},
				},
				d2lgrab.SubmissionActivity{
					ActivityBase: d2lgrab.ActivityBase{ID: "a3", FolderID: "f1", SortOrder: 3},
					DropboxID:    "77",
				},
			},
		},
		{
			ID:        "f3",
			Name:      "Week 2",
			SortOrder: 2,
		},
	}
}

func TestFlatten(t *testing.T) {
	records, activities := Flatten(sampleForest(), "m1")

	wantRecords := []d2lgrab.FolderRecord{
		{ID: "f1", ModuleID: "m1", Name: "Week 1", SortOrder: 1},
		{ID: "f2", ModuleID: "m1", ParentID: strPtr("f1"), Name: "Readings", SortOrder: 2},
		{ID: "f3", ModuleID: "m1", Name: "Week 2", SortOrder: 2},
	}
	if len(records) != len(wantRecords) {
		t.Fatalf("got %d records, want %d", len(records), len(wantRecords))
	}
	for i, want := range wantRecords {
		got := records[i]
		if got.ID != want.ID || got.ModuleID != want.ModuleID || got.Name != want.Name || got.SortOrder != want.SortOrder {
			t.Errorf("record %d = %+v, want %+v", i, got, want)
		}
		switch {
		case want.ParentID == nil && got.ParentID != nil:
			t.Errorf("record %s has parent %q, want none", got.ID, *got.ParentID)
		case want.ParentID != nil && (got.ParentID == nil || *got.ParentID != *want.ParentID):
			t.Errorf("record %s parent = %v, want %q", got.ID, got.ParentID, *want.ParentID)
		}
	}

	wantIDs := []string{"a1", "a2", "a3"}
	if len(activities) != len(wantIDs) {
		t.Fatalf("got %d activities, want %d", len(activities), len(wantIDs))
	}
	for i, id := range wantIDs {
		if activities[i].Base().ID != id {
			t.Errorf("activity %d = %s, want %s", i, activities[i].Base().ID, id)
		}
	}
}

func TestUnflattenRoundTrip(t *testing.T) {
	forest := sampleForest()
	records, activities := Flatten(forest, "m1")
	rebuilt := Unflatten(records, activities)

	if !reflect.DeepEqual(rebuilt, forest) {
		t.Fatalf("round trip diverged:\ngot  %+v\nwant %+v", rebuilt, forest)
	}
}

func TestUnflattenOrdersBySortOrder(t *testing.T) {
	records := []d2lgrab.FolderRecord{
		{ID: "f2", ModuleID: "m1", Name: "Second", SortOrder: 2},
		{ID: "f1", ModuleID: "m1", Name: "First", SortOrder: 1},
	}
	activities := []d2lgrab.Activity{
		d2lgrab.HTMLActivity{ActivityBase: d2lgrab.ActivityBase{ID: "a2", FolderID: "f1", SortOrder: 5}},
		d2lgrab.HTMLActivity{ActivityBase: d2lgrab.ActivityBase{ID: "a1", FolderID: "f1", SortOrder: 1}},
	}

	forest := Unflatten(records, activities)
	if len(forest) != 2 {
		t.Fatalf("got %d roots, want 2", len(forest))
	}
	if forest[0].ID != "f1" || forest[1].ID != "f2" {
		t.Fatalf("root order = %s, %s; want f1, f2", forest[0].ID, forest[1].ID)
	}
	contents := forest[0].Contents
	if len(contents) != 2 {
		t.Fatalf("got %d items in f1, want 2", len(contents))
	}
	first, ok := contents[0].(d2lgrab.HTMLActivity)
	if !ok || first.ID != "a1" {
		t.Fatalf("first item = %+v, want activity a1", contents[0])
	}
}

func TestUnflattenDropsOrphans(t *testing.T) {
	records := []d2lgrab.FolderRecord{
		{ID: "f1", ModuleID: "m1", Name: "Root", SortOrder: 1},
		{ID: "f9", ModuleID: "m1", ParentID: strPtr("gone"), Name: "Orphan", SortOrder: 1},
	}
	activities := []d2lgrab.Activity{
		d2lgrab.HTMLActivity{ActivityBase: d2lgrab.ActivityBase{ID: "a9", FolderID: "missing", SortOrder: 1}},
	}

	forest := Unflatten(records, activities)
	if len(forest) != 1 {
		t.Fatalf("got %d roots, want 1", len(forest))
	}
	if len(forest[0].Contents) != 0 {
		t.Fatalf("got %d items in root, want 0", len(forest[0].Contents))
	}
}
