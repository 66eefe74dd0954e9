// Package activitytree converts a module's content tree between its nested
// form and the flat records a store keeps.
//
// Flatten and Unflatten are inverses: unflattening the output of Flatten
// reproduces the original forest, with each folder's contents ordered by
// sort order (ties broken activities first, matching the crawl's output).
package activitytree

import (
	"sort"

	"github.com/d2lgrab/d2lgrab"
)

// Flatten walks a module's folder forest and returns every folder as a flat
// record and every activity in a single slice. Activities already carry
// their folder's id, so only folders need the explicit parent column.
func Flatten(folders []d2lgrab.Folder, moduleID string) ([]d2lgrab.FolderRecord, []d2lgrab.Activity) {
	var records []d2lgrab.FolderRecord
	var activities []d2lgrab.Activity
	for _, f := range folders {
		records, activities = flattenFolder(f, moduleID, nil, records, activities)
	}
	return records, activities
}

func flattenFolder(f d2lgrab.Folder, moduleID string, parentID *string, records []d2lgrab.FolderRecord, activities []d2lgrab.Activity) ([]d2lgrab.FolderRecord, []d2lgrab.Activity) {
	records = append(records, d2lgrab.FolderRecord{
		ID:          f.ID,
		ModuleID:    moduleID,
		ParentID:    parentID,
		Name:        f.Name,
		Description: f.Description,
		SortOrder:   f.SortOrder,
	})
	for _, item := range f.Contents {
		switch v := item.(type) {
		case d2lgrab.Folder:
			records, activities = flattenFolder(v, moduleID, &f.ID, records, activities)
		case d2lgrab.Activity:
			activities = append(activities, v)
		}
	}
	return records, activities
}

// Unflatten rebuilds the folder forest from flat records and activities.
// Records whose ParentID is nil become roots; root order follows sort
// order. Activities and records referencing folders absent from records are
// dropped.
func Unflatten(records []d2lgrab.FolderRecord, activities []d2lgrab.Activity) []d2lgrab.Folder {
	folders := make(map[string]*d2lgrab.Folder, len(records))
	for _, r := range records {
		folders[r.ID] = &d2lgrab.Folder{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			SortOrder:   r.SortOrder,
		}
	}

	for _, a := range activities {
		if parent, ok := folders[a.Base().FolderID]; ok {
			parent.Contents = append(parent.Contents, a)
		}
	}

	// Attach child folders after all activities so that within a folder,
	// equal sort orders rank activities before sub-folders.
	var rootIDs []string
	for _, r := range records {
		if r.ParentID == nil {
			rootIDs = append(rootIDs, r.ID)
			continue
		}
		if parent, ok := folders[*r.ParentID]; ok {
			parent.Contents = append(parent.Contents, *folders[r.ID])
		}
	}

	ordered := make([]d2lgrab.Folder, 0, len(rootIDs))
	for _, id := range rootIDs {
		ordered = append(ordered, finalize(folders, id))
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})
	return ordered
}

// finalize re-resolves sub-folder copies against the map, since a copy made
// before its source folder finished filling would be stale, then sorts.
func finalize(folders map[string]*d2lgrab.Folder, id string) d2lgrab.Folder {
	f := *folders[id]
	for i, item := range f.Contents {
		if sub, ok := item.(d2lgrab.Folder); ok {
			f.Contents[i] = finalize(folders, sub.ID)
		}
	}
	sort.SliceStable(f.Contents, func(i, j int) bool {
		return f.Contents[i].ItemSortOrder() < f.Contents[j].ItemSortOrder()
	})
	return f
}
