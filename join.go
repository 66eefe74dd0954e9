package d2lgrab

import "fmt"

// JoinNames fills in the display names of submission and quiz activities
// from the dropboxes and quizzes they reference. The content crawl leaves
// those names empty: the authoritative name lives on the referenced record,
// and the two are fetched independently.
//
// The join is required. An activity referencing a dropbox or quiz that is
// not in the given slices is an error, since downstream consumers rely on
// every activity carrying its real name.
func JoinNames(activities []Activity, dropboxes []SubmissionDropbox, quizzes []Quiz) ([]Activity, error) {
	dropboxNames := make(map[string]string, len(dropboxes))
	for _, d := range dropboxes {
		dropboxNames[d.ID] = d.Name
	}
	quizNames := make(map[string]string, len(quizzes))
	for _, q := range quizzes {
		quizNames[q.ID] = q.Name
	}

	joined := make([]Activity, len(activities))
	for i, a := range activities {
		switch v := a.(type) {
		case SubmissionActivity:
			name, ok := dropboxNames[v.DropboxID]
			if !ok {
				return nil, fmt.Errorf("activity %s references unknown dropbox %s", v.ID, v.DropboxID)
			}
			v.Name = name
			joined[i] = v
		case QuizActivity:
			name, ok := quizNames[v.QuizID]
			if !ok {
				return nil, fmt.Errorf("activity %s references unknown quiz %s", v.ID, v.QuizID)
			}
			v.Name = name
			joined[i] = v
		default:
			joined[i] = a
		}
	}
	return joined, nil
}
