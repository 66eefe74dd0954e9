package d2lgrab

import (
	"context"
	"fmt"
	"strconv"
)

// Quizzes lists a module's quizzes, following the cursor pagination until
// the API reports no further page.
func (c *Client) Quizzes(ctx context.Context, moduleID string) ([]Quiz, error) {
	var quizzes []Quiz
	next := "/d2l/api/le/1.75/" + moduleID + "/quizzes/"
	for {
		page, err := c.polite.QuizzesPage(ctx, next)
		if err != nil {
			return nil, c.abortOnError(fmt.Errorf("fetching quizzes page: %w", err))
		}
		for _, q := range page.Objects {
			quizzes = append(quizzes, Quiz{
				ID:          strconv.Itoa(q.QuizID),
				ModuleID:    moduleID,
				Name:        q.Name,
				Description: q.Description.Text.HTML,
				DueAt:       q.DueDate,
			})
		}
		if page.Next == nil {
			return quizzes, nil
		}
		next = *page.Next
	}
}
