package collection

import (
	"fmt"
	"slices"

	"coursebook/internal/domain"
)

// AddOption appends a placeholder option.
func AddOption(q domain.QuizAttrs) domain.QuizAttrs {
	q.Options = append(slices.Clone(q.Options), fmt.Sprintf("Option %d", len(q.Options)+1))
	return q
}

// UpdateOption replaces the option at index.
func UpdateOption(q domain.QuizAttrs, index int, value string) domain.QuizAttrs {
	if !inRange(index, len(q.Options)) {
		return q
	}
	q.Options = slices.Clone(q.Options)
	q.Options[index] = value
	return q
}

// RemoveOption drops the option at index. A quiz never shrinks below
// domain.MinQuizOptions. Removing the correct option resets the answer to
// the first option; removing an earlier one keeps the answer on the same
// option.
func RemoveOption(q domain.QuizAttrs, index int) domain.QuizAttrs {
	if len(q.Options) <= domain.MinQuizOptions || !inRange(index, len(q.Options)) {
		return q
	}
	q.Options = slices.Delete(slices.Clone(q.Options), index, index+1)
	switch {
	case index == q.CorrectAnswer:
		q.CorrectAnswer = 0
	case index < q.CorrectAnswer:
		q.CorrectAnswer--
	}
	return q
}

// SetCorrectAnswer marks the option at index as correct.
func SetCorrectAnswer(q domain.QuizAttrs, index int) domain.QuizAttrs {
	if !inRange(index, len(q.Options)) {
		return q
	}
	q.CorrectAnswer = index
	return q
}

func inRange(i, n int) bool { return i >= 0 && i < n }
