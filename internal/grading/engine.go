package grading

import (
	"strings"

	"github.com/cs-hub/cshub/internal/worksheet"
)

// Response is the minimal view of a student's answer needed for grading.
// Exactly one field is meaningful per section type.
type Response struct {
	Text           string   // fill-blank input
	Selected       string   // quiz option text or scenario option value
	DescriptionID  string   // matching: the clicked description
	PlacedLabelIDs []string // drag-drop: labels placed in the zone
	OrderedIDs     []string // order-sequence: step ids as arranged
}

// Result is the outcome of checking a single item.
type Result struct {
	Graded    bool // false when the item is attempted-only (no answer key)
	Correct   bool
	AutoClear bool // matching: an incorrect pair is recorded, then cleared
	Feedback  string
}

// Strategy checks one item of a section.
type Strategy interface {
	Grade(sec worksheet.Section, itemID string, resp Response) Result
}

// Grader routes by section type to the correct Strategy. Section types
// without a key (starter questions, exam self-assessment, notes) come back
// ungraded.
type Grader struct {
	strategies map[worksheet.SectionType]Strategy
}

func NewGrader() *Grader {
	return &Grader{
		strategies: map[worksheet.SectionType]Strategy{
			worksheet.TypeMatchingTask:         matchingStrategy{},
			worksheet.TypeOrderSequence:        orderSequenceStrategy{},
			worksheet.TypeMultipleChoiceQuiz:   quizStrategy{},
			worksheet.TypeScenarioQuestion:     scenarioStrategy{},
			worksheet.TypeFillTheBlanks:        fillBlankStrategy{},
			worksheet.TypeDiagramLabelDragDrop: dragDropStrategy{},
		},
	}
}

func (g *Grader) Grade(sec worksheet.Section, itemID string, resp Response) Result {
	s, ok := g.strategies[sec.Type]
	if !ok {
		return Result{}
	}
	return s.Grade(sec, itemID, resp)
}

// --- Strategies ---

// A pair is correct iff the clicked description's matchesTo equals the
// item's id. Incorrect pairs are flashed and cleared by the player, so the
// attempt stays recorded but the pairing value does not.
type matchingStrategy struct{}

func (matchingStrategy) Grade(sec worksheet.Section, itemID string, resp Response) Result {
	b, ok := sec.Body.(*worksheet.MatchingTask)
	if !ok || resp.DescriptionID == "" {
		return Result{}
	}
	for _, d := range b.Descriptions {
		if d.ID == resp.DescriptionID {
			if d.MatchesTo == itemID {
				return Result{Graded: true, Correct: true}
			}
			return Result{Graded: true, Correct: false, AutoClear: true}
		}
	}
	return Result{}
}

// The arrangement is correct iff it lists the step ids in exactly the
// solution order. A partial arrangement counts as graded incorrect once
// any step has been placed.
type orderSequenceStrategy struct{}

func (orderSequenceStrategy) Grade(sec worksheet.Section, itemID string, resp Response) Result {
	b, ok := sec.Body.(*worksheet.OrderSequence)
	if !ok || itemID != sec.ID || len(resp.OrderedIDs) == 0 {
		return Result{}
	}
	if len(resp.OrderedIDs) != len(b.CorrectOrder) {
		return Result{Graded: true, Correct: false}
	}
	for i, id := range b.CorrectOrder {
		if resp.OrderedIDs[i] != id {
			return Result{Graded: true, Correct: false}
		}
	}
	return Result{Graded: true, Correct: true}
}

// Exact string equality against the question's correctAnswer.
type quizStrategy struct{}

func (quizStrategy) Grade(sec worksheet.Section, itemID string, resp Response) Result {
	b, ok := sec.Body.(*worksheet.MultipleChoiceQuiz)
	if !ok || resp.Selected == "" {
		return Result{}
	}
	for _, q := range b.Questions {
		if q.ID == itemID {
			if resp.Selected == q.CorrectAnswer {
				return Result{Graded: true, Correct: true, Feedback: q.FeedbackCorrect}
			}
			return Result{Graded: true, Correct: false, Feedback: q.FeedbackIncorrect}
		}
	}
	return Result{}
}

// Exact equality against the scenario's correctAnswerValue.
type scenarioStrategy struct{}

func (scenarioStrategy) Grade(sec worksheet.Section, itemID string, resp Response) Result {
	b, ok := sec.Body.(*worksheet.ScenarioQuestion)
	if !ok || resp.Selected == "" {
		return Result{}
	}
	for _, sc := range b.Scenarios {
		if sc.ID == itemID {
			return Result{Graded: true, Correct: resp.Selected == sc.CorrectAnswerValue}
		}
	}
	return Result{}
}

// Case-insensitive, space-trimmed, with one trailing period dropped. Only
// that much: worksheet authors rely on "cpu." matching "cpu" while other
// punctuation stays significant.
type fillBlankStrategy struct{}

func (fillBlankStrategy) Grade(sec worksheet.Section, itemID string, resp Response) Result {
	b, ok := sec.Body.(*worksheet.FillTheBlanks)
	if !ok || strings.TrimSpace(resp.Text) == "" {
		return Result{}
	}
	for _, sen := range b.Sentences {
		if sen.ID == itemID {
			got := foldBlank(resp.Text)
			for _, want := range sen.CorrectAnswers {
				if got == foldBlank(want) {
					return Result{Graded: true, Correct: true}
				}
			}
			return Result{Graded: true, Correct: false}
		}
	}
	return Result{}
}

func foldBlank(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimSuffix(s, ".")
}

// A zone is correct iff exactly one label is placed and its dataLabel
// equals the zone's dataCorrect.
type dragDropStrategy struct{}

func (dragDropStrategy) Grade(sec worksheet.Section, itemID string, resp Response) Result {
	b, ok := sec.Body.(*worksheet.DiagramLabelDragDrop)
	if !ok || len(resp.PlacedLabelIDs) == 0 {
		return Result{}
	}
	var zone *worksheet.DropZone
	for i := range b.DropZones {
		if b.DropZones[i].ID == itemID {
			zone = &b.DropZones[i]
			break
		}
	}
	if zone == nil {
		return Result{}
	}
	if len(resp.PlacedLabelIDs) != 1 {
		return Result{Graded: true, Correct: false}
	}
	for _, l := range b.Labels {
		if l.ID == resp.PlacedLabelIDs[0] {
			return Result{Graded: true, Correct: l.DataLabel == zone.DataCorrect}
		}
	}
	return Result{Graded: true, Correct: false}
}
