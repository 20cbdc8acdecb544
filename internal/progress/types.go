package progress

import (
	"time"

	"github.com/cs-hub/cshub/internal/worksheet"
)

type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// AnswerKind tags the closed union of answer shapes. Exactly one payload
// field of AnswerValue is set per kind.
type AnswerKind string

const (
	KindText        AnswerKind = "text"        // starter, fill-blank, notes, extension
	KindExam        AnswerKind = "exam"        // free text plus self-assessed marks
	KindSelection   AnswerKind = "selection"   // quiz option
	KindScenario    AnswerKind = "scenario"    // scenario option value
	KindPlacement   AnswerKind = "placement"   // drag-drop zone contents
	KindPairing     AnswerKind = "pairing"     // matching: chosen description
	KindOrderedList AnswerKind = "orderedList" // order-sequence arrangement
)

type ExamAnswer struct {
	AnswerText        string `json:"answerText"`
	SelfAssessedMarks *int   `json:"selfAssessedMarks,omitempty"`
}

type SelectionAnswer struct {
	SelectedAnswer string `json:"selectedAnswer"`
}

type ScenarioAnswer struct {
	SelectedValue string `json:"selectedValue"`
}

type PlacementAnswer struct {
	PlacedLabelIDs []string `json:"placedLabelIds"`
}

type PairingAnswer struct {
	DescriptionID string `json:"descriptionId"`
}

type OrderedListAnswer struct {
	OrderedIDs []string `json:"orderedIds"`
}

type AnswerValue struct {
	Kind        AnswerKind         `json:"kind"`
	Text        string             `json:"text,omitempty"`
	Exam        *ExamAnswer        `json:"exam,omitempty"`
	Selection   *SelectionAnswer   `json:"selection,omitempty"`
	Scenario    *ScenarioAnswer    `json:"scenario,omitempty"`
	Placement   *PlacementAnswer   `json:"placement,omitempty"`
	Pairing     *PairingAnswer     `json:"pairing,omitempty"`
	OrderedList *OrderedListAnswer `json:"orderedList,omitempty"`
}

// TaskAttempt records the value, attempted flag and optional correctness of
// one answerable item.
type TaskAttempt struct {
	Value       AnswerValue `json:"value"`
	IsAttempted bool        `json:"isAttempted"`
	IsCorrect   *bool       `json:"isCorrect,omitempty"`
}

type SectionState struct {
	IsCompleted bool                   `json:"isCompleted"`
	IsAttempted bool                   `json:"isAttempted"`
	Answers     map[string]TaskAttempt `json:"answers"`
}

// State is the per-(student, worksheet) progress record. The section-state
// key set is always a superset of the worksheet's section ids: Initialize
// backfills entries for sections added after the student started.
type State struct {
	WorksheetID         string                  `json:"worksheetId"`
	StudentID           string                  `json:"studentId"`
	CurrentSectionIndex int                     `json:"currentSectionIndex"`
	SectionStates       map[string]SectionState `json:"sectionStates"`
	OverallStatus       Status                  `json:"overallStatus"`
	LastUpdated         time.Time               `json:"lastUpdated"`
}

// KindFor maps a section type to the answer shape its items carry.
func KindFor(t worksheet.SectionType) AnswerKind {
	switch t {
	case worksheet.TypeExamQuestions:
		return KindExam
	case worksheet.TypeMultipleChoiceQuiz:
		return KindSelection
	case worksheet.TypeScenarioQuestion:
		return KindScenario
	case worksheet.TypeDiagramLabelDragDrop:
		return KindPlacement
	case worksheet.TypeMatchingTask:
		return KindPairing
	case worksheet.TypeOrderSequence:
		return KindOrderedList
	default:
		return KindText
	}
}

// EmptyValueFor is the zero answer for a section's item shape.
func EmptyValueFor(t worksheet.SectionType) AnswerValue {
	switch KindFor(t) {
	case KindExam:
		return AnswerValue{Kind: KindExam, Exam: &ExamAnswer{}}
	case KindSelection:
		return AnswerValue{Kind: KindSelection, Selection: &SelectionAnswer{}}
	case KindScenario:
		return AnswerValue{Kind: KindScenario, Scenario: &ScenarioAnswer{}}
	case KindPlacement:
		return AnswerValue{Kind: KindPlacement, Placement: &PlacementAnswer{PlacedLabelIDs: []string{}}}
	case KindPairing:
		return AnswerValue{Kind: KindPairing, Pairing: &PairingAnswer{}}
	case KindOrderedList:
		return AnswerValue{Kind: KindOrderedList, OrderedList: &OrderedListAnswer{OrderedIDs: []string{}}}
	default:
		return AnswerValue{Kind: KindText}
	}
}

// EmptyAnswersFor seeds one empty TaskAttempt per answerable item. It is
// the single source of empty answer shapes, used by Initialize and the
// reset operations alike.
func EmptyAnswersFor(sec worksheet.Section) map[string]TaskAttempt {
	out := map[string]TaskAttempt{}
	for _, id := range sec.ItemIDs() {
		out[id] = TaskAttempt{Value: EmptyValueFor(sec.Type)}
	}
	return out
}
