package grading

import (
	"testing"

	"github.com/cs-hub/cshub/internal/worksheet"
)

func matchingSection() worksheet.Section {
	return worksheet.Section{
		ID:         "match-1",
		Type:       worksheet.TypeMatchingTask,
		IsActivity: true,
		Body: &worksheet.MatchingTask{
			Items: []worksheet.MatchItem{{ID: "cu", Text: "Control Unit"}, {ID: "alu", Text: "ALU"}},
			Descriptions: []worksheet.MatchDescription{
				{ID: "desc-cu", Text: "Decodes instructions", MatchesTo: "cu"},
				{ID: "desc-alu", Text: "Does arithmetic", MatchesTo: "alu"},
			},
		},
	}
}

func TestMatchingCorrectPair(t *testing.T) {
	g := NewGrader()
	res := g.Grade(matchingSection(), "cu", Response{DescriptionID: "desc-cu"})
	if !res.Graded || !res.Correct || res.AutoClear {
		t.Fatalf("want graded correct, got %+v", res)
	}
}

func TestMatchingIncorrectPairAutoClears(t *testing.T) {
	g := NewGrader()
	res := g.Grade(matchingSection(), "cu", Response{DescriptionID: "desc-alu"})
	if !res.Graded || res.Correct {
		t.Fatalf("want graded incorrect, got %+v", res)
	}
	if !res.AutoClear {
		t.Fatalf("incorrect pair must auto-clear, got %+v", res)
	}
}

func TestOrderSequenceArrangement(t *testing.T) {
	sec := worksheet.Section{
		ID:         "fde-order",
		Type:       worksheet.TypeOrderSequence,
		IsActivity: true,
		Body: &worksheet.OrderSequence{
			Steps: []worksheet.SequenceStep{
				{ID: "s-fetch", Text: "Fetch"}, {ID: "s-decode", Text: "Decode"}, {ID: "s-execute", Text: "Execute"},
			},
			CorrectOrder: []string{"s-fetch", "s-decode", "s-execute"},
		},
	}
	g := NewGrader()
	if res := g.Grade(sec, "fde-order", Response{OrderedIDs: []string{"s-fetch", "s-decode", "s-execute"}}); !res.Graded || !res.Correct {
		t.Fatalf("solution order should be correct: %+v", res)
	}
	if res := g.Grade(sec, "fde-order", Response{OrderedIDs: []string{"s-decode", "s-fetch", "s-execute"}}); !res.Graded || res.Correct {
		t.Fatalf("swapped steps should be graded incorrect: %+v", res)
	}
	// placing only some steps is an incorrect attempt, not a non-attempt
	if res := g.Grade(sec, "fde-order", Response{OrderedIDs: []string{"s-fetch"}}); !res.Graded || res.Correct {
		t.Fatalf("partial arrangement should be graded incorrect: %+v", res)
	}
	if res := g.Grade(sec, "fde-order", Response{}); res.Graded {
		t.Fatalf("no steps placed is not an attempt: %+v", res)
	}
}

func TestQuizExactEquality(t *testing.T) {
	sec := worksheet.Section{
		ID:         "quiz-1",
		Type:       worksheet.TypeMultipleChoiceQuiz,
		IsActivity: true,
		Body: &worksheet.MultipleChoiceQuiz{Questions: []worksheet.QuizQuestion{
			{ID: "q1", Options: []string{"Fetch", "Decode"}, CorrectAnswer: "Fetch", FeedbackCorrect: "yes", FeedbackIncorrect: "no"},
		}},
	}
	g := NewGrader()
	if res := g.Grade(sec, "q1", Response{Selected: "Fetch"}); !res.Correct || res.Feedback != "yes" {
		t.Fatalf("got %+v", res)
	}
	// equality is exact, no case folding for quizzes
	if res := g.Grade(sec, "q1", Response{Selected: "fetch"}); res.Correct {
		t.Fatalf("case-folded quiz answer must not match: %+v", res)
	}
}

func TestScenarioSelection(t *testing.T) {
	sec := worksheet.Section{
		ID:         "scen-1",
		Type:       worksheet.TypeScenarioQuestion,
		IsActivity: true,
		Body: &worksheet.ScenarioQuestion{Scenarios: []worksheet.Scenario{
			{ID: "s1", Options: []worksheet.ScenarioOption{{Text: "Program Counter", Value: "PC"}}, CorrectAnswerValue: "PC"},
		}},
	}
	g := NewGrader()
	if res := g.Grade(sec, "s1", Response{Selected: "PC"}); !res.Correct {
		t.Fatalf("got %+v", res)
	}
	if res := g.Grade(sec, "s1", Response{Selected: "MAR"}); res.Correct {
		t.Fatalf("got %+v", res)
	}
}

func TestFillBlankFolding(t *testing.T) {
	sec := worksheet.Section{
		ID:         "fill-1",
		Type:       worksheet.TypeFillTheBlanks,
		IsActivity: true,
		Body: &worksheet.FillTheBlanks{Sentences: []worksheet.FillBlankSentence{
			{ID: "b1", Placeholder: "Component", CorrectAnswers: []string{"cpu"}},
		}},
	}
	g := NewGrader()
	for _, in := range []string{"CPU", "cpu", "cpu.", "  Cpu  "} {
		if res := g.Grade(sec, "b1", Response{Text: in}); !res.Correct {
			t.Fatalf("input %q should match accepted \"cpu\": %+v", in, res)
		}
	}
	if res := g.Grade(sec, "b1", Response{Text: "cp.u"}); res.Correct {
		t.Fatalf("interior punctuation must stay significant")
	}
	if res := g.Grade(sec, "b1", Response{Text: "   "}); res.Graded {
		t.Fatalf("blank input is not an attempt: %+v", res)
	}
}

func TestDragDropZone(t *testing.T) {
	sec := worksheet.Section{
		ID:         "dnd-1",
		Type:       worksheet.TypeDiagramLabelDragDrop,
		IsActivity: true,
		Body: &worksheet.DiagramLabelDragDrop{
			DropZones: []worksheet.DropZone{{ID: "drop-cu", DataCorrect: "cu"}},
			Labels: []worksheet.DraggableLabel{
				{ID: "l1", Text: "Control Unit", DataLabel: "cu"},
				{ID: "l2", Text: "ALU", DataLabel: "alu"},
			},
		},
	}
	g := NewGrader()
	if res := g.Grade(sec, "drop-cu", Response{PlacedLabelIDs: []string{"l1"}}); !res.Correct {
		t.Fatalf("got %+v", res)
	}
	if res := g.Grade(sec, "drop-cu", Response{PlacedLabelIDs: []string{"l2"}}); res.Correct {
		t.Fatalf("got %+v", res)
	}
	if res := g.Grade(sec, "drop-cu", Response{PlacedLabelIDs: []string{"l1", "l2"}}); res.Correct {
		t.Fatalf("two labels in one zone cannot be correct: %+v", res)
	}
}

func TestUngradedTypes(t *testing.T) {
	sec := worksheet.Section{
		ID:         "starter-1",
		Type:       worksheet.TypeStarterActivity,
		IsActivity: true,
		Body:       &worksheet.StarterActivity{Questions: []worksheet.StarterQuestion{{ID: "q1", QuestionType: "shortAnswer"}}},
	}
	if res := NewGrader().Grade(sec, "q1", Response{Text: "some answer"}); res.Graded {
		t.Fatalf("starter questions have no key, got %+v", res)
	}
}
