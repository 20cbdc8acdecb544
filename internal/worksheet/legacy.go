package worksheet

import "fmt"

// First-generation worksheet schema: a flat task list with one answer key
// per task. Still served to the legacy player; new content is authored as
// sectioned worksheets.

type LegacyTask struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"` // shortAnswer|multipleChoice|trueFalse|ordering
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"` // for ordering: steps in solution order
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

type LegacyWorksheet struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Tasks []LegacyTask `json:"tasks"`
}

// FromLegacy lifts a flat task list into the sectioned schema so old
// content can be stored and served by the same pipeline. Each task becomes
// its own single-item section keyed by the task id, which keeps saved flat
// progress addressable.
func FromLegacy(lw LegacyWorksheet) Worksheet {
	out := Worksheet{ID: lw.ID, Title: lw.Title}
	for _, t := range lw.Tasks {
		sec := Section{ID: t.ID, Title: t.Question, IsActivity: true}
		switch t.Type {
		case "ordering":
			steps := make([]SequenceStep, len(t.Options))
			order := make([]string, len(t.Options))
			for i, text := range t.Options {
				id := fmt.Sprintf("%s-step-%d", t.ID, i+1)
				steps[i] = SequenceStep{ID: id, Text: text}
				order[i] = id
			}
			sec.Type = TypeOrderSequence
			sec.Body = &OrderSequence{IntroText: t.Question, Steps: steps, CorrectOrder: order}
		case "multipleChoice", "trueFalse":
			opts := t.Options
			if t.Type == "trueFalse" && len(opts) == 0 {
				opts = []string{"True", "False"}
			}
			sec.Type = TypeMultipleChoiceQuiz
			sec.Body = &MultipleChoiceQuiz{Questions: []QuizQuestion{{
				ID:            t.ID,
				QuestionText:  t.Question,
				Options:       opts,
				CorrectAnswer: t.CorrectAnswer,
			}}}
		default: // shortAnswer
			sec.Type = TypeStarterActivity
			sec.Body = &StarterActivity{Questions: []StarterQuestion{{
				ID:           t.ID,
				QuestionText: t.Question,
				QuestionType: "shortAnswer",
			}}}
		}
		out.Sections = append(out.Sections, sec)
	}
	return out
}
