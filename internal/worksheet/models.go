package worksheet

import (
	"encoding/json"
	"fmt"
)

type SectionType string

const (
	TypeStaticText           SectionType = "StaticText"
	TypeStarterActivity      SectionType = "StarterActivity"
	TypeLessonOutcomes       SectionType = "LessonOutcomes"
	TypeDiagramLabelDragDrop SectionType = "DiagramLabelDragDrop"
	TypeMatchingTask         SectionType = "MatchingTask"
	TypeOrderSequence        SectionType = "OrderSequenceInteractive"
	TypeRegisterExplorer     SectionType = "RegisterExplorer"
	TypeBusSimulation        SectionType = "BusSimulation"
	TypeScenarioQuestion     SectionType = "ScenarioQuestion"
	TypeFillTheBlanks        SectionType = "FillTheBlanks"
	TypeMultipleChoiceQuiz   SectionType = "MultipleChoiceQuiz"
	TypeExamQuestions        SectionType = "ExamQuestions"
	TypeVideoPlaceholder     SectionType = "VideoPlaceholder"
	TypeKeyTakeaways         SectionType = "KeyTakeaways"
	TypeWhatsNext            SectionType = "WhatsNext"
	TypeExtensionActivities  SectionType = "ExtensionActivities"
)

// Section is one addressable unit of worksheet content. The envelope fields
// are shared; Body holds the per-type payload and is flattened into the same
// JSON object as the envelope.
type Section struct {
	ID                  string      `json:"id"`
	Title               string      `json:"title"`
	Type                SectionType `json:"type"`
	IsActivity          bool        `json:"isActivity"`
	RequiresReadConfirm bool        `json:"requiresReadConfirmation,omitempty"`

	Body Body `json:"-"`
}

// Body is the closed set of section payloads.
type Body interface{ sectionBody() }

type StarterQuestion struct {
	ID                  string   `json:"id"`
	QuestionText        string   `json:"questionText"`
	QuestionType        string   `json:"questionType"` // shortAnswer|multipleChoice|trueFalse
	Options             []string `json:"options,omitempty"`
	Placeholder         string   `json:"placeholder,omitempty"`
	MinLengthForAttempt int      `json:"minLengthForAttempt,omitempty"`
}

type DraggableLabel struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	DataLabel string `json:"dataLabel"`
}

type DropZone struct {
	ID          string `json:"id"`
	DataCorrect string `json:"dataCorrect"` // DataLabel of the correct label
	Hint        string `json:"hint,omitempty"`
}

type MatchItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type MatchDescription struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	MatchesTo string `json:"matchesTo"` // ID of the MatchItem it pairs with
}

type SequenceStep struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type RegisterInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

type ScenarioOption struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

type Scenario struct {
	ID                 string           `json:"id"`
	QuestionText       string           `json:"questionText"`
	Options            []ScenarioOption `json:"options"`
	CorrectAnswerValue string           `json:"correctAnswerValue"`
}

type FillBlankSentence struct {
	ID             string   `json:"id"`
	LeadingText    string   `json:"leadingText,omitempty"`
	TrailingText   string   `json:"trailingText,omitempty"`
	Placeholder    string   `json:"placeholder"`
	CorrectAnswers []string `json:"correctAnswers"` // matched case-insensitively
}

type QuizQuestion struct {
	ID                string   `json:"id"`
	QuestionText      string   `json:"questionText"`
	Options           []string `json:"options"`
	CorrectAnswer     string   `json:"correctAnswer"`
	FeedbackCorrect   string   `json:"feedbackCorrect,omitempty"`
	FeedbackIncorrect string   `json:"feedbackIncorrect,omitempty"`
}

type ExamQuestion struct {
	ID                     string `json:"id"`
	QuestionText           string `json:"questionText"`
	Marks                  int    `json:"marks"`
	AnswerPlaceholder      string `json:"answerPlaceholder,omitempty"`
	MarkScheme             string `json:"markScheme"`
	CharsPerMarkForAttempt int    `json:"charsPerMarkForAttempt,omitempty"`
	MinLengthForAttempt    int    `json:"minLengthForAttempt,omitempty"`
}

type VideoEntry struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	EmbedURL         string `json:"embedUrl"`
	NotesPlaceholder string `json:"notesPlaceholder,omitempty"`
}

type WhatsNextLink struct {
	Text          string `json:"text"`
	URL           string `json:"url,omitempty"`
	SpecReference string `json:"specReference,omitempty"`
}

type ExtensionActivity struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Placeholder string `json:"placeholder,omitempty"`
}

type StaticText struct {
	Content string `json:"content"`
}

type StarterActivity struct {
	IntroText string            `json:"introText,omitempty"`
	Questions []StarterQuestion `json:"questions"`
}

type LessonOutcomes struct {
	Outcomes []string `json:"outcomes"`
}

type DiagramLabelDragDrop struct {
	IntroText       string           `json:"introText"`
	DiagramImageKey string           `json:"diagramImageKey,omitempty"` // blob store key
	DropZones       []DropZone       `json:"dropZones"`
	Labels          []DraggableLabel `json:"labels"`
}

type MatchingTask struct {
	IntroText             string             `json:"introText"`
	MatchItemsTitle       string             `json:"matchItemsTitle"`
	DescriptionItemsTitle string             `json:"descriptionItemsTitle"`
	Items                 []MatchItem        `json:"items"`
	Descriptions          []MatchDescription `json:"descriptions"`
}

type OrderSequence struct {
	IntroText    string         `json:"introText,omitempty"`
	Steps        []SequenceStep `json:"steps"`        // presented shuffled by the player
	CorrectOrder []string       `json:"correctOrder"` // step ids in solution order
}

type RegisterExplorer struct {
	IntroText string         `json:"introText"`
	Registers []RegisterInfo `json:"registers"`
}

type BusSimulation struct {
	IntroText string `json:"introText"`
}

type ScenarioQuestion struct {
	IntroText string     `json:"introText"`
	Scenarios []Scenario `json:"scenarios"`
}

type FillTheBlanks struct {
	IntroText string              `json:"introText"`
	Sentences []FillBlankSentence `json:"sentences"`
}

type MultipleChoiceQuiz struct {
	Questions []QuizQuestion `json:"questions"`
}

type ExamQuestions struct {
	IntroText string         `json:"introText,omitempty"`
	Questions []ExamQuestion `json:"questions"`
}

type VideoPlaceholder struct {
	IntroText string       `json:"introText,omitempty"`
	Videos    []VideoEntry `json:"videos"`
}

type WhatsNext struct {
	Description string          `json:"description"`
	Links       []WhatsNextLink `json:"links"`
}

type ExtensionActivities struct {
	IntroText  string              `json:"introText,omitempty"`
	Activities []ExtensionActivity `json:"activities"`
}

func (StaticText) sectionBody()           {}
func (StarterActivity) sectionBody()      {}
func (LessonOutcomes) sectionBody()       {}
func (DiagramLabelDragDrop) sectionBody() {}
func (MatchingTask) sectionBody()         {}
func (OrderSequence) sectionBody()        {}
func (RegisterExplorer) sectionBody()     {}
func (BusSimulation) sectionBody()        {}
func (ScenarioQuestion) sectionBody()     {}
func (FillTheBlanks) sectionBody()        {}
func (MultipleChoiceQuiz) sectionBody()   {}
func (ExamQuestions) sectionBody()        {}
func (VideoPlaceholder) sectionBody()     {}
func (WhatsNext) sectionBody()            {}
func (ExtensionActivities) sectionBody()  {}

func newBody(t SectionType) (Body, error) {
	switch t {
	case TypeStaticText, TypeKeyTakeaways:
		return &StaticText{}, nil
	case TypeStarterActivity:
		return &StarterActivity{}, nil
	case TypeLessonOutcomes:
		return &LessonOutcomes{}, nil
	case TypeDiagramLabelDragDrop:
		return &DiagramLabelDragDrop{}, nil
	case TypeMatchingTask:
		return &MatchingTask{}, nil
	case TypeOrderSequence:
		return &OrderSequence{}, nil
	case TypeRegisterExplorer:
		return &RegisterExplorer{}, nil
	case TypeBusSimulation:
		return &BusSimulation{}, nil
	case TypeScenarioQuestion:
		return &ScenarioQuestion{}, nil
	case TypeFillTheBlanks:
		return &FillTheBlanks{}, nil
	case TypeMultipleChoiceQuiz:
		return &MultipleChoiceQuiz{}, nil
	case TypeExamQuestions:
		return &ExamQuestions{}, nil
	case TypeVideoPlaceholder:
		return &VideoPlaceholder{}, nil
	case TypeWhatsNext:
		return &WhatsNext{}, nil
	case TypeExtensionActivities:
		return &ExtensionActivities{}, nil
	default:
		return nil, fmt.Errorf("unknown section type: %s", t)
	}
}

func (s *Section) UnmarshalJSON(data []byte) error {
	type envelope struct {
		ID                  string      `json:"id"`
		Title               string      `json:"title"`
		Type                SectionType `json:"type"`
		IsActivity          bool        `json:"isActivity"`
		RequiresReadConfirm bool        `json:"requiresReadConfirmation"`
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	body, err := newBody(env.Type)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, body); err != nil {
		return err
	}
	s.ID = env.ID
	s.Title = env.Title
	s.Type = env.Type
	s.IsActivity = env.IsActivity
	s.RequiresReadConfirm = env.RequiresReadConfirm
	s.Body = body
	return nil
}

func (s Section) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if s.Body != nil {
		raw, err := json.Marshal(s.Body)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
	}
	m["id"] = s.ID
	m["title"] = s.Title
	m["type"] = s.Type
	m["isActivity"] = s.IsActivity
	if s.RequiresReadConfirm {
		m["requiresReadConfirmation"] = true
	}
	return json.Marshal(m)
}

// ItemIDs lists the answerable child ids of a section, in authored order.
// Passive sections without note fields have none.
func (s Section) ItemIDs() []string {
	var ids []string
	switch b := s.Body.(type) {
	case *StarterActivity:
		for _, q := range b.Questions {
			ids = append(ids, q.ID)
		}
	case *DiagramLabelDragDrop:
		for _, z := range b.DropZones {
			ids = append(ids, z.ID)
		}
	case *MatchingTask:
		for _, it := range b.Items {
			ids = append(ids, it.ID)
		}
	case *OrderSequence:
		// the arrangement itself is the one answerable item, addressed
		// by the section id
		if len(b.Steps) > 0 {
			ids = append(ids, s.ID)
		}
	case *RegisterExplorer:
		for _, r := range b.Registers {
			ids = append(ids, r.ID)
		}
	case *ScenarioQuestion:
		for _, sc := range b.Scenarios {
			ids = append(ids, sc.ID)
		}
	case *FillTheBlanks:
		for _, sen := range b.Sentences {
			ids = append(ids, sen.ID)
		}
	case *MultipleChoiceQuiz:
		for _, q := range b.Questions {
			ids = append(ids, q.ID)
		}
	case *ExamQuestions:
		for _, q := range b.Questions {
			ids = append(ids, q.ID)
		}
	case *VideoPlaceholder:
		for _, v := range b.Videos {
			ids = append(ids, v.ID)
		}
	case *ExtensionActivities:
		for _, a := range b.Activities {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

type Keyword struct {
	Definition string `json:"definition"`
	Link       string `json:"link,omitempty"`
}

type Worksheet struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Course    string             `json:"course"`
	Unit      string             `json:"unit"`
	Sections  []Section          `json:"sections"`
	Keywords  map[string]Keyword `json:"keywordsData,omitempty"`
	CreatedBy string             `json:"createdBy,omitempty"`
}

// SectionByID returns nil when the id is unknown.
func (w *Worksheet) SectionByID(id string) *Section {
	for i := range w.Sections {
		if w.Sections[i].ID == id {
			return &w.Sections[i]
		}
	}
	return nil
}

// Assignment links a worksheet to a class. Title and class name are
// denormalized for list views.
type Assignment struct {
	ID             string `json:"id"`
	ClassID        string `json:"classId"`
	WorksheetID    string `json:"worksheetId"`
	WorksheetTitle string `json:"worksheetTitle"`
	ClassName      string `json:"className"`
	TeacherID      string `json:"teacherId"`
	AssignedAt     int64  `json:"assignedAt"`
}

// SchoolClass is a teacher-owned roster.
type SchoolClass struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	TeacherID  string   `json:"teacherId"`
	StudentIDs []string `json:"studentIds"`
	CreatedAt  int64    `json:"createdAt"`
}
