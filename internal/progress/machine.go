package progress

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cs-hub/cshub/internal/grading"
	"github.com/cs-hub/cshub/internal/worksheet"
)

var (
	ErrUnknownSection = errors.New("unknown section")
	ErrUnknownItem    = errors.New("unknown item")
	ErrKindMismatch   = errors.New("answer kind does not match section type")
	ErrNotPassive     = errors.New("read confirmation applies to passive sections only")
	ErrReadRequired   = errors.New("confirm you have read this section before moving on")
)

// Machine owns the progress state transitions for the sectioned worksheet
// player. All operations return a new State; the input is never mutated.
type Machine struct {
	grader *grading.Grader
}

func NewMachine() *Machine {
	return &Machine{grader: grading.NewGrader()}
}

// Initialize builds a fresh zeroed state, or backfills an existing record
// with entries for sections the worksheet gained after the student started.
func (m *Machine) Initialize(ws worksheet.Worksheet, existing *State, studentID string) State {
	if existing == nil {
		st := State{
			WorksheetID:         ws.ID,
			StudentID:           studentID,
			CurrentSectionIndex: 0,
			SectionStates:       map[string]SectionState{},
			OverallStatus:       StatusNotStarted,
			LastUpdated:         time.Now(),
		}
		for _, sec := range ws.Sections {
			st.SectionStates[sec.ID] = SectionState{Answers: EmptyAnswersFor(sec)}
		}
		return st
	}
	st := clone(*existing)
	for _, sec := range ws.Sections {
		ss, ok := st.SectionStates[sec.ID]
		if !ok {
			st.SectionStates[sec.ID] = SectionState{Answers: EmptyAnswersFor(sec)}
			continue
		}
		if ss.Answers == nil {
			ss.Answers = EmptyAnswersFor(sec)
			st.SectionStates[sec.ID] = ss
		}
	}
	return st
}

// ApplyAnswerChange merges one item's answer, recomputes the section's
// attempted flag as the OR over its items, and promotes the overall status
// out of not-started on the first attempt. Gradable items get IsCorrect set
// from the answer key; an incorrect matching pair keeps the attempt but has
// its pairing cleared.
func (m *Machine) ApplyAnswerChange(ws worksheet.Worksheet, st State, sectionID, itemID string, value AnswerValue) (State, error) {
	sec := ws.SectionByID(sectionID)
	if sec == nil {
		return State{}, fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	if !containsItem(sec.ItemIDs(), itemID) {
		return State{}, fmt.Errorf("%w: %s/%s", ErrUnknownItem, sectionID, itemID)
	}
	if value.Kind != KindFor(sec.Type) {
		return State{}, fmt.Errorf("%w: got %s for %s", ErrKindMismatch, value.Kind, sec.Type)
	}

	out := clone(st)
	ss := out.SectionStates[sectionID]
	if ss.Answers == nil {
		ss.Answers = EmptyAnswersFor(*sec)
	}

	att := TaskAttempt{Value: value, IsAttempted: attempted(*sec, itemID, value)}
	if res := m.grader.Grade(*sec, itemID, toResponse(value)); res.Graded {
		correct := res.Correct
		att.IsCorrect = &correct
		if res.AutoClear {
			att.Value = EmptyValueFor(sec.Type)
		}
	}
	ss.Answers[itemID] = att

	ss.IsAttempted = false
	for _, a := range ss.Answers {
		if a.IsAttempted {
			ss.IsAttempted = true
			break
		}
	}
	out.SectionStates[sectionID] = ss

	if out.OverallStatus == StatusNotStarted && ss.IsAttempted {
		out.OverallStatus = StatusInProgress
	}
	out.LastUpdated = time.Now()
	return out, nil
}

// ToggleSectionRead sets the read-confirmation checkbox of a passive
// section.
func (m *Machine) ToggleSectionRead(ws worksheet.Worksheet, st State, sectionID string, done bool) (State, error) {
	sec := ws.SectionByID(sectionID)
	if sec == nil {
		return State{}, fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	if sec.IsActivity {
		return State{}, fmt.Errorf("%w: %s", ErrNotPassive, sectionID)
	}
	out := clone(st)
	ss := out.SectionStates[sectionID]
	ss.IsCompleted = done
	out.SectionStates[sectionID] = ss
	out.LastUpdated = time.Now()
	return out, nil
}

// ResetItem restores a single item to its empty answer.
func (m *Machine) ResetItem(ws worksheet.Worksheet, st State, sectionID, itemID string) (State, error) {
	sec := ws.SectionByID(sectionID)
	if sec == nil {
		return State{}, fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	if !containsItem(sec.ItemIDs(), itemID) {
		return State{}, fmt.Errorf("%w: %s/%s", ErrUnknownItem, sectionID, itemID)
	}
	out := clone(st)
	ss := out.SectionStates[sectionID]
	if ss.Answers == nil {
		ss.Answers = EmptyAnswersFor(*sec)
	}
	ss.Answers[itemID] = TaskAttempt{Value: EmptyValueFor(sec.Type)}
	ss.IsAttempted = false
	for _, a := range ss.Answers {
		if a.IsAttempted {
			ss.IsAttempted = true
			break
		}
	}
	out.SectionStates[sectionID] = ss
	out.LastUpdated = time.Now()
	return out, nil
}

// ResetSection restores a section's answers to the freshly-initialized
// shape. The read-confirmation flag is left alone.
func (m *Machine) ResetSection(ws worksheet.Worksheet, st State, sectionID string) (State, error) {
	sec := ws.SectionByID(sectionID)
	if sec == nil {
		return State{}, fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	out := clone(st)
	ss := out.SectionStates[sectionID]
	ss.Answers = EmptyAnswersFor(*sec)
	ss.IsAttempted = false
	out.SectionStates[sectionID] = ss
	out.LastUpdated = time.Now()
	return out, nil
}

// ResetAll rebuilds the whole record as if the student had never opened
// the worksheet.
func (m *Machine) ResetAll(ws worksheet.Worksheet, st State) State {
	return m.Initialize(ws, nil, st.StudentID)
}

// Advance moves the current-section pointer by dir (+1 or -1). Forward
// movement off a read-required section is blocked until it is confirmed.
// Stepping past the last section completes the worksheet; the index parks
// at len(sections), the summary position.
func (m *Machine) Advance(ws worksheet.Worksheet, st State, dir int) (State, error) {
	out := clone(st)
	switch {
	case dir < 0:
		if out.CurrentSectionIndex > 0 {
			out.CurrentSectionIndex--
		}
	default:
		if out.CurrentSectionIndex >= len(ws.Sections) {
			return out, nil
		}
		cur := ws.Sections[out.CurrentSectionIndex]
		if cur.RequiresReadConfirm && !out.SectionStates[cur.ID].IsCompleted {
			return State{}, ErrReadRequired
		}
		out.CurrentSectionIndex++
		if out.CurrentSectionIndex >= len(ws.Sections) {
			out.OverallStatus = StatusCompleted
		}
	}
	out.LastUpdated = time.Now()
	return out, nil
}

// --- helpers ---

func clone(st State) State {
	out := st
	out.SectionStates = make(map[string]SectionState, len(st.SectionStates))
	for id, ss := range st.SectionStates {
		cp := ss
		if ss.Answers != nil {
			cp.Answers = make(map[string]TaskAttempt, len(ss.Answers))
			for k, v := range ss.Answers {
				cp.Answers[k] = v
			}
		}
		out.SectionStates[id] = cp
	}
	return out
}

func containsItem(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// attempted applies the per-shape minimal-effort threshold: text needs its
// section's minimum length (default: non-blank), selections and pairings
// need a non-empty choice, placements need at least one label.
func attempted(sec worksheet.Section, itemID string, v AnswerValue) bool {
	switch v.Kind {
	case KindText:
		if min := minLengthFor(sec, itemID); min > 0 {
			return len(v.Text) >= min
		}
		return strings.TrimSpace(v.Text) != ""
	case KindExam:
		if v.Exam == nil {
			return false
		}
		if min := minLengthFor(sec, itemID); min > 0 {
			return len(v.Exam.AnswerText) >= min
		}
		return strings.TrimSpace(v.Exam.AnswerText) != ""
	case KindSelection:
		return v.Selection != nil && v.Selection.SelectedAnswer != ""
	case KindScenario:
		return v.Scenario != nil && v.Scenario.SelectedValue != ""
	case KindPlacement:
		return v.Placement != nil && len(v.Placement.PlacedLabelIDs) > 0
	case KindPairing:
		return v.Pairing != nil && v.Pairing.DescriptionID != ""
	case KindOrderedList:
		return v.OrderedList != nil && len(v.OrderedList.OrderedIDs) > 0
	default:
		return false
	}
}

func minLengthFor(sec worksheet.Section, itemID string) int {
	switch b := sec.Body.(type) {
	case *worksheet.StarterActivity:
		for _, q := range b.Questions {
			if q.ID == itemID {
				return q.MinLengthForAttempt
			}
		}
	case *worksheet.ExamQuestions:
		for _, q := range b.Questions {
			if q.ID == itemID {
				if q.MinLengthForAttempt > 0 {
					return q.MinLengthForAttempt
				}
				return q.CharsPerMarkForAttempt * q.Marks
			}
		}
	}
	return 0
}

func toResponse(v AnswerValue) grading.Response {
	var r grading.Response
	switch v.Kind {
	case KindText:
		r.Text = v.Text
	case KindSelection:
		if v.Selection != nil {
			r.Selected = v.Selection.SelectedAnswer
		}
	case KindScenario:
		if v.Scenario != nil {
			r.Selected = v.Scenario.SelectedValue
		}
	case KindPlacement:
		if v.Placement != nil {
			r.PlacedLabelIDs = v.Placement.PlacedLabelIDs
		}
	case KindPairing:
		if v.Pairing != nil {
			r.DescriptionID = v.Pairing.DescriptionID
		}
	case KindOrderedList:
		if v.OrderedList != nil {
			r.OrderedIDs = v.OrderedList.OrderedIDs
		}
	}
	return r
}
