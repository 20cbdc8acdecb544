package progress

import "github.com/cs-hub/cshub/internal/worksheet"

// SummaryRow reviews one section for the end-of-worksheet summary view.
type SummaryRow struct {
	SectionID      string `json:"sectionId"`
	Title          string `json:"title"`
	IsActivity     bool   `json:"isActivity"`
	Missed         bool   `json:"missed"`
	MarkedRead     bool   `json:"markedRead"`
	AttemptedItems int    `json:"attemptedItems"`
	CorrectItems   int    `json:"correctItems"`
	TotalItems     int    `json:"totalItems"`
}

type Summary struct {
	WorksheetID   string       `json:"worksheetId"`
	OverallStatus Status       `json:"overallStatus"`
	Rows          []SummaryRow `json:"rows"`
	MissedCount   int          `json:"missedCount"`
}

// Summarize iterates all sections and flags as missed every activity that
// was neither attempted nor completed, and every read-required section not
// yet confirmed.
func Summarize(ws worksheet.Worksheet, st State) Summary {
	out := Summary{WorksheetID: ws.ID, OverallStatus: st.OverallStatus}
	for _, sec := range ws.Sections {
		ss := st.SectionStates[sec.ID]
		row := SummaryRow{
			SectionID:  sec.ID,
			Title:      sec.Title,
			IsActivity: sec.IsActivity,
			MarkedRead: ss.IsCompleted,
			TotalItems: len(sec.ItemIDs()),
		}
		for _, a := range ss.Answers {
			if a.IsAttempted {
				row.AttemptedItems++
			}
			if a.IsCorrect != nil && *a.IsCorrect {
				row.CorrectItems++
			}
		}
		if sec.IsActivity && !ss.IsAttempted && !ss.IsCompleted {
			row.Missed = true
		}
		if sec.RequiresReadConfirm && !ss.IsCompleted {
			row.Missed = true
		}
		if row.Missed {
			out.MissedCount++
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
