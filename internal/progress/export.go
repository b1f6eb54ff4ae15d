package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"
)

type exportMetrics struct {
	TotalQuestions   int            `json:"total_questions"`
	TotalTimeSpent   float64        `json:"total_time_spent"`
	FavoriteSubjects []SubjectCount `json:"favorite_subjects"`
}

type exportDocument struct {
	Sessions           []Session           `json:"sessions"`
	QuestionsBySubject map[string]int      `json:"questions_by_subject"`
	QuestionsByGrade   map[string]int      `json:"questions_by_grade"`
	TopicCoverage      map[string][]string `json:"topic_coverage"`
	PerformanceMetrics exportMetrics       `json:"performance_metrics"`
}

func (l *Ledger) document() exportDocument {
	c := New()
	if l.Sessions != nil {
		c.Sessions = l.Sessions
	}
	for k, v := range l.QuestionsBySubject {
		c.QuestionsBySubject[k] = v
	}
	for k, v := range l.QuestionsByGrade {
		c.QuestionsByGrade[k] = v
	}
	for k, v := range l.TopicCoverage {
		c.TopicCoverage[k] = v
	}
	if l.FavoriteSubjects != nil {
		c.FavoriteSubjects = l.FavoriteSubjects
	}
	return exportDocument{
		Sessions:           c.Sessions,
		QuestionsBySubject: c.QuestionsBySubject,
		QuestionsByGrade:   c.QuestionsByGrade,
		TopicCoverage:      c.TopicCoverage,
		PerformanceMetrics: exportMetrics{
			TotalQuestions:   l.TotalQuestions,
			TotalTimeSpent:   l.TotalTimeSpent,
			FavoriteSubjects: c.FavoriteSubjects,
		},
	}
}

// ExportJSON writes the ledger as indented JSON. Completed sessions only;
// sets are written as sorted lists.
func (l *Ledger) ExportJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l.document()); err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	return nil
}

// Sheet names in the XLSX export.
const (
	SheetSummary  = "Summary"
	SheetSubjects = "Subjects"
	SheetSessions = "Sessions"
)

// ExportXLSX writes the ledger as a workbook with summary, per-subject
// and per-session sheets.
func (l *Ledger) ExportXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSubjects, SheetSessions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	sum := l.Summary()
	summaryRows := [][]any{
		{"Metric", "Value"},
		{"Total questions", sum.TotalQuestions},
		{"Time spent (minutes)", sum.TotalTimeSpent},
		{"Subjects explored", sum.SubjectsExplored},
		{"Sessions", sum.SessionsCount},
		{"Consistency score", sum.ConsistencyScore},
		{"Diversity score", sum.DiversityScore},
		{"Overall score", sum.OverallScore},
	}
	if err := writeRows(f, SheetSummary, summaryRows); err != nil {
		return err
	}

	subjects := make([]string, 0, len(l.QuestionsBySubject))
	for s := range l.QuestionsBySubject {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	subjectRows := [][]any{{"Subject", "Questions", "Topics covered"}}
	for _, s := range subjects {
		subjectRows = append(subjectRows, []any{s, l.QuestionsBySubject[s], len(l.TopicCoverage[s])})
	}
	if err := writeRows(f, SheetSubjects, subjectRows); err != nil {
		return err
	}

	sessionRows := [][]any{{"Start", "End", "Minutes", "Questions", "Subjects", "Grade", "Language"}}
	for _, s := range l.Sessions {
		end := ""
		if s.EndTime != nil {
			end = s.EndTime.Format("2006-01-02 15:04:05")
		}
		sessionRows = append(sessionRows, []any{
			s.StartTime.Format("2006-01-02 15:04:05"),
			end,
			s.Minutes(),
			s.QuestionsAsked,
			len(s.SubjectsCovered),
			s.Grade,
			s.Language,
		})
	}
	if err := writeRows(f, SheetSessions, sessionRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
