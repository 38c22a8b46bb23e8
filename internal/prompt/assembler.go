// Package prompt renders activity data into the text handed to the LLM
// provider. Two protections apply: data only ever enters a parsed template as a
// value, so a field can never reach the rendering engine's internals; and
// directive-like syntax inside free text is escaped to render as literal text.
// This is the single place where presentation-escaping happens; secret
// stripping was already done upstream by the normalizer.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"example.com/worklog/internal/domain"
)

const promptTemplate = `You are organizing a software professional's work journal entry.
Use only the activities and facts below. Do not invent events, people, or numbers.

Known context:
- Date range: {{.Known.Start}} to {{.Known.End}}
- Total activities: {{.Known.TotalActivities}}
- Collaborators: {{.Known.Collaborators}}
- Code changes: +{{.Known.CodeAdditions}}/-{{.Known.CodeDeletions}} across {{.Known.FilesChanged}} files
- Meetings: {{.Known.MeetingCount}}

Activities (most relevant first):
{{range .Activities}}{{.Rank}}. [{{.Source}}/{{.Subtype}}] {{.Title}}{{if .Body}}
   {{.Body}}{{end}}
{{end}}
Detected relationships:
{{range .Correlations}}- {{.Description}} (confidence {{.Confidence}})
{{end}}
Write a first-person narrative of this period's work, then exactly {{.QuestionCount}} short follow-up questions that would help the author reflect. Label the questions "Q1:", "Q2:", and so on, each on its own line.`

type activityView struct {
	Rank    int
	Source  string
	Subtype string
	Title   string
	Body    string
}

type correlationView struct {
	Description string
	Confidence  string
}

type knownView struct {
	Start, End      string
	TotalActivities int
	Collaborators   string
	CodeAdditions   int
	CodeDeletions   int
	FilesChanged    int
	MeetingCount    int
}

type promptData struct {
	Known         knownView
	Activities    []activityView
	Correlations  []correlationView
	QuestionCount int
}

// Assembler renders the organization prompt.
type Assembler struct {
	tmpl *template.Template
}

// New parses the prompt template once.
func New() (*Assembler, error) {
	tmpl, err := template.New("organize").Option("missingkey=error").Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Assembler{tmpl: tmpl}, nil
}

// Build renders the prompt. An individual field that cannot be made safe is
// dropped from that field only; the render itself never aborts over data
// content.
func (a *Assembler) Build(known domain.KnownContext, activities []domain.RankedActivity, correlations []domain.Correlation, questionCount int) (string, error) {
	data := promptData{
		Known: knownView{
			Start:           known.DateRange.Start.Format("2006-01-02"),
			End:             known.DateRange.End.Format("2006-01-02"),
			TotalActivities: known.TotalActivities,
			Collaborators:   SanitizeField(strings.Join(known.Collaborators, ", ")),
			CodeAdditions:   known.CodeAdditions,
			CodeDeletions:   known.CodeDeletions,
			FilesChanged:    known.FilesChanged,
			MeetingCount:    known.MeetingCount,
		},
		QuestionCount: questionCount,
	}

	for _, activity := range activities {
		data.Activities = append(data.Activities, activityView{
			Rank:    activity.Rank,
			Source:  string(activity.Source),
			Subtype: SanitizeField(activity.SourceSubtype),
			Title:   SanitizeField(activity.Title),
			Body:    SanitizeField(activity.Body),
		})
	}
	for _, corr := range correlations {
		data.Correlations = append(data.Correlations, correlationView{
			Description: SanitizeField(corr.Description),
			Confidence:  fmt.Sprintf("%.2f", corr.Confidence),
		})
	}

	var out strings.Builder
	if err := a.tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return out.String(), nil
}
