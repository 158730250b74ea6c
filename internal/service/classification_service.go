package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"practiceplanner/internal/calendar"
	"practiceplanner/internal/db"
)

const UnknownProject = "unknown"

// Classification is a classifier's verdict for one event. Confidence is on a
// 0-100 scale.
type Classification struct {
	ProjectID   *int    `json:"project_id,omitempty"`
	ProjectName string  `json:"project_name"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason,omitempty"`
}

// Classifier labels an event with one of the given projects or
// UnknownProject. Implementations may leave ProjectID nil and only name the
// project.
type Classifier interface {
	Classify(ctx context.Context, in calendar.ClassificationInput, projects []db.Project) (Classification, error)
}

// KeywordClassifier matches project names and descriptions against the
// event text.
type KeywordClassifier struct{}

// minConfidence is the score below which a match is reported as unknown.
const minConfidence = 20

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"into": true, "about": true, "this": true, "that": true, "session": true,
}

func (KeywordClassifier) Classify(_ context.Context, in calendar.ClassificationInput, projects []db.Project) (Classification, error) {
	text := tokenSet(in.Text)
	best := Classification{ProjectName: UnknownProject, Reason: "no keyword matched"}

	for _, p := range projects {
		name := tokens(p.Name)
		nameHits := 0
		for _, t := range name {
			if text[t] {
				nameHits++
			}
		}
		descHits := 0
		seen := map[string]bool{}
		for _, t := range name {
			seen[t] = true
		}
		for _, t := range tokens(p.Description) {
			if !seen[t] && text[t] {
				descHits++
			}
			seen[t] = true
		}

		var score float64
		var reason string
		switch {
		case len(name) > 0 && nameHits == len(name):
			score = min(80+5*float64(descHits), 100)
			reason = "project name found in event"
		case nameHits > 0:
			score = min(50*float64(nameHits)/float64(len(name))+5*float64(descHits), 69)
			reason = "part of project name found in event"
		default:
			score = min(15*float64(descHits), 60)
			reason = fmt.Sprintf("%d description keywords matched", descHits)
		}
		if score > best.Confidence {
			id := p.ID
			best = Classification{ProjectID: &id, ProjectName: p.Name, Confidence: score, Reason: reason}
		}
	}

	if best.Confidence < minConfidence {
		return Classification{ProjectName: UnknownProject, Reason: best.Reason}, nil
	}
	return best, nil
}

func tokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= 3 && !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, t := range tokens(s) {
		set[t] = true
	}
	return set
}

type ClassificationService struct {
	events     EventStore
	projects   ProjectStore
	classifier Classifier
	threshold  float64
	loc        *time.Location
	log        zerolog.Logger

	Now func() time.Time
}

func NewClassificationService(events EventStore, projects ProjectStore, classifier Classifier, threshold float64, loc *time.Location, logger zerolog.Logger) *ClassificationService {
	return &ClassificationService{
		events:     events,
		projects:   projects,
		classifier: classifier,
		threshold:  threshold,
		loc:        loc,
		log:        logger.With().Str("service", "classification").Logger(),
		Now:        time.Now,
	}
}

type ClassificationResult struct {
	EventID int    `json:"event_id"`
	Summary string `json:"summary"`
	Classification
	Applied bool `json:"applied"`
}

// AutoClassify labels up to limit unclassified events. Only verdicts at or
// above the threshold are stored; the rest stay unclassified.
func (s *ClassificationService) AutoClassify(ctx context.Context, limit int) ([]ClassificationResult, error) {
	events, err := s.events.ListUnclassified(ctx, limit, true, s.Now())
	if err != nil {
		return nil, fmt.Errorf("load unclassified events: %w", err)
	}
	if len(events) == 0 {
		s.log.Debug().Msg("no unclassified events")
		return []ClassificationResult{}, nil
	}
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	if len(projects) == 0 {
		s.log.Warn().Msg("no projects defined, skipping classification")
		return []ClassificationResult{}, nil
	}

	results := make([]ClassificationResult, 0, len(events))
	for _, e := range events {
		c, err := s.classifier.Classify(ctx, classificationInput(e, s.loc), projects)
		if err != nil {
			s.log.Error().Err(err).Int("event_id", e.ID).Msg("classification failed")
			continue
		}
		if c.ProjectID == nil {
			c.ProjectID = projectIDByName(projects, c.ProjectName)
		}

		r := ClassificationResult{EventID: e.ID, Summary: e.Summary, Classification: c}
		if c.ProjectID != nil && c.Confidence >= s.threshold {
			conf := c.Confidence
			if err := s.events.SetProject(ctx, e.ID, c.ProjectID, &conf); err != nil {
				return results, fmt.Errorf("store classification for event %d: %w", e.ID, err)
			}
			r.Applied = true
			s.log.Info().
				Int("event_id", e.ID).
				Str("project", c.ProjectName).
				Float64("confidence", c.Confidence).
				Msg("event classified")
		}
		results = append(results, r)
	}
	return results, nil
}

func projectIDByName(projects []db.Project, name string) *int {
	if strings.EqualFold(name, UnknownProject) {
		return nil
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, name) {
			id := p.ID
			return &id
		}
	}
	return nil
}

// classificationInput rebuilds the provider view of a stored event.
func classificationInput(e db.Event, loc *time.Location) calendar.ClassificationInput {
	ce := calendar.Event{
		ID:          e.EventID,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		CalendarID:  e.CalendarID,
	}
	if e.StartTime != nil {
		if e.AllDay {
			ce.Start.Date = e.StartTime.In(loc).Format("2006-01-02")
		} else {
			ce.Start.DateTime = e.StartTime.Format(time.RFC3339)
		}
	}
	return calendar.NewClassificationInput(ce, loc)
}
