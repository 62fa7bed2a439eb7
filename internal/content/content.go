// Package content loads lessons and mock exams from YAML or JSON documents
// and validates them before anything is served.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/elecmate/studyquiz/internal/quiz"
)

//go:embed data
var embedded embed.FS

// Embedded returns the content set compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	KindLesson = "lesson"
	KindExam   = "exam"
)

type SEO struct {
	Title       string `json:"title" yaml:"title" validate:"required"`
	Description string `json:"description" yaml:"description"`
}

type Block struct {
	Heading    string   `json:"heading" yaml:"heading" validate:"required"`
	Paragraphs []string `json:"paragraphs,omitempty" yaml:"paragraphs"`
	Points     []string `json:"points,omitempty" yaml:"points"`
}

type FAQ struct {
	Question string `json:"question" yaml:"question" validate:"required"`
	Answer   string `json:"answer" yaml:"answer" validate:"required"`
}

// Link points at a neighbouring page. It is carried as data and never resolved.
type Link struct {
	Slug  string `json:"slug" yaml:"slug" validate:"required"`
	Title string `json:"title" yaml:"title"`
}

type QuizSet struct {
	Title     string          `json:"title" yaml:"title"`
	Questions []quiz.Question `json:"questions" yaml:"questions" validate:"required,min=1,dive"`
}

type Lesson struct {
	Slug         string          `json:"slug" yaml:"slug" validate:"required,slug"`
	Course       string          `json:"course" yaml:"course" validate:"required"`
	Module       int             `json:"module" yaml:"module" validate:"gte=0"`
	Section      int             `json:"section" yaml:"section" validate:"gte=0"`
	Title        string          `json:"title" yaml:"title" validate:"required"`
	SEO          SEO             `json:"seo" yaml:"seo"`
	Outcomes     []string        `json:"outcomes,omitempty" yaml:"outcomes"`
	Body         []Block         `json:"body,omitempty" yaml:"body" validate:"dive"`
	InlineChecks []quiz.Question `json:"inlineChecks,omitempty" yaml:"inlineChecks" validate:"dive"`
	FAQs         []FAQ           `json:"faqs,omitempty" yaml:"faqs" validate:"dive"`
	Quiz         QuizSet         `json:"quiz" yaml:"quiz"`
	Prev         *Link           `json:"prev,omitempty" yaml:"prev"`
	Next         *Link           `json:"next,omitempty" yaml:"next"`
}

// InlineCheck returns the inline check with the given ID.
func (l *Lesson) InlineCheck(id string) (quiz.Question, bool) {
	for _, q := range l.InlineChecks {
		if q.ID == id {
			return q, true
		}
	}
	return quiz.Question{}, false
}

const (
	StrategyBalanced   = "balanced"
	StrategyDifficulty = "difficulty"
)

type Selection struct {
	Strategy string       `json:"strategy" yaml:"strategy" validate:"omitempty,oneof=balanced difficulty"`
	Weights  quiz.Weights `json:"weights" yaml:"weights"`
}

type MockExam struct {
	ID             string          `json:"id" yaml:"id" validate:"required,slug"`
	Title          string          `json:"title" yaml:"title" validate:"required"`
	TotalQuestions int             `json:"totalQuestions" yaml:"totalQuestions" validate:"gt=0"`
	TimeLimit      time.Duration   `json:"timeLimit" yaml:"timeLimit" validate:"gte=0"`
	PassThreshold  int             `json:"passThreshold" yaml:"passThreshold" validate:"gte=0,lte=100"`
	ExitPath       string          `json:"exitPath" yaml:"exitPath"`
	Categories     []string        `json:"categories" yaml:"categories" validate:"unique"`
	Selection      Selection       `json:"selection" yaml:"selection"`
	Bank           []quiz.Question `json:"bank" yaml:"bank" validate:"required,min=1,dive"`
}

// Catalog is an immutable set of lessons and exams.
type Catalog struct {
	lessons map[string]*Lesson
	exams   map[string]*MockExam
	order   []string
	examIDs []string
}

func (c *Catalog) Lessons() []*Lesson {
	out := make([]*Lesson, 0, len(c.order))
	for _, slug := range c.order {
		out = append(out, c.lessons[slug])
	}
	return out
}

func (c *Catalog) Lesson(slug string) (*Lesson, bool) {
	l, ok := c.lessons[slug]
	return l, ok
}

func (c *Catalog) Exams() []*MockExam {
	out := make([]*MockExam, 0, len(c.examIDs))
	for _, id := range c.examIDs {
		out = append(out, c.exams[id])
	}
	return out
}

func (c *Catalog) Exam(id string) (*MockExam, bool) {
	e, ok := c.exams[id]
	return e, ok
}

// Questions counts every question in the catalog.
func (c *Catalog) Questions() int {
	n := 0
	for _, l := range c.lessons {
		n += len(l.InlineChecks) + len(l.Quiz.Questions)
	}
	for _, e := range c.exams {
		n += len(e.Bank)
	}
	return n
}

// Problem is one validation failure in one content file.
type Problem struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

func (p Problem) String() string { return p.File + ": " + p.Message }

// ValidationError lists every problem found while loading content.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid content: " + e.Problems[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid content: %d problems", len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  ")
		b.WriteString(p.String())
	}
	return b.String()
}

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	return v
}

type header struct {
	Kind string `yaml:"kind"`
}

// Load reads every .yaml, .yml and .json file in fsys. It returns a
// *ValidationError listing all problems when any file is invalid.
func Load(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{
		lessons: make(map[string]*Lesson),
		exams:   make(map[string]*MockExam),
	}
	v := newValidator()
	var problems []Problem
	report := func(file string, err error) {
		for _, msg := range flatten(err) {
			problems = append(problems, Problem{File: file, Message: msg})
		}
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(path.Ext(p)) {
		case ".yaml", ".yml", ".json":
		default:
			return nil
		}

		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}

		// JSON is a subset of YAML, so one decoder covers both formats.
		var h header
		if err := yaml.Unmarshal(raw, &h); err != nil {
			report(p, fmt.Errorf("decoding: %w", err))
			return nil
		}

		switch h.Kind {
		case KindLesson:
			var doc lessonDoc
			if err := decodeStrict(raw, &doc); err != nil {
				report(p, err)
				return nil
			}
			l := doc.Lesson
			if err := validateLesson(v, &l); err != nil {
				report(p, err)
				return nil
			}
			if _, dup := c.lessons[l.Slug]; dup {
				report(p, fmt.Errorf("duplicate lesson slug %q", l.Slug))
				return nil
			}
			c.lessons[l.Slug] = &l
			c.order = append(c.order, l.Slug)
		case KindExam:
			var doc examDoc
			if err := decodeStrict(raw, &doc); err != nil {
				report(p, err)
				return nil
			}
			e := doc.MockExam
			if err := validateExam(v, &e); err != nil {
				report(p, err)
				return nil
			}
			if _, dup := c.exams[e.ID]; dup {
				report(p, fmt.Errorf("duplicate exam id %q", e.ID))
				return nil
			}
			c.exams[e.ID] = &e
			c.examIDs = append(c.examIDs, e.ID)
		default:
			report(p, fmt.Errorf("unknown kind %q", h.Kind))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	sort.SliceStable(c.order, func(i, j int) bool {
		a, b := c.lessons[c.order[i]], c.lessons[c.order[j]]
		if a.Course != b.Course {
			return a.Course < b.Course
		}
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		return a.Section < b.Section
	})
	slices.Sort(c.examIDs)
	return c, nil
}

// The kind discriminator sits next to the typed fields in every document.
type lessonDoc struct {
	Kind   string `yaml:"kind"`
	Lesson `yaml:",inline"`
}

type examDoc struct {
	Kind     string `yaml:"kind"`
	MockExam `yaml:",inline"`
}

// decodeStrict rejects unknown keys so typos in content fail loudly.
func decodeStrict(raw []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	return nil
}

func validateLesson(v *validator.Validate, l *Lesson) error {
	if err := v.Struct(l); err != nil {
		return err
	}
	all := append(slices.Clone(l.InlineChecks), l.Quiz.Questions...)
	return quiz.ValidateSet(all)
}

func validateExam(v *validator.Validate, e *MockExam) error {
	if err := v.Struct(e); err != nil {
		return err
	}
	if err := quiz.ValidateSet(e.Bank); err != nil {
		return err
	}
	if e.Selection.Strategy == StrategyDifficulty {
		w := e.Selection.Weights
		if w.Basic < 0 || w.Intermediate < 0 || w.Advanced < 0 || w.Basic+w.Intermediate+w.Advanced == 0 {
			return errors.New("difficulty selection needs non-negative weights with a positive total")
		}
	}
	return nil
}

// flatten turns validator and joined errors into one message per problem.
func flatten(err error) []string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msg := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			if fe.Param() != "" {
				msg += " (" + fe.Param() + ")"
			}
			out = append(out, msg)
		}
		return out
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range j.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
