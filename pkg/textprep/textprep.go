// Package textprep turns product listing text into lemma lists annotated
// with language and token count.
package textprep

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config holds preprocessing settings. Nil collaborators are replaced by the
// defaults: golem English lemmas, whatlanggo detection and the embedded stop
// word lists.
type Config struct {
	// MinConfidence below which detection is re-run on CorrectionLanguages
	MinConfidence       float64
	CorrectionLanguages []string
	// SkipLemmas leaves tokens unlemmatized
	SkipLemmas bool
	Workers    int

	Lemmatizer Lemmatizer
	Detector   LanguageDetector
	StopWords  StopWords
	Logger     *slog.Logger
}

// DefaultConfig returns the settings used by New
func DefaultConfig() Config {
	return Config{
		MinConfidence:       0.5,
		CorrectionLanguages: []string{"fr", "en"},
		Workers:             runtime.NumCPU(),
	}
}

// Input is the raw text of one listing
type Input struct {
	Designation string
	Description string
}

// Document is a preprocessed listing
type Document struct {
	// Text is the cleaned, lowercased designation and description
	Text     string
	Lemmas   []string
	Language string
	// Confidence of the language detection, zero when undetermined
	Confidence float64
	TokenLen   int
}

// Preprocessor runs the text cleaning chain
type Preprocessor struct {
	config     Config
	lemmatizer Lemmatizer
	detector   LanguageDetector
	stopWords  StopWords
	logger     *slog.Logger
}

// New creates a preprocessor with default settings
func New() (*Preprocessor, error) {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a preprocessor with custom configuration
func NewWithConfig(config Config) (*Preprocessor, error) {
	if config.MinConfidence < 0 || config.MinConfidence > 1 {
		return nil, fmt.Errorf("min confidence must be within [0, 1], got %g", config.MinConfidence)
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	p := &Preprocessor{
		config:     config,
		lemmatizer: config.Lemmatizer,
		detector:   config.Detector,
		stopWords:  config.StopWords,
		logger:     config.Logger,
	}
	switch {
	case config.SkipLemmas:
		p.lemmatizer = identity{}
	case p.lemmatizer == nil:
		l, err := NewEnglishLemmatizer()
		if err != nil {
			return nil, err
		}
		p.lemmatizer = l
	}
	if p.detector == nil {
		p.detector = NewWhatlangDetector()
	}
	if p.stopWords == nil {
		p.stopWords = DefaultStopWords()
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p, nil
}

// ProcessOne preprocesses a single listing
func (p *Preprocessor) ProcessOne(in Input) Document {
	text := Clean(Concat(in.Designation, in.Description))
	lemmas := Unique(Lemmatize(p.lemmatizer, Tokenize(text)))
	det := detectLanguage(p.detector, text, p.config.MinConfidence, p.config.CorrectionLanguages)
	lemmas = RemoveStopWords(p.stopWords, det.Language, lemmas)

	return Document{
		Text:       text,
		Lemmas:     lemmas,
		Language:   det.Language,
		Confidence: det.Confidence,
		TokenLen:   len(lemmas),
	}
}

// Process preprocesses inputs in parallel. Documents keep the input order.
func (p *Preprocessor) Process(ctx context.Context, inputs []Input) ([]Document, error) {
	docs := make([]Document, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for i := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs[i] = p.ProcessOne(inputs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("preprocess text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("preprocess text: %w", err)
	}

	p.logger.Info("Preprocessed text", "documents", len(docs))
	return docs, nil
}
