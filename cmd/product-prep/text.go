package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/product-prep/pkg/features"
	"github.com/menta2k/product-prep/pkg/records"
)

func newTextCmd(a *app) *cobra.Command {
	var (
		trainPath, testPath string
		maxFeatures, limit  int
		save                bool
	)

	cmd := &cobra.Command{
		Use:   "text",
		Short: "Build text features and targets from listing titles and descriptions",
		Long: `Text cleans the designation and description of every listing, lemmatizes
the tokens, detects the language and removes its stop words. The training split
fits a min-max scaler on token counts, a one-hot language encoder, a TF-IDF
vectorizer and a label encoder on prdtypecode; both splits are then transformed.`,
		Example: `  product-prep text --train X_train.csv --test X_test.csv --max-features 5000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if trainPath == "" || testPath == "" {
				return fmt.Errorf("--train and --test are required")
			}
			if cmd.Flags().Changed("max-features") {
				a.cfg.Text.MaxFeatures = maxFeatures
			}

			p, err := a.pipeline()
			if err != nil {
				return err
			}

			train, err := load(trainPath, limit)
			if err != nil {
				return err
			}
			test, err := load(testPath, limit)
			if err != nil {
				return err
			}
			slog.Info("Building text features", "train", len(train), "test", len(test), "max_features", a.cfg.Text.MaxFeatures)

			set, err := p.TextData(cmd.Context(), train, test)
			if err != nil {
				return err
			}

			trainRows, cols := set.XTrain.Shape()
			testRows, _ := set.XTest.Shape()
			terms := set.Features.Vectorizer.Terms()
			fmt.Printf("Vectorizer vocabulary contains: %d terms\n", len(terms))
			fmt.Printf("First vocabulary terms: %s\n", strings.Join(terms[:min(10, len(terms))], ", "))
			fmt.Printf("Languages: %s\n", strings.Join(set.Features.Language.Categories, ", "))
			fmt.Printf("X_train: %d x %d (%d stored)\nX_test: %d x %d (%d stored)\n",
				trainRows, cols, set.XTrain.NNZ(), testRows, cols, set.XTest.NNZ())
			fmt.Printf("y_train: %d x %d\n", len(set.YTrain), len(set.Targets.Classes))

			if save {
				return saveVocabulary(a, set)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&trainPath, "train", "", "training listings (.csv or .parquet)")
	cmd.Flags().StringVar(&testPath, "test", "", "test listings (.csv or .parquet)")
	cmd.Flags().IntVar(&maxFeatures, "max-features", features.DefaultMaxFeatures, "TF-IDF vocabulary size, 0 keeps every term")
	cmd.Flags().IntVar(&limit, "limit", 0, "read at most this many listings per file, 0 reads all")
	cmd.Flags().BoolVar(&save, "save", false, "write the vocabulary and classes into the output directory")

	return cmd
}

func load(path string, limit int) ([]records.Record, error) {
	loader := records.NewLoader(path)
	if limit > 0 {
		return loader.LoadSample(limit)
	}
	return loader.Load()
}

// saveVocabulary writes one term per line, then the target classes
func saveVocabulary(a *app, set *features.TextSet) error {
	vocabPath, err := a.artifact("vocabulary", "txt")
	if err != nil {
		return err
	}
	if err := os.WriteFile(vocabPath, []byte(strings.Join(set.Features.Vectorizer.Terms(), "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write vocabulary: %w", err)
	}

	classesPath, err := a.artifact("classes", "txt")
	if err != nil {
		return err
	}
	classes := make([]string, len(set.Targets.Classes))
	for i, c := range set.Targets.Classes {
		classes[i] = fmt.Sprint(c)
	}
	if err := os.WriteFile(classesPath, []byte(strings.Join(classes, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write classes: %w", err)
	}

	logArtifact("Saved vocabulary", vocabPath)
	logArtifact("Saved classes", classesPath)
	return nil
}
