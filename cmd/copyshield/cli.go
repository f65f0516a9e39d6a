package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/copyshield/copyshield"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadFingerprint(path string) (*copyshield.ContentFingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var fp copyshield.ContentFingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("parse fingerprint %s: %w", path, err)
	}
	return &fp, nil
}

func loadContext(path string) (copyshield.Context, error) {
	var fctx copyshield.Context
	if path == "" {
		return fctx, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fctx, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &fctx); err != nil {
		return fctx, fmt.Errorf("parse context %s: %w", path, err)
	}
	return fctx, nil
}

func fingerprintCmd() *cobra.Command {
	var (
		contentType string
		contentID   string
	)
	cmd := &cobra.Command{
		Use:   "fingerprint <file>",
		Short: "Fingerprint a media file and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := copyshield.New()
			if err != nil {
				return err
			}
			defer client.Close()

			fp, err := client.FingerprintFile(cmd.Context(), args[0],
				copyshield.ContentType(contentType), contentID)
			if err != nil {
				return err
			}
			return printJSON(fp)
		},
	}
	cmd.Flags().StringVarP(&contentType, "type", "t", "image", "content type: image, video, audio, text")
	cmd.Flags().StringVar(&contentID, "id", "", "content id (derived from the content digest when empty)")
	return cmd
}

func compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <original.json> <candidate.json>",
		Short: "Compare two fingerprint files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orig, err := loadFingerprint(args[0])
			if err != nil {
				return err
			}
			cand, err := loadFingerprint(args[1])
			if err != nil {
				return err
			}

			client, err := copyshield.New()
			if err != nil {
				return err
			}
			defer client.Close()

			match, err := client.Compare(orig, cand)
			if err != nil {
				return err
			}
			return printJSON(match)
		},
	}
}

func evaluateCmd() *cobra.Command {
	var (
		contextPath  string
		artifactPath string
	)
	cmd := &cobra.Command{
		Use:   "evaluate <original.json> <candidate.json>",
		Short: "Score a fingerprint pair and print the decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orig, err := loadFingerprint(args[0])
			if err != nil {
				return err
			}
			cand, err := loadFingerprint(args[1])
			if err != nil {
				return err
			}
			fctx, err := loadContext(contextPath)
			if err != nil {
				return err
			}

			var opts []copyshield.Option
			if artifactPath != "" {
				opts = append(opts, copyshield.WithArtifactStore(artifactPath))
			}
			client, err := copyshield.New(opts...)
			if err != nil {
				return err
			}
			defer client.Close()

			ev, err := client.Evaluate(orig, cand, fctx)
			if err != nil {
				return err
			}
			return printJSON(ev)
		},
	}
	cmd.Flags().StringVar(&contextPath, "context", "", "JSON file with evaluation context (platform reliability, content age, ...)")
	cmd.Flags().StringVar(&artifactPath, "artifacts", "", "trained model artifact file (rule-based fallback when empty)")
	return cmd
}

func trainCmd() *cobra.Command {
	var (
		outcomesPath string
		artifactPath string
		limit        int
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the scoring ensemble on recorded outcomes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := copyshield.New(
				copyshield.WithOutcomeStore(outcomesPath),
				copyshield.WithArtifactStore(artifactPath),
			)
			if err != nil {
				return err
			}
			defer client.Close()

			report, err := client.Train(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
	cmd.Flags().StringVar(&outcomesPath, "outcomes", "data/outcomes.db", "outcome database path")
	cmd.Flags().StringVar(&artifactPath, "artifacts", "data/scoring.json", "where to persist the trained model")
	cmd.Flags().IntVar(&limit, "limit", 0, "max training samples (0 = all)")
	return cmd
}

func optimizeCmd() *cobra.Command {
	var (
		outcomesPath string
		artifactPath string
		limit        int
	)
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Tune decision thresholds against recorded outcomes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := copyshield.New(
				copyshield.WithOutcomeStore(outcomesPath),
				copyshield.WithArtifactStore(artifactPath),
			)
			if err != nil {
				return err
			}
			defer client.Close()

			thresholds, err := client.OptimizeThresholds(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(thresholds)
		},
	}
	cmd.Flags().StringVar(&outcomesPath, "outcomes", "data/outcomes.db", "outcome database path")
	cmd.Flags().StringVar(&artifactPath, "artifacts", "data/scoring.json", "trained model artifact file")
	cmd.Flags().IntVar(&limit, "limit", 0, "max samples (0 = all)")
	return cmd
}
