package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bravo1goingdark/ucfp"
	"github.com/bravo1goingdark/ucfp/pkg/index"
	"github.com/bravo1goingdark/ucfp/pkg/ingest"
	"github.com/bravo1goingdark/ucfp/pkg/match"
	"github.com/bravo1goingdark/ucfp/pkg/query"
)

var (
	dbPath   string
	tenantID string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "ucfp",
	Short: "CLI for the Universal Content Fingerprinting engine",
	Long:  `A command-line interface for ingesting, indexing and matching content fingerprints.`,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the fingerprint index",
}

var indexPutCmd = &cobra.Command{
	Use:   "put <record-id>",
	Short: "Ingest, fingerprint and upsert one document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recordID := args[0]
		text, _ := cmd.Flags().GetString("text")
		docID, _ := cmd.Flags().GetString("doc-id")
		metadataStr, _ := cmd.Flags().GetString("metadata")
		if text == "" {
			return fmt.Errorf("text is required")
		}

		cfg := ucfp.DefaultConfig()
		idx, err := openIndex()
		if err != nil {
			return err
		}
		defer idx.Close()

		attrs, err := attributesWithTenant(metadataStr, tenantID)
		if err != nil {
			return err
		}

		record, err := ucfp.Ingest(ingest.RawIngestRecord{
			ID:     recordID,
			Source: ingest.Source{Kind: ingest.SourceRawText},
			Metadata: ingest.Metadata{
				TenantID:   tenantID,
				DocID:      docID,
				Attributes: attrs,
			},
			Payload: &ingest.Payload{Kind: ingest.PayloadText, Text: text},
		}, cfg.Ingest)
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}

		doc, err := ucfp.Canonicalize(record.DocID, record.NormalizedPayload.Text, cfg.Canonical)
		if err != nil {
			return fmt.Errorf("canonicalize: %w", err)
		}

		tokenTexts := make([]string, len(doc.Tokens))
		for i, tok := range doc.Tokens {
			tokenTexts[i] = tok.Text
		}
		fp, err := ucfp.PerceptualizeTokens(tokenTexts, cfg.Perceptual)
		if err != nil {
			return fmt.Errorf("perceptualize: %w", err)
		}

		embedder := ucfp.Embedder(cfg.Semantic)
		emb, err := embedder.Embed(context.Background(), doc.DocID, doc.CanonicalText)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}

		if err := idx.Upsert(index.Entry{
			CanonicalHash: doc.SHA256Hex,
			Perceptual:    fp.MinHash,
			Embedding:     index.Quantize(emb.Vector, idx.QuantScale()),
			Metadata:      record.Attributes,
		}); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}

		fmt.Printf("indexed %s (doc_id=%s, canonical_hash=%s)\n", recordID, doc.DocID, doc.SHA256Hex)
		return nil
	},
}

var indexGetCmd = &cobra.Command{
	Use:   "get <canonical-hash>",
	Short: "Fetch one record by canonical hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := openIndex()
		if err != nil {
			return err
		}
		defer idx.Close()

		record, ok, err := idx.Get(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no record for canonical hash %q", args[0])
		}
		out, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

var indexDeleteCmd = &cobra.Command{
	Use:   "delete <canonical-hash>",
	Short: "Delete one record by canonical hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := openIndex()
		if err != nil {
			return err
		}
		defer idx.Close()
		if err := idx.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the index by perceptual or semantic similarity",
}

var searchSemanticCmd = &cobra.Command{
	Use:   "semantic",
	Short: "Cosine search over embeddings",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		topK, _ := cmd.Flags().GetInt("top-k")
		if text == "" {
			return fmt.Errorf("--text is required")
		}

		cfg := ucfp.DefaultConfig()
		idx, err := openIndex()
		if err != nil {
			return err
		}
		defer idx.Close()

		doc, err := ucfp.Canonicalize("query", text, cfg.Canonical)
		if err != nil {
			return err
		}
		embedder := ucfp.Embedder(cfg.Semantic)
		emb, err := embedder.Embed(context.Background(), "query", doc.CanonicalText)
		if err != nil {
			return err
		}
		quantized := index.Quantize(emb.Vector, idx.QuantScale())

		hits, err := query.SemanticSearch(idx, quantized, topK, cfg.Query)
		if err != nil {
			return err
		}
		printHits(hits)
		return nil
	},
}

var searchPerceptualCmd = &cobra.Command{
	Use:   "perceptual",
	Short: "Jaccard search over MinHash signatures",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		topK, _ := cmd.Flags().GetInt("top-k")
		if text == "" {
			return fmt.Errorf("--text is required")
		}

		cfg := ucfp.DefaultConfig()
		idx, err := openIndex()
		if err != nil {
			return err
		}
		defer idx.Close()

		doc, err := ucfp.Canonicalize("query", text, cfg.Canonical)
		if err != nil {
			return err
		}
		tokenTexts := make([]string, len(doc.Tokens))
		for i, tok := range doc.Tokens {
			tokenTexts[i] = tok.Text
		}
		fp, err := ucfp.PerceptualizeTokens(tokenTexts, cfg.Perceptual)
		if err != nil {
			return err
		}

		hits, err := query.PerceptualSearch(idx, fp.MinHash, topK)
		if err != nil {
			return err
		}
		printHits(hits)
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run the full matcher over a query text",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		modeStr, _ := cmd.Flags().GetString("mode")
		maxResults, _ := cmd.Flags().GetInt("max-results")
		oversample, _ := cmd.Flags().GetFloat64("oversample")
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		tenantEnforce, _ := cmd.Flags().GetBool("tenant-enforce")
		if text == "" {
			return fmt.Errorf("--text is required")
		}

		mode, err := parseMode(modeStr)
		if err != nil {
			return err
		}

		cfg := ucfp.DefaultConfig()
		idx, err := openIndex()
		if err != nil {
			return err
		}
		defer idx.Close()

		embedder := ucfp.Embedder(cfg.Semantic)
		m := ucfp.NewMatcher(idx, cfg.Canonical, cfg.Perceptual, embedder, cfg.Query)

		hits, err := m.MatchDocument(context.Background(), match.Request{
			TenantID:  tenantID,
			QueryText: text,
			Config: match.Config{
				Mode:             mode,
				Strategy:         match.Weighted{SemanticWeight: 0.5, MinOverall: minScore},
				MaxResults:       maxResults,
				OversampleFactor: oversample,
				TenantEnforce:    tenantEnforce,
			},
		})
		if err != nil {
			return err
		}

		for _, h := range hits {
			fmt.Printf("%s\tscore=%.4f\tsemantic=%.4f\tperceptual=%.4f\n",
				h.CanonicalHash, h.Score, h.Semantic, h.Perceptual)
		}
		return nil
	},
}

func parseMode(s string) (match.Mode, error) {
	switch strings.ToLower(s) {
	case "semantic":
		return match.ModeSemantic, nil
	case "perceptual":
		return match.ModePerceptual, nil
	case "hybrid", "":
		return match.ModeHybrid, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want semantic|perceptual|hybrid)", s)
	}
}

func printHits(hits []query.Hit) {
	for _, h := range hits {
		fmt.Printf("%s\tscore=%.4f\n", h.CanonicalHash, h.Score)
	}
}

func attributesWithTenant(metadataStr, tenant string) (json.RawMessage, error) {
	attrs := make(map[string]interface{})
	if metadataStr != "" {
		if err := json.Unmarshal([]byte(metadataStr), &attrs); err != nil {
			return nil, fmt.Errorf("invalid metadata JSON: %w", err)
		}
	}
	attrs["tenant"] = tenant
	return json.Marshal(attrs)
}

func openIndex() (*index.Index, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path not specified")
	}
	cfg := index.DefaultConfig()
	cfg.Backend = index.BackendSQLite
	cfg.SQLitePath = dbPath
	return index.Open(cfg)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "ucfp.db", "Index database file path")
	rootCmd.PersistentFlags().StringVarP(&tenantID, "tenant", "t", "default", "Tenant ID")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	indexPutCmd.Flags().String("text", "", "Document text")
	indexPutCmd.Flags().String("doc-id", "", "Caller-supplied document ID")
	indexPutCmd.Flags().String("metadata", "", "Extra metadata as JSON")
	indexCmd.AddCommand(indexPutCmd, indexGetCmd, indexDeleteCmd)

	searchSemanticCmd.Flags().String("text", "", "Query text")
	searchSemanticCmd.Flags().Int("top-k", 10, "Number of results")
	searchPerceptualCmd.Flags().String("text", "", "Query text")
	searchPerceptualCmd.Flags().Int("top-k", 10, "Number of results")
	searchCmd.AddCommand(searchSemanticCmd, searchPerceptualCmd)

	matchCmd.Flags().String("text", "", "Query text")
	matchCmd.Flags().String("mode", "hybrid", "semantic|perceptual|hybrid")
	matchCmd.Flags().Int("max-results", 10, "Maximum results")
	matchCmd.Flags().Float64("oversample", 2.0, "Oversample factor (>= 1.0)")
	matchCmd.Flags().Float64("min-score", 0.0, "Minimum overall score")
	matchCmd.Flags().Bool("tenant-enforce", false, "Filter out results from other tenants")

	rootCmd.AddCommand(indexCmd, searchCmd, matchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
