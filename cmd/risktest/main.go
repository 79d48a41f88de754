// Command risktest exercises the risk classifier against live Gemini (when
// GEMINI_API_KEY is set) and the keyword fallback, printing the verdicts.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/havenmind/counselor-platform/internal/llm"
	"github.com/havenmind/counselor-platform/internal/risk"
	"github.com/havenmind/counselor-platform/pkg/logging"
)

var samples = []struct {
	label        string
	content      string
	analysisType risk.AnalysisType
}{
	{"small talk", "hi", risk.AnalysisGeneral},
	{"homework stress", "my math homework is due tomorrow and I have not started", risk.AnalysisGeneral},
	{"hopelessness", "everything feels hopeless and I can't see a way out", risk.AnalysisGeneral},
	{"active ideation", "I want to kill myself", risk.AnalysisCrisisDetection},
	{"self harm", "I have been cutting myself again lately", risk.AnalysisCrisisDetection},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger := logging.New("info")

	var client llm.Client
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		modelID := os.Getenv("RISK_MODEL_ID")
		if modelID == "" {
			modelID = "gemini-2.5-flash"
		}
		gemini, err := llm.NewGeminiClient(ctx, key, modelID)
		if err != nil {
			log.Fatalf("failed to create Gemini client: %v", err)
		}
		defer gemini.Close()
		client = gemini
		fmt.Printf("Using remote classifier (%s); fallback covers failures.\n\n", modelID)
	} else {
		fmt.Println("GEMINI_API_KEY not set; exercising the keyword fallback only.")
		fmt.Println()
	}

	classifier := risk.NewClassifier(client, 30*time.Second, logger)

	for _, s := range samples {
		start := time.Now()
		v := classifier.Assess(ctx, s.content, "", s.analysisType)
		elapsed := time.Since(start).Round(time.Millisecond)

		fmt.Printf("[%s] %q\n", s.label, s.content)
		fmt.Printf("  level=%s confidence=%.2f source=%s (%v)\n", v.Level, v.Confidence, v.Source, elapsed)
		fmt.Printf("  categories=%v review=%v blocked=%v resources=%v\n",
			v.Categories, v.RequiresHumanReview, v.AutoResponseBlocked, v.CrisisResourcesNeeded)
		if v.Reasoning != "" {
			fmt.Printf("  reasoning: %s\n", v.Reasoning)
		}
		fmt.Println()
	}
}
