// Command promptforge optimizes a prompt from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/promptforge/promptforge"
	"github.com/promptforge/promptforge/config"
	"github.com/promptforge/promptforge/optimizer"
	"github.com/promptforge/promptforge/utils"
)

type cmdFlags struct {
	provider      string
	model         string
	apiKey        string
	targetOverall float64
	budget        float64
	costPerIter   float64
	maxIterations int
	timeout       time.Duration
	evaluate      string
	models        string
	outputJSON    bool
	verbose       bool
}

func parseFlags() *cmdFlags {
	flags := &cmdFlags{}
	flag.StringVar(&flags.provider, "provider", "", "generation provider (openai, anthropic)")
	flag.StringVar(&flags.model, "model", "", "model name or alias")
	flag.StringVar(&flags.apiKey, "api-key", "", "API key for the provider")
	flag.Float64Var(&flags.targetOverall, "target", 0, "overall quality target in (0,1]; enables iterative optimization")
	flag.Float64Var(&flags.budget, "budget", 0, "spending cap in dollars (0 = unlimited)")
	flag.Float64Var(&flags.costPerIter, "cost-per-iteration", 0, "fixed cost per pass (0 = estimate from tokens)")
	flag.IntVar(&flags.maxIterations, "max-iterations", 0, "iteration cap (0 = default)")
	flag.DurationVar(&flags.timeout, "timeout", 0, "overall optimization timeout")
	flag.StringVar(&flags.evaluate, "evaluate", "", "optimized content to evaluate instead of optimizing")
	flag.StringVar(&flags.models, "models", "", "comma-separated models for -evaluate")
	flag.BoolVar(&flags.outputJSON, "json", false, "emit JSON instead of text")
	flag.BoolVar(&flags.verbose, "verbose", false, "debug logging")
	flag.Parse()
	return flags
}

func main() {
	flags := parseFlags()

	prompt := strings.Join(flag.Args(), " ")
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: promptforge [flags] <prompt text>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if flags.provider != "" {
		cfg.Provider = flags.provider
	}
	if flags.model != "" {
		cfg.Model = flags.model
	}
	if flags.apiKey != "" {
		cfg.APIKeys[cfg.Provider] = flags.apiKey
	}
	if flags.timeout > 0 {
		cfg.OptimizationTimeout = flags.timeout
	}
	if flags.verbose {
		cfg.LogLevel = utils.LogLevelDebug
	}

	forge, err := promptforge.New(cfg, promptforge.WithCostEstimation())
	if err != nil {
		fatal("%v", err)
	}

	ctx := context.Background()

	if flags.evaluate != "" {
		models := strings.Split(flags.models, ",")
		if flags.models == "" {
			models = []string{cfg.Model}
		}
		report, err := forge.EvaluateWithModels(ctx, prompt, flags.evaluate, models)
		if err != nil {
			fatal("evaluation failed: %v", err)
		}
		emit(report, flags.outputJSON)
		return
	}

	optCfg := promptforge.OptimizationConfig{
		Budget:           flags.budget,
		CostPerIteration: flags.costPerIter,
		MaxIterations:    flags.maxIterations,
	}
	if flags.targetOverall > 0 {
		optCfg.Targets = &promptforge.OptimizationTargets{Overall: &flags.targetOverall}
	}

	result, err := forge.Optimize(ctx, prompt, optCfg)
	if err != nil {
		fatal("optimization failed: %v", err)
	}
	emit(result, flags.outputJSON)

	if !flags.outputJSON {
		fmt.Println("\n--- optimized prompt ---")
		fmt.Println(result.OptimizedContent)
	}
}

func emit(v any, asJSON bool) {
	if asJSON {
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fatal("failed to encode output: %v", err)
		}
		fmt.Println(string(out))
		return
	}
	switch r := v.(type) {
	case *promptforge.OptimizationResult:
		fmt.Printf("confidence: %.2f\n", r.Confidence)
		fmt.Println(r.Explanation)
	case *optimizer.EvaluationReport:
		for model, eval := range r.PerModel {
			if eval.Err != "" {
				fmt.Printf("%s: error: %s\n", model, eval.Err)
				continue
			}
			fmt.Printf("%s: hallucination %.2f, structure %.2f, consistency %.2f (%d samples)\n",
				model, eval.Metrics.HallucinationRate, eval.Metrics.StructureScore,
				eval.Metrics.ConsistencyScore, eval.Metrics.TotalSamples)
		}
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
