// Command selfmem runs the tiered memory engine as an interactive shell.
//
// Commands inside the shell:
//
//	:forget last | :forget all | :forget <keyword>
//	:show stm | :show ltm
//	:exit
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/digitalselfhq/selfmem/agent"
	"github.com/digitalselfhq/selfmem/config"
	"github.com/digitalselfhq/selfmem/memory"
	"github.com/digitalselfhq/selfmem/memory/embedder/cached"
	"github.com/digitalselfhq/selfmem/memory/embedder/mock"
	"github.com/digitalselfhq/selfmem/memory/embedder/openai"
	"github.com/digitalselfhq/selfmem/memory/index/chromem"
	"github.com/digitalselfhq/selfmem/profile"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	dimStyle       = lipgloss.NewStyle().Faint(true)
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	userID := flag.String("user", cfg.UserID, "user id")
	mode := flag.String("mode", cfg.Mode, "memory mode: no_memory | stm | stm_ltm")
	dataDir := flag.String("data", cfg.DataDir, "data directory")
	flag.Parse()

	settings, err := config.Settings(*mode)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	profilePath := profile.Path(*dataDir, *userID)
	p, err := profile.LoadOrCreate(profilePath, *userID)
	if err != nil {
		log.Fatal(err)
	}

	embedder := buildEmbedder(cfg)
	defer embedder.Close()

	shortTerm := memory.NewShortTermBuffer(settings.ShortTermMaxItems, settings.ShortTermTTL)

	opts := []agent.Option{
		agent.WithTopK(cfg.TopK),
		agent.WithRequestTimeout(cfg.RequestTimeout),
	}
	if settings.LongTermEnabled {
		idx, err := chromem.NewPersistent(filepath.Join(*dataDir, "chroma"), embedder.Dimensions())
		if err != nil {
			log.Fatal(err)
		}
		defer idx.Close()
		opts = append(opts, agent.WithLongTerm(memory.NewLongTermStore(idx, cfg.EmbeddingModel)))
	}

	a := agent.New(p, profilePath, shortTerm, embedder, buildGenerator(cfg), opts...)

	fmt.Println(titleStyle.Render("Digital Self Engine") + dimStyle.Render(fmt.Sprintf(" | user_id=%s | memory_mode=%s", *userID, *mode)))
	fmt.Println(dimStyle.Render("Commands: :forget last | :forget all | :forget <keyword> | :show stm | :show ltm | :exit"))
	fmt.Println()

	repl(a)

	fmt.Println(okStyle.Render("Session ended. Session memory cleared by design."))
}

func buildEmbedder(cfg config.Config) *cached.Embedder {
	var inner memory.Embedder
	if cfg.OpenAIAPIKey != "" {
		e, err := openai.New(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDim,
		})
		if err != nil {
			log.Fatal(err)
		}
		inner = e
	} else {
		log.Println("[SELFMEM] OPENAI_API_KEY not set; using deterministic local embedder")
		inner = mock.New(cfg.EmbeddingDim)
	}

	e, err := cached.New(inner, int64(cfg.EmbeddingCacheSize))
	if err != nil {
		log.Fatal(err)
	}
	return e
}

func buildGenerator(cfg config.Config) agent.Generator {
	if cfg.AnthropicAPIKey == "" {
		log.Println("[SELFMEM] ANTHROPIC_API_KEY not set; using stub generator")
		return agent.StubGenerator{}
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))
	return agent.NewAnthropicGenerator(&client, cfg.GeneratorModel, int64(cfg.GeneratorMaxTokens))
}

func repl(a *agent.Agent) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ":exit" {
			return
		}
		if strings.HasPrefix(line, ":") {
			runCommand(ctx, a, line)
			continue
		}

		res, err := a.HandleTurn(ctx, line)
		if err != nil {
			fmt.Println(warnStyle.Render("turn failed: " + err.Error()))
			continue
		}

		fmt.Println()
		fmt.Println(assistantStyle.Render("Assistant"))
		fmt.Println(res.Reply)
		fmt.Println()
		fmt.Println(dimStyle.Render("Retrieval log"))
		fmt.Println(dimStyle.Render(asJSON(res.RetrievalLog)))
		fmt.Println(dimStyle.Render("Personalization"))
		fmt.Println(dimStyle.Render(asJSON(res.Personalization)))
		fmt.Println()
	}
}

func runCommand(ctx context.Context, a *agent.Agent, line string) {
	fields := strings.Fields(line)

	switch fields[0] {
	case ":forget":
		if len(fields) < 2 {
			fmt.Println(warnStyle.Render("Usage: :forget last | :forget all | :forget <keyword>"))
			return
		}
		switch strings.ToLower(fields[1]) {
		case "last":
			if a.ForgetLast() {
				fmt.Println(okStyle.Render("Deleted last short-term item."))
			} else {
				fmt.Println(warnStyle.Render("No short-term items to delete."))
			}
		case "all":
			n, err := a.ForgetAll(ctx)
			if err != nil {
				fmt.Println(warnStyle.Render("forget all failed: " + err.Error()))
				return
			}
			if a.LongTermEnabled() {
				fmt.Println(okStyle.Render(fmt.Sprintf("Cleared STM and wiped %d long-term memories.", n)))
			} else {
				fmt.Println(okStyle.Render("Cleared STM."))
			}
		default:
			keyword := strings.TrimSpace(strings.TrimPrefix(line, ":forget"))
			stmDeleted, ltmDeleted, err := a.ForgetKeyword(ctx, keyword)
			if err != nil {
				fmt.Println(warnStyle.Render("forget failed: " + err.Error()))
				return
			}
			fmt.Println(okStyle.Render(fmt.Sprintf("Deleted STM=%d, LTM=%d items matching %q.", stmDeleted, ltmDeleted, keyword)))
		}

	case ":show":
		if len(fields) < 2 {
			fmt.Println(warnStyle.Render("Usage: :show stm | :show ltm"))
			return
		}
		switch strings.ToLower(fields[1]) {
		case "stm":
			items := a.ShowShortTerm()
			fmt.Println(titleStyle.Render(fmt.Sprintf("STM items (%d):", len(items))))
			for i, it := range items {
				if i >= 10 {
					break
				}
				fmt.Printf("%d. %s\n", i+1, memory.Truncate(it.Summary, 140))
			}
		case "ltm":
			if !a.LongTermEnabled() {
				fmt.Println(warnStyle.Render("LTM disabled in this memory mode."))
				return
			}
			records, err := a.ShowLongTerm(ctx)
			if err != nil {
				fmt.Println(warnStyle.Render("show ltm failed: " + err.Error()))
				return
			}
			fmt.Println(titleStyle.Render(fmt.Sprintf("LTM items (%d):", len(records))))
			for i, rec := range records {
				if i >= 10 {
					break
				}
				fmt.Printf("%d. %s | %s | sensitive=%t\n", i+1, rec.ID, memory.Truncate(rec.Text, 140), rec.IsSensitive)
			}
		default:
			fmt.Println(warnStyle.Render("Unknown show target."))
		}

	default:
		fmt.Println(warnStyle.Render("Unknown command."))
	}
}

func asJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
